// Global database config.
package config

// Name of the database.
const DBName = "stegodb"

// Prompt printed by REPL.
const Prompt = DBName + "> "

// The number of frames in each buffer pool.
const MaxPagesInBuffer = 32

// The K constant used by the LRU-K replacement policy.
const ReplacerK = 2

// Name of log file.
const LogFileName = "db.log"

// Return prompt if requested, else "".
func GetPrompt(flag bool) string {
	if flag {
		return Prompt
	}
	return ""
}
