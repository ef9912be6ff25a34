// Package repl implements a small line-oriented command loop with pluggable
// commands and help strings.
package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"stegodb/pkg/config"

	"github.com/google/uuid"
)

// ReplCommand runs one command; it receives the whole input line.
type ReplCommand func(string, *REPLConfig) (output string, err error)

const (
	// Trigger for the help meta-command that prints out all help strings
	TriggerHelpMetacommand = ".help"

	// String that should be prepended to any error before being sent to the output writer
	ErrorPrependStr = "ERROR: "
)

var (
	// Error for when combined REPLs share a trigger
	ErrOverlappingCommands = errors.New("found overlapping commands")

	// Error for when a sent trigger is not associated with any known commands
	ErrCommandNotFound = errors.New("command not found")
)

// REPL struct.
type REPL struct {
	commands map[string]ReplCommand
	help     map[string]string
}

// REPLConfig carries per-client context into commands.
type REPLConfig struct {
	clientId uuid.UUID
}

// GetAddr returns the client id of the session this config belongs to.
func (replConfig *REPLConfig) GetAddr() uuid.UUID {
	return replConfig.clientId
}

// NewRepl constructs an empty REPL.
func NewRepl() *REPL {
	return &REPL{
		commands: make(map[string]ReplCommand),
		help:     make(map[string]string),
	}
}

// CombineRepls combines a slice of REPLs into one.
// Errors if the REPLs being combined have any overlapping command triggers.
func CombineRepls(repls []*REPL) (*REPL, error) {
	combined := NewRepl()
	for _, r := range repls {
		for trigger, command := range r.commands {
			if _, exists := combined.commands[trigger]; exists {
				return nil, ErrOverlappingCommands
			}
			combined.AddCommand(trigger, command, r.help[trigger])
		}
	}
	return combined, nil
}

// GetCommands returns the REPL's commands.
func (r *REPL) GetCommands() map[string]ReplCommand {
	return r.commands
}

// GetHelp returns the REPL's help strings.
func (r *REPL) GetHelp() map[string]string {
	return r.help
}

// AddCommand registers a command and its help string under the given trigger,
// overwriting any previous command with the same trigger.
func (r *REPL) AddCommand(trigger string, action ReplCommand, help string) {
	if trigger == TriggerHelpMetacommand {
		return
	}
	r.commands[trigger] = action
	r.help[trigger] = help
}

// HelpString returns all REPL commands' help strings as one string.
func (r *REPL) HelpString() string {
	var sb strings.Builder
	for k, v := range r.help {
		sb.WriteString(fmt.Sprintf("%s: %s\n", k, v))
	}
	return sb.String()
}

// Run writes the welcome string and then runs the REPL loop until input runs
// out. Input and output default to Stdin and Stdout if not specified.
func (r *REPL) Run(clientId uuid.UUID, prompt string, input io.Reader, output io.Writer) {
	if input == nil {
		input = os.Stdin
	}
	if output == nil {
		output = os.Stdout
	}
	scanner := bufio.NewScanner(input)
	replConfig := &REPLConfig{clientId: clientId}
	fmt.Fprintf(output, "Welcome to the %s REPL! Please type '.help' to see the list of available commands.\n", config.DBName)
	io.WriteString(output, prompt)

	for scanner.Scan() {
		payload := scanner.Text()
		fields := strings.Fields(payload)
		if len(fields) == 0 {
			io.WriteString(output, prompt)
			continue
		}
		trigger := fields[0]

		// Check for the help meta-command.
		if trigger == TriggerHelpMetacommand {
			io.WriteString(output, r.HelpString())
			io.WriteString(output, prompt)
			continue
		}

		// Else, check user-specified commands.
		if command, exists := r.commands[trigger]; exists {
			result, err := command(payload, replConfig)
			if err != nil {
				fmt.Fprintf(output, "%s%s\n", ErrorPrependStr, err)
			} else {
				if len(result) != 0 && !strings.HasSuffix(result, "\n") {
					result = result + "\n"
				}
				io.WriteString(output, result)
			}
		} else {
			fmt.Fprintf(output, "%s%s\n", ErrorPrependStr, ErrCommandNotFound)
		}
		io.WriteString(output, prompt)
	}
	// Print an additional line if we encountered an EOF character.
	io.WriteString(output, "\n")
}

// RunChan runs the REPL loop over a channel of input lines, writing results
// to stdout. Useful for driving the database programmatically.
func (r *REPL) RunChan(c chan string, clientId uuid.UUID, prompt string) {
	writer := os.Stdout
	replConfig := &REPLConfig{clientId: clientId}
	io.WriteString(writer, prompt)
	for payload := range c {
		fields := strings.Fields(payload)
		if len(fields) == 0 {
			io.WriteString(writer, prompt)
			continue
		}
		trigger := fields[0]
		if trigger == TriggerHelpMetacommand {
			io.WriteString(writer, r.HelpString())
			io.WriteString(writer, prompt)
			continue
		}
		if command, exists := r.commands[trigger]; exists {
			result, err := command(payload, replConfig)
			if err != nil {
				fmt.Fprintf(writer, "%s%s\n", ErrorPrependStr, err)
			} else if len(result) != 0 {
				io.WriteString(writer, result)
			}
		} else {
			fmt.Fprintf(writer, "%s%s\n", ErrorPrependStr, ErrCommandNotFound)
		}
		io.WriteString(writer, prompt)
	}
	io.WriteString(writer, "\n")
}
