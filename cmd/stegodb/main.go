package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"stegodb/pkg/config"
	"stegodb/pkg/database"
	"stegodb/pkg/recovery"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// setupCloseHandler listens for SIGINT or SIGTERM and closes the database.
func setupCloseHandler(db *database.Database, lm *recovery.LogManager, logger *zap.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		logger.Info("shutting down")
		db.Close()
		lm.Close()
		os.Exit(0)
	}()
}

// Start the database.
func main() {
	var promptFlag = flag.Bool("c", true, "use prompt?")
	var dataFlag = flag.String("data", "data", "data folder")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Restore from the latest checkpoint snapshot if one exists.
	db, err := recovery.Prime(*dataFlag)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	logFilename := filepath.Join(db.GetBasePath(), config.LogFileName)
	if err = db.CreateLogFile(logFilename); err != nil {
		logger.Fatal("failed to create log file", zap.Error(err))
	}
	lm, err := recovery.NewLogManager(logFilename)
	if err != nil {
		logger.Fatal("failed to open log manager", zap.Error(err))
	}
	logger.Info("database ready",
		zap.String("data", db.GetBasePath()),
		zap.Int64("last_lsn", lm.LastLSN()))

	defer db.Close()
	defer lm.Close()
	setupCloseHandler(db, lm, logger)

	r := recovery.LoggedRepl(db, lm)
	r.Run(uuid.New(), config.GetPrompt(*promptFlag), os.Stdin, os.Stdout)
}
