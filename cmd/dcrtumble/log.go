// Copyright (c) 2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// logRotator is one of the logging outputs. It should be closed on
// application shutdown.
var logRotator *rotator.Rotator

// logWriter implements an io.Writer that outputs to both standard output
// and a rotating log file.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	logRotator.Write(p)
	return len(p), nil
}

// backendLog is the logging backend used to create all subsystem loggers.
var backendLog = slog.NewBackend(logWriter{})

// log is the top-level logger used directly by main.go; the
// puzzle-solver core packages (solver, puzzle, puzzleset, commitment) never
// log and accept no logger of their own.
var log = backendLog.Logger("DCTB")

// subsystemLoggers maps each subsystem identifier to its logger, for
// -debuglevel's subsystem=level syntax.
var subsystemLoggers = map[string]slog.Logger{
	"DCTB": log,
}

// initLogRotator initializes the logging rotator to write logs to logFile
// and create roll files in the same directory. It must be called before
// the package-level log rotator variables are used.
func initLogRotator(logFile string) {
	logDir, _ := filepath.Split(logFile)
	err := os.MkdirAll(logDir, 0700)
	if err != nil {
		os.Stderr.WriteString("failed to create log directory: " + err.Error() + "\n")
		os.Exit(1)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		os.Stderr.WriteString("failed to create file rotator: " + err.Error() + "\n")
		os.Exit(1)
	}
	logRotator = r
}

// setLogLevel sets the logging level for provided subsystem. Subsystems
// not present in subsystemLoggers are ignored.
func setLogLevel(subsystemID string, logLevel string) {
	logger, ok := subsystemLoggers[subsystemID]
	if !ok {
		return
	}
	level, _ := slog.LevelFromString(logLevel)
	logger.SetLevel(level)
}

// setLogLevels sets the log level for all subsystem loggers to the passed
// level.
func setLogLevels(logLevel string) {
	for subsystemID := range subsystemLoggers {
		setLogLevel(subsystemID, logLevel)
	}
}
