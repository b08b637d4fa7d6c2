package utils

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

var (
	InfoLogger  = log.New(os.Stderr, "INFO: ", log.Ldate|log.Ltime)
	ErrorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime)
	DebugLogger = log.New(os.Stderr, "DEBUG: ", log.Ldate|log.Ltime)
)

// InitLoggers redirects the loggers to info.log, error.log and debug.log under dir.
// Until it is called everything goes to stderr.
func InitLoggers(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	infoFile, err := openLogFile(dir, "info.log")
	if err != nil {
		return err
	}
	errorFile, err := openLogFile(dir, "error.log")
	if err != nil {
		return err
	}
	debugFile, err := openLogFile(dir, "debug.log")
	if err != nil {
		return err
	}

	InfoLogger = log.New(infoFile, "INFO: ", log.Ldate|log.Ltime)
	ErrorLogger = log.New(errorFile, "ERROR: ", log.Ldate|log.Ltime)
	DebugLogger = log.New(debugFile, "DEBUG: ", log.Ldate|log.Ltime)
	return nil
}

func openLogFile(dir, name string) (*os.File, error) {
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return f, nil
}

// LogInfo logs to the info log, prefixed with the caller position.
func LogInfo(format string, v ...interface{}) {
	logAt(InfoLogger, 2, format, v...)
}

func LogError(format string, v ...interface{}) {
	logAt(ErrorLogger, 2, format, v...)
}

func LogDebug(format string, v ...interface{}) {
	logAt(DebugLogger, 2, format, v...)
}

// LogOperation logs the outcome and duration of an operation, attributed to its caller.
func LogOperation(operation string, startTime time.Time, err error) {
	duration := time.Since(startTime)
	if err != nil {
		logAt(ErrorLogger, 2, "Operation %s failed after %v: %v", operation, duration, err)
	} else {
		logAt(DebugLogger, 2, "Operation %s completed in %v", operation, duration)
	}
}

// logAt prefixes the message with the file and line depth frames above it.
func logAt(logger *log.Logger, depth int, format string, v ...interface{}) {
	_, file, line, _ := runtime.Caller(depth)
	logger.Printf("%s:%d - %s", filepath.Base(file), line, fmt.Sprintf(format, v...))
}
