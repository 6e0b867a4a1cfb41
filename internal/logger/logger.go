package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// Environment variable to configure log file path. The value "stderr" logs
// to standard error instead of a file.
const envLogPath = "REFGATE_LOG"

var (
	std           *log.Logger
	logFile       *os.File
	isInitialized bool
)

// InitFromEnv initializes the logger using REFGATE_LOG or a default path
// next to the executable.
func InitFromEnv() error {
	path := os.Getenv(envLogPath)
	if path == "" {
		if exePath, err := os.Executable(); err == nil {
			path = filepath.Join(filepath.Dir(exePath), "refgate.log")
		} else {
			path = "./refgate.log"
		}
	}
	return Init(path)
}

// Init initializes the logger to write to the provided file path, creating
// parent directories if needed and opening the file in append mode.
func Init(path string) error {
	if isInitialized {
		return nil
	}
	if path == "stderr" {
		return InitWriter(os.Stderr)
	}
	if err := ensureParentDir(path); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	logFile = f
	std = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds)
	isInitialized = true
	return nil
}

// InitWriter initializes the logger against an arbitrary writer. Used for
// stderr logging and by tests.
func InitWriter(w io.Writer) error {
	if isInitialized {
		return nil
	}
	std = log.New(w, "", log.Ldate|log.Ltime|log.Lmicroseconds)
	isInitialized = true
	return nil
}

// Close closes the underlying log file, if open.
func Close() error {
	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		return err
	}
	return nil
}

// Infof logs informational messages.
func Infof(format string, args ...any) { write("INFO", format, args...) }

// Warnf logs warnings.
func Warnf(format string, args ...any) { write("WARN", format, args...) }

// Errorf logs errors.
func Errorf(format string, args ...any) { write("ERROR", format, args...) }

func write(level string, format string, args ...any) {
	if std == nil {
		// Fallback: initialize with default if not already.
		_ = InitFromEnv()
	}
	if std != nil {
		std.Printf("[%s] %s", level, fmt.Sprintf(format, args...))
	}
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
