// Package common holds the logger setup and build metadata shared by all
// commands.
package common

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LoggingOpts configures the process-wide logger.
type LoggingOpts struct {
	// Debug enables debug-level messages.
	Debug bool

	// JSON switches the handler to JSON output.
	JSON bool

	// Service is added as a 'service' attribute to every record.
	Service string

	// Version is added as a 'version' attribute to every record.
	Version string

	// LogFile, if set, additionally appends every record to a size-capped
	// local log file. File logging is best-effort: a writer failure degrades
	// to stderr-only output and is never fatal.
	LogFile string
}

// SetupLogger creates the process logger. Output always goes to stderr;
// when opts.LogFile is set it is duplicated into the log file as well.
func SetupLogger(opts *LoggingOpts) (log *slog.Logger) {
	logLevel := slog.LevelInfo
	if opts.Debug {
		logLevel = slog.LevelDebug
	}

	var out io.Writer = os.Stderr
	if opts.LogFile != "" {
		fileSink := &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
		}
		out = io.MultiWriter(os.Stderr, &bestEffortWriter{w: fileSink})
	}

	if opts.JSON {
		log = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: logLevel}))
	} else {
		log = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: logLevel}))
	}

	if opts.Service != "" {
		log = log.With("service", opts.Service)
	}
	if opts.Version != "" {
		log = log.With("version", opts.Version)
	}

	return log
}

// bestEffortWriter swallows write errors so a broken log file cannot take
// down logging (or the process). The first failure is reported once.
type bestEffortWriter struct {
	w      io.Writer
	warnTo io.Writer // receives the one-time failure notice, nil means stderr
	once   sync.Once
}

func (b *bestEffortWriter) Write(p []byte) (int, error) {
	if _, err := b.w.Write(p); err != nil {
		b.once.Do(func() {
			out := b.warnTo
			if out == nil {
				out = os.Stderr
			}
			fmt.Fprintf(out, "log file write failed, continuing with stderr only: %v\n", err)
		})
	}
	return len(p), nil
}
