package cliutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type LogOptions struct {
	// "debug", "info", "warn", or "error"
	LogLevel string
	// "text" or "json"
	LogFormat string
	// file to append logs to; stdout if "" or "-"
	LogPath string
	// defaults to stdout; overrides LogPath
	Out io.Writer
}

func firstenv(envVarNames ...string) string {
	for _, envVarName := range envVarNames {
		if val := os.Getenv(envVarName); val != "" {
			return val
		}
	}
	return ""
}

func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %#v", level)
	}
}

// SetupSlog builds a logger from the passed in options and env vars, and installs it as the slog default.
//
// passing default cliutil.LogOptions{} is ok.
//
// VKMOD_LOG_LEVEL=info|debug|warn|error
//
// VKMOD_LOG_FMT=text|json
//
// VKMOD_LOG_FILE=path (or "-" or "" for stdout)
func SetupSlog(options LogOptions) (*slog.Logger, error) {
	if options.LogLevel == "" {
		options.LogLevel = firstenv("VKMOD_LOG_LEVEL", "LOG_LEVEL")
	}
	level, err := ParseLevel(options.LogLevel)
	if err != nil {
		return nil, err
	}
	hopts := slog.HandlerOptions{Level: level}

	if options.LogFormat == "" {
		options.LogFormat = firstenv("VKMOD_LOG_FMT", "LOG_FMT")
	}
	format := strings.ToLower(options.LogFormat)
	if format == "" {
		format = "text"
	}

	out := options.Out
	if out == nil {
		if options.LogPath == "" {
			options.LogPath = firstenv("VKMOD_LOG_FILE")
		}
		if options.LogPath == "" || options.LogPath == "-" {
			out = os.Stdout
		} else {
			f, err := os.OpenFile(options.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return nil, fmt.Errorf("opening log file: %w", err)
			}
			out = f
		}
	}

	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(out, &hopts)
	case "json":
		handler = slog.NewJSONHandler(out, &hopts)
	default:
		return nil, fmt.Errorf("invalid log format: %#v", options.LogFormat)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}
