package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
)

type LogConfig struct {
	Level  slog.Level
	Format string
	Color  bool
}

func levelFromString(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn", "warning":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	case "crit":
		return log.LevelCrit, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", s)
	}
}

func ReadLogConfig(cliCtx *cli.Context) (LogConfig, error) {
	level, err := levelFromString(cliCtx.String(LogLevelFlagName))
	if err != nil {
		return LogConfig{}, err
	}
	cfg := LogConfig{
		Level:  level,
		Format: strings.ToLower(cliCtx.String(LogFormatFlagName)),
		Color:  isatty.IsTerminal(os.Stderr.Fd()),
	}
	if cliCtx.IsSet(LogColorFlagName) {
		cfg.Color = cliCtx.Bool(LogColorFlagName)
	}
	return cfg, cfg.Check()
}

func (c LogConfig) Check() error {
	switch c.Format {
	case "text", "terminal", "logfmt", "json":
		return nil
	default:
		return fmt.Errorf("unknown log format: %s", c.Format)
	}
}

func (c LogConfig) Handler(w io.Writer) slog.Handler {
	switch c.Format {
	case "logfmt":
		return log.LogfmtHandlerWithLevel(w, c.Level)
	case "json":
		return log.JSONHandlerWithLevel(w, c.Level)
	default:
		return log.NewTerminalHandlerWithLevel(w, c.Level, c.Color)
	}
}

// NewLogger builds the logger for stderr and installs it as the default.
func NewLogger(cliCtx *cli.Context) (log.Logger, error) {
	cfg, err := ReadLogConfig(cliCtx)
	if err != nil {
		return nil, err
	}
	l := log.NewLogger(cfg.Handler(cliCtx.App.ErrWriter))
	log.SetDefault(l)
	return l, nil
}
