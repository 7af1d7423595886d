// Package diag wires the toolchain's structured logging: a
// color-coded human handler on stderr, fanned via slog-multi into an
// optional JSON file handler for CI/tooling consumption.
//
// Grounded on the use of fatih/color for CLI output
// (cmd/cpu/exec.go's colorizeInstruction) generalized from coloring
// disassembly text to coloring log level labels, and on the
// samber/slog-multi dependency go.mod already declares but never
// imports — this finally gives it a caller: one handler per sink,
// fanned out with slogmulti.Fanout.
package diag

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	slogmulti "github.com/samber/slog-multi"
)

// Config controls where diagnostics go.
type Config struct {
	// Level is the minimum level logged to stderr.
	Level slog.Level
	// JSONFile, if non-nil, receives every record as JSON regardless
	// of Level (useful for post-hoc analysis of a verbose run).
	JSONFile io.Writer
}

// New builds the nucleus's logger per cfg.
func New(cfg Config) *slog.Logger {
	handlers := []slog.Handler{newHumanHandler(os.Stderr, cfg.Level)}
	if cfg.JSONFile != nil {
		handlers = append(handlers, slog.NewJSONHandler(cfg.JSONFile, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slogmulti.Fanout(handlers...))
}

var (
	debugColor = color.New(color.FgHiBlack)
	infoColor  = color.New(color.FgCyan)
	warnColor  = color.New(color.FgYellow)
	errColor   = color.New(color.FgRed, color.Bold)
)

// humanHandler renders one colored line per record: "LEVEL message key=value ...".
type humanHandler struct {
	w     io.Writer
	level slog.Level
	attrs []slog.Attr
}

func newHumanHandler(w io.Writer, level slog.Level) *humanHandler {
	return &humanHandler{w: w, level: level}
}

func (h *humanHandler) Enabled(_ context.Context, level slog.Level) bool { return level >= h.level }

func (h *humanHandler) Handle(_ context.Context, r slog.Record) error {
	label := levelColor(r.Level).Sprint(r.Level.String())
	line := label + " " + r.Message
	for _, a := range h.attrs {
		line += " " + a.Key + "=" + a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		line += " " + a.Key + "=" + a.Value.String()
		return true
	})
	_, err := io.WriteString(h.w, line+"\n")
	return err
}

func (h *humanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &humanHandler{w: h.w, level: h.level}
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return next
}

func (h *humanHandler) WithGroup(_ string) slog.Handler { return h }

func levelColor(l slog.Level) *color.Color {
	switch {
	case l >= slog.LevelError:
		return errColor
	case l >= slog.LevelWarn:
		return warnColor
	case l >= slog.LevelInfo:
		return infoColor
	default:
		return debugColor
	}
}
