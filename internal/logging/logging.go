// Package logging sets up the advisor's structured logger: a stderr
// text handler, optionally fanned out to a Seq ingestion endpoint.
package logging

import (
	"context"
	"log/slog"
	"os"
	"time"

	slogseq "github.com/sokkalf/slog-seq"

	"github.com/idxadvisor/idxadvisor/internal/config"
)

// multiHandler forwards log records to multiple handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// parseLevel maps a config level name onto a slog level. Unknown names
// fall back to info.
func parseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds the logger from config and returns it with a cleanup
// function flushing any remote handler.
func Setup(cfg config.Logging) (*slog.Logger, func()) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	consoleHandler := slog.NewTextHandler(os.Stderr, opts)

	if cfg.SeqURL == "" {
		return slog.New(consoleHandler), func() {}
	}

	seqOpts := []slogseq.SeqOption{
		slogseq.WithBatchSize(10),
		slogseq.WithFlushInterval(1 * time.Second),
		slogseq.WithHandlerOptions(opts),
	}
	if cfg.SeqAPIKey != "" {
		seqOpts = append(seqOpts, slogseq.WithAPIKey(cfg.SeqAPIKey))
	}
	_, seqHandler := slogseq.NewLogger(cfg.SeqURL, seqOpts...)
	if seqHandler == nil {
		return slog.New(consoleHandler), func() {}
	}

	multi := &multiHandler{handlers: []slog.Handler{consoleHandler, seqHandler}}
	return slog.New(multi), func() { seqHandler.Close() }
}
