// Package trace tags each interpreter command with an ID carried in its
// context, so every log line written while the command runs can be grouped.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// ContextKey type for context keys
type ContextKey string

const (
	// CommandIDKey is the context key for the command ID
	CommandIDKey ContextKey = "command_id"

	// FieldCommandID is the log attribute added by Handler.
	FieldCommandID = "command_id"
)

// Metrics tracks command metrics
type Metrics struct {
	TotalCommands   int64
	AverageDuration int64 // in microseconds
}

// Tracer assigns command IDs and keeps running command metrics.
type Tracer struct {
	total       atomic.Int64
	totalMicros atomic.Int64
}

func NewTracer() *Tracer {
	return &Tracer{}
}

// Start returns a context carrying a fresh command ID and a function that
// ends the command and reports how long it took.
func (t *Tracer) Start(ctx context.Context) (context.Context, func() time.Duration) {
	start := time.Now()
	ctx = WithCommandID(ctx, GenerateCommandID())

	return ctx, func() time.Duration {
		d := time.Since(start)
		t.total.Add(1)
		t.totalMicros.Add(d.Microseconds())
		return d
	}
}

// Metrics returns current metrics
func (t *Tracer) Metrics() Metrics {
	total := t.total.Load()
	m := Metrics{TotalCommands: total}
	if total > 0 {
		m.AverageDuration = t.totalMicros.Load() / total
	}
	return m
}

// GenerateCommandID creates a unique command ID for tracing
func GenerateCommandID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("cmd_%d", time.Now().UnixNano())
	}
	return "cmd_" + hex.EncodeToString(bytes)
}

func WithCommandID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CommandIDKey, id)
}

// GetCommandID extracts the command ID from context
func GetCommandID(ctx context.Context) string {
	if id, ok := ctx.Value(CommandIDKey).(string); ok {
		return id
	}
	return ""
}

// Handler adds the command ID found in the record's context to every record.
type Handler struct {
	slog.Handler
}

func NewHandler(h slog.Handler) *Handler {
	return &Handler{Handler: h}
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetCommandID(ctx); id != "" {
		r.AddAttrs(slog.String(FieldCommandID, id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{Handler: h.Handler.WithGroup(name)}
}
