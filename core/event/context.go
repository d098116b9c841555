package event

import (
	"context"
	"time"
)

// Metadata describes the dispatch a handler runs in.
type Metadata struct {
	ID        string
	Name      string
	CreatedAt time.Time
	StartedAt time.Time
}

type metadataKey struct{}

// WithMetadata stores m in ctx. Dispatch keeps a preset ID and CreatedAt and
// fills in the rest.
func WithMetadata(ctx context.Context, m Metadata) context.Context {
	return context.WithValue(ctx, metadataKey{}, m)
}

// MetadataFrom returns the dispatch metadata stored in ctx.
func MetadataFrom(ctx context.Context) (Metadata, bool) {
	m, ok := ctx.Value(metadataKey{}).(Metadata)
	return m, ok
}

// EventID is shorthand for the ID in ctx metadata, or "".
func EventID(ctx context.Context) string {
	m, _ := MetadataFrom(ctx)
	return m.ID
}

// EventName is shorthand for the name in ctx metadata, or "".
func EventName(ctx context.Context) string {
	m, _ := MetadataFrom(ctx)
	return m.Name
}

// EventTime is shorthand for the creation time in ctx metadata.
func EventTime(ctx context.Context) time.Time {
	m, _ := MetadataFrom(ctx)
	return m.CreatedAt
}

// StartProcessingTime is shorthand for the time handlers started on the event.
func StartProcessingTime(ctx context.Context) time.Time {
	m, _ := MetadataFrom(ctx)
	return m.StartedAt
}

// dispatchContext completes the metadata for one dispatch of name.
func dispatchContext(ctx context.Context, name string, now time.Time, newID func() string) context.Context {
	m, _ := MetadataFrom(ctx)
	if m.ID == "" {
		m.ID = newID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.Name = name
	m.StartedAt = now
	return WithMetadata(ctx, m)
}
