package command

import "context"

type commandIDCtx struct{}

// WithCommandID attaches a command ID to the context for correlation.
// Dispatch generates one when the context has none.
func WithCommandID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, commandIDCtx{}, id)
}

// CommandID extracts the command ID from the context.
// Returns empty string if not present.
func CommandID(ctx context.Context) string {
	id, _ := ctx.Value(commandIDCtx{}).(string)
	return id
}

type commandNameCtx struct{}

// WithCommandName attaches a command name to the context.
func WithCommandName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, commandNameCtx{}, name)
}

// CommandName extracts the command name from the context.
// Returns empty string if not present.
func CommandName(ctx context.Context) string {
	name, _ := ctx.Value(commandNameCtx{}).(string)
	return name
}
