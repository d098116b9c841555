package command

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// commandNameCache caches reflection results for command name lookups.
var commandNameCache sync.Map

// getCommandName derives the command name from a reflect.Type,
// unwrapping pointers. Results are cached.
func getCommandName(t reflect.Type) string {
	if name, ok := commandNameCache.Load(t); ok {
		return name.(string)
	}

	original := t
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	name := t.Name()
	if name == "" {
		name = t.String()
	}

	commandNameCache.Store(original, name)
	return name
}

func typeName[T any]() string {
	return getCommandName(reflect.TypeFor[T]())
}

func nameOf(cmd any) string {
	if cmd == nil {
		return ""
	}
	return getCommandName(reflect.TypeOf(cmd))
}

// chainMiddleware applies multiple middleware in order.
// The first middleware in the slice is the outermost (executed first).
func chainMiddleware(handler Handler, middleware []Middleware) Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}
	return handler
}

// safeHandle executes a handler with panic recovery.
func safeHandle(ctx context.Context, handler Handler, payload any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrHandlerPanicked, handler.Name(), r)
		}
	}()
	return handler.Handle(ctx, payload)
}
