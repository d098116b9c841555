package adapter

import (
	"context"
	"math"
	"slices"
)

// LowestPriority is the order of interceptors registered without one. They run last.
const LowestPriority = math.MaxInt

// Interceptor observes or mutates a Message around dispatch to the event bus.
type Interceptor interface {
	PreSubscribe(ctx context.Context, msg *Message) error
	PostSubscribe(ctx context.Context, msg *Message) error
}

// InterceptorFuncs adapts plain functions to Interceptor. Nil hooks are skipped.
type InterceptorFuncs struct {
	Pre  func(ctx context.Context, msg *Message) error
	Post func(ctx context.Context, msg *Message) error
}

func (f InterceptorFuncs) PreSubscribe(ctx context.Context, msg *Message) error {
	if f.Pre == nil {
		return nil
	}
	return f.Pre(ctx, msg)
}

func (f InterceptorFuncs) PostSubscribe(ctx context.Context, msg *Message) error {
	if f.Post == nil {
		return nil
	}
	return f.Post(ctx, msg)
}

type orderedInterceptor struct {
	Interceptor
	order int
}

// sortInterceptors orders ascending by order value; ties keep registration order.
func sortInterceptors(in []orderedInterceptor) []Interceptor {
	sorted := slices.Clone(in)
	slices.SortStableFunc(sorted, func(a, b orderedInterceptor) int {
		switch {
		case a.order < b.order:
			return -1
		case a.order > b.order:
			return 1
		}
		return 0
	})

	out := make([]Interceptor, len(sorted))
	for i, oi := range sorted {
		out[i] = oi.Interceptor
	}
	return out
}
