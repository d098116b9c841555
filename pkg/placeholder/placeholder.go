// Package placeholder expands ${NAME} and ${NAME:default} references.
//
// Subscription targets and subscriber names are configured with
// placeholders so one binding list can serve every environment:
//
//	r := placeholder.New()
//	target := r.Resolve("OrderPaid@${ORDERS_URL:http://orders:8080}")
//
// Results are cached per input string; the first resolution wins for the
// lifetime of the Resolver.
package placeholder

import (
	"os"
	"strings"
	"sync"
)

// LookupFunc returns the value of a named variable.
type LookupFunc func(name string) (string, bool)

// Resolver expands placeholders and caches the result per input.
type Resolver struct {
	lookup LookupFunc
	cache  sync.Map
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLookup replaces the default os.LookupEnv source.
func WithLookup(fn LookupFunc) Option {
	return func(r *Resolver) {
		if fn != nil {
			r.lookup = fn
		}
	}
}

// WithValues resolves from a fixed map, useful in tests.
func WithValues(values map[string]string) Option {
	return WithLookup(func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	})
}

// New creates a Resolver backed by the process environment.
func New(opts ...Option) *Resolver {
	r := &Resolver{lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve expands every placeholder in s. Unknown names without a default
// are left as written. Nested placeholders are not supported.
func (r *Resolver) Resolve(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	if v, ok := r.cache.Load(s); ok {
		return v.(string)
	}
	v, _ := r.cache.LoadOrStore(s, expand(s, r.lookup))
	return v.(string)
}

func expand(s string, lookup LookupFunc) string {
	var b strings.Builder
	b.Grow(len(s))

	for {
		start := strings.Index(s, "${")
		if start < 0 {
			b.WriteString(s)
			return b.String()
		}
		end := strings.IndexByte(s[start+2:], '}')
		if end < 0 {
			b.WriteString(s)
			return b.String()
		}
		end += start + 2

		b.WriteString(s[:start])
		expr := s[start+2 : end]
		name, def, hasDef := strings.Cut(expr, ":")
		name = strings.TrimSpace(name)

		switch v, ok := lookup(name); {
		case ok:
			b.WriteString(v)
		case hasDef:
			b.WriteString(def)
		default:
			b.WriteString(s[start : end+1])
		}
		s = s[end+1:]
	}
}
