package adapter

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"reflect"
	"strings"
)

// NoneSubscriber disables a binding when used as its subscriber (case-insensitive).
const NoneSubscriber = "[none]"

// Binding declares that payloads of one Go type arrive as the named integration event.
//
// Target is either "EventName" for a local subscription or
// "EventName@http://producer/integration-event/http/subscribe" for a remote one.
// Both Target and Subscriber may contain ${NAME:default} placeholders.
type Binding struct {
	Target     string
	Subscriber string

	typ    reflect.Type
	decode func([]byte) (any, error)
}

// Bind declares the payload type T for target.
//
// Example:
//
//	adapter.Bind[OrderPaid]("OrderPaid@${ORDERS_URL}/integration-event/http/subscribe", "")
func Bind[T any](target, subscriber string) Binding {
	return Binding{
		Target:     target,
		Subscriber: subscriber,
		typ:        reflect.TypeFor[T](),
		decode: func(data []byte) (any, error) {
			var v T
			if err := json.Unmarshal(data, &v); err != nil {
				return nil, err
			}
			return v, nil
		},
	}
}

// Type returns the payload type of the binding.
func (b Binding) Type() reflect.Type {
	return b.typ
}

func (b Binding) skipped() bool {
	return strings.TrimSpace(b.Target) == "" || strings.EqualFold(strings.TrimSpace(b.Subscriber), NoneSubscriber)
}

// descriptor is a resolved binding.
type descriptor struct {
	event       string
	subscriber  string
	remote      bool
	sourceURL   string
	callbackURL string
	typ         reflect.Type
	decode      func([]byte) (any, error)
}

// parseTarget splits "event@url" into its parts.
func parseTarget(target string) (event, sourceURL string, remote bool, err error) {
	event, sourceURL, remote = strings.Cut(strings.TrimSpace(target), "@")
	event = strings.TrimSpace(event)
	sourceURL = strings.TrimSpace(sourceURL)
	if event == "" {
		return "", "", false, fmt.Errorf("%w: empty event name in %q", ErrInvalidBinding, target)
	}
	if remote && sourceURL == "" {
		return "", "", false, fmt.Errorf("%w: empty source url in %q", ErrInvalidBinding, target)
	}
	return event, sourceURL, remote, nil
}

// unsubscribeURL derives the producer's unsubscribe endpoint from its
// subscribe endpoint: the last path segment is replaced with "unsubscribe".
func unsubscribeURL(sourceURL string) string {
	u, err := url.Parse(sourceURL)
	if err != nil || u.Path == "" {
		return sourceURL
	}
	u.Path = path.Join(path.Dir(u.Path), "unsubscribe")
	return u.String()
}
