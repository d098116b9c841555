package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/eventhttp/core/command"
	"github.com/dmitrymomot/eventhttp/core/logger"
	"github.com/dmitrymomot/eventhttp/pkg/webhook"
)

// Query parameter names shared by the endpoints and the outbound commands.
const (
	ParamEvent      = "event"
	ParamSubscriber = "subscriber"
	ParamUUID       = "uuid"
)

// OperationResponse is the JSON envelope every endpoint answers with.
type OperationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// SubscribeRequest asks a producer to register this application's callback.
type SubscribeRequest struct {
	URL         string `json:"url"`
	Event       string `json:"event"`
	Subscriber  string `json:"subscriber"`
	CallbackURL string `json:"callbackUrl"`
}

// UnsubscribeRequest asks a producer to drop a subscription.
type UnsubscribeRequest struct {
	URL        string `json:"url"`
	Event      string `json:"event"`
	Subscriber string `json:"subscriber"`
}

// CallbackTriggerRequest delivers one event payload to one subscriber.
type CallbackTriggerRequest struct {
	CallbackURL string `json:"callbackUrl"`
	UUID        string `json:"uuid"`
	Event       string `json:"event"`
	Payload     any    `json:"payload"`
}

// NewSubscribeHandler performs SubscribeRequest: it POSTs the callback URL as
// a JSON string to URL?event=&subscriber= and expects success=true.
func NewSubscribeHandler(sender *webhook.Sender, log *slog.Logger) command.Handler {
	log = orDiscard(log)
	return command.NewHandlerFunc(func(ctx context.Context, req SubscribeRequest) error {
		body, err := json.Marshal(req.CallbackURL)
		if err != nil {
			return command.Permanent(err)
		}
		err = call(ctx, sender, req.URL, json.RawMessage(body),
			webhook.WithQuery(ParamEvent, req.Event),
			webhook.WithQuery(ParamSubscriber, req.Subscriber))
		if err != nil {
			return fmt.Errorf("subscribe %s at %s: %w", req.Event, req.URL, err)
		}
		log.InfoContext(ctx, "subscribed to remote event",
			logger.Event(req.Event),
			logger.Subscriber(req.Subscriber),
			logger.URL(req.URL))
		return nil
	})
}

// NewUnsubscribeHandler performs UnsubscribeRequest against URL?event=&subscriber=.
func NewUnsubscribeHandler(sender *webhook.Sender, log *slog.Logger) command.Handler {
	log = orDiscard(log)
	return command.NewHandlerFunc(func(ctx context.Context, req UnsubscribeRequest) error {
		err := call(ctx, sender, req.URL, json.RawMessage(`{}`),
			webhook.WithQuery(ParamEvent, req.Event),
			webhook.WithQuery(ParamSubscriber, req.Subscriber))
		if err != nil {
			return fmt.Errorf("unsubscribe %s at %s: %w", req.Event, req.URL, err)
		}
		log.InfoContext(ctx, "unsubscribed from remote event",
			logger.Event(req.Event),
			logger.Subscriber(req.Subscriber),
			logger.URL(req.URL))
		return nil
	})
}

// NewCallbackTriggerHandler performs CallbackTriggerRequest: it POSTs the
// payload to CallbackURL?event=&uuid= and expects success=true.
func NewCallbackTriggerHandler(sender *webhook.Sender, log *slog.Logger) command.Handler {
	log = orDiscard(log)
	return command.NewHandlerFunc(func(ctx context.Context, req CallbackTriggerRequest) error {
		payload := req.Payload
		if payload == nil {
			payload = json.RawMessage(`null`)
		}
		err := call(ctx, sender, req.CallbackURL, payload,
			webhook.WithQuery(ParamEvent, req.Event),
			webhook.WithQuery(ParamUUID, req.UUID))
		if err != nil {
			return fmt.Errorf("trigger %s (%s) at %s: %w", req.Event, req.UUID, req.CallbackURL, err)
		}
		log.InfoContext(ctx, "integration event triggered",
			logger.Event(req.Event),
			logger.EventID(req.UUID),
			logger.CallbackURL(req.CallbackURL))
		return nil
	})
}

// call sends one request and interprets the OperationResponse envelope.
// Errors that retrying cannot fix are marked permanent.
func call(ctx context.Context, sender *webhook.Sender, target string, body any, opts ...webhook.SendOption) error {
	resp, err := sender.Send(ctx, target, body, opts...)
	if err != nil {
		if errors.Is(err, webhook.ErrPermanentFailure) || errors.Is(err, webhook.ErrInvalidURL) {
			return command.Permanent(err)
		}
		return err
	}

	var out OperationResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return command.Permanent(fmt.Errorf("%w: malformed response: %w", ErrRemoteRejected, err))
	}
	if !out.Success {
		return command.Permanent(fmt.Errorf("%w: %s", ErrRemoteRejected, out.Message))
	}
	return nil
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return logger.Discard()
	}
	return l
}
