// Package webhook delivers JSON payloads to HTTP endpoints.
//
// It is the outbound leg of the integration-event pipeline: remote
// subscribe/unsubscribe calls and callback triggers all go through a Sender.
//
// # Basic Usage
//
//	sender := webhook.NewSender(webhook.WithConfig(cfg))
//
//	resp, err := sender.Send(ctx, "https://orders.example.com/integration-event/http/consume", payload,
//		webhook.WithQuery("event", "OrderPaid"),
//		webhook.WithQuery("uuid", id),
//	)
//	if errors.Is(err, webhook.ErrPermanentFailure) {
//		// 4xx: retrying will not help
//	}
//
// Payloads of type []byte or json.RawMessage are sent verbatim; anything else
// is JSON encoded. Non-2xx responses return both the *Response and a
// *StatusError.
//
// # Signatures
//
// When a secret is configured (Config.Secret or WithSignature), requests carry
// X-Webhook-Signature ("sha256=<hex>") computed over "<timestamp>.<body>" and
// X-Webhook-Timestamp. Receivers check them with VerifySignature:
//
//	sig, err := webhook.ExtractSignatureHeaders(map[string]string{
//		webhook.SignatureHeader: r.Header.Get(webhook.SignatureHeader),
//		webhook.TimestampHeader: r.Header.Get(webhook.TimestampHeader),
//	})
//	if err == nil {
//		err = webhook.VerifySignature(secret, body, sig, 5*time.Minute)
//	}
//
// # Error Types
//   - ErrInvalidURL: URL is malformed or uses unsupported scheme
//   - ErrInvalidPayload: payload is nil or cannot be encoded
//   - ErrTimeout: request exceeded timeout (also ErrTemporaryFailure)
//   - ErrPermanentFailure: 4xx HTTP status other than 408 and 429
//   - ErrTemporaryFailure: network error, 5xx, 408 or 429
package webhook
