package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// SignatureHeader carries "sha256=<hex hmac>" of "<timestamp>.<body>".
	SignatureHeader = "X-Webhook-Signature"
	// TimestampHeader carries the Unix time the signature was made.
	TimestampHeader = "X-Webhook-Timestamp"

	signaturePrefix = "sha256="
)

// SignatureHeaders holds the values of the signature headers.
type SignatureHeaders struct {
	Signature string
	Timestamp int64
}

// SignPayload signs payload with secret at the current time.
func SignPayload(secret string, payload []byte) (SignatureHeaders, error) {
	return signAt(secret, payload, time.Now().Unix())
}

func signAt(secret string, payload []byte, ts int64) (SignatureHeaders, error) {
	if secret == "" {
		return SignatureHeaders{}, fmt.Errorf("%w: empty signing secret", ErrInvalidConfiguration)
	}
	return SignatureHeaders{
		Signature: signaturePrefix + computeHMAC(secret, ts, payload),
		Timestamp: ts,
	}, nil
}

func computeHMAC(secret string, ts int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte{'.'})
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// ExtractSignatureHeaders reads signature headers from a header map.
func ExtractSignatureHeaders(headers map[string]string) (SignatureHeaders, error) {
	sig := headers[SignatureHeader]
	raw := headers[TimestampHeader]
	if sig == "" || raw == "" {
		return SignatureHeaders{}, ErrMissingSignature
	}
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return SignatureHeaders{}, fmt.Errorf("%w: bad timestamp %q", ErrInvalidSignature, raw)
	}
	return SignatureHeaders{Signature: sig, Timestamp: ts}, nil
}

// VerifySignature checks sig against payload. A zero tolerance disables the age check.
func VerifySignature(secret string, payload []byte, sig SignatureHeaders, tolerance time.Duration) error {
	if tolerance > 0 {
		age := time.Since(time.Unix(sig.Timestamp, 0))
		if age > tolerance || age < -tolerance {
			return ErrSignatureExpired
		}
	}

	got, ok := strings.CutPrefix(sig.Signature, signaturePrefix)
	if !ok {
		return ErrInvalidSignature
	}
	want := computeHMAC(secret, sig.Timestamp, payload)
	if !hmac.Equal([]byte(got), []byte(want)) {
		return ErrInvalidSignature
	}
	return nil
}
