// Package paymongo verifies and decodes PayMongo webhook deliveries.
//
// PayMongo signs every delivery with a Paymongo-Signature header of the form
//
//	t=1496734173,te=<hex hmac>,li=<hex hmac>
//
// where te is present in test mode and li in live mode.  The signed string
// is "{t}.{raw body}" and the MAC is HMAC-SHA256 keyed with the webhook
// secret.
package paymongo

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader is the request header carrying the signature.
const SignatureHeader = "Paymongo-Signature"

var (
	ErrMissingSecret     = errors.New("paymongo: webhook secret is not configured")
	ErrMissingHeader     = errors.New("paymongo: missing signature header")
	ErrMalformedHeader   = errors.New("paymongo: malformed signature header")
	ErrSignatureMismatch = errors.New("paymongo: signature mismatch")
	ErrStaleTimestamp    = errors.New("paymongo: signature timestamp outside tolerance")
)

// Signature is a parsed signature header.
type Signature struct {
	Timestamp string
	Test      string
	Live      string
}

// Value returns the signature to verify, live taking precedence over test.
func (s Signature) Value() string {
	if s.Live != "" {
		return s.Live
	}
	return s.Test
}

// ParseSignatureHeader splits the comma-separated key=value segments of a
// signature header.  Both the short (te, li) and long (test, live) keys are
// accepted.  The header must carry a timestamp and at least one signature.
func ParseSignatureHeader(h string) (Signature, error) {
	var sig Signature
	for _, part := range strings.Split(h, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		switch strings.TrimSpace(k) {
		case "t":
			sig.Timestamp = v
		case "te", "test":
			sig.Test = v
		case "li", "live":
			sig.Live = v
		}
	}
	if sig.Timestamp == "" || sig.Value() == "" {
		return Signature{}, ErrMalformedHeader
	}
	return sig, nil
}

// Verifier checks delivery signatures against a shared secret.
type Verifier struct {
	secret []byte

	// Tolerance rejects deliveries whose timestamp is further than this from
	// the current time.  Zero disables the check.
	Tolerance time.Duration

	now func() time.Time
}

// NewVerifier returns a Verifier for secret.  An empty secret yields a
// verifier that rejects everything with ErrMissingSecret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Verify checks header against the raw request body.  The body must be the
// exact bytes received; re-encoded JSON will not verify.
func (v *Verifier) Verify(header string, body []byte) error {
	if v == nil || len(v.secret) == 0 {
		return ErrMissingSecret
	}
	if strings.TrimSpace(header) == "" {
		return ErrMissingHeader
	}
	sig, err := ParseSignatureHeader(header)
	if err != nil {
		return err
	}
	want, err := hex.DecodeString(sig.Value())
	if err != nil {
		return ErrMalformedHeader
	}
	if v.Tolerance > 0 {
		ts, err := strconv.ParseInt(sig.Timestamp, 10, 64)
		if err != nil {
			return ErrMalformedHeader
		}
		if d := v.now().Sub(time.Unix(ts, 0)); d > v.Tolerance || d < -v.Tolerance {
			return ErrStaleTimestamp
		}
	}
	if !hmac.Equal(want, Sign(v.secret, sig.Timestamp, body)) {
		return ErrSignatureMismatch
	}
	return nil
}

// Sign computes the raw MAC for timestamp and body.
func Sign(secret []byte, timestamp string, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return mac.Sum(nil)
}

// SignHeader builds a header value for body, as PayMongo would send it.
// live selects the li key over te.
func SignHeader(secret, timestamp string, body []byte, live bool) string {
	key := "te"
	if live {
		key = "li"
	}
	return "t=" + timestamp + "," + key + "=" + hex.EncodeToString(Sign([]byte(secret), timestamp, body))
}
