package paymongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsk_test_secret"

func TestParseSignatureHeader(t *testing.T) {
	sig, err := ParseSignatureHeader("t=1700000000,te=aa,li=bb")
	require.NoError(t, err)
	assert.Equal(t, "1700000000", sig.Timestamp)
	assert.Equal(t, "bb", sig.Value(), "live wins over test")

	sig, err = ParseSignatureHeader("t=1, test=cc ")
	require.NoError(t, err)
	assert.Equal(t, "cc", sig.Value())

	sig, err = ParseSignatureHeader("t=1,te=aa,li=")
	require.NoError(t, err)
	assert.Equal(t, "aa", sig.Value())

	for _, h := range []string{"", "garbage", "t=1", "te=aa,li=bb", "t=,li=bb"} {
		_, err := ParseSignatureHeader(h)
		assert.ErrorIs(t, err, ErrMalformedHeader, h)
	}
}

func TestVerify_AcceptsValidSignature(t *testing.T) {
	body := []byte(`{"data":{"id":"evt_1"}}`)
	v := NewVerifier(testSecret)

	assert.NoError(t, v.Verify(SignHeader(testSecret, "1700000000", body, false), body))
	assert.NoError(t, v.Verify(SignHeader(testSecret, "1700000000", body, true), body))
}

func TestVerify_SingleByteChangeFails(t *testing.T) {
	body := []byte(`{"data":{"id":"evt_1","attributes":{"type":"checkout_session.payment.paid"}}}`)
	header := SignHeader(testSecret, "1700000000", body, true)
	v := NewVerifier(testSecret)

	for i := range body {
		tampered := append([]byte(nil), body...)
		tampered[i] ^= 0x01
		assert.ErrorIs(t, v.Verify(header, tampered), ErrSignatureMismatch, "byte %d", i)
	}
}

func TestVerify_Errors(t *testing.T) {
	body := []byte("{}")
	assert.ErrorIs(t, NewVerifier("").Verify("t=1,li=00", body), ErrMissingSecret)
	assert.ErrorIs(t, NewVerifier(testSecret).Verify("  ", body), ErrMissingHeader)
	assert.ErrorIs(t, NewVerifier(testSecret).Verify("t=1,li=zz", body), ErrMalformedHeader)
	assert.ErrorIs(t, NewVerifier("other").Verify(SignHeader(testSecret, "1", body, true), body), ErrSignatureMismatch)
	// timestamp is part of the signed string
	h := SignHeader(testSecret, "1", body, true)
	assert.ErrorIs(t, NewVerifier(testSecret).Verify("t=2"+h[3:], body), ErrSignatureMismatch)
}

func TestVerify_Tolerance(t *testing.T) {
	body := []byte("{}")
	now := time.Unix(1700000000, 0)
	v := NewVerifier(testSecret)
	v.Tolerance = 5 * time.Minute
	v.now = func() time.Time { return now }

	assert.NoError(t, v.Verify(SignHeader(testSecret, "1700000100", body, true), body))
	assert.ErrorIs(t, v.Verify(SignHeader(testSecret, "1699000000", body, true), body), ErrStaleTimestamp)
}
