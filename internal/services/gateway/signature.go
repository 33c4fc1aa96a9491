package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"lightning-pass/internal/status"
)

// DefaultEventTolerance bounds how stale a signed event may be before
// it is rejected as a possible replay.
const DefaultEventTolerance = 5 * time.Minute

// Hmac256 returns the hex HMAC-SHA256 of body under key.
func Hmac256(body, key []byte) string {
	hash := hmac.New(sha256.New, key)
	hash.Write(body)
	return hex.EncodeToString(hash.Sum(nil))
}

// SignEvent produces the signature header value for a raw event body:
// "t=<unix>,v1=<hmac256(t + '.' + body)>".
func SignEvent(rawBody []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := Hmac256([]byte(ts+"."+string(rawBody)), []byte(secret))
	return fmt.Sprintf("t=%s,v1=%s", ts, mac)
}

// VerifyEvent authenticates a webhook payload against its signature
// header and parses the event. Any mismatch, malformed header or stale
// timestamp yields ErrInvalidSignature; the payload is never trusted
// before the signature checks out.
func VerifyEvent(rawBody []byte, signature, secret string, tolerance time.Duration) (*Event, error) {
	var ts, v1 string
	for _, part := range strings.Split(signature, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			v1 = v
		}
	}
	if ts == "" || v1 == "" {
		return nil, status.ErrInvalidSignature
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, status.ErrInvalidSignature
	}
	if tolerance > 0 {
		age := time.Since(time.Unix(unix, 0))
		if age > tolerance || age < -tolerance {
			return nil, status.ErrInvalidSignature
		}
	}

	expected := Hmac256([]byte(ts+"."+string(rawBody)), []byte(secret))
	if !hmac.Equal([]byte(v1), []byte(expected)) {
		return nil, status.ErrInvalidSignature
	}

	var event Event
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, fmt.Errorf("gateway: decode event: %w", err)
	}
	return &event, nil
}
