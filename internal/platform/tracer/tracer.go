// Package tracer is a small tracing facade over OpenTelemetry so issuance
// code can open spans without importing the SDK directly.
//
// Implementations:
//   - NoopTracer: tests
//   - OTelTracer: global OpenTelemetry provider
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span is an active trace span. End must be called exactly once.
type Span interface {
	// End completes the span; a non-nil err marks it failed.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: int64(value)}
}

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashUserID shortens a user ID to a stable digest so traces can be
// correlated without carrying the raw identifier.
func HashUserID(userID string) string {
	if userID == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:8])
}

// Span names.
const (
	SpanIssue         = "issuance.request"
	SpanTokenAcquire  = "issuance.token"
	SpanIssuanceCall  = "issuance.api.call"
	SpanCallback      = "issuance.callback"
	SpanSessionUpdate = "issuance.session.update"
)

// Attribute keys.
const (
	AttrCredentialType = "credential.type"
	AttrUserHash       = "user.hash"
	AttrState          = "issuance.state"
	AttrRequestID      = "issuance.request_id"
	AttrStatusCode     = "http.status_code"
	AttrCacheHit       = "cache.hit"
	AttrAttempt        = "retry.attempt"
	AttrCallbackStatus = "callback.status"
)
