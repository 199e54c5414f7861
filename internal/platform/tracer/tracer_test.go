package tracer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestHashUserID(t *testing.T) {
	assert.Equal(t, "", HashUserID(""))
	assert.Len(t, HashUserID("u1"), 16)
	assert.Equal(t, HashUserID("u1"), HashUserID("u1"))
	assert.NotEqual(t, HashUserID("u1"), HashUserID("u2"))
}

func TestOTelTracer(t *testing.T) {
	tr := NewOTel(WithOTelTracer(noop.NewTracerProvider().Tracer("test")))

	ctx, span := tr.Start(context.Background(), SpanIssue,
		String(AttrCredentialType, "AMACredential"),
		Bool(AttrCacheHit, true),
		Int(AttrStatusCode, 201),
	)
	assert.NotNil(t, ctx)
	span.AddEvent("claims.built")
	span.End(errors.New("boom"))
}

func TestToOTelSkipsUnsupportedValues(t *testing.T) {
	kvs := toOTel([]Attribute{String("a", "b"), {Key: "c", Value: struct{}{}}})
	assert.Len(t, kvs, 1)
}
