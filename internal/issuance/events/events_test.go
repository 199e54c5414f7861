package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medcred/internal/issuance/models"
	"medcred/internal/platform/kafka/producer"
)

type recordingProducer struct {
	messages []*producer.Message
	err      error
}

func (r *recordingProducer) ProduceAsync(_ context.Context, msg *producer.Message) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, msg)
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	ctx := context.Background()

	t.Run("forwards raw callback bytes keyed by state", func(t *testing.T) {
		rec := &recordingProducer{}
		pub := NewKafkaPublisher(rec, "issuance.callbacks", nil)

		raw := json.RawMessage(`{"requestId":"r1","requestStatus":"issuance_successful","state":"s1","extra":true}`)
		err := pub.Publish(ctx, models.CallbackEvent{
			RequestID:     "r1",
			RequestStatus: "issuance_successful",
			State:         "s1",
			Raw:           raw,
		})
		require.NoError(t, err)
		require.Len(t, rec.messages, 1)

		msg := rec.messages[0]
		assert.Equal(t, "issuance.callbacks", msg.Topic)
		assert.Equal(t, []byte("s1"), msg.Key)
		assert.JSONEq(t, string(raw), string(msg.Value))
		assert.Equal(t, "issuance_successful", msg.Headers[HeaderRequestStatus])
		assert.Equal(t, "r1", msg.Headers[HeaderRequestID])
	})

	t.Run("encodes the event when raw bytes are missing", func(t *testing.T) {
		rec := &recordingProducer{}
		pub := NewKafkaPublisher(rec, "", nil)

		require.NoError(t, pub.Publish(ctx, models.CallbackEvent{RequestStatus: "request_retrieved", State: "s2"}))
		require.Len(t, rec.messages, 1)
		assert.JSONEq(t, `{"requestId":"","requestStatus":"request_retrieved","state":"s2"}`, string(rec.messages[0].Value))
	})

	t.Run("wraps producer failures", func(t *testing.T) {
		pub := NewKafkaPublisher(&recordingProducer{err: producer.ErrClosed}, "t", nil)
		err := pub.Publish(ctx, models.CallbackEvent{State: "s3"})
		assert.True(t, errors.Is(err, producer.ErrClosed))
	})
}

func TestNoopPublisher(t *testing.T) {
	assert.NoError(t, NoopPublisher{}.Publish(context.Background(), models.CallbackEvent{}))
}
