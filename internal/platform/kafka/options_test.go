package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"medcred/internal/platform/config"
)

func TestBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, Brokers(" a:9092, ,b:9092 "))
	assert.Empty(t, Brokers(""))
}

func TestProducerOptions(t *testing.T) {
	base := config.KafkaConfig{Brokers: "localhost:9092", Topic: "issuance.callbacks", Retries: 3}

	all := ProducerOptions(base)
	base.Acks = "1"
	leader := ProducerOptions(base)

	assert.NotEmpty(t, all)
	assert.Len(t, leader, len(all)+1, "leader acks disables idempotent writes")
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthChecker(t *testing.T) {
	ok := NewHealthChecker(pingerFunc(func(context.Context) error { return nil }))
	assert.NoError(t, ok.Check(context.Background()))
	assert.Equal(t, "kafka", ok.Name())

	down := NewHealthChecker(pingerFunc(func(context.Context) error { return errors.New("refused") }))
	assert.ErrorContains(t, down.Check(context.Background()), "kafka unreachable")
}
