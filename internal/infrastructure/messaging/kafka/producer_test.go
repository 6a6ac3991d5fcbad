package kafka

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patentsview-graph/internal/config"
	"github.com/turtacn/patentsview-graph/internal/testutil"
	pkgerrors "github.com/turtacn/patentsview-graph/pkg/errors"
)

type mockKafkaWriter struct {
	writeFunc func(ctx context.Context, msgs ...kafka.Message) error
	closed    int
}

func (m *mockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.writeFunc != nil {
		return m.writeFunc(ctx, msgs...)
	}
	return nil
}

func (m *mockKafkaWriter) Close() error {
	m.closed++
	return nil
}

func newTestProducer(w WriterInterface) *Producer {
	return newProducer(w, time.Second, testutil.NewMockLogger())
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(config.EventsConfig{Topic: "t"}, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeConfig))

	p, err := NewProducer(config.EventsConfig{Brokers: []string{"localhost:9092"}, Topic: "t"}, nil)
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestPublish_Success(t *testing.T) {
	var captured []kafka.Message
	var deadlineSet bool
	w := &mockKafkaWriter{writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
		_, deadlineSet = ctx.Deadline()
		captured = msgs
		return nil
	}}
	p := newTestProducer(w)

	err := p.Publish(context.Background(), &Message{
		Topic:   "runs",
		Key:     []byte("k"),
		Value:   []byte("v"),
		Headers: map[string]string{"event_type": EventTypeLoadCompleted},
	})
	require.NoError(t, err)
	require.Len(t, captured, 1)
	assert.Equal(t, "runs", captured[0].Topic)
	assert.Equal(t, "k", string(captured[0].Key))
	assert.Equal(t, "v", string(captured[0].Value))
	assert.False(t, captured[0].Time.IsZero())
	require.Len(t, captured[0].Headers, 1)
	assert.Equal(t, "event_type", captured[0].Headers[0].Key)
	assert.True(t, deadlineSet)
	assert.Equal(t, int64(1), p.Sent())
	assert.Equal(t, int64(1), p.metrics.BytesSent.Load())
}

func TestPublish_Failure(t *testing.T) {
	w := &mockKafkaWriter{writeFunc: func(context.Context, ...kafka.Message) error {
		return errors.New("broker down")
	}}
	p := newTestProducer(w)

	err := p.Publish(context.Background(), &Message{Topic: "runs", Value: []byte("v")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Equal(t, int64(1), p.metrics.MessagesFailed.Load())
	assert.Zero(t, p.Sent())
}

func TestPublish_Validation(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{})
	ctx := context.Background()

	assert.Error(t, p.Publish(ctx, &Message{Value: []byte("v")}))
	assert.Error(t, p.Publish(ctx, &Message{Topic: "runs"}))
	assert.Error(t, p.Publish(ctx, &Message{Topic: "runs", Value: []byte(strings.Repeat("x", maxMessageBytes+1))}))
}

func TestClose_Idempotent(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, w.closed)
	assert.ErrorIs(t, p.Publish(context.Background(), &Message{Topic: "runs", Value: []byte("v")}), ErrProducerClosed)
}

//Personal.AI order the ending
