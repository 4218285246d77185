package producers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockKafkaWriter mocks KafkaWriter interface
type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestLedgerEventProducer_Publish(t *testing.T) {
	ctx := context.Background()
	value := []byte(`{"transaction_id":"TXN-20260101-0123456789ABCDEF"}`)

	t.Run("writes keyed event with type header", func(t *testing.T) {
		writer := new(MockKafkaWriter)
		producer := NewLedgerEventProducerWithWriter(discardLogger(), writer, "ledger_events")

		writer.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			msg := msgs[0]
			return string(msg.Key) == "TXN-20260101-0123456789ABCDEF" &&
				string(msg.Value) == string(value) &&
				len(msg.Headers) == 1 &&
				msg.Headers[0].Key == EventTypeHeader &&
				string(msg.Headers[0].Value) == LedgerEntryCommitted
		})).Return(nil).Once()

		require.NoError(t, producer.Publish(ctx, "TXN-20260101-0123456789ABCDEF", value))
		writer.AssertExpectations(t)
	})

	t.Run("wraps writer errors", func(t *testing.T) {
		writer := new(MockKafkaWriter)
		producer := NewLedgerEventProducerWithWriter(discardLogger(), writer, "ledger_events")
		boom := errors.New("broker unavailable")
		writer.On("WriteMessages", ctx, mock.Anything).Return(boom).Once()

		err := producer.Publish(ctx, "k", value)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "ledger_events")
	})
}

func TestLedgerEventProducer_Close(t *testing.T) {
	writer := new(MockKafkaWriter)
	producer := NewLedgerEventProducerWithWriter(discardLogger(), writer, "ledger_events")
	writer.On("Close").Return(errors.New("already closed")).Once()

	err := producer.Close()
	assert.ErrorContains(t, err, "already closed")
}
