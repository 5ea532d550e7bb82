package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	coredomain "github.com/nexcommerce/whatsapp-gateway/internal/core_whatsapp/domain"
)

// MockNATSClient mocks messagebroker.NATSClient for consumer tests.
type MockNATSClient struct {
	mock.Mock
}

func (m *MockNATSClient) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

func (m *MockNATSClient) Subscribe(ctx context.Context, subject string, queueGroup string, handler func(msg *nats.Msg)) error {
	args := m.Called(ctx, subject, queueGroup, handler)
	return args.Error(0)
}

func (m *MockNATSClient) Close() {
	m.Called()
}

func TestEventConsumer_ForwardsDecodedEvents(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockNATS := new(MockNATSClient)
	outputChan := make(chan coredomain.InboundBatchEvent, 1)
	consumer := NewEventConsumer(mockNATS, logger, outputChan)

	event := coredomain.InboundBatchEvent{
		Messages: []coredomain.InboundMessage{
			{ID: "wamid.1", From: "15551234567", Type: coredomain.MessageTypeText, TextBody: "hello"},
		},
	}
	data, err := json.Marshal(event)
	require.NoError(t, err)

	// Drive the registered handler directly with one well-formed and one
	// malformed payload.
	mockNATS.On("Subscribe", mock.Anything, "whatsapp.inbound.events", "dispatcher_group", mock.Anything).
		Run(func(args mock.Arguments) {
			handler := args.Get(3).(func(msg *nats.Msg))
			handler(&nats.Msg{Subject: "whatsapp.inbound.events", Data: []byte("not json")})
			handler(&nats.Msg{Subject: "whatsapp.inbound.events", Data: data})
		}).
		Return(nil).Once()

	err = consumer.StartConsuming(context.Background(), "whatsapp.inbound.events", "dispatcher_group")
	require.NoError(t, err)
	mockNATS.AssertExpectations(t)

	select {
	case got := <-outputChan:
		require.Len(t, got.Messages, 1)
		assert.Equal(t, "wamid.1", got.Messages[0].ID)
	case <-time.After(time.Second):
		t.Fatal("expected an event on the output channel")
	}

	// The malformed payload must have been dropped, not queued.
	select {
	case unexpected := <-outputChan:
		t.Fatalf("unexpected extra event: %+v", unexpected)
	default:
	}
}

func TestEventConsumer_SubscriptionErrorPropagates(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockNATS := new(MockNATSClient)
	consumer := NewEventConsumer(mockNATS, logger, make(chan coredomain.InboundBatchEvent, 1))

	mockNATS.On("Subscribe", mock.Anything, "whatsapp.inbound.events", "dispatcher_group", mock.Anything).
		Return(assert.AnError).Once()

	err := consumer.StartConsuming(context.Background(), "whatsapp.inbound.events", "dispatcher_group")
	assert.ErrorIs(t, err, assert.AnError)
}
