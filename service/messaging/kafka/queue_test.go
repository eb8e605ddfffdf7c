package kafka

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/guaranty/internal/idgen"
)

type testPayload struct {
	ID string `json:"id"`
}

func TestNewQueue_Validation(t *testing.T) {
	_, err := NewQueue[testPayload](Config{Topic: "t"}, nil)
	assert.Error(t, err)
	_, err = NewQueue[testPayload](Config{Brokers: []string{"localhost:9092"}}, nil)
	assert.Error(t, err)
}

func TestQueue(t *testing.T) {
	brokers := os.Getenv("GUARANTY_KAFKA_BROKERS")
	if brokers == "" {
		t.Skip("GUARANTY_KAFKA_BROKERS not set")
	}
	queue, err := NewQueue[testPayload](Config{
		Brokers: strings.Split(brokers, ","),
		Topic:   "guaranty-test",
		GroupID: "guaranty-test-" + idgen.New(),
	}, nil)
	require.NoError(t, err)
	defer queue.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	id := idgen.New()
	require.NoError(t, queue.Publish(ctx, &testPayload{ID: id}))
	for {
		message, err := queue.Consume(ctx)
		require.NoError(t, err)
		require.NoError(t, message.Ack())
		if message.T().ID == id {
			return
		}
	}
}
