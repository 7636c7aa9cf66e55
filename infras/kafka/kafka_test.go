package kafka_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/config"
	"todo/infras/kafka"
)

func TestMessage_ToKafkaMessage(t *testing.T) {
	tests := []struct {
		name          string
		message       kafka.Message
		expectedValue string
		expectErr     bool
	}{
		{
			name:          "struct value",
			message:       kafka.Message{Key: "1", Value: struct{ Title string }{Title: "Todo"}},
			expectedValue: `{"Title":"Todo"}`,
		},
		{
			name:          "string value",
			message:       kafka.Message{Key: "2", Value: "plain"},
			expectedValue: `"plain"`,
		},
		{
			name:      "unsupported value",
			message:   kafka.Message{Key: "3", Value: make(chan int)},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := tt.message.ToKafkaMessage()
			if tt.expectErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.message.Key, string(msg.Key))
			assert.JSONEq(t, tt.expectedValue, string(msg.Value))
		})
	}
}

func TestNew_Disabled(t *testing.T) {
	cfg := &config.Config{}

	client := kafka.New(cfg)

	assert.NoError(t, client.SendMessages(context.Background(), "todo.events", kafka.Message{Key: "1", Value: "x"}))
	assert.NoError(t, client.Close())
}
