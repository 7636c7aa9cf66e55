package validator_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"todo/shared/failure"
	"todo/shared/validator"
)

type payload struct {
	Name  string `json:"name" validate:"required"`
	Kind  string `json:"kind" validate:"omitempty,oneof=a b"`
	Code  string `json:"code" validate:"omitempty,numeric"`
	Count int    `json:"count" validate:"omitempty,gte=1"`
	Email string `json:"email" validate:"omitempty,email"`
}

type settings struct {
	Server struct {
		Port string `validate:"required,numeric"`
	}
	Retries int `validate:"gte=1"`
}

type permissive struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid body", body: `{"name":"todo","kind":"a"}`},
		{name: "empty body", body: ``, wantErr: "request body is required"},
		{name: "malformed json", body: `{"name":`, wantErr: "failed to decode request body"},
		{name: "wrong type", body: `{"name":12}`, wantErr: "failed to decode request body"},
		{name: "missing required field", body: `{"kind":"a"}`, wantErr: "name is required"},
		{name: "invalid oneof", body: `{"name":"x","kind":"c"}`, wantErr: "kind must be one of a b"},
		{name: "not numeric", body: `{"name":"x","code":"abc"}`, wantErr: "code must be numeric"},
		{name: "below minimum", body: `{"name":"x","count":-1}`, wantErr: "count must be at least 1"},
		{name: "rule without template", body: `{"name":"x","email":"nope"}`, wantErr: "email failed the email rule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var data payload

			err := validator.Validate(strings.NewReader(tt.body), &data)

			if tt.wantErr == "" {
				assert.NoError(t, err)

				return
			}

			assert.ErrorContains(t, err, tt.wantErr)
			assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
		})
	}
}

func TestValidate_WithoutRules(t *testing.T) {
	var data permissive

	err := validator.Validate(strings.NewReader(`{"title":"","completed":true}`), &data)

	assert.NoError(t, err)
	assert.True(t, data.Completed)
	assert.Empty(t, data.Title)
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, validator.ValidateStruct(&payload{Name: "ok"}))
	assert.Error(t, validator.ValidateStruct(&payload{}))
}

func TestProblems(t *testing.T) {
	tests := []struct {
		name     string
		data     func() *settings
		expected []string
	}{
		{
			name: "valid",
			data: func() *settings {
				s := &settings{Retries: 1}
				s.Server.Port = "8080"

				return s
			},
			expected: nil,
		},
		{
			name: "every broken rule with nested path",
			data: func() *settings {
				return &settings{}
			},
			expected: []string{"server.port is required", "retries must be at least 1"},
		},
		{
			name: "nested rule after required passes",
			data: func() *settings {
				s := &settings{Retries: 3}
				s.Server.Port = "http"

				return s
			},
			expected: []string{"server.port must be numeric"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, validator.Problems(tt.data()))
		})
	}
}
