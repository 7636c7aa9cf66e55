package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"todo/config"
	"todo/infras/otel/mocks"
)

func TestNew_Postgres(t *testing.T) {
	cfg := &config.Config{}
	cfg.DB.Driver = config.DriverPostgres

	repo := New(cfg, nil, nil, mocks.NewOtel())

	assert.IsType(t, &postgresImpl{}, repo)
}

func TestNewID(t *testing.T) {
	first := newID()
	second := newID()

	assert.Len(t, first, 24)
	assert.Regexp(t, "^[0-9a-f]{24}$", first)
	assert.NotEqual(t, first, second)
}
