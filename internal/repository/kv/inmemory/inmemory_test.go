package inmemory_test

import (
	"context"
	"errors"
	"listKeeper/internal/repository"
	"listKeeper/internal/repository/kv/inmemory"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestKVStorage_GetMissing тестирует чтение отсутствующего ключа
func TestKVStorage_GetMissing(t *testing.T) {
	storage := inmemory.NewKVStorage()

	_, err := storage.Get(context.Background(), "lists")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, storage.HealthCheck(context.Background()))
}

// TestKVStorage_SetGet тестирует запись и чтение
func TestKVStorage_SetGet(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewKVStorage()

	payload := []byte(`[{"id":1}]`)
	require.NoError(t, storage.Set(ctx, "lists", payload))

	// изменение исходного буфера не должно влиять на хранилище
	payload[0] = '{'

	value, err := storage.Get(ctx, "lists")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(value))
	assert.Equal(t, 1, storage.Writes())
	assert.Equal(t, []string{"lists"}, storage.Keys())
}

// TestKVStorage_FailWrites тестирует внедрение отказа записи
func TestKVStorage_FailWrites(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewKVStorage()
	failure := errors.New("quota exceeded")

	storage.FailWrites(failure)
	assert.ErrorIs(t, storage.Set(ctx, "lists", []byte("[]")), failure)

	storage.FailWrites(nil)
	assert.NoError(t, storage.Set(ctx, "lists", []byte("[]")))
	assert.Equal(t, 1, storage.Writes())
}
