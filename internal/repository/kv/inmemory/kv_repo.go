package inmemory

import (
	"context"
	"listKeeper/internal/logger"
	repo "listKeeper/internal/repository"
	"slices"
	"sync"
)

type KVStorage struct {
	storage  map[string][]byte
	mtx      *sync.RWMutex
	failWith error
	writes   int
}

func NewKVStorage() *KVStorage {
	return &KVStorage{
		storage: make(map[string][]byte),
		mtx:     &sync.RWMutex{},
	}
}

func (s *KVStorage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: in-memory хранилище доступно")
	return nil
}

func (s *KVStorage) Get(ctx context.Context, key string) ([]byte, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	value, ok := s.storage[key]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return slices.Clone(value), nil
}

func (s *KVStorage) Set(ctx context.Context, key string, value []byte) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.failWith != nil {
		return s.failWith
	}
	s.storage[key] = slices.Clone(value)
	s.writes++
	return nil
}

// FailWrites заставляет все последующие Set возвращать err, nil снимает отказ
func (s *KVStorage) FailWrites(err error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.failWith = err
}

// Writes - количество успешных записей
func (s *KVStorage) Writes() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.writes
}

func (s *KVStorage) Keys() []string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	keys := make([]string, 0, len(s.storage))
	for key := range s.storage {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
