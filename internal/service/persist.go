package service

import (
	"context"
	"fmt"
	"listKeeper/internal/logger"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// persister пишет снимки коллекций в хранилище в фоне,
// для каждого ключа в очереди остаётся только последний снимок
type persister struct {
	storage Storage
	mtx     sync.Mutex
	writing sync.Mutex
	pending map[string][]byte
	wake    chan struct{}
}

func newPersister(storage Storage) *persister {
	return &persister{
		storage: storage,
		pending: make(map[string][]byte),
		wake:    make(chan struct{}, 1),
	}
}

func (p *persister) enqueue(key string, data []byte) {
	p.mtx.Lock()
	p.pending[key] = data
	p.mtx.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *persister) pendingKeys() int {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	return len(p.pending)
}

func (p *persister) run(ctx context.Context) {
	for {
		select {
		case <-p.wake:
			_ = p.flush(ctx)
		case <-ctx.Done():
			// дописываем хвост уже без отменённого контекста
			_ = p.flush(context.WithoutCancel(ctx))
			return
		}
	}
}

// flush синхронно записывает всё накопленное; неудачные ключи
// возвращаются в очередь, если их не вытеснил более свежий снимок
func (p *persister) flush(ctx context.Context) error {
	p.writing.Lock()
	defer p.writing.Unlock()

	p.mtx.Lock()
	batch := p.pending
	p.pending = make(map[string][]byte)
	p.mtx.Unlock()

	if len(batch) == 0 {
		return nil
	}

	start := time.Now()
	var errs error
	for _, key := range storageKeys {
		data, ok := batch[key]
		if !ok {
			continue
		}
		if err := p.storage.Set(ctx, key, data); err != nil {
			logger.Error("Service: Не удалось сохранить коллекцию", err, zap.String("key", key))
			errs = multierr.Append(errs, fmt.Errorf("сохранение %s: %w", key, err))
			p.requeue(key, data)
		}
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Service: Медленное сохранение", zap.Duration("ms", time.Since(start)), zap.Int("keys", len(batch)))
	}
	return errs
}

func (p *persister) requeue(key string, data []byte) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if _, newer := p.pending[key]; !newer {
		p.pending[key] = data
	}
}
