package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"listKeeper/internal/logger"
	repo "listKeeper/internal/repository"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, connString string, poolCfg PoolConfig) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5
	if poolCfg.MaxConns > 0 {
		config.MaxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns > 0 {
		config.MinConns = poolCfg.MinConns
	}
	if poolCfg.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = poolCfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()

	query := `SELECT item_value
				FROM kv_store
				WHERE item_key = $1`

	var value []byte
	err := s.pool.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось прочитать значение", err, zap.String("key", key), zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("чтение %s: %w", key, err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.String("key", key), zap.Duration("ms", time.Since(start)))
	}
	return value, nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()

	query := `INSERT INTO kv_store (item_key, item_value, updated_at)
				VALUES ($1, $2, NOW())
				ON CONFLICT (item_key) DO UPDATE SET
				item_value = EXCLUDED.item_value,
				updated_at = NOW(),
				version = kv_store.version + 1`

	if _, err := s.pool.Exec(ctx, query, key, value); err != nil {
		logger.Error("Repository: Не удалось записать значение", err, zap.String("key", key), zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("запись %s: %w", key, err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.String("key", key), zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// Version - сколько раз ключ перезаписывался, 0 если ключа нет
func (s *Storage) Version(ctx context.Context, key string) (int, error) {
	var version int
	err := s.pool.QueryRow(ctx, `SELECT version FROM kv_store WHERE item_key = $1`, key).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("получение версии %s: %w", key, err)
	}
	return version, nil
}

func (s *Storage) Migrate(ctx context.Context) error {
	logger.Info("Repository: Применение миграций")

	initUp, err := migrationsFS.ReadFile("migrations/001_kv_store.up.sql")
	if err != nil {
		logger.Error("Repository: Не удалось прочитать 001_kv_store.up.sql", err)
		return fmt.Errorf("чтение миграции: %w", err)
	}

	if _, err := s.pool.Exec(ctx, string(initUp)); err != nil {
		logger.Error("Repository: Не удалось применить 001_kv_store", err)
		return fmt.Errorf("применение миграции: %w", err)
	}

	logger.Info("Repository: Миграции применены")
	return nil
}

func (s *Storage) Down(ctx context.Context) error {
	logger.Info("Repository: Откат миграций")

	initDown, err := migrationsFS.ReadFile("migrations/001_kv_store.down.sql")
	if err != nil {
		logger.Error("Repository: Не удалось прочитать 001_kv_store.down.sql", err)
		return fmt.Errorf("чтение миграции: %w", err)
	}

	if _, err := s.pool.Exec(ctx, string(initDown)); err != nil {
		logger.Error("Repository: Не удалось откатить 001_kv_store", err)
		return fmt.Errorf("откат миграции: %w", err)
	}
	return nil
}
