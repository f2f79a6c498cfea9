package sqlkv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"listKeeper/internal/logger"
	repo "listKeeper/internal/repository"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Dialect описывает различия SQL между поддерживаемыми драйверами
type Dialect struct {
	Name        string
	Driver      string
	createTable string
	upsert      string
	selectValue string
	maxConns    int
}

var SQLite = Dialect{
	Name:   "sqlite",
	Driver: "sqlite",
	createTable: `CREATE TABLE IF NOT EXISTS kv_store (
				item_key   TEXT PRIMARY KEY,
				item_value BLOB NOT NULL,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
	upsert: `INSERT INTO kv_store (item_key, item_value, updated_at)
				VALUES (?, ?, CURRENT_TIMESTAMP)
				ON CONFLICT(item_key) DO UPDATE SET
				item_value = excluded.item_value,
				updated_at = excluded.updated_at`,
	selectValue: `SELECT item_value FROM kv_store WHERE item_key = ?`,
	// sqlite не любит параллельных писателей
	maxConns: 1,
}

var MySQL = Dialect{
	Name:   "mysql",
	Driver: "mysql",
	createTable: `CREATE TABLE IF NOT EXISTS kv_store (
				item_key   VARCHAR(191) PRIMARY KEY,
				item_value LONGBLOB NOT NULL,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
			)`,
	upsert: `INSERT INTO kv_store (item_key, item_value)
				VALUES (?, ?)
				ON DUPLICATE KEY UPDATE item_value = VALUES(item_value)`,
	selectValue: `SELECT item_value FROM kv_store WHERE item_key = ?`,
	maxConns:    10,
}

func DialectByName(name string) (Dialect, error) {
	switch name {
	case SQLite.Name:
		return SQLite, nil
	case MySQL.Name:
		return MySQL, nil
	default:
		return Dialect{}, fmt.Errorf("неизвестный диалект %q", name)
	}
}

type Storage struct {
	db      *sql.DB
	dialect Dialect
}

func Open(ctx context.Context, dialect Dialect, dsn string) (*Storage, error) {
	if dsn == "" {
		return nil, fmt.Errorf("не задан dsn для %s", dialect.Name)
	}

	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		logger.Error("Repository: Ошибка открытия базы", err, zap.String("dialect", dialect.Name))
		return nil, fmt.Errorf("открытие базы: %w", err)
	}
	db.SetMaxOpenConns(dialect.maxConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		logger.Error("Repository: Неудачная проверка ping", err, zap.String("dialect", dialect.Name))
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	s := &Storage{db: db, dialect: dialect}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("Repository: Хранилище готово", zap.String("dialect", dialect.Name))
	return s, nil
}

func (s *Storage) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.createTable); err != nil {
		logger.Error("Repository: Не удалось создать таблицу", err)
		return fmt.Errorf("создание таблицы kv_store: %w", err)
	}
	return nil
}

func (s *Storage) Close() error {
	logger.Info("Repository: Закрытие соединения", zap.String("dialect", s.dialect.Name))
	return s.db.Close()
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()

	var value []byte
	err := s.db.QueryRowContext(ctx, s.dialect.selectValue, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось прочитать значение", err, zap.String("key", key))
		return nil, fmt.Errorf("чтение %s: %w", key, err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.String("key", key), zap.Duration("ms", time.Since(start)))
	}
	return value, nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()

	if _, err := s.db.ExecContext(ctx, s.dialect.upsert, key, value); err != nil {
		logger.Error("Repository: Не удалось записать значение", err, zap.String("key", key))
		return fmt.Errorf("запись %s: %w", key, err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.String("key", key), zap.Duration("ms", time.Since(start)))
	}
	return nil
}
