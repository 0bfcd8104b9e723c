package score

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// SQLStore хранит значения в таблице kv_blobs (MySQL/MariaDB или SQLite).
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewSQLStore открывает базу и создаёт таблицу, если её нет.
//
// Параметры:
//
//	driver - "mysql" или "sqlite"
//	dsn - строка подключения (user:pass@tcp(host:port)/dbname или file:scores.db)
func NewSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	if driver != "mysql" && driver != "sqlite" {
		return nil, fmt.Errorf("неподдерживаемый SQL драйвер: %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к %s: %w", driver, err)
	}

	// Проверяем соединение
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с %s: %w", driver, err)
	}

	store := &SQLStore{db: db, driver: driver}
	if err := store.createTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицу: %w", err)
	}

	return store, nil
}

// createTable создает таблицу kv_blobs, если она не существует.
func (s *SQLStore) createTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS kv_blobs (
			k VARCHAR(191) PRIMARY KEY,
			v TEXT         NOT NULL
		)
	`

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ошибка создания таблицы kv_blobs: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT v FROM kv_blobs WHERE k = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("ошибка чтения ключа %s: %w", key, err)
	}
	return value, nil
}

// Set использует upsert в диалекте выбранного драйвера
func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	query := `INSERT INTO kv_blobs (k, v) VALUES (?, ?)
		ON CONFLICT(k) DO UPDATE SET v = excluded.v`
	if s.driver == "mysql" {
		query = `INSERT INTO kv_blobs (k, v) VALUES (?, ?)
			ON DUPLICATE KEY UPDATE v = VALUES(v)`
	}

	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("ошибка записи ключа %s: %w", key, err)
	}
	return nil
}

// Close закрывает соединение с базой данных.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
