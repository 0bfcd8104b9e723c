package score

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/annel0/tank-battalion/internal/config"
	"github.com/annel0/tank-battalion/internal/logging"
)

// ErrNotFound возвращается хранилищем, если ключ отсутствует
var ErrNotFound = errors.New("score: key not found")

// Store простое key-value хранилище строк.
// Таблица рекордов целиком лежит под одним ключом.
type Store interface {
	// Get возвращает значение ключа или ErrNotFound
	Get(ctx context.Context, key string) (string, error)
	// Set перезаписывает значение ключа
	Set(ctx context.Context, key, value string) error
	// Close освобождает соединения
	Close() error
}

// MemoryStore хранит значения в памяти процесса.
// Используется по умолчанию и в тестах.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore создаёт пустое хранилище в памяти
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// OpenStore открывает хранилище по конфигурации
func OpenStore(ctx context.Context, cfg config.ScoresConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "badger":
		return NewBadgerStore(cfg.BadgerPath)
	case "redis":
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case "sql":
		return NewSQLStore(ctx, cfg.SQLDriver, cfg.SQLDSN)
	case "mongo":
		return NewMongoStore(ctx, MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
	default:
		return nil, fmt.Errorf("неизвестное хранилище рекордов: %q", cfg.Backend)
	}
}

// OpenStoreOrMemory как OpenStore, но при ошибке откатывается на память
func OpenStoreOrMemory(ctx context.Context, cfg config.ScoresConfig) Store {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		logging.GetScoreLogger().Warn("⚠️ Хранилище рекордов %s недоступно, используем память: %v", cfg.Backend, err)
		return NewMemoryStore()
	}
	return store
}
