package score

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/annel0/tank-battalion/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkStore общий набор проверок для всех реализаций Store
func checkStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "k", "v1"))
	v, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	require.NoError(t, store.Set(ctx, "k", "v2"), "повторная запись перезаписывает")
	v, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	checkStore(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, store.Set(ctx, "k", "v"), "отменённый контекст")
}

func TestBadgerStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scores")
	store, err := NewBadgerStore(dir)
	require.NoError(t, err)
	checkStore(t, store)

	// Данные переживают переоткрытие
	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "повторное закрытие")

	reopened, err := NewBadgerStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	v, err := reopened.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
}

func TestSQLiteStore(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "scores.db")
	store, err := NewSQLStore(context.Background(), "sqlite", dsn)
	require.NoError(t, err)
	defer store.Close()

	checkStore(t, store)
}

func TestSQLStoreRejectsDriver(t *testing.T) {
	_, err := NewSQLStore(context.Background(), "postgres", "")
	assert.Error(t, err)
}

func TestMySQLStore(t *testing.T) {
	dsn := os.Getenv("TANK_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TANK_TEST_MYSQL_DSN не задан")
	}
	store, err := NewSQLStore(context.Background(), "mysql", dsn)
	require.NoError(t, err)
	defer store.Close()

	checkStore(t, store)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TANK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TANK_TEST_REDIS_ADDR не задан")
	}
	db, _ := strconv.Atoi(os.Getenv("TANK_TEST_REDIS_DB"))
	store, err := NewRedisStore(context.Background(), addr, "", db)
	require.NoError(t, err)
	defer store.Close()

	checkStore(t, store)
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("TANK_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TANK_TEST_MONGO_URI не задан")
	}
	ctx := context.Background()
	store, err := OpenStore(ctx, config.ScoresConfig{
		Backend:         "mongo",
		MongoURI:        uri,
		MongoDatabase:   "tanks_test",
		MongoCollection: "scores_" + strconv.FormatInt(time.Now().UnixNano(), 36),
	})
	require.NoError(t, err)
	require.IsType(t, &MongoStore{}, store)
	defer store.Close()

	checkStore(t, store)
}

// slowStore хранилище с задержкой записи, обратной номеру вызова
type slowStore struct {
	*MemoryStore
	calls atomic.Int32
}

func (s *slowStore) Set(ctx context.Context, key, value string) error {
	n := s.calls.Add(1)
	time.Sleep(time.Duration(20-n%20) * time.Millisecond)
	return s.MemoryStore.Set(ctx, key, value)
}

func TestLedger_ConcurrentAddKeepsLatest(t *testing.T) {
	ctx := context.Background()
	store := &slowStore{MemoryStore: NewMemoryStore()}
	l := NewLedger(store, JSONCodec{}, "")

	var wg sync.WaitGroup
	for i := 1; i <= 16; i++ {
		wg.Add(1)
		go func(score int) {
			defer wg.Done()
			_, err := l.AddScore(ctx, score, "P"+strconv.Itoa(score))
			assert.NoError(t, err)
		}(i * 10)
	}
	wg.Wait()

	restored, err := Load(ctx, store, JSONCodec{}, "")
	require.NoError(t, err)
	assert.Equal(t, l.Scores(), restored.Scores(), "в хранилище последний снимок таблицы")
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	store, err := OpenStore(ctx, config.ScoresConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = OpenStore(ctx, config.ScoresConfig{
		Backend:    "badger",
		BadgerPath: filepath.Join(t.TempDir(), "b"),
	})
	require.NoError(t, err)
	assert.IsType(t, &BadgerStore{}, store)
	require.NoError(t, store.Close())

	_, err = OpenStore(ctx, config.ScoresConfig{Backend: "etcd"})
	assert.Error(t, err)

	fallback := OpenStoreOrMemory(ctx, config.ScoresConfig{Backend: "etcd"})
	assert.IsType(t, &MemoryStore{}, fallback)
}

func TestLedgerOverBadger(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewBadgerStore(dir)
	require.NoError(t, err)
	l := NewLedger(store, MsgpackCodec{}, "")
	_, err = l.AddScore(ctx, 42, "tank")
	require.NoError(t, err)
	require.NoError(t, l.Close())

	store, err = NewBadgerStore(dir)
	require.NoError(t, err)
	restored, err := Load(ctx, store, MsgpackCodec{}, "")
	require.NoError(t, err)
	defer restored.Close()

	assert.Equal(t, []HighScore{{Score: 42, PlayerName: "tank"}}, restored.Scores())
}
