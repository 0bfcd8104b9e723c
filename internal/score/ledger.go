package score

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/annel0/tank-battalion/internal/event"
	"github.com/annel0/tank-battalion/internal/logging"
)

// DefaultKey ключ, под которым хранится таблица
const DefaultKey = "UTB_HighScores"

// Ledger таблица рекордов.
// Записи хранятся в порядке добавления; Sorted и Top сортируют по убыванию.
// Методы чтения безопасны для вызова из HTTP-обработчиков.
type Ledger struct {
	mu     sync.RWMutex
	scores []HighScore
	store  Store
	codec  Codec
	key    string
	logger *logging.Logger

	// writeMu упорядочивает запись в хранилище: последний снимок пишется последним
	writeMu sync.Mutex

	// HighScoreAdded срабатывает после каждой вставки. Рассылка идёт в потоке игры.
	HighScoreAdded *event.Signal
}

// NewLedger создаёт пустую таблицу без загрузки
func NewLedger(store Store, codec Codec, key string) *Ledger {
	if store == nil {
		store = NewMemoryStore()
	}
	if codec == nil {
		codec = JSONCodec{}
	}
	if key == "" {
		key = DefaultKey
	}
	return &Ledger{
		store:          store,
		codec:          codec,
		key:            key,
		logger:         logging.GetScoreLogger(),
		HighScoreAdded: event.NewSignal(),
	}
}

// Load создаёт таблицу и читает сохранённые записи.
// Отсутствующие, пустые или битые данные дают пустую таблицу.
func Load(ctx context.Context, store Store, codec Codec, key string) (*Ledger, error) {
	l := NewLedger(store, codec, key)
	if err := l.Reload(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload перечитывает записи из хранилища. Ошибка возвращается только при сбое хранилища.
func (l *Ledger) Reload(ctx context.Context) error {
	data, err := l.store.Get(ctx, l.key)
	if errors.Is(err, ErrNotFound) {
		l.replace(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("не удалось загрузить рекорды: %w", err)
	}

	if strings.TrimSpace(data) == "" {
		l.replace(nil)
		return nil
	}

	scores, err := l.codec.Decode(data)
	if err != nil {
		l.logger.Warn("⚠️ Повреждённая таблица рекордов под ключом %s: %v", l.key, err)
		l.replace(nil)
		return nil
	}

	l.replace(scores)
	l.logger.Debug("Загружено рекордов: %d", len(scores))
	return nil
}

func (l *Ledger) replace(scores []HighScore) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scores = append([]HighScore(nil), scores...)
}

// IsNewHighScore истина, если ни одна запись не больше score строго.
// Равный результат тоже считается рекордом.
func (l *Ledger) IsNewHighScore(score int) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.isNewLocked(score)
}

func (l *Ledger) isNewLocked(score int) bool {
	for _, hs := range l.scores {
		if hs.Score > score {
			return false
		}
	}
	return true
}

// CurrentHighScore максимальный результат или 0 для пустой таблицы
func (l *Ledger) CurrentHighScore() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	best := 0
	for i, hs := range l.scores {
		if i == 0 || hs.Score > best {
			best = hs.Score
		}
	}
	return best
}

// AddScore добавляет запись, если это новый рекорд, и сохраняет таблицу.
// Возвращает false без ошибки, если результат не рекордный.
// Параллельные вызовы сохраняют снимки в том же порядке, в каком меняли таблицу.
func (l *Ledger) AddScore(ctx context.Context, score int, name string) (bool, error) {
	l.writeMu.Lock()

	l.mu.Lock()
	if !l.isNewLocked(score) {
		l.mu.Unlock()
		l.writeMu.Unlock()
		return false, nil
	}
	l.scores = append(l.scores, HighScore{Score: score, PlayerName: name})
	snapshot := append([]HighScore(nil), l.scores...)
	l.mu.Unlock()

	err := l.persist(ctx, snapshot)
	l.writeMu.Unlock()

	l.logger.Info("🏆 Новый рекорд: %s - %d", name, score)
	l.HighScoreAdded.Fire()
	return true, err
}

// Clear удаляет все записи и сохраняет пустую таблицу
func (l *Ledger) Clear(ctx context.Context) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	l.replace(nil)
	return l.persist(ctx, nil)
}

func (l *Ledger) persist(ctx context.Context, scores []HighScore) error {
	data, err := l.codec.Encode(scores)
	if err != nil {
		return err
	}
	if err := l.store.Set(ctx, l.key, data); err != nil {
		return fmt.Errorf("не удалось сохранить рекорды: %w", err)
	}
	return nil
}

// Scores копия записей в порядке добавления
func (l *Ledger) Scores() []HighScore {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]HighScore{}, l.scores...)
}

// Sorted записи по убыванию; равные сохраняют порядок добавления
func (l *Ledger) Sorted() []HighScore {
	out := l.Scores()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Top первые n записей Sorted. n <= 0 даёт пустой список.
func (l *Ledger) Top(n int) []HighScore {
	if n <= 0 {
		return []HighScore{}
	}
	out := l.Sorted()
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Len число записей
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.scores)
}

// Key ключ хранения
func (l *Ledger) Key() string { return l.key }

// Close закрывает хранилище
func (l *Ledger) Close() error {
	return l.store.Close()
}
