package game

import (
	"context"

	"github.com/annel0/tank-battalion/internal/event"
	"github.com/annel0/tank-battalion/internal/logging"
	"github.com/annel0/tank-battalion/internal/pool"
	"github.com/annel0/tank-battalion/internal/score"
	"github.com/annel0/tank-battalion/internal/spawner"
	"github.com/annel0/tank-battalion/internal/vec"
)

// Outcome итог уровня
type Outcome uint8

const (
	Running Outcome = iota
	Victory
	Defeat
)

func (o Outcome) String() string {
	switch o {
	case Running:
		return "running"
	case Victory:
		return "victory"
	case Defeat:
		return "defeat"
	default:
		return "unknown"
	}
}

// LevelOptions параметры уровня
type LevelOptions struct {
	PlayerName    string
	PointsPerKill int
	PlayerSpawn   vec.Vec2Float
	BasePosition  vec.Vec2Float
	Player        pool.Prototype
	Base          pool.Prototype // может быть nil: уровень без трофея
}

// Level ведёт одну партию: игрок, трофей, волна врагов, очки и запись рекорда
type Level struct {
	ctx     context.Context
	opts    LevelOptions
	pools   *pool.Manager
	lives   *Lives
	spawner *spawner.Spawner
	ledger  *score.Ledger

	points  int
	kills   int
	outcome Outcome
	started bool

	player         pool.Object
	base           pool.Object
	respawnPending bool
	subs           event.Subscriptions
	logger         *logging.Logger

	// ScoreChanged получает очки после каждого изменения
	ScoreChanged *event.Channel[int]
	// Finished срабатывает один раз в конце партии
	Finished *event.Channel[Outcome]
	// HighScoreRecorded получает запись, попавшую в таблицу рекордов
	HighScoreRecorded *event.Channel[score.HighScore]
}

// NewLevel создаёт уровень; ledger может быть nil (рекорды не пишутся)
func NewLevel(ctx context.Context, opts LevelOptions, pools *pool.Manager, lives *Lives, sp *spawner.Spawner, ledger *score.Ledger) *Level {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.PlayerName == "" {
		opts.PlayerName = "PLAYER"
	}
	l := &Level{
		ctx:               ctx,
		opts:              opts,
		pools:             pools,
		lives:             lives,
		spawner:           sp,
		ledger:            ledger,
		logger:            logging.GetGameLogger(),
		ScoreChanged:      event.NewChannel[int](),
		Finished:          event.NewChannel[Outcome](),
		HighScoreRecorded: event.NewChannel[score.HighScore](),
	}
	l.subs.Add(lives.RespawnPlayer.Subscribe(func() { l.respawnPending = true }))
	l.subs.Add(lives.GameOver.Subscribe(func() { l.finish(Defeat) }))
	l.subs.Add(sp.WaveComplete.Subscribe(func() { l.finish(Victory) }))
	return l
}

// Start начинает партию: игрок, трофей и запуск волны
func (l *Level) Start() {
	l.points = 0
	l.kills = 0
	l.outcome = Running
	l.started = true
	l.respawnPending = false
	l.ScoreChanged.Fire(l.points)
	l.lives.Reset()

	l.spawnPlayer()
	if l.opts.Base != nil {
		l.base = l.pools.Acquire(l.opts.Base, l.opts.BasePosition, vec.Up)
	}
	l.logger.Info("🎮 Уровень начат, игрок %s", l.opts.PlayerName)
	l.spawner.OnLevelStarted()
}

func (l *Level) spawnPlayer() {
	if l.opts.Player == nil {
		l.logger.Warn("game: прототип игрока не задан")
		return
	}
	l.player = l.pools.Acquire(l.opts.Player, l.opts.PlayerSpawn, vec.Up)
}

// OnPlayerKilled снимает жизнь
func (l *Level) OnPlayerKilled() {
	if l.outcome != Running {
		return
	}
	l.lives.LoseLife()
}

// OnEnemyKilled начисляет очки и сообщает волне
func (l *Level) OnEnemyKilled(enemy pool.Object) {
	if l.outcome != Running {
		return
	}
	l.kills++
	l.AddPoints(l.opts.PointsPerKill)
	l.spawner.RemoveEnemy(enemy)
}

// OnBaseDestroyed заканчивает игру поражением
func (l *Level) OnBaseDestroyed() {
	l.logger.Info("🏚️ Трофей уничтожен")
	l.finish(Defeat)
}

// AddPoints добавляет очки
func (l *Level) AddPoints(points int) {
	if points == 0 {
		return
	}
	l.points += points
	l.ScoreChanged.Fire(l.points)
}

func (l *Level) Points() int { return l.points }

func (l *Level) Kills() int { return l.kills }

func (l *Level) Outcome() Outcome { return l.outcome }

// Over true, когда партия начата и закончена
func (l *Level) Over() bool { return l.started && l.outcome != Running }

// Player текущий экземпляр игрока
func (l *Level) Player() pool.Object { return l.player }

// BaseBlocks true, если точка лежит в клетке активного трофея
func (l *Level) BaseBlocks(pos vec.Vec2Float) bool {
	if l.base == nil || !l.pools.Active(l.base) {
		return false
	}
	return pos.Floor() == l.opts.BasePosition.Floor()
}

// Tick возрождает игрока, когда прежний экземпляр вернулся в пул
func (l *Level) Tick(float64) {
	if !l.respawnPending || l.outcome != Running {
		return
	}
	if l.player != nil && l.pools.Active(l.player) {
		return
	}
	l.respawnPending = false
	l.spawnPlayer()
	l.logger.Info("🔁 Игрок возрождён, жизней: %d", l.lives.Current())
}

func (l *Level) finish(o Outcome) {
	if !l.started || l.outcome != Running {
		return
	}
	l.outcome = o
	l.respawnPending = false
	l.spawner.Stop()
	l.logger.Info("🏁 Партия окончена: %s, очки %d", o, l.points)

	l.recordScore()
	l.Finished.Fire(o)
}

func (l *Level) recordScore() {
	if l.ledger == nil {
		return
	}
	added, err := l.ledger.AddScore(l.ctx, l.points, l.opts.PlayerName)
	if err != nil {
		l.logger.Warn("⚠️ Рекорд не сохранён: %v", err)
	}
	if added {
		l.HighScoreRecorded.Fire(score.HighScore{Score: l.points, PlayerName: l.opts.PlayerName})
	}
}

// Close снимает подписки уровня
func (l *Level) Close() {
	l.subs.UnsubscribeAll()
}
