package game

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/annel0/tank-battalion/internal/combat"
	"github.com/annel0/tank-battalion/internal/config"
	"github.com/annel0/tank-battalion/internal/event"
	"github.com/annel0/tank-battalion/internal/logging"
	"github.com/annel0/tank-battalion/internal/movement"
	"github.com/annel0/tank-battalion/internal/physics"
	"github.com/annel0/tank-battalion/internal/pool"
	"github.com/annel0/tank-battalion/internal/score"
	"github.com/annel0/tank-battalion/internal/spawner"
	"github.com/annel0/tank-battalion/internal/terrain"
	"github.com/annel0/tank-battalion/internal/vec"
	"github.com/annel0/tank-battalion/internal/weapon"
)

// Идентификаторы прототипов
const (
	ProtoPlayer     = "tank.player"
	ProtoEnemy      = "tank.enemy"
	ProtoBase       = "base"
	ProtoExplosion  = "explosion"
	ProtoSpeedBoost = "item.speed_boost"
	ProtoGiveLife   = "item.give_life"
)

// eventSource источник событий арены в ретрансляторе
const eventSource = "arena"

// Options параметры сборки арены, не входящие в конфигурацию
type Options struct {
	// PlayerAI отдаёт танк игрока под управление ИИ (безголовый прогон)
	PlayerAI bool
	// Context используется для записи рекордов
	Context context.Context
}

// PoolEvent выдача или возврат объекта пула
type PoolEvent struct {
	ID       string
	Acquired bool
}

// Snapshot состояние арены для API и метрик. Читается из других горутин.
type Snapshot struct {
	Frame          uint64       `json:"frame"`
	Elapsed        float64      `json:"elapsed"`
	Paused         bool         `json:"paused"`
	Points         int          `json:"points"`
	Lives          int          `json:"lives"`
	Kills          int          `json:"kills"`
	Shots          int          `json:"shots"`
	Remaining      int          `json:"remaining"`
	Spawned        int          `json:"spawned"`
	WaveState      string       `json:"wave_state"`
	Outcome        string       `json:"outcome"`
	HighScore      int          `json:"high_score"`
	Bricks         int          `json:"bricks"`
	TilesDestroyed int          `json:"tiles_destroyed"`
	Pools          []pool.Stats `json:"pools"`
}

// Arena собирает все части партии и крутит их в одном игровом цикле
type Arena struct {
	cfg  *config.Config
	opts Options
	rng  *rand.Rand

	Loop    *Loop
	Pools   *pool.Manager
	Space   *physics.Space
	Terrain *terrain.Arena
	Lives   *Lives
	Spawner *spawner.Spawner
	Level   *Level
	Ledger  *score.Ledger

	playerWeapons []pool.Prototype
	weaponsByKey  map[string]pool.Prototype
	protos        map[string]pool.Prototype
	playerInput   *PlayerController

	shots          int
	tilesDestroyed int

	// EnemyKilled получает каждого уничтоженного врага
	EnemyKilled *event.Channel[*Tank]
	// ShotFired срабатывает на каждый выстрел любого танка
	ShotFired *event.Signal
	// PoolActivity получает выдачи и возвраты объектов пулов
	PoolActivity *event.Channel[PoolEvent]
	// ItemPicked получает идентификатор подобранного бонуса
	ItemPicked *event.Channel[string]

	mu   sync.RWMutex
	snap Snapshot

	logger *logging.Logger
}

// NewArena строит арену по конфигурации. ledger может быть nil.
func NewArena(cfg *config.Config, ledger *score.Ledger, opts Options) (*Arena, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	logger := logging.GetGameLogger()
	if err := cfg.Validate(); err != nil {
		logger.Warn("⚠️ %v", err)
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	a := &Arena{
		cfg:          cfg,
		opts:         opts,
		rng:          rand.New(rand.NewSource(cfg.Arena.Seed)),
		Loop:         NewLoop(cfg.Arena.FixedStep),
		Pools:        pool.NewManager(),
		Ledger:       ledger,
		weaponsByKey: make(map[string]pool.Prototype),
		protos:       make(map[string]pool.Prototype),
		EnemyKilled:  event.NewChannel[*Tank](),
		ShotFired:    event.NewSignal(),
		PoolActivity: event.NewChannel[PoolEvent](),
		ItemPicked:   event.NewChannel[string](),
		logger:       logger,
	}

	if err := a.buildTerrain(); err != nil {
		return nil, err
	}
	a.Space = physics.NewSpace(a.Terrain.Walls)
	a.Loop.SetPhysics(FixedTickFunc(a.Space.Step))

	a.Pools.OnAcquire = a.onAcquire
	a.Pools.OnRelease = a.onRelease

	a.Lives = NewLives(cfg.Arena.StartingLives)
	a.buildWeapons()
	a.buildPrototypes()

	sc := cfg.Spawner
	points := make([]vec.Vec2Float, 0, len(sc.SpawnPoints))
	for _, p := range sc.SpawnPoints {
		points = append(points, a.cellCenter(p))
	}
	a.Spawner = spawner.New(spawner.Config{
		InitialDelay:       sc.InitialDelay,
		DelayBetweenSpawns: sc.DelayBetweenSpawns,
		Cap:                sc.Cap,
		SpawnPoints:        points,
		Facing:             vec.Down,
	}, a.Pools, a.protos[ProtoEnemy], a.rng)

	a.Level = NewLevel(opts.Context, LevelOptions{
		PlayerName:    cfg.Arena.PlayerName,
		PointsPerKill: cfg.Arena.PointsPerKill,
		PlayerSpawn:   a.cellCenter(cfg.Arena.PlayerSpawn),
		BasePosition:  a.cellCenter(cfg.Arena.BasePosition),
		Player:        a.protos[ProtoPlayer],
		Base:          a.protos[ProtoBase],
	}, a.Pools, a.Lives, a.Spawner, ledger)

	a.Loop.Add(a.Spawner)
	a.Loop.Add(a.Level)

	a.Terrain.Walls.TileDestroyed.Subscribe(func(center vec.Vec2Float) {
		a.tilesDestroyed++
		a.Pools.Acquire(a.protos[ProtoExplosion], center, vec.Up)
	})

	a.logger.Info("🗺️ Арена %dx%d готова: кирпичей %d, стали %d, воды %d",
		a.Terrain.Width, a.Terrain.Height,
		a.Terrain.Walls.Count(terrain.Brick), a.Terrain.Walls.Count(terrain.Steel), a.Terrain.Water.Count(terrain.Water))
	return a, nil
}

// FixedTickFunc функция как FixedTicker
type FixedTickFunc func(dt float64)

func (f FixedTickFunc) FixedTick(dt float64) { f(dt) }

func (a *Arena) buildTerrain() error {
	ac := a.cfg.Arena
	if len(ac.Layout) > 0 {
		t, err := terrain.ParseLayout(ac.Layout, 1)
		if err != nil {
			return fmt.Errorf("ошибка раскладки арены: %w", err)
		}
		a.Terrain = t
	} else {
		keep := []vec.Vec2{cellOf(ac.PlayerSpawn), cellOf(ac.BasePosition)}
		for _, p := range a.cfg.Spawner.SpawnPoints {
			keep = append(keep, cellOf(p))
		}
		a.Terrain = terrain.NewGenerator(ac.Seed, ac.BrickDensity).Generate(ac.Width, ac.Height, keep)
	}
	a.Terrain.Walls.InitDestructible(ac.BrickHealth)
	return nil
}

func cellOf(p [2]int) vec.Vec2 { return vec.Vec2{X: p[0], Y: p[1]} }

func (a *Arena) cellCenter(p [2]int) vec.Vec2Float {
	return a.Terrain.Walls.CellCenterWorld(cellOf(p))
}

// buildWeapons регистрирует по паре прототипов на каждое оружие: для игрока и для врагов
func (a *Arena) buildWeapons() {
	names := make([]string, 0, len(a.cfg.Weapons))
	for name := range a.cfg.Weapons {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		wc := a.cfg.Weapons[name]
		for _, side := range []string{"player", "enemy"} {
			targets := physics.LayerEnemy
			if side == "enemy" {
				targets = physics.LayerPlayer | physics.LayerBase
			}
			p := a.weaponPrototype(name, side, wc, targets)
			if p == nil {
				continue
			}
			a.Pools.Register(p)
			a.weaponsByKey[side+"."+name] = p
			if side == "player" {
				a.playerWeapons = append(a.playerWeapons, p)
			}
		}
	}
}

func (a *Arena) weaponPrototype(name, side string, wc config.WeaponConfig, targets physics.Layer) pool.Prototype {
	id := "weapon." + name + "." + side
	switch wc.Kind {
	case "projectile":
		shell := pool.NewPrototype("shell."+name+"."+side, func() pool.Object {
			return weapon.NewProjectile(weapon.ProjectileConfig{
				Damage:       wc.Damage,
				KillOnImpact: wc.KillOnImpact,
				Mask:         physics.LayerTerrain | targets,
			}, a.Space, a.Pools, a.Terrain.Walls)
		})
		a.Pools.Register(shell)
		return pool.NewPrototype(id, func() pool.Object {
			return weapon.NewProjectileWeapon(a.Pools, shell, wc.Speed)
		})
	case "beam":
		return pool.NewPrototype(id, func() pool.Object {
			return weapon.NewBeamWeapon(weapon.BeamConfig{
				Damage:    wc.Damage,
				Duration:  wc.Duration,
				Distance:  wc.Distance,
				EnemyMask: targets,
			}, a.Space)
		})
	default:
		a.logger.Warn("game: оружие %s неизвестного типа %q пропущено", name, wc.Kind)
		return nil
	}
}

func (a *Arena) buildPrototypes() {
	add := func(p pool.Prototype) {
		a.protos[p.ID()] = p
		a.Pools.Register(p)
	}

	add(pool.NewPrototype(ProtoPlayer, func() pool.Object { return a.newPlayerTank() }))
	add(pool.NewPrototype(ProtoEnemy, func() pool.Object { return a.newEnemyTank() }))
	add(pool.NewPrototype(ProtoBase, func() pool.Object {
		b := NewBase(a.Space, a.Pools, 1)
		b.Health().Killed.Subscribe(func(interface{}) {
			a.explode(b.Position())
			a.Level.OnBaseDestroyed()
		})
		return b
	}))
	add(pool.NewPrototype(ProtoExplosion, func() pool.Object {
		return NewExplosion(a.Pools, a.cfg.Arena.ExplosionDelay)
	}))

	ic := a.cfg.Items
	add(pool.NewPrototype(ProtoSpeedBoost, func() pool.Object {
		it := NewSpeedBoostItem(a.Space, a.Pools, physics.LayerPlayer, ic.SpeedBoostDuration, ic.SpeedBoostLength)
		it.PickedUp.Subscribe(func(*physics.Body) { a.ItemPicked.Fire(ProtoSpeedBoost) })
		return it
	}))
	add(pool.NewPrototype(ProtoGiveLife, func() pool.Object {
		it := NewGiveLifeItem(a.Space, a.Pools, physics.LayerPlayer, a.Lives)
		it.PickedUp.Subscribe(func(*physics.Body) { a.ItemPicked.Fire(ProtoGiveLife) })
		return it
	}))

	a.Pools.Preload(a.protos[ProtoExplosion], 4)
}

func (a *Arena) tankOptions(name string, layer physics.Layer, tc config.TankConfig, side string) TankOptions {
	return TankOptions{
		Name:  name,
		Layer: layer,
		Health: combat.Config{
			MaxHealth:  tc.Health,
			DeathDelay: a.cfg.Arena.DeathDelay,
		},
		Movement: movement.Config{
			MovementDuration: tc.MovementDuration,
			MovementDistance: tc.MovementDistance,
			TileCheckOffset:  tc.TileCheckOffset,
			Width:            tc.Width,
		},
		Weapon: a.weaponsByKey[side+"."+tc.Weapon],
		Occupancy: terrain.Layers{
			a.Terrain.Walls,
			a.Terrain.Water,
			terrain.OccupancyFunc(func(p vec.Vec2Float) bool { return a.Level.BaseBlocks(p) }),
		},
	}
}

func (a *Arena) newPlayerTank() *Tank {
	t := NewTank(a.tankOptions("player", physics.LayerPlayer, a.cfg.Player, "player"), a.Space, a.Pools)
	t.Weapons().Fired.Subscribe(a.onShot)

	if a.opts.PlayerAI {
		t.AddController(NewRandomMover(t.Mover(), a.rng))
		t.AddController(NewLineOfSightShooter(t.Weapons(), t, a.Space, physics.LayerEnemy, a.cfg.Player.FireCooldown))
	} else {
		swapper := NewWeaponSwapper(t.Weapons().SwapWeapon, a.playerWeapons)
		swapper.SetInitial(t.Weapons().CurrentPrototype())
		pc := NewPlayerController(t.Mover(), t.Weapons(), swapper)
		t.AddController(pc)
		a.playerInput = pc
	}

	t.Health().Killed.Subscribe(func(interface{}) {
		a.explode(t.Position())
		a.Level.OnPlayerKilled()
	})
	return t
}

func (a *Arena) newEnemyTank() *Tank {
	t := NewTank(a.tankOptions("enemy", physics.LayerEnemy, a.cfg.Enemy, "enemy"), a.Space, a.Pools)
	t.Weapons().Fired.Subscribe(a.onShot)
	t.AddController(NewRandomMover(t.Mover(), a.rng))
	t.AddController(NewLineOfSightShooter(t.Weapons(), t, a.Space, physics.LayerPlayer|physics.LayerBase, a.cfg.Enemy.FireCooldown))
	t.AddController(NewRandomShooter(t.Weapons(), a.rng))

	t.Health().Killed.Subscribe(func(interface{}) {
		a.explode(t.Position())
		a.EnemyKilled.Fire(t)
		a.Level.OnEnemyKilled(t)
		a.maybeDropItem(t.Position())
	})
	return t
}

func (a *Arena) onShot() {
	a.shots++
	a.ShotFired.Fire()
}

func (a *Arena) explode(pos vec.Vec2Float) {
	a.Pools.Acquire(a.protos[ProtoExplosion], pos, vec.Up)
}

func (a *Arena) maybeDropItem(pos vec.Vec2Float) {
	ic := a.cfg.Items
	if ic.DropChance <= 0 || a.rng.Float64() >= ic.DropChance {
		return
	}
	id := ProtoSpeedBoost
	if a.rng.Float64() < ic.LifeDropShare {
		id = ProtoGiveLife
	}
	center := a.Terrain.Walls.CellCenterWorld(a.Terrain.Walls.WorldToCell(pos))
	a.Pools.Acquire(a.protos[id], center, vec.Up)
	a.logger.Debug("game: выпал бонус %s", id)
}

func (a *Arena) onAcquire(id string, obj pool.Object) {
	a.PoolActivity.Fire(PoolEvent{ID: id, Acquired: true})
	// Оружие тикает через обработчик танка; объект мог вернуться в пул прямо при выдаче
	if _, isWeapon := obj.(weapon.Weapon); isWeapon || !a.Pools.Active(obj) {
		return
	}
	a.Loop.Add(obj)
}

func (a *Arena) onRelease(id string, obj pool.Object) {
	a.PoolActivity.Fire(PoolEvent{ID: id, Acquired: false})
	a.Loop.Remove(obj)
}

// Prototype прототип по идентификатору
func (a *Arena) Prototype(id string) pool.Prototype { return a.protos[id] }

// PlayerInput клавиатура игрока; nil, если игроком управляет ИИ
func (a *Arena) PlayerInput() *InputState {
	if a.playerInput == nil {
		return nil
	}
	return &a.playerInput.Input
}

// PlayerTank текущий танк игрока
func (a *Arena) PlayerTank() *Tank {
	t, _ := a.Level.Player().(*Tank)
	return t
}

// Start начинает партию
func (a *Arena) Start() {
	a.Level.Start()
	a.refresh()
}

// Step выполняет один кадр и обновляет снимок состояния
func (a *Arena) Step(dt float64) {
	a.Loop.Frame(dt)
	a.refresh()
}

// RunFrames крутит арену без реального времени, пока не пройдёт n кадров
// или не закончится партия. Возвращает число выполненных кадров.
func (a *Arena) RunFrames(n int) int {
	dt := a.frameStep()
	for i := 0; i < n; i++ {
		if a.Level.Over() {
			return i
		}
		a.Step(dt)
	}
	return n
}

// Run крутит арену в реальном времени до отмены ctx или конца партии
func (a *Arena) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	step := time.Duration(a.frameStep() * float64(time.Second))
	a.Loop.Run(ctx, step, func() {
		a.refresh()
		if a.Level.Over() {
			cancel()
		}
	})
}

func (a *Arena) frameStep() float64 {
	if a.cfg.Arena.FrameStep > 0 {
		return a.cfg.Arena.FrameStep
	}
	return a.Loop.FixedStep()
}

func (a *Arena) refresh() {
	s := Snapshot{
		Frame:          a.Loop.Frames(),
		Elapsed:        a.Loop.Elapsed(),
		Paused:         a.Loop.Paused(),
		Points:         a.Level.Points(),
		Lives:          a.Lives.Current(),
		Kills:          a.Level.Kills(),
		Shots:          a.shots,
		Remaining:      a.Spawner.Remaining(),
		Spawned:        a.Spawner.SpawnedCount(),
		WaveState:      a.Spawner.State().String(),
		Outcome:        a.Level.Outcome().String(),
		Bricks:         a.Terrain.Walls.Count(terrain.Brick),
		TilesDestroyed: a.tilesDestroyed,
		Pools:          a.Pools.AllStats(),
	}
	if a.Ledger != nil {
		s.HighScore = a.Ledger.CurrentHighScore()
	}

	a.mu.Lock()
	a.snap = s
	a.mu.Unlock()
}

// Snapshot последний снимок состояния; безопасен для других горутин
func (a *Arena) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s := a.snap
	s.Pools = append([]pool.Stats(nil), a.snap.Pools...)
	return s
}

// ForwardEvents пересылает события партии в ретранслятор
func (a *Arena) ForwardEvents(relay event.Relay) *event.Subscriptions {
	subs := &event.Subscriptions{}
	subs.Add(event.Forward(a.Level.ScoreChanged, relay, eventSource, "score_changed", nil))
	subs.Add(event.Forward(a.Lives.LivesUpdated, relay, eventSource, "lives_updated", nil))
	subs.Add(event.Forward(a.Spawner.RemainingChanged, relay, eventSource, "remaining_changed", nil))
	subs.Add(event.ForwardSignal(a.Spawner.WaveComplete, relay, eventSource, "wave_complete"))
	subs.Add(event.ForwardSignal(a.Lives.GameOver, relay, eventSource, "game_over"))
	subs.Add(event.Forward(a.Level.Finished, relay, eventSource, "level_finished", func(o Outcome) interface{} {
		return map[string]string{"outcome": o.String()}
	}))
	subs.Add(event.Forward(a.Level.HighScoreRecorded, relay, eventSource, "high_score", nil))
	subs.Add(event.Forward(a.EnemyKilled, relay, eventSource, "enemy_killed", func(t *Tank) interface{} {
		p := t.Position()
		return map[string]float64{"x": p.X, "y": p.Y}
	}))
	return subs
}

// Close снимает подписки и закрывает таблицу рекордов
func (a *Arena) Close() error {
	a.Level.Close()
	if a.Ledger != nil {
		return a.Ledger.Close()
	}
	return nil
}
