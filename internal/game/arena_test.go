package game

import (
	"testing"

	"github.com/annel0/tank-battalion/internal/config"
	"github.com/annel0/tank-battalion/internal/event"
	"github.com/annel0/tank-battalion/internal/pool"
	"github.com/annel0/tank-battalion/internal/score"
	"github.com/annel0/tank-battalion/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig маленькая закрытая арена; враги появляются только по запросу теста
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Arena.Layout = []string{
		"@@@@@@@",
		"@.....@",
		"@.....@",
		"@.....@",
		"@@@@@@@",
	}
	cfg.Arena.PlayerSpawn = [2]int{1, 1}
	cfg.Arena.BasePosition = [2]int{5, 1}
	cfg.Spawner.SpawnPoints = [][2]int{{3, 3}}
	cfg.Spawner.InitialDelay = 1000
	cfg.Spawner.DelayBetweenSpawns = 1000
	cfg.Spawner.Cap = 3
	cfg.Items.DropChance = 0
	return cfg
}

func newTestArena(t *testing.T, cfg *config.Config) (*Arena, *score.Ledger) {
	t.Helper()
	ledger := score.NewLedger(score.NewMemoryStore(), score.JSONCodec{}, "")
	a, err := NewArena(cfg, ledger, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a, ledger
}

func TestArena_StartSpawnsPlayerAndBase(t *testing.T) {
	a, _ := newTestArena(t, testConfig())
	a.Start()

	player := a.PlayerTank()
	require.NotNil(t, player)
	assert.Equal(t, vec.Vec2Float{X: 1.5, Y: 1.5}, player.Position())
	assert.True(t, player.Health().IsAlive())
	require.NotNil(t, player.Weapons().CurrentWeapon(), "начальное оружие установлено")

	assert.True(t, a.Level.BaseBlocks(vec.Vec2Float{X: 5.5, Y: 1.5}))
	assert.False(t, a.Level.BaseBlocks(vec.Vec2Float{X: 4.5, Y: 1.5}))

	snap := a.Snapshot()
	assert.Equal(t, 3, snap.Lives)
	assert.Equal(t, "running", snap.Outcome)
	assert.Equal(t, "Spawning", snap.WaveState)
	assert.NotEmpty(t, snap.Pools)
}

func TestArena_PlayerMovesOneCell(t *testing.T) {
	a, _ := newTestArena(t, testConfig())
	a.Start()
	input := a.PlayerInput()
	require.NotNil(t, input)

	input.Press(KeyRight)
	a.Step(1.0 / 60)
	a.Step(1.0 / 60)
	input.Release(KeyRight)
	a.RunFrames(40)

	player := a.PlayerTank()
	assert.InDelta(t, 2.5, player.Position().X, 1e-6)
	assert.InDelta(t, 1.5, player.Position().Y, 1e-6)
	assert.Equal(t, vec.Right, player.Facing())
}

func TestArena_EnemyKillAddsPoints(t *testing.T) {
	cfg := testConfig()
	cfg.Spawner.InitialDelay = 0
	a, _ := newTestArena(t, cfg)

	var spawned []pool.Object
	a.Spawner.Spawned.Subscribe(func(o pool.Object) { spawned = append(spawned, o) })
	relay := event.NewMemoryRelay(0)
	a.ForwardEvents(relay)

	a.Start()
	require.Len(t, spawned, 1, "первый враг появляется сразу")
	enemy, ok := spawned[0].(*Tank)
	require.True(t, ok)

	killed := 0
	a.EnemyKilled.Subscribe(func(*Tank) { killed++ })
	enemy.Damage(100)

	assert.Equal(t, 1, killed)
	assert.Equal(t, cfg.Arena.PointsPerKill, a.Level.Points())
	assert.Equal(t, 2, a.Spawner.Remaining())
	assert.NotEmpty(t, relay.Envelopes(event.Filter{Types: []string{"score_changed"}}))
	assert.NotEmpty(t, relay.Envelopes(event.Filter{Types: []string{"enemy_killed"}}))

	a.RunFrames(60)
	assert.False(t, a.Pools.Active(enemy), "уничтоженный враг вернулся в пул")
}

func TestArena_PlayerRespawnsAfterDeath(t *testing.T) {
	a, _ := newTestArena(t, testConfig())
	a.Start()
	player := a.PlayerTank()

	player.Damage(100)
	assert.Equal(t, 2, a.Lives.Current())
	assert.False(t, player.Health().IsAlive())

	a.RunFrames(60)

	again := a.PlayerTank()
	require.NotNil(t, again)
	assert.Same(t, player, again, "пул выдаёт тот же экземпляр")
	assert.True(t, a.Pools.Active(again))
	assert.True(t, again.Health().IsAlive())
	assert.Equal(t, again.Health().Max(), again.Health().Current())
	assert.Equal(t, vec.Vec2Float{X: 1.5, Y: 1.5}, again.Position())
	assert.Equal(t, Running, a.Level.Outcome())
}

func TestArena_LastLifeEndsGameAndRecordsScore(t *testing.T) {
	cfg := testConfig()
	cfg.Arena.StartingLives = 1
	a, ledger := newTestArena(t, cfg)
	a.Start()

	finished := 0
	a.Level.Finished.Subscribe(func(o Outcome) {
		finished++
		assert.Equal(t, Defeat, o)
	})
	a.PlayerTank().Damage(100)

	assert.Equal(t, 1, finished)
	assert.True(t, a.Level.Over())
	assert.Equal(t, 0, a.RunFrames(10), "законченная партия не крутится")
	assert.Equal(t, 1, ledger.Len(), "первый результат всегда рекорд")
	assert.Equal(t, cfg.Arena.PlayerName, ledger.Scores()[0].PlayerName)
}

func TestArena_EmptyWaveIsVictory(t *testing.T) {
	cfg := testConfig()
	cfg.Spawner.Cap = 0
	a, ledger := newTestArena(t, cfg)

	a.Start()

	assert.Equal(t, Victory, a.Level.Outcome())
	assert.Equal(t, 1, ledger.Len())
	assert.Equal(t, "victory", a.Snapshot().Outcome)
}

func TestArena_BaseDestroyedIsDefeat(t *testing.T) {
	a, _ := newTestArena(t, testConfig())
	a.Start()

	base, ok := a.Level.base.(*Base)
	require.True(t, ok)
	base.Damage(1)

	assert.Equal(t, Defeat, a.Level.Outcome())
}

func TestArena_ShellBreaksBrick(t *testing.T) {
	cfg := testConfig()
	cfg.Arena.Layout = []string{
		"@@@@@@@",
		"@.....@",
		"@.....@",
		"@..#..@",
		"@@@@@@@",
	}
	cfg.Arena.BrickHealth = 1
	a, _ := newTestArena(t, cfg)
	a.Start()

	input := a.PlayerInput()
	// Поворачиваемся вправо: кирпич в (3,1), игрок в (1,1)
	input.Press(KeyRight)
	a.Step(1.0 / 60)
	a.Step(1.0 / 60)
	input.Release(KeyRight)
	a.RunFrames(40)
	require.InDelta(t, 2.5, a.PlayerTank().Position().X, 1e-6)

	input.Press(KeyFire)
	a.Step(1.0 / 60)
	input.Release(KeyFire)
	a.RunFrames(60)

	assert.Equal(t, 0, a.Snapshot().Bricks, "кирпич разрушен")
	assert.Equal(t, 1, a.Snapshot().TilesDestroyed)
	assert.Equal(t, 1, a.Snapshot().Shots)
}

func TestArena_PauseFreezesSimulation(t *testing.T) {
	a, _ := newTestArena(t, testConfig())
	a.Start()
	a.Loop.Pause()
	a.RunFrames(30)
	assert.Equal(t, 0.0, a.Snapshot().Elapsed)
	assert.True(t, a.Snapshot().Paused)

	a.Loop.Resume()
	a.RunFrames(30)
	assert.Greater(t, a.Snapshot().Elapsed, 0.0)
}

func TestArena_GeneratedTerrain(t *testing.T) {
	cfg := config.Default()
	cfg.Spawner.InitialDelay = 1000
	a, _ := newTestArena(t, cfg)

	assert.Equal(t, cfg.Arena.Width, a.Terrain.Width)
	a.Start()
	a.RunFrames(10)
	assert.Equal(t, Running, a.Level.Outcome())
}
