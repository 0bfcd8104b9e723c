package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("TANK_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "UTB_HighScores", cfg.Scores.Key)
	assert.NoError(t, cfg.Validate(), "конфигурация по умолчанию должна быть валидной")
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.yaml")
	yml := `
arena:
  seed: 42
spawner:
  cap: 5
scores:
  backend: badger
  codec: msgpack
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Arena.Seed)
	assert.Equal(t, 5, cfg.Spawner.Cap)
	assert.Equal(t, "badger", cfg.Scores.Backend)
	assert.Equal(t, "msgpack", cfg.Scores.Codec)
	// Незаданные поля остаются по умолчанию
	assert.Equal(t, 0.02, cfg.Arena.FixedStep)
}

func TestLoad_FromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("arena:\n  starting_lives: 7\n"), 0644))
	t.Setenv("TANK_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Arena.StartingLives)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_CollectsProblems(t *testing.T) {
	cfg := Default()
	cfg.Player.Health = 0
	cfg.Enemy.Weapon = "railgun"
	cfg.Scores.Backend = "etcd"

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	assert.Contains(t, err.Error(), "player.health")
	assert.Contains(t, err.Error(), "railgun")
	assert.Contains(t, err.Error(), "etcd")
}

func TestValidate_StableOrder(t *testing.T) {
	cfg := Default()
	cfg.Player.Health = 0
	cfg.Enemy.Health = 0
	cfg.Weapons["zap"] = WeaponConfig{Kind: "plasma"}
	cfg.Weapons["arc"] = WeaponConfig{Kind: "tesla"}

	first := cfg.Validate()
	require.Error(t, first)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first.Error(), cfg.Validate().Error(), "порядок проблем не должен меняться")
	}

	msg := first.Error()
	assert.Less(t, strings.Index(msg, "player.health"), strings.Index(msg, "enemy.health"))
	assert.Less(t, strings.Index(msg, "weapons.arc"), strings.Index(msg, "weapons.zap"))
}

func TestValidate_BackendDefaultsToMemory(t *testing.T) {
	cfg := Default()
	cfg.Scores.Backend = ""
	assert.NoError(t, cfg.Validate(), "пустой backend означает память")

	cfg.Scores.Backend = "mongo"
	assert.NoError(t, cfg.Validate())
}

func TestServerPorts_EnvFallback(t *testing.T) {
	t.Setenv("TANK_API_PORT", "9090")
	t.Setenv("TANK_METRICS_PORT", "")

	s := ServerConfig{}
	assert.Equal(t, 9090, s.GetAPIPort())
	assert.Equal(t, 2112, s.GetMetricsPort())

	s.APIPort = 7000
	assert.Equal(t, 7000, s.GetAPIPort(), "значение из конфига приоритетнее env")
}
