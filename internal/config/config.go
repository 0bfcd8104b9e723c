package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid оборачивает все ошибки валидации конфигурации
var ErrInvalid = errors.New("некорректная конфигурация")

// Config корневая структура конфигурации арены.
type Config struct {
	Arena     ArenaConfig             `yaml:"arena"`
	Player    TankConfig              `yaml:"player"`
	Enemy     TankConfig              `yaml:"enemy"`
	Weapons   map[string]WeaponConfig `yaml:"weapons"`
	Spawner   SpawnerConfig           `yaml:"spawner"`
	Items     ItemsConfig             `yaml:"items"`
	Scores    ScoresConfig            `yaml:"scores"`
	Events    EventsConfig            `yaml:"events"`
	Server    ServerConfig            `yaml:"server"`
	Logging   LoggingConfig           `yaml:"logging"`
	Telemetry TelemetryConfig         `yaml:"telemetry"`
}

// ArenaConfig параметры симуляции и поля боя
type ArenaConfig struct {
	FixedStep      float64  `yaml:"fixed_step"`
	FrameStep      float64  `yaml:"frame_step"`
	Seed           int64    `yaml:"seed"`
	Width          int      `yaml:"width"`
	Height         int      `yaml:"height"`
	BrickDensity   float64  `yaml:"brick_density"`
	BrickHealth    int      `yaml:"brick_health"`
	PointsPerKill  int      `yaml:"points_per_kill"`
	StartingLives  int      `yaml:"starting_lives"`
	DeathDelay     float64  `yaml:"death_delay"`
	ExplosionDelay float64  `yaml:"explosion_delay"`
	PlayerName     string   `yaml:"player_name"`
	PlayerSpawn    [2]int   `yaml:"player_spawn"`
	BasePosition   [2]int   `yaml:"base_position"`
	Layout         []string `yaml:"layout"`
}

// TankConfig параметры танка (игрока или противника)
type TankConfig struct {
	Health           int     `yaml:"health"`
	MovementDuration float64 `yaml:"movement_duration"`
	MovementDistance int     `yaml:"movement_distance"`
	TileCheckOffset  float64 `yaml:"tile_check_offset"`
	Width            int     `yaml:"width"`
	Weapon           string  `yaml:"weapon"`
	FireCooldown     float64 `yaml:"fire_cooldown"`
}

// WeaponConfig описание оружия. Kind: "projectile" или "beam".
type WeaponConfig struct {
	Kind         string  `yaml:"kind"`
	Damage       int     `yaml:"damage"`
	Speed        float64 `yaml:"speed"`
	KillOnImpact bool    `yaml:"kill_on_impact"`
	Duration     float64 `yaml:"duration"`
	Distance     float64 `yaml:"distance"`
}

type SpawnerConfig struct {
	InitialDelay       float64  `yaml:"initial_delay"`
	DelayBetweenSpawns float64  `yaml:"delay_between_spawns"`
	Cap                int      `yaml:"cap"`
	SpawnPoints        [][2]int `yaml:"spawn_points"`
}

// ItemsConfig бонусы, выпадающие из уничтоженных врагов
type ItemsConfig struct {
	SpeedBoostDuration float64 `yaml:"speed_boost_duration"`
	SpeedBoostLength   float64 `yaml:"speed_boost_length"`
	DropChance         float64 `yaml:"drop_chance"`     // 0..1
	LifeDropShare      float64 `yaml:"life_drop_share"` // доля жизней среди выпавших бонусов
}

// ScoresConfig выбирает хранилище таблицы рекордов
type ScoresConfig struct {
	Backend         string `yaml:"backend"` // memory | badger | redis | sql | mongo
	Key             string `yaml:"key"`
	Codec           string `yaml:"codec"` // json | msgpack
	BadgerPath      string `yaml:"badger_path"`
	RedisAddr       string `yaml:"redis_addr"`
	RedisPassword   string `yaml:"redis_password"`
	RedisDB         int    `yaml:"redis_db"`
	SQLDriver       string `yaml:"sql_driver"` // mysql | sqlite
	SQLDSN          string `yaml:"sql_dsn"`
	MongoURI        string `yaml:"mongo_uri"`
	MongoDatabase   string `yaml:"mongo_database"`
	MongoCollection string `yaml:"mongo_collection"`
}

type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Stream  string `yaml:"stream"`
}

type ServerConfig struct {
	APIPort     int `yaml:"api_port"`
	MetricsPort int `yaml:"metrics_port"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Service  string `yaml:"service"`
	Endpoint string `yaml:"endpoint"` // host:port OTLP/HTTP; пусто — переменные OTEL_* или localhost:4318
	Insecure bool   `yaml:"insecure"` // http вместо https
}

// GetAPIPort возвращает порт REST API с поддержкой fallback значений
func (s *ServerConfig) GetAPIPort() int {
	return getPortWithEnvFallback(s.APIPort, "TANK_API_PORT", 8088)
}

// GetMetricsPort возвращает порт Prometheus метрик с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "TANK_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Default возвращает конфигурацию, с которой арена запускается без файла
func Default() *Config {
	return &Config{
		Arena: ArenaConfig{
			FixedStep:      0.02,
			FrameStep:      1.0 / 60.0,
			Seed:           1,
			Width:          26,
			Height:         26,
			BrickDensity:   0.35,
			BrickHealth:    2,
			PointsPerKill:  100,
			StartingLives:  3,
			DeathDelay:     0.5,
			ExplosionDelay: 0.4,
			PlayerName:     "PLAYER",
			PlayerSpawn:    [2]int{8, 1},
			BasePosition:   [2]int{12, 1},
		},
		Player: TankConfig{
			Health:           3,
			MovementDuration: 0.25,
			MovementDistance: 1,
			Width:            1,
			Weapon:           "cannon",
			FireCooldown:     0.5,
		},
		Enemy: TankConfig{
			Health:           1,
			MovementDuration: 0.4,
			MovementDistance: 1,
			Width:            1,
			Weapon:           "cannon",
			FireCooldown:     1.5,
		},
		Weapons: map[string]WeaponConfig{
			"cannon": {Kind: "projectile", Damage: 1, Speed: 8, KillOnImpact: true},
			"laser":  {Kind: "beam", Damage: 1, Duration: 0.5, Distance: 12},
		},
		Spawner: SpawnerConfig{
			InitialDelay:       1,
			DelayBetweenSpawns: 3,
			Cap:                10,
			SpawnPoints:        [][2]int{{1, 24}, {12, 24}, {24, 24}},
		},
		Items: ItemsConfig{
			SpeedBoostDuration: 0.1,
			SpeedBoostLength:   5,
			DropChance:         0.25,
			LifeDropShare:      0.2,
		},
		Scores: ScoresConfig{
			Backend:    "memory",
			Key:        "UTB_HighScores",
			Codec:      "json",
			BadgerPath: "data/scores",
			RedisAddr:  "localhost:6379",
			SQLDriver:  "sqlite",
			SQLDSN:     "file:scores.db",
			MongoURI:   "mongodb://localhost:27017",
		},
		Events: EventsConfig{
			URL:    "nats://127.0.0.1:4222",
			Stream: "TANKS",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			Service: "tank-battalion",
		},
	}
}

// Load читает YAML файл конфигурации поверх Default().
// Если path == "", пытается прочитать путь из ENV TANK_CONFIG,
// иначе возвращает конфигурацию по умолчанию.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("TANK_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
	}

	return cfg, nil
}

// Validate проверяет конфигурацию и собирает все найденные проблемы в одну ошибку.
// Вызывающая сторона логирует ошибку и отключает проблемную часть.
func (c *Config) Validate() error {
	var problems []string

	if c.Arena.FixedStep <= 0 {
		problems = append(problems, "arena.fixed_step должен быть > 0")
	}
	if c.Arena.Width < 3 || c.Arena.Height < 3 {
		problems = append(problems, "arena слишком мала")
	}
	tanks := []struct {
		name string
		cfg  TankConfig
	}{{"player", c.Player}, {"enemy", c.Enemy}}
	for _, tc := range tanks {
		name, tank := tc.name, tc.cfg
		if tank.Health <= 0 {
			problems = append(problems, name+".health должен быть > 0")
		}
		if tank.MovementDuration <= 0 {
			problems = append(problems, name+".movement_duration должен быть > 0")
		}
		if tank.MovementDistance <= 0 {
			problems = append(problems, name+".movement_distance должен быть > 0")
		}
		if tank.Width < 1 {
			problems = append(problems, name+".width должен быть >= 1")
		}
		if tank.Weapon != "" {
			if _, ok := c.Weapons[tank.Weapon]; !ok {
				problems = append(problems, fmt.Sprintf("%s.weapon %q не описано в weapons", name, tank.Weapon))
			}
		}
	}
	weapons := make([]string, 0, len(c.Weapons))
	for name := range c.Weapons {
		weapons = append(weapons, name)
	}
	sort.Strings(weapons)
	for _, name := range weapons {
		w := c.Weapons[name]
		if w.Kind != "projectile" && w.Kind != "beam" {
			problems = append(problems, fmt.Sprintf("weapons.%s.kind %q неизвестен", name, w.Kind))
		}
	}
	if c.Items.DropChance < 0 || c.Items.DropChance > 1 {
		problems = append(problems, "items.drop_chance должен быть в диапазоне 0..1")
	}
	if c.Spawner.Cap < 0 {
		problems = append(problems, "spawner.cap не может быть отрицательным")
	}
	if len(c.Spawner.SpawnPoints) == 0 {
		problems = append(problems, "spawner.spawn_points пуст")
	}
	switch c.Scores.Backend {
	case "", "memory", "badger", "redis", "sql", "mongo":
	default:
		problems = append(problems, fmt.Sprintf("scores.backend %q неизвестен", c.Scores.Backend))
	}
	switch c.Scores.Codec {
	case "", "json", "msgpack":
	default:
		problems = append(problems, fmt.Sprintf("scores.codec %q неизвестен", c.Scores.Codec))
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}
