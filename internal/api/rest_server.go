// Package api отдаёт таблицу рекордов и состояние арены по HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/tank-battalion/internal/game"
	"github.com/annel0/tank-battalion/internal/logging"
	"github.com/annel0/tank-battalion/internal/middleware"
	"github.com/annel0/tank-battalion/internal/score"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// defaultTop размер /api/highscores/top без параметра n
const defaultTop = 10

// SnapshotSource источник снимка состояния арены
type SnapshotSource interface {
	Snapshot() game.Snapshot
}

// Leaderboard таблица рекордов только для чтения
type Leaderboard interface {
	Sorted() []score.HighScore
	Top(n int) []score.HighScore
	CurrentHighScore() int
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Addr     string               // адрес для запуска сервера
	Ledger   Leaderboard          // таблица рекордов
	Arena    SnapshotSource       // может быть nil: сервер без активной партии
	Events   EventSource          // может быть nil: без /ws/events
	Registry *prometheus.Registry // nil: дефолтный регистр Prometheus
	Service  string               // имя сервиса в метриках и трассах
}

// LeaderboardServer REST API таблицы рекордов
type LeaderboardServer struct {
	router  *gin.Engine
	ledger  Leaderboard
	arena   SnapshotSource
	events  EventSource
	addr    string
	metrics *ServerMetrics
	srv     *http.Server
	logger  *logging.Logger
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewLeaderboardServer создает новый REST API сервер
func NewLeaderboardServer(cfg Config) *LeaderboardServer {
	if cfg.Addr == "" {
		cfg.Addr = ":8088"
	}
	if cfg.Service == "" {
		cfg.Service = "leaderboard_api"
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware(cfg.Service))
	router.Use(middleware.NewRequestLogger("/health", "/metrics").Handler())

	promMw := middleware.NewPrometheusMiddleware(cfg.Service, cfg.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	s := &LeaderboardServer{
		router:  router,
		ledger:  cfg.Ledger,
		arena:   cfg.Arena,
		events:  cfg.Events,
		addr:    cfg.Addr,
		metrics: NewServerMetrics(),
		logger:  logging.GetAPILogger(),
	}
	s.srv = &http.Server{Addr: cfg.Addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	s.setupRoutes()
	return s
}

func (s *LeaderboardServer) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ws/events", s.handleEvents)

	api := s.router.Group("/api")
	{
		api.GET("/highscores", s.handleHighScores)
		api.GET("/highscores/top", s.handleTop)
		api.GET("/stats", s.handleStats)
	}
}

// Handler возвращает http.Handler сервера (для тестов и встраивания)
func (s *LeaderboardServer) Handler() http.Handler { return s.router }

// handleHighScores возвращает всю таблицу по убыванию очков
func (s *LeaderboardServer) handleHighScores(c *gin.Context) {
	if s.ledger == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Message: "Таблица рекордов не подключена"})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Таблица рекордов",
		Data:    s.ledger.Sorted(),
	})
}

// handleTop возвращает n лучших результатов
func (s *LeaderboardServer) handleTop(c *gin.Context) {
	if s.ledger == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Message: "Таблица рекордов не подключена"})
		return
	}
	n := defaultTop
	if raw := c.Query("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, GenericResponse{Message: "Параметр n должен быть неотрицательным числом"})
			return
		}
		n = v
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Лучшие результаты",
		Data:    s.ledger.Top(n),
	})
}

// handleStats возвращает состояние процесса и арены
func (s *LeaderboardServer) handleStats(c *gin.Context) {
	stats := gin.H{"server": s.metrics.Collect()}
	if s.ledger != nil {
		stats["high_score"] = s.ledger.CurrentHighScore()
	}
	if s.arena != nil {
		stats["arena"] = s.arena.Snapshot()
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

// handleHealth проверка состояния сервера
func (s *LeaderboardServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// Start запускает сервер и блокируется до Stop
func (s *LeaderboardServer) Start() error {
	s.logger.Info("🌐 REST API слушает %s", s.addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop мягко останавливает сервер
func (s *LeaderboardServer) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
