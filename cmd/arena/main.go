package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/annel0/tank-battalion/internal/api"
	"github.com/annel0/tank-battalion/internal/config"
	"github.com/annel0/tank-battalion/internal/event"
	"github.com/annel0/tank-battalion/internal/game"
	"github.com/annel0/tank-battalion/internal/logging"
	"github.com/annel0/tank-battalion/internal/metrics"
	"github.com/annel0/tank-battalion/internal/observability"
	"github.com/annel0/tank-battalion/internal/score"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML конфигурация (по умолчанию $TANK_CONFIG)")
		ticks      = flag.Int("ticks", 60*60*3, "Сколько кадров крутить без реального времени")
		player     = flag.String("player", "", "Имя игрока в таблице рекордов")
		seed       = flag.Int64("seed", 0, "Зерно генератора карты и ИИ (0 — из конфигурации)")
		realtime   = flag.Bool("realtime", false, "Крутить арену в реальном времени до конца партии")
		serve      = flag.Bool("serve", false, "Поднять REST API и /metrics и ждать сигнала после партии")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	if *player != "" {
		cfg.Arena.PlayerName = *player
	}
	if *seed != 0 {
		cfg.Arena.Seed = *seed
	}

	logging.SetLogDir(cfg.Logging.Dir)
	if err := logging.InitDefaultLogger("arena"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer func() {
		if err := logging.GetLoggerManager().CloseAll(); err != nil {
			log.Printf("⚠️ %v", err)
		}
	}()
	if lvl, err := logging.ParseLevel(cfg.Logging.Level); err == nil {
		logging.SetLevel(lvl)
	} else {
		logging.Warn("⚠️ %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		logging.Warn("⚠️ Трассировка недоступна: %v", err)
	} else {
		defer shutdownTelemetry(context.Background())
	}

	// === ТАБЛИЦА РЕКОРДОВ ===
	codec, err := score.CodecByName(cfg.Scores.Codec)
	if err != nil {
		logging.Warn("⚠️ %v, используем json", err)
		codec = score.JSONCodec{}
	}
	store := score.OpenStoreOrMemory(ctx, cfg.Scores)
	ledger, err := score.Load(ctx, store, codec, cfg.Scores.Key)
	if err != nil {
		logging.Error("❌ Таблица рекордов не загружена: %v", err)
		ledger = score.NewLedger(store, codec, cfg.Scores.Key)
	}

	// === АРЕНА ===
	arena, err := game.NewArena(cfg, ledger, game.Options{PlayerAI: true, Context: ctx})
	if err != nil {
		logging.Error("❌ Ошибка создания арены: %v", err)
		os.Exit(1)
	}
	defer arena.Close()

	gameMetrics := metrics.NewGameMetrics(nil)
	gameMetrics.Attach(arena)
	defer gameMetrics.Detach()

	// События всегда копятся в памяти для /ws/events; NATS дублирует их наружу
	stream := event.NewMemoryRelay(256)
	subs := arena.ForwardEvents(event.NewLoggingRelay(stream))
	defer subs.UnsubscribeAll()

	var relay event.Relay = stream
	if js := openJetStream(cfg.Events); js != nil {
		defer func() {
			if err := js.Close(); err != nil {
				logging.Warn("⚠️ Ошибка закрытия NATS: %v", err)
			}
		}()
		jsSubs := arena.ForwardEvents(js)
		defer jsSubs.UnsubscribeAll()
		relay = js
	}
	relayExporter := metrics.NewRelayExporter(relay, nil)
	relayExporter.Start()
	defer relayExporter.Stop()

	var server *api.LeaderboardServer
	if *serve {
		server = api.NewLeaderboardServer(api.Config{
			Addr:   fmt.Sprintf(":%d", cfg.Server.GetAPIPort()),
			Ledger: ledger,
			Arena:  arena,
			Events: stream,
		})
		go func() {
			if err := server.Start(); err != nil {
				logging.Error("❌ Ошибка REST API: %v", err)
			}
		}()
	}

	// === ПАРТИЯ ===
	arena.Start()
	started := time.Now()
	if *realtime {
		arena.Run(ctx)
	} else {
		frames := arena.RunFrames(*ticks)
		logging.Info("⏱️ Прокручено кадров: %d за %s", frames, time.Since(started).Round(time.Millisecond))
	}

	snap := arena.Snapshot()
	logging.Info("🏁 Итог: %s, очки %d, убито %d, выстрелов %d, жизней %d",
		snap.Outcome, snap.Points, snap.Kills, snap.Shots, snap.Lives)
	printLeaderboard(ledger)

	if server != nil {
		logging.Info("🌐 REST API: http://localhost:%d/api/highscores, Ctrl+C для выхода", cfg.Server.GetAPIPort())
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			logging.Error("❌ Ошибка остановки REST API: %v", err)
		}
	}
	logging.Info("👋 Арена остановлена")
}

// openJetStream подключает NATS JetStream, если он включён и доступен
func openJetStream(cfg config.EventsConfig) *event.JetStreamRelay {
	if !cfg.Enabled {
		return nil
	}
	js, err := event.NewJetStreamRelay(cfg.URL, cfg.Stream, 24*time.Hour)
	if err != nil {
		logging.Warn("⚠️ NATS недоступен (%v), события остаются в памяти", err)
		return nil
	}
	logging.Info("📨 События арены уходят в NATS %s (stream %s)", cfg.URL, cfg.Stream)
	return js
}

func printLeaderboard(ledger *score.Ledger) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tИГРОК\tОЧКИ")
	for i, hs := range ledger.Top(10) {
		fmt.Fprintf(w, "%d\t%s\t%d\n", i+1, hs.PlayerName, hs.Score)
	}
	w.Flush()
}
