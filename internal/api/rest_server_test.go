package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/annel0/tank-battalion/internal/game"
	"github.com/annel0/tank-battalion/internal/score"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeArena struct{ snap game.Snapshot }

func (f fakeArena) Snapshot() game.Snapshot { return f.snap }

func newServer(t *testing.T) (*LeaderboardServer, *score.Ledger) {
	t.Helper()
	ledger := score.NewLedger(score.NewMemoryStore(), score.JSONCodec{}, "")
	ctx := context.Background()
	for _, s := range []struct {
		points int
		name   string
	}{{100, "ANNA"}, {300, "BORIS"}, {200, "VERA"}} {
		_, err := ledger.AddScore(ctx, s.points, s.name)
		require.NoError(t, err)
	}

	srv := NewLeaderboardServer(Config{
		Ledger:   ledger,
		Arena:    fakeArena{snap: game.Snapshot{Points: 42, Lives: 2, Outcome: "running"}},
		Registry: prometheus.NewRegistry(),
	})
	return srv, ledger
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func get(t *testing.T, srv *LeaderboardServer, path string) (int, response) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.Handler().ServeHTTP(rec, req)

	var resp response
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec.Code, resp
}

func TestHealth(t *testing.T) {
	srv, _ := newServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Trace-Id"))
}

func TestHighScores_SortedDescending(t *testing.T) {
	srv, _ := newServer(t)
	code, resp := get(t, srv, "/api/highscores")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)

	var scores []score.HighScore
	require.NoError(t, json.Unmarshal(resp.Data, &scores))
	require.Len(t, scores, 3)
	assert.Equal(t, "BORIS", scores[0].PlayerName)
	assert.Equal(t, 300, scores[0].Score)
	assert.Equal(t, "ANNA", scores[2].PlayerName)
}

func TestTop(t *testing.T) {
	srv, _ := newServer(t)

	code, resp := get(t, srv, "/api/highscores/top?n=2")
	require.Equal(t, http.StatusOK, code)
	var scores []score.HighScore
	require.NoError(t, json.Unmarshal(resp.Data, &scores))
	require.Len(t, scores, 2)
	assert.Equal(t, 300, scores[0].Score)
	assert.Equal(t, 200, scores[1].Score)

	code, resp = get(t, srv, "/api/highscores/top")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, &scores))
	assert.Len(t, scores, 3, "по умолчанию не больше десяти")

	code, _ = get(t, srv, "/api/highscores/top?n=abc")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = get(t, srv, "/api/highscores/top?n=-1")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStats_IncludesArenaSnapshot(t *testing.T) {
	srv, _ := newServer(t)
	code, resp := get(t, srv, "/api/stats")
	require.Equal(t, http.StatusOK, code)

	var data struct {
		Server    ServerStats   `json:"server"`
		HighScore int           `json:"high_score"`
		Arena     game.Snapshot `json:"arena"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, 300, data.HighScore)
	assert.Equal(t, 42, data.Arena.Points)
	assert.Equal(t, 2, data.Arena.Lives)
	assert.NotEmpty(t, data.Server.Uptime)
	assert.Positive(t, data.Server.Goroutines)
}

func TestNoLedger(t *testing.T) {
	srv := NewLeaderboardServer(Config{Registry: prometheus.NewRegistry()})
	code, resp := get(t, srv, "/api/highscores")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.False(t, resp.Success)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newServer(t)
	get(t, srv, "/api/highscores")
	get(t, srv, "/api/highscores/top?n=x")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "leaderboard_api_http_request_duration_seconds")
	assert.Contains(t, body, "leaderboard_api_http_request_errors_total")
}

func TestStartStop(t *testing.T) {
	srv := NewLeaderboardServer(Config{Addr: "127.0.0.1:0", Registry: prometheus.NewRegistry()})
	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	time.Sleep(50 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("сервер не остановился")
	}
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "5с", formatUptime(5*time.Second))
	assert.Equal(t, "2м 3с", formatUptime(2*time.Minute+3*time.Second))
	assert.Equal(t, "1ч 0м 0с", formatUptime(time.Hour))
	assert.Equal(t, "1д 1ч 0м 0с", formatUptime(25*time.Hour))
}
