package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/tank-battalion/internal/event"
	"github.com/annel0/tank-battalion/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufSize    = 256
)

// EventSource ретранслятор, на события которого можно подписаться
type EventSource interface {
	Subscribe(f event.Filter, h func(ctx context.Context, ev *event.Envelope)) event.Subscription
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Поток только для чтения, данные не зависят от cookie
	CheckOrigin: func(*http.Request) bool { return true },
}

// eventStream один websocket-клиент /ws/events
type eventStream struct {
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
	logger  *logging.Logger
}

func newEventStream(conn *websocket.Conn, logger *logging.Logger) *eventStream {
	return &eventStream{
		conn:   conn,
		send:   make(chan []byte, sendBufSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// push ставит событие в очередь; медленный клиент теряет события, игра не ждёт
func (es *eventStream) push(ev *event.Envelope) {
	data, err := json.Marshal(ev)
	if err != nil {
		es.logger.Warn("api: событие %s не сериализовано: %v", ev.EventType, err)
		return
	}
	select {
	case es.send <- data:
	case <-es.done:
	default:
		es.dropped.Add(1)
	}
}

func (es *eventStream) close() {
	es.once.Do(func() { close(es.done) })
}

// readPump читает только служебные кадры и ловит закрытие соединения
func (es *eventStream) readPump() {
	es.conn.SetReadLimit(maxMessageSize)
	es.conn.SetReadDeadline(time.Now().Add(pongWait))
	es.conn.SetPongHandler(func(string) error {
		es.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := es.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				es.logger.Debug("api: ws ошибка: %v", err)
			}
			return
		}
	}
}

func (es *eventStream) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		es.conn.Close()
	}()

	for {
		select {
		case msg := <-es.send:
			es.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := es.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				es.close()
				return
			}
		case <-ticker.C:
			es.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := es.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				es.close()
				return
			}
		case <-es.done:
			es.conn.SetWriteDeadline(time.Now().Add(writeWait))
			es.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// handleEvents отдаёт события арены в websocket. ?types=a,b ограничивает типы.
func (s *LeaderboardServer) handleEvents(c *gin.Context) {
	if s.events == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Message: "Поток событий не подключён"})
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("api: ws upgrade: %v", err)
		return
	}

	es := newEventStream(conn, s.logger)
	filter := event.Filter{Types: splitList(c.Query("types"))}
	sub := s.events.Subscribe(filter, func(_ context.Context, ev *event.Envelope) { es.push(ev) })
	s.logger.Info("📺 Подписчик событий %s подключён", c.ClientIP())

	go es.writePump()
	es.readPump()

	sub.Unsubscribe()
	es.close()
	s.logger.Info("📺 Подписчик событий %s отключён, потеряно %d", c.ClientIP(), es.dropped.Load())
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
