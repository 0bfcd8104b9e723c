package game

import (
	"github.com/annel0/tank-battalion/internal/event"
	"github.com/annel0/tank-battalion/internal/logging"
)

// Lives счётчик жизней игрока
type Lives struct {
	starting int
	current  int
	logger   *logging.Logger

	// LivesUpdated получает число жизней после каждого изменения
	LivesUpdated *event.Channel[int]
	// RespawnPlayer срабатывает, если после потери жизни ещё есть жизни
	RespawnPlayer *event.Signal
	// GameOver срабатывает, когда жизней не осталось
	GameOver *event.Signal
}

// NewLives создаёт счётчик с начальным запасом
func NewLives(starting int) *Lives {
	return &Lives{
		starting:      starting,
		current:       starting,
		logger:        logging.GetGameLogger(),
		LivesUpdated:  event.NewChannel[int](),
		RespawnPlayer: event.NewSignal(),
		GameOver:      event.NewSignal(),
	}
}

// Reset возвращает начальный запас жизней
func (l *Lives) Reset() {
	l.current = l.starting
	l.LivesUpdated.Fire(l.current)
}

func (l *Lives) Current() int { return l.current }

// LoseLife снимает жизнь и решает: возрождение или конец игры
func (l *Lives) LoseLife() {
	l.current--
	l.LivesUpdated.Fire(l.current)

	if l.current <= 0 {
		l.logger.Info("💀 GameOver!")
		l.GameOver.Fire()
		return
	}
	l.RespawnPlayer.Fire()
}

// GiveLife добавляет одну жизнь
func (l *Lives) GiveLife() {
	l.current++
	l.LivesUpdated.Fire(l.current)
}
