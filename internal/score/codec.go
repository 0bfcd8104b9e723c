package score

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// HighScore одна запись таблицы рекордов
type HighScore struct {
	Score      int    `json:"Score" msgpack:"score"`
	PlayerName string `json:"PlayerName" msgpack:"player_name"`
}

// container формат хранения: {"HighScores":[...]}
type container struct {
	HighScores []HighScore `json:"HighScores" msgpack:"high_scores"`
}

// Codec превращает список рекордов в строку для хранилища и обратно
type Codec interface {
	Name() string
	Encode(scores []HighScore) (string, error)
	Decode(data string) ([]HighScore, error)
}

// JSONCodec формат по умолчанию
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Encode(scores []HighScore) (string, error) {
	if scores == nil {
		scores = []HighScore{}
	}
	data, err := json.Marshal(container{HighScores: scores})
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации рекордов: %w", err)
	}
	return string(data), nil
}

func (JSONCodec) Decode(data string) ([]HighScore, error) {
	var c container
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, fmt.Errorf("ошибка десериализации рекордов: %w", err)
	}
	return c.HighScores, nil
}

// MsgpackCodec компактный бинарный формат; в хранилище лежит base64.
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string { return "msgpack" }

func (MsgpackCodec) Encode(scores []HighScore) (string, error) {
	data, err := msgpack.Marshal(&container{HighScores: scores})
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации рекордов: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (MsgpackCodec) Decode(data string) ([]HighScore, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("некорректный base64: %w", err)
	}
	var c container
	if err := msgpack.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("ошибка десериализации рекордов: %w", err)
	}
	return c.HighScores, nil
}

// CodecByName возвращает кодек по имени из конфигурации
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("неизвестный кодек рекордов: %q", name)
	}
}
