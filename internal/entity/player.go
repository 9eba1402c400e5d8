package entity

type PlayerType string

const (
	PlayerHuman PlayerType = "human"
	PlayerBot   PlayerType = "bot"
)

type Player struct {
	Color Color      `json:"color"`
	Type  PlayerType `json:"type"`
}

func (that *Player) IsBot() bool {
	return that.Type == PlayerBot
}
