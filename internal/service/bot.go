package service

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/reversi-backend/internal/entity"
	"github.com/rocketscienceinc/reversi-backend/internal/policy"
	"github.com/rocketscienceinc/reversi-backend/internal/reversi"
)

var ErrBotStalled = errors.New("bot did not finish its turns")

// A game never holds more placements than cells, so the bot cannot legitimately need more ticks.
const maxBotTurns = entity.Size * entity.Size

// session is a controller rebuilt from a stored game for the duration of one request.
type session struct {
	game       *entity.Game
	human      *policy.Interactive
	controller *reversi.Controller
}

func openSession(game *entity.Game, bot reversi.Policy) *session {
	human := policy.NewInteractive()

	var black, white reversi.Policy = human, bot
	if game.HumanColor() == entity.White {
		black, white = bot, human
	}

	return &session{
		game:       game,
		human:      human,
		controller: reversi.Restore(game.Board, game.Phase, black, white),
	}
}

// playBot evaluates while the bot is on turn.
func (that *session) playBot() ([]*entity.Turn, error) {
	human := that.game.HumanColor()
	turns := make([]*entity.Turn, 0)

	for range maxBotTurns {
		color, ok := that.controller.Phase().Color()
		if !ok || color == human {
			return turns, nil
		}

		turn, err := that.controller.Evaluate()
		if err != nil {
			return nil, fmt.Errorf("bot failed to make turn: %w", err)
		}

		if turn == nil {
			continue
		}

		turns = append(turns, turn)
	}

	return nil, ErrBotStalled
}

// sync copies the controller state back into the stored game.
func (that *session) sync(turns []*entity.Turn) {
	that.game.Board = that.controller.Board()
	that.game.Phase = that.controller.Phase()
	that.game.Result = that.controller.Result()
	that.game.Score = that.controller.Score()
	that.game.Moves += len(turns)
	that.game.Turns = turns
	touch(that.game)
}
