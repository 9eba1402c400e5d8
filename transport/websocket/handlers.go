package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/reversi-backend/internal/entity"
)

func decodeRequest(msg *Message) (Request, error) {
	var req Request
	if len(msg.Payload) == 0 {
		return req, nil
	}

	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return req, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return req, nil
}

func (that *Server) handleNewGame(ctx context.Context, msg *Message, conn *websocket.Conn) error {
	log := that.logger.With("method", "handleNewGame")

	req, err := decodeRequest(msg)
	if err != nil {
		return that.sendError(conn, msg.Action, err.Error())
	}

	color := entity.Black
	if req.Color != "" {
		if color, err = entity.ParseColor(req.Color); err != nil {
			return that.sendError(conn, msg.Action, err.Error())
		}
	}

	game, err := that.games.NewGame(ctx, color)
	if err != nil {
		log.Error("failed to create game", "error", err)
		return that.sendError(conn, msg.Action, "failed to create a new game")
	}

	log.Info("game created", "gameID", game.ID)

	return that.sendGame(ctx, conn, msg.Action, game)
}

func (that *Server) handleGetGame(ctx context.Context, msg *Message, conn *websocket.Conn) error {
	req, err := decodeRequest(msg)
	if err != nil {
		return that.sendError(conn, msg.Action, err.Error())
	}

	if req.GameID == "" {
		return that.sendError(conn, msg.Action, "game_id is required")
	}

	game, err := that.games.GetGame(ctx, req.GameID)
	if err != nil {
		return that.sendError(conn, msg.Action, fmt.Sprintf("game %s: %v", req.GameID, err))
	}

	return that.sendGame(ctx, conn, msg.Action, game)
}

func (that *Server) handleGameTurn(ctx context.Context, msg *Message, conn *websocket.Conn) error {
	log := that.logger.With("method", "handleGameTurn")

	req, err := decodeRequest(msg)
	if err != nil {
		return that.sendError(conn, msg.Action, err.Error())
	}

	if req.GameID == "" {
		return that.sendError(conn, msg.Action, "game_id is required")
	}

	if req.Cell == nil {
		return that.sendError(conn, msg.Action, "cell is required")
	}

	log = log.With("gameID", req.GameID)

	game, err := that.games.MakeTurn(ctx, req.GameID, *req.Cell)
	if err != nil {
		log.Info("turn rejected", "error", err)
		return that.sendError(conn, msg.Action, fmt.Sprintf("game %s: %v", req.GameID, err))
	}

	log.Info("player made a turn", "phase", game.Phase)

	return that.sendGame(ctx, conn, msg.Action, game)
}

func (that *Server) handleRestart(ctx context.Context, msg *Message, conn *websocket.Conn) error {
	req, err := decodeRequest(msg)
	if err != nil {
		return that.sendError(conn, msg.Action, err.Error())
	}

	if req.GameID == "" {
		return that.sendError(conn, msg.Action, "game_id is required")
	}

	game, err := that.games.Restart(ctx, req.GameID)
	if err != nil {
		return that.sendError(conn, msg.Action, fmt.Sprintf("game %s: %v", req.GameID, err))
	}

	return that.sendGame(ctx, conn, msg.Action, game)
}

// sendGame replies with the game and, while it is running, the moves open to the side on turn.
func (that *Server) sendGame(ctx context.Context, conn *websocket.Conn, action string, game *entity.Game) error {
	payload := Payload{Game: game}

	if game.IsOngoing() {
		moves, err := that.games.LegalMoves(ctx, game.ID)
		if err != nil {
			that.logger.Warn("failed to list legal moves", "gameID", game.ID, "error", err)
		}
		payload.LegalMoves = moves
	}

	return that.sendMessage(conn, action, payload)
}
