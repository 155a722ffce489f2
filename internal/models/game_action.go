package models

import "github.com/google/uuid"

// Action types recorded for every committed intent.
const (
	ActionStartGame  = "start_game"
	ActionPlayCard   = "play_card"
	ActionDrawCard   = "draw_card"
	ActionPickColor  = "pick_color"
	ActionPickSwap   = "pick_swap"
	ActionDeclareUno = "declare_uno"
	ActionChallenge  = "challenge_uno"
	ActionEliminated = "eliminated"
	ActionGameOver   = "game_over"
	ActionResetGame  = "reset_game"
)

// ActionRecord captures one committed move for the action queue.
type ActionRecord struct {
	RoomID      string                 `json:"room_id"`
	ActionIndex int                    `json:"action_index"`
	ActorID     uuid.UUID              `json:"actor_id"`
	ActionType  string                 `json:"action_type"`
	Payload     map[string]interface{} `json:"payload"`
	Timestamp   int64                  `json:"timestamp"`
}
