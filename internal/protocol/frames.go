// Package protocol defines the JSON wire frames exchanged with clients over
// the persistent message-oriented connection.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Inbound frame types.
const (
	TypePlayerInput   = "playerInput"
	TypeNewGame       = "newGame"
	TypeNextGame      = "nextGame"
	TypeNewTournament = "newTournament"
)

// Outbound frame types.
const (
	TypeGameSetup  = "gameSetup"
	TypeGameState  = "gameState"
	TypeGameResult = "gameResult"
	TypeError      = "error"
)

// Player input actions.
const (
	ActionUp   = "up"
	ActionDown = "down"
	ActionStop = "stop"
)

// Message is a decoded inbound frame.
type Message struct {
	Type       string          `json:"type"`
	Difficulty string          `json:"difficulty,omitempty"`
	Players    []string        `json:"players,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// PlayerInput is the payload of a playerInput frame.
type PlayerInput struct {
	Player int    `json:"player"`
	Action string `json:"action"`
}

// Decode parses a raw inbound frame.
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("protocol: malformed frame: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("protocol: frame without type")
	}
	return &msg, nil
}

// Input parses the payload of a playerInput frame.
func (m *Message) Input() (PlayerInput, error) {
	var in PlayerInput
	if err := json.Unmarshal(m.Data, &in); err != nil {
		return in, fmt.Errorf("protocol: malformed playerInput data: %w", err)
	}
	if in.Player != 1 && in.Player != 2 {
		return in, fmt.Errorf("protocol: invalid player slot %d", in.Player)
	}
	switch in.Action {
	case ActionUp, ActionDown, ActionStop:
	default:
		return in, fmt.Errorf("protocol: invalid action %q", in.Action)
	}
	return in, nil
}

// FieldState describes the immutable field geometry in a setup frame.
type FieldState struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// BallState is the ball portion of a state frame.
type BallState struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// PaddleState is one paddle's portion of a state frame.
type PaddleState struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
}

// ScoreState carries both players' scores.
type ScoreState struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

// GameData is the shared payload of setup and state frames.
type GameData struct {
	Field     *FieldState `json:"field,omitempty"`
	Ball      BallState   `json:"ball"`
	Paddle1   PaddleState `json:"paddle1"`
	Paddle2   PaddleState `json:"paddle2"`
	Score     ScoreState  `json:"score"`
	Countdown int         `json:"countdown"`
}

// GameSetup is the full per-seat setup frame sent when a match enters its
// countdown or a connection rebinds to a running match.
type GameSetup struct {
	Type            string   `json:"type"`
	PlayerNumber    int      `json:"playerNumber"`
	Data            GameData `json:"data"`
	Player1Username string   `json:"player1Username"`
	Player2Username string   `json:"player2Username"`
}

// GameState is the periodic broadcast frame.
type GameState struct {
	Type string   `json:"type"`
	Data GameData `json:"data"`
}

// ResultData is the payload of a gameResult frame.
type ResultData struct {
	Winner      string `json:"winner"`
	Loser       string `json:"loser"`
	WinnerScore int    `json:"winnerScore"`
	LoserScore  int    `json:"loserScore"`
}

// GameResult announces a finished match.
type GameResult struct {
	Type string     `json:"type"`
	Mode string     `json:"mode"`
	Data ResultData `json:"data"`
}

// ErrorFrame reports a failure to the client without closing the connection.
type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Error builds an error frame.
func Error(message string) ErrorFrame {
	return ErrorFrame{Type: TypeError, Message: message}
}
