package models

import "time"

// Game is the persisted row behind a room.
type Game struct {
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Seats     int       `json:"seats"`
	WinnerId  string    `json:"winnerId,omitempty"`
	CreatedAt time.Time `json:"createdAt" pg:"default:now()"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GameResult is the history row of one participant of a finished game.
type GameResult struct {
	Id         string    `json:"id"`
	GameId     string    `json:"gameId"`
	UserId     string    `json:"userId"`
	Outcome    string    `json:"outcome"`
	FinalMoney int       `json:"finalMoney" pg:",use_zero"`
	XpGained   int       `json:"xpGained" pg:",use_zero"`
	EloDelta   int       `json:"eloDelta" pg:",use_zero"`
	JoinedAt   time.Time `json:"joinedAt"`
	Left       bool      `json:"left" pg:",use_zero"`
	CreatedAt  time.Time `json:"createdAt" pg:"default:now()"`
}

type GameCreateDto struct {
	Name  string `json:"name"`
	Seats int    `json:"seats"`
}

type VerifyGameDto struct {
	Code string `query:"code"`
}
