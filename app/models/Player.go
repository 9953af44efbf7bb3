package models

// Player is the membership row of a user in a game.
type Player struct {
	User_id  string `pg:",pk"`
	Game_id  string `pg:",pk"`
	Username string
	Seat     int
}
