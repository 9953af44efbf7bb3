package queries

import (
	"math"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/game"
	uuid "github.com/satori/go.uuid"
)

const (
	minSeats = 2
	maxSeats = 6

	firstLevelXp = 100
)

func normalizeSeats(n int) int {
	switch {
	case n == 0:
		return 4
	case n < minSeats:
		return minSeats
	case n > maxSeats:
		return maxSeats
	}
	return n
}

func gameStatus(room *models.Room) string {
	if room.Flagged {
		return "ABORTED"
	}
	return string(room.Status)
}

func playerRows(room *models.Room) []models.Player {
	rows := make([]models.Player, 0, len(room.Players))
	for _, p := range room.Players {
		rows = append(rows, models.Player{
			User_id:  p.PlayerId,
			Game_id:  room.Id,
			Username: p.DisplayName,
			Seat:     p.Seat,
		})
	}
	return rows
}

// departed lists the stored members of a game who are no longer seated.
func departed(stored []models.Player, room *models.Room) []string {
	var ids []string
	for _, row := range stored {
		if room.Player(row.User_id) == nil {
			ids = append(ids, row.User_id)
		}
	}
	return ids
}

// roomFromGame is the empty room for a games row without a snapshot. A game
// that finished without one stays finished.
func roomFromGame(g *models.Game) *models.Room {
	room := models.NewRoom(g.Id, g.Name, normalizeSeats(g.Seats))
	if g.Status == string(models.StatusFinished) || g.Status == "ABORTED" {
		room.Status = models.StatusFinished
		room.WinnerId = g.WinnerId
	}
	return room
}

func winRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(wins)*1000/float64(total)) / 10
}

// applyResult adds one finished game to the profile of u.
func applyResult(u *models.User, outcome string, xp, elo int) {
	u.TotalGames++
	if outcome == game.OutcomeWin {
		u.Wins++
	}
	u.WinRate = winRate(u.Wins, u.TotalGames)
	u.Elo += elo

	if u.NextLevelXp <= 0 {
		u.NextLevelXp = firstLevelXp
	}
	u.CurrentXp += xp
	for u.CurrentXp >= u.NextLevelXp {
		u.CurrentXp -= u.NextLevelXp
		u.Level++
		u.NextLevelXp = u.NextLevelXp * 3 / 2
	}
}

func resultRow(gameId string, r game.Result) *models.GameResult {
	return &models.GameResult{
		Id:         uuid.NewV4().String(),
		GameId:     gameId,
		UserId:     r.PlayerId,
		Outcome:    r.Outcome,
		FinalMoney: r.FinalMoney,
		XpGained:   r.XP,
		EloDelta:   r.Elo,
		JoinedAt:   r.JoinedAt,
		Left:       r.Left,
	}
}
