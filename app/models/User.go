package models

type User struct {
	Id          string  `json:"id"`
	Email       string  `json:"email" pg:",unique"`
	Name        string  `json:"name"`
	Password    string  `json:"-"`
	Elo         int     `json:"elo" pg:",use_zero"`
	Wins        int     `json:"wins" pg:",use_zero"`
	TotalGames  int     `json:"totalGames" pg:",use_zero"`
	WinRate     float64 `json:"winRate" pg:",use_zero"`
	Level       int     `json:"level" pg:",use_zero"`
	CurrentXp   int     `json:"currentXp" pg:",use_zero"`
	NextLevelXp int     `json:"nextLevelXp" pg:",use_zero"`
}

type UserDto struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Pass  string `json:"pass"`
}
