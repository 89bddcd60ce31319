package model

import "time"

// Game statuses reported by the games endpoint.
const (
	GameScheduled = "scheduled"
	GameLive      = "live"
	GameFinal     = "final"
)

// Game is a single scheduled or completed matchup.
type Game struct {
	// ID is the server-side game identifier.
	ID int64 `json:"id"`

	// Year and Week place the game in the season calendar.
	Year int `json:"year"`
	Week int `json:"week"`

	// HomeTeamID and AwayTeamID reference the participating teams.
	HomeTeamID int64 `json:"homeTeamId"`
	AwayTeamID int64 `json:"awayTeamId"`

	// HomeTeam and AwayTeam are display names.
	HomeTeam string `json:"homeTeam"`
	AwayTeam string `json:"awayTeam"`

	// HomeScore and AwayScore are meaningful once Status is live or final.
	HomeScore int `json:"homeScore"`
	AwayScore int `json:"awayScore"`

	// Status is one of the Game* constants.
	Status string `json:"status"`

	// KickoffAt is the scheduled start time.
	KickoffAt time.Time `json:"kickoffAt"`
}

// SeasonProgress is the current-week response. Progress is a fraction
// in [0,1] describing how far the season has advanced.
type SeasonProgress struct {
	CurrentWeek int     `json:"currentWeek"`
	Year        int     `json:"year"`
	Progress    float64 `json:"seasonProgress"`
}
