package model

// StandingsRow is one team's ranked performance record for a season.
// Rows are read-only: every field is derived server-side and never
// mutated by the client.
type StandingsRow struct {
	// TeamID references the team this row ranks.
	TeamID int64 `json:"teamId"`

	// TeamName is the display name of the team.
	TeamName string `json:"teamName"`

	// Conference the team belongs to for this season.
	Conference string `json:"conference"`

	// Year is the season year this row describes.
	Year int `json:"year"`

	// Wins and Losses are the overall season record.
	Wins   int `json:"wins"`
	Losses int `json:"losses"`

	// ConferenceWins and ConferenceLosses are the in-conference record.
	ConferenceWins   int `json:"conferenceWins"`
	ConferenceLosses int `json:"conferenceLosses"`

	// PointsFor and PointsAgainst are season point totals.
	PointsFor     int `json:"pointsFor"`
	PointsAgainst int `json:"pointsAgainst"`

	// Rank is the overall rank; ConferenceRank the rank within the
	// team's conference.
	Rank           int `json:"rank"`
	ConferenceRank int `json:"conferenceRank"`
}

// PointDiff returns the season point differential.
func (r StandingsRow) PointDiff() int {
	return r.PointsFor - r.PointsAgainst
}

// StandingsPage is the paged standings response shape.
type StandingsPage struct {
	Content       []StandingsRow `json:"content"`
	TotalElements int            `json:"totalElements"`
	TotalPages    int            `json:"totalPages"`
	Size          int            `json:"size"`
	Number        int            `json:"number"`
}
