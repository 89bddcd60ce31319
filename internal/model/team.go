package model

// Team is a league team as returned by the teams endpoint.
type Team struct {
	// ID is the server-side team identifier.
	ID int64 `json:"id"`

	// Name is the full school or franchise name.
	Name string `json:"name"`

	// Abbreviation is the short display code (e.g. "UGA").
	Abbreviation string `json:"abbreviation"`

	// Conference is the conference the team plays in.
	Conference string `json:"conference"`

	// Division is the optional division within the conference.
	Division string `json:"division,omitempty"`

	// Color is the primary team color as a hex string.
	Color string `json:"color,omitempty"`
}
