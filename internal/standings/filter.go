// Package standings implements the filter, sort, and URL round-trip
// logic for the standings view. Filters compose conjunctively and the
// whole view state encodes into query parameters so it survives a
// reload and can be shared as a link.
package standings

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/kmorse/huddle/internal/model"
)

// SortDir is the tri-state sort direction for a column.
type SortDir int

const (
	// DirNone leaves rows in the server's original order.
	DirNone SortDir = iota
	DirDesc
	DirAsc
)

// Sortable column names accepted by the standings view.
const (
	ColTeam   = "team"
	ColWins   = "wins"
	ColLosses = "losses"
	ColDiff   = "diff"
	ColRank   = "rank"
)

// sortColumns is the set of recognized column names.
var sortColumns = map[string]bool{
	ColTeam:   true,
	ColWins:   true,
	ColLosses: true,
	ColDiff:   true,
	ColRank:   true,
}

// Filter is the standings view state: conjunctive filters plus an
// optional sort. The zero value means "show everything, server order".
type Filter struct {
	// Year restricts rows to one season. Zero means no restriction.
	Year int

	// Conference restricts rows to one conference, case-insensitively.
	// Empty means no restriction.
	Conference string

	// Search keeps rows whose team name contains the text,
	// case-insensitively. Empty means no restriction.
	Search string

	// SortColumn names the active sort column; empty with DirNone.
	SortColumn string

	// SortDir is the direction for SortColumn.
	SortDir SortDir
}

// Toggle advances the sort state for a column. Clicking a new column
// starts descending; repeated clicks cycle descending, ascending, then
// back to the unsorted server order.
func (f Filter) Toggle(column string) Filter {
	if !sortColumns[column] {
		return f
	}
	if f.SortColumn != column {
		f.SortColumn = column
		f.SortDir = DirDesc
		return f
	}
	switch f.SortDir {
	case DirDesc:
		f.SortDir = DirAsc
	case DirAsc:
		f.SortColumn = ""
		f.SortDir = DirNone
	default:
		f.SortDir = DirDesc
	}
	return f
}

// Apply filters and sorts a server-ordered row set. Filters AND
// together; sorting is stable, so rows with equal keys keep their
// relative order from the input.
func (f Filter) Apply(rows []model.StandingsRow) []model.StandingsRow {
	out := make([]model.StandingsRow, 0, len(rows))
	for _, r := range rows {
		if f.Year != 0 && r.Year != f.Year {
			continue
		}
		if f.Conference != "" && !strings.EqualFold(r.Conference, f.Conference) {
			continue
		}
		if f.Search != "" &&
			!strings.Contains(strings.ToLower(r.TeamName), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, r)
	}

	if f.SortDir == DirNone || f.SortColumn == "" {
		return out
	}

	less := lessFunc(f.SortColumn)
	sort.SliceStable(out, func(i, j int) bool {
		if f.SortDir == DirAsc {
			return less(out[i], out[j])
		}
		return less(out[j], out[i])
	})
	return out
}

// lessFunc returns the ascending comparison for a column.
func lessFunc(column string) func(a, b model.StandingsRow) bool {
	switch column {
	case ColTeam:
		return func(a, b model.StandingsRow) bool {
			return strings.ToLower(a.TeamName) < strings.ToLower(b.TeamName)
		}
	case ColWins:
		return func(a, b model.StandingsRow) bool { return a.Wins < b.Wins }
	case ColLosses:
		return func(a, b model.StandingsRow) bool { return a.Losses < b.Losses }
	case ColDiff:
		return func(a, b model.StandingsRow) bool { return a.PointDiff() < b.PointDiff() }
	default:
		return func(a, b model.StandingsRow) bool { return a.Rank < b.Rank }
	}
}

// EncodeQuery renders the filter as URL query parameters. Unset fields
// are omitted, so the zero Filter encodes to an empty value set.
func (f Filter) EncodeQuery() url.Values {
	params := url.Values{}
	if f.Year != 0 {
		params.Set("year", strconv.Itoa(f.Year))
	}
	if f.Conference != "" {
		params.Set("conference", f.Conference)
	}
	if f.Search != "" {
		params.Set("search", f.Search)
	}
	if f.SortColumn != "" && f.SortDir != DirNone {
		dir := "desc"
		if f.SortDir == DirAsc {
			dir = "asc"
		}
		params.Set("sort", f.SortColumn+":"+dir)
	}
	return params
}

// ParseQuery reconstructs a Filter from URL query parameters. It is the
// exact inverse of EncodeQuery: for any filter f,
// ParseQuery(f.EncodeQuery()) == f. Unrecognized values are dropped
// rather than failing.
func ParseQuery(params url.Values) Filter {
	var f Filter

	if year := params.Get("year"); year != "" {
		if n, err := strconv.Atoi(year); err == nil {
			f.Year = n
		}
	}
	f.Conference = params.Get("conference")
	f.Search = params.Get("search")

	if s := params.Get("sort"); s != "" {
		column, dir, ok := strings.Cut(s, ":")
		if ok && sortColumns[column] {
			switch dir {
			case "desc":
				f.SortColumn = column
				f.SortDir = DirDesc
			case "asc":
				f.SortColumn = column
				f.SortDir = DirAsc
			}
		}
	}
	return f
}

// ShareURL renders the filter as a shareable dashboard link rooted at
// baseURL.
func (f Filter) ShareURL(baseURL string) string {
	u := strings.TrimRight(baseURL, "/") + "/standings"
	if encoded := f.EncodeQuery().Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

// IsZero reports whether no filter or sort is active.
func (f Filter) IsZero() bool {
	return f == Filter{}
}
