// Package model contains domain models passed between layers.
package model

// Item is one ranked entity. Values handed out by the store are copies;
// mutating them never affects ranking state.
type Item struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Position         int    `json:"position"`
	Wins             int    `json:"wins"`
	Losses           int    `json:"losses"`
	Locked           bool   `json:"locked"`
	ComparedThisPass bool   `json:"compared_this_pass"`
}

// Differential is wins minus losses.
func (i Item) Differential() int {
	return i.Wins - i.Losses
}

// Side names one half of a comparison as presented: 1 for the first item, 2 for the second.
type Side int

// Valid sides.
const (
	SideA Side = 1
	SideB Side = 2
)

// Valid reports whether s is SideA or SideB.
func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

// ComparisonRecord is a directed winner -> loser edge. It is immutable once logged.
type ComparisonRecord struct {
	WinnerID int64 `json:"winner_id"`
	LoserID  int64 `json:"loser_id"`
}
