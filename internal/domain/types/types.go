// Package types contains common types used across the application
package types

import "github.com/okian/pairank/internal/domain/model"

// Entry is one row of the ordered ranking.
type Entry struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Locked   bool   `json:"locked"`
}

// FromItem projects an item onto its ranking row.
func FromItem(item model.Item) Entry {
	return Entry{
		ID:       item.ID,
		Name:     item.Name,
		Position: item.Position,
		Wins:     item.Wins,
		Losses:   item.Losses,
		Locked:   item.Locked,
	}
}

// FromItems projects items in order.
func FromItems(items []model.Item) []Entry {
	out := make([]Entry, len(items))
	for i, item := range items {
		out[i] = FromItem(item)
	}
	return out
}
