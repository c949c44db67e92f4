// Package board holds the pure rules of the kanban board: where a card lands
// in its column, what a move does to its track, and whether a sprint accepts
// board changes at all. Nothing here touches the database.
package board

import (
	"errors"

	"github.com/shopfloor/board/backend/internal/models"
)

var ErrPositionOutOfRange = errors.New("position out of range")

// NextOrder returns the order for a card appended to a column whose highest
// card is last. An empty column (nil last) starts at 0.
func NextOrder(last *models.Issue) int {
	if last == nil {
		return 0
	}
	return last.Order + 1
}

// Renumber returns a copy of column with order set to each card's index.
func Renumber(column []models.Issue) []models.Issue {
	if len(column) == 0 {
		return nil
	}
	out := make([]models.Issue, len(column))
	copy(out, column)
	for i := range out {
		out[i].Order = i
	}
	return out
}

// Reorder moves the card at from to position to within the same column.
// Status and track are left alone.
func Reorder(column []models.Issue, from, to int) ([]models.Issue, error) {
	if from < 0 || from >= len(column) || to < 0 || to >= len(column) {
		return nil, ErrPositionOutOfRange
	}

	out := make([]models.Issue, 0, len(column))
	out = append(out, column[:from]...)
	out = append(out, column[from+1:]...)
	out = insertAt(out, to, column[from])
	return Renumber(out), nil
}

// Move takes the card at from out of source and inserts it into dest at
// position to with the given status, appending that status to its track.
// Both columns come back renumbered independently; an emptied source is nil.
// A to beyond the end of dest appends.
func Move(source, dest []models.Issue, from, to int, status models.IssueStatus) ([]models.Issue, []models.Issue, error) {
	if from < 0 || from >= len(source) || to < 0 {
		return nil, nil, ErrPositionOutOfRange
	}
	if !status.Valid() {
		return nil, nil, models.ErrInvalidStatus
	}

	card := source[from]
	card.Status = status
	card.Track = card.Track.Append(status)

	residual := make([]models.Issue, 0, len(source)-1)
	residual = append(residual, source[:from]...)
	residual = append(residual, source[from+1:]...)

	if to > len(dest) {
		to = len(dest)
	}
	target := make([]models.Issue, len(dest), len(dest)+1)
	copy(target, dest)
	target = insertAt(target, to, card)

	return Renumber(residual), Renumber(target), nil
}

// Placements flattens columns into reconciliation batch entries.
func Placements(columns ...[]models.Issue) []models.IssuePlacement {
	var n int
	for _, c := range columns {
		n += len(c)
	}
	out := make([]models.IssuePlacement, 0, n)
	for _, c := range columns {
		for _, issue := range c {
			out = append(out, models.IssuePlacement{
				ID:     issue.ID,
				Status: issue.Status,
				Order:  issue.Order,
				Track:  issue.Track,
			})
		}
	}
	return out
}

func insertAt(column []models.Issue, i int, card models.Issue) []models.Issue {
	column = append(column, models.Issue{})
	copy(column[i+1:], column[i:])
	column[i] = card
	return column
}
