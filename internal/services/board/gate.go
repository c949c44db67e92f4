package board

import (
	"errors"
	"time"

	"github.com/shopfloor/board/backend/internal/models"
)

var (
	ErrSprintNotStarted = errors.New("sprint not started")
	ErrSprintEnded      = errors.New("sprint ended")

	ErrCannotStart    = errors.New("sprint can only be started from PLANNED within its date range")
	ErrCannotComplete = errors.New("only an active sprint can be completed")
	ErrBackTransition = errors.New("sprint status cannot go back")
)

// CheckGate reports whether a sprint in the given status accepts board
// reorders and moves. Only ACTIVE does.
func CheckGate(status models.SprintStatus) error {
	switch status {
	case models.SprintActive:
		return nil
	case models.SprintCompleted:
		return ErrSprintEnded
	default:
		return ErrSprintNotStarted
	}
}

// CanStart reports whether s may become ACTIVE at now. Both date bounds are inclusive.
func CanStart(s *models.Sprint, now time.Time) bool {
	return s.Status == models.SprintPlanned && !now.Before(s.StartDate) && !now.After(s.EndDate)
}

func CanComplete(s *models.Sprint) bool {
	return s.Status == models.SprintActive
}

// Transition validates moving s to status to at now. Setting the current
// status again is rejected.
func Transition(s *models.Sprint, to models.SprintStatus, now time.Time) error {
	switch to {
	case models.SprintActive:
		if !CanStart(s, now) {
			return ErrCannotStart
		}
	case models.SprintCompleted:
		if !CanComplete(s) {
			return ErrCannotComplete
		}
	default:
		return ErrBackTransition
	}
	return nil
}

// CurrentSprint picks the sprint the board shows: the first ACTIVE one,
// otherwise the first in list order. It returns nil for an empty list.
func CurrentSprint(sprints []models.Sprint) *models.Sprint {
	for i := range sprints {
		if sprints[i].Status == models.SprintActive {
			return &sprints[i]
		}
	}
	if len(sprints) > 0 {
		return &sprints[0]
	}
	return nil
}
