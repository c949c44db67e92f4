package services

import (
	"context"
	"fmt"
)

// RecordTransition writes a committed board move to the activity log.
func RecordTransition(_ context.Context, task *TransitionTask) error {
	if globalDB == nil {
		return fmt.Errorf("system logger not initialized")
	}

	LogInfo("Board", "Move",
		fmt.Sprintf("Issue %s moved %s → %s", task.IssueID, task.From, task.To),
		LogScope{OrganizationID: task.OrganizationID, UserID: task.UserID},
		task,
	)
	return nil
}

// enqueueTransitions publishes tasks after commit. Queue failures are logged
// and never fail the board update that produced them.
func enqueueTransitions(queue TaskQueue, tasks []*TransitionTask) {
	if queue == nil {
		return
	}
	for _, task := range tasks {
		if err := queue.Enqueue(task); err != nil {
			LogWarning("Board", "Enqueue", "failed to enqueue transition activity: "+err.Error(),
				LogScope{OrganizationID: task.OrganizationID, UserID: task.UserID}, nil)
		}
	}
}
