package lifecycle

import "go-project-finance/internal/models"

// transitions lists the status changes a project may go through. Anything not in
// here is rejected at the write boundary.
var transitions = map[models.ProjectStatus][]models.ProjectStatus{
	models.ProjectPending:   {models.ProjectOngoing, models.ProjectCancelled},
	models.ProjectOngoing:   {models.ProjectCompleted, models.ProjectCancelled},
	models.ProjectCompleted: {models.ProjectOngoing},
}

// CanTransition reports whether a project may move from one status to another.
// Staying in the same status is always allowed.
func CanTransition(from, to models.ProjectStatus) bool {
	if from == to {
		return to.Valid()
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
