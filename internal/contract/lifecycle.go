package contract

import (
	"github.com/lehoang82vt/solar-platform-sub001/internal/domainerr"
	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
)

const entity = "contract"

// allowedEdges is the complete contract state machine. DRAFT -> SIGNED is only
// taken by Sign once both signatures are present.
var allowedEdges = map[models.ContractStatus][]models.ContractStatus{
	models.ContractStatusDraft:      {models.ContractStatusSigned, models.ContractStatusCancelled},
	models.ContractStatusSigned:     {models.ContractStatusInProgress, models.ContractStatusCancelled},
	models.ContractStatusInProgress: {models.ContractStatusCompleted, models.ContractStatusCancelled},
}

func CanTransition(from, to models.ContractStatus) bool {
	for _, next := range allowedEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns an InvalidTransition error unless from -> to is an allowed edge.
func ValidateTransition(from, to models.ContractStatus) error {
	if !CanTransition(from, to) {
		return domainerr.Transition(entity, string(from), string(to))
	}
	return nil
}

// IsExplicitTarget reports whether the status may be requested through Transition.
func IsExplicitTarget(to models.ContractStatus) bool {
	return to == models.ContractStatusInProgress || to == models.ContractStatusCompleted
}

// IsCancellable reports whether Cancel accepts a contract in the status.
func IsCancellable(s models.ContractStatus) bool {
	return CanTransition(s, models.ContractStatusCancelled)
}
