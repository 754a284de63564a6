package reservations

import (
	"fmt"

	"github.com/zacktam12/Restaurant-management-sub000/models"
)

// validTransitions is the authoritative reservation state machine:
// pending -> confirmed | cancelled, confirmed -> completed | cancelled,
// cancelled and completed are terminal.
var validTransitions = []struct {
	From models.ReservationStatus
	To   models.ReservationStatus
}{
	{From: models.ReservationPending, To: models.ReservationConfirmed},
	{From: models.ReservationPending, To: models.ReservationCancelled},
	{From: models.ReservationConfirmed, To: models.ReservationCompleted},
	{From: models.ReservationConfirmed, To: models.ReservationCancelled},
}

type transitionKey struct {
	From models.ReservationStatus
	To   models.ReservationStatus
}

// Build a lookup map for O(1) validation
var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state.
func ValidTransitionsFrom(status models.ReservationStatus) []models.ReservationStatus {
	var nexts []models.ReservationStatus
	for _, t := range validTransitions {
		if t.From == status {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// CanTransition checks whether a reservation may move from one state to
// another. Invalid moves are rejected, never silently ignored.
func CanTransition(from, to models.ReservationStatus) error {
	if transitionMap[transitionKey{From: from, To: to}] {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s (valid from %s: %s)",
		ErrInvalidTransition, from, to, from, describeValidFrom(from))
}

func describeValidFrom(status models.ReservationStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none, terminal state"
	}
	result := ""
	for i, s := range nexts {
		if i > 0 {
			result += ", "
		}
		result += string(s)
	}
	return result
}
