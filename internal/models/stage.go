package models

import "fmt"

// Stage is the lifecycle position of a stock unit. A unit is physically one
// purchase document and later one warehouse document; the stage ties them together.
type Stage string

const (
	StageOrdered  Stage = "ordered"
	StageStocked  Stage = "stocked"
	StageReserved Stage = "reserved"
	StageSold     Stage = "sold"
)

var transitions = map[Stage][]Stage{
	StageOrdered:  {StageStocked},
	StageStocked:  {StageReserved},
	StageReserved: {StageStocked, StageSold},
	// A sold line leaves the remaining warehouse quantity stocked.
	StageSold: {StageStocked},
}

func (s Stage) CanTransitionTo(next Stage) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition returns an error describing an illegal stage change.
func Transition(from, to Stage) error {
	if from.CanTransitionTo(to) {
		return nil
	}
	return fmt.Errorf("cannot move from %s to %s", from, to)
}
