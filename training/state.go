package training

import "fmt"

// State is the lifecycle state of a Coordinator.
type State int

const (
	NotStarted State = iota
	Running
	Converged
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Converged:
		return "converged"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == Converged || s == Completed || s == Failed
}

// Succeeded reports whether the run ended with weights.
func (s State) Succeeded() bool {
	return s == Converged || s == Completed
}
