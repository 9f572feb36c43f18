package training

// EventType names the kind of an Event.
type EventType string

const (
	// EventProgress is published after every iteration.
	EventProgress EventType = "progress"
	// EventStopped is published when training stops early on convergence.
	EventStopped EventType = "stopped"
	// EventFinal is published once a run succeeds.
	EventFinal EventType = "final"
)

// Progress reports one finished iteration.
type Progress struct {
	Iteration int `json:"iteration"`
	// ElapsedTime is the time since the run started, in seconds.
	ElapsedTime float64 `json:"elapsed_time"`
	DM          float64 `json:"dm"`
}

// Stopped reports an early stop.
type Stopped struct {
	Message string `json:"message"`
}

// Final carries the learned weights as side x side x dim.
type Final struct {
	Weights [][][]float64 `json:"weights"`
}

// Event is a single notification of a training run.
// Exactly one of Progress, Stopped and Final is set, matching Type.
type Event struct {
	Type     EventType `json:"type"`
	RunID    string    `json:"run_id"`
	Progress *Progress `json:"progress,omitempty"`
	Stopped  *Stopped  `json:"stopped,omitempty"`
	Final    *Final    `json:"final,omitempty"`
}

// Sink receives training events. Publish must not block on subscribers.
type Sink interface {
	Publish(topic string, event Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(topic string, event Event) error

// Publish implements Sink.
func (f SinkFunc) Publish(topic string, event Event) error {
	return f(topic, event)
}

type discardSink struct{}

func (discardSink) Publish(string, Event) error { return nil }
