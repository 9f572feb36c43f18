package training

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/kohonen/som"
)

// ErrAlreadyStarted is returned when Train is called more than once.
var ErrAlreadyStarted = errors.New("training run already started")

// Engine is the map a Coordinator trains. *som.Map implements it.
type Engine interface {
	Len() int
	Sample(i int) []float64
	Iterations() int
	Winner(x []float64) (som.Position, float64, error)
	Update(x []float64, winner som.Position, iteration, total int) error
	MeanQuantizationError(distances []float64) float64
	Weights() [][][]float64
}

var _ Engine = (*som.Map)(nil)

// Result summarizes a successful run.
type Result struct {
	RunID string
	State State
	// Iterations is the number of passes actually executed.
	Iterations int
	// DM is the mean quantization error of the last pass.
	DM      float64
	Elapsed time.Duration
	Weights [][][]float64
}

// Coordinator runs one training loop over an Engine.
type Coordinator struct {
	engine Engine
	sink   Sink
	opts   options

	mu    sync.Mutex
	state State
}

// New creates a Coordinator. A nil sink discards all events.
func New(engine Engine, sink Sink, optFns ...Option) *Coordinator {
	o := applyOptions(optFns)
	if o.runID == "" {
		o.runID = uuid.NewString()
	}
	if sink == nil {
		sink = discardSink{}
	}
	return &Coordinator{
		engine: engine,
		sink:   sink,
		opts:   o,
	}
}

// RunID returns the identifier attached to every event of this run.
func (c *Coordinator) RunID() string { return c.opts.runID }

// Topic returns the topic events are published on.
func (c *Coordinator) Topic() string { return c.opts.topic }

// State returns the current state. It is safe to call concurrently with Train.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Train runs the loop to a terminal state. It blocks until done. ctx is
// checked once per iteration; cancellation fails the run.
func (c *Coordinator) Train(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	if c.state != NotStarted {
		c.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	c.state = Running
	c.mu.Unlock()

	logger := c.opts.logger.With("run_id", c.opts.runID)
	start := c.opts.now()
	total := c.engine.Iterations()
	distances := make([]float64, c.engine.Len())

	logger.InfoContext(ctx, "training started", "iterations", total, "count", len(distances))

	var (
		dm       float64
		executed int
		state    = Completed
	)

	for it := 0; it < total; it++ {
		if err := ctx.Err(); err != nil {
			return nil, c.fail(ctx, it, err)
		}

		// Progress reports the time at which the pass started.
		elapsed := c.opts.now().Sub(start).Seconds()

		for i := range distances {
			x := c.engine.Sample(i)

			winner, d, err := c.engine.Winner(x)
			if err != nil {
				return nil, c.fail(ctx, it, err)
			}
			distances[i] = d

			if err := c.engine.Update(x, winner, it, total); err != nil {
				return nil, c.fail(ctx, it, err)
			}
		}

		dm = c.engine.MeanQuantizationError(distances)
		executed = it + 1

		progress := Progress{
			Iteration:   it,
			ElapsedTime: elapsed,
			DM:          dm,
		}
		c.publish(ctx, Event{Type: EventProgress, Progress: &progress})
		if c.opts.onIteration != nil {
			c.opts.onIteration(progress)
		}

		logger.DebugContext(ctx, "iteration completed", "iteration", it, "dm", dm, "elapsed", progress.ElapsedTime)

		if dm <= c.opts.threshold {
			state = Converged
			c.publish(ctx, Event{Type: EventStopped, Stopped: &Stopped{
				Message: fmt.Sprintf("Training stopped due to dm <= %g", c.opts.threshold),
			}})
			break
		}
	}

	weights := c.engine.Weights()
	c.publish(ctx, Event{Type: EventFinal, Final: &Final{Weights: weights}})
	c.setState(state)

	elapsed := c.opts.now().Sub(start)
	logger.InfoContext(ctx, "training finished", "state", state.String(), "iterations", executed, "dm", dm, "elapsed", elapsed)

	return &Result{
		RunID:      c.opts.runID,
		State:      state,
		Iterations: executed,
		DM:         dm,
		Elapsed:    elapsed,
		Weights:    weights,
	}, nil
}

func (c *Coordinator) fail(ctx context.Context, iteration int, err error) error {
	c.setState(Failed)
	c.opts.logger.ErrorContext(ctx, "training failed", "run_id", c.opts.runID, "iteration", iteration, "error", err)
	return fmt.Errorf("training iteration %d: %w", iteration, err)
}

func (c *Coordinator) publish(ctx context.Context, ev Event) {
	ev.RunID = c.opts.runID
	if err := c.sink.Publish(c.opts.topic, ev); err != nil {
		c.opts.logger.WarnContext(ctx, "publish failed", "run_id", c.opts.runID, "type", string(ev.Type), "error", err)
	}
}
