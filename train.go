package kohonen

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/kohonen/som"
	"github.com/hupe1980/kohonen/training"
)

// Run is a training run started by StartTraining.
type Run struct {
	// ID is attached to every event the run publishes.
	ID       string
	ConfigID uint32

	done chan struct{}
	res  *training.Result
	err  error
}

// Done is closed when the run reaches a terminal state.
func (r *Run) Done() <-chan struct{} { return r.done }

// Result blocks until the run is finished and returns its outcome.
func (r *Run) Result() (*training.Result, error) {
	<-r.done
	return r.res, r.err
}

// Wait is like Result but gives up when ctx is done. The run itself keeps going.
func (r *Run) Wait(ctx context.Context) (*training.Result, error) {
	select {
	case <-r.done:
		return r.res, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func neighborhood(competitionType string) (som.Neighborhood, error) {
	n, err := som.ParseNeighborhood(competitionType)
	if err != nil {
		return 0, translateError(err)
	}
	return n, nil
}

// Train runs the configuration with configID over the stored vectors and
// blocks until the run ends. It waits for a free run slot first.
func (s *Service) Train(ctx context.Context, configID uint32) (*training.Result, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.runs.Done()

	m, cfg, err := s.prepare(ctx, configID)
	if err != nil {
		s.rejected(ctx, configID, err)
		return nil, err
	}
	return s.train(ctx, uuid.NewString(), cfg, m)
}

// StartTraining validates the configuration and the stored vectors, then
// trains in the background. Errors found before the run starts are returned
// directly; later ones are reported by Run.Result. Cancelling ctx fails the run.
func (s *Service) StartTraining(ctx context.Context, configID uint32) (*Run, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}

	m, cfg, err := s.prepare(ctx, configID)
	if err != nil {
		s.runs.Done()
		s.rejected(ctx, configID, err)
		return nil, err
	}

	run := &Run{
		ID:       uuid.NewString(),
		ConfigID: cfg.ID,
		done:     make(chan struct{}),
	}

	go func() {
		defer s.runs.Done()
		defer close(run.done)
		run.res, run.err = s.train(ctx, run.ID, cfg, m)
	}()

	return run, nil
}

func (s *Service) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.runs.Add(1)
	return nil
}

func (s *Service) rejected(ctx context.Context, configID uint32, err error) {
	s.metrics.RecordTraining(training.Failed, 0, 0, err)
	s.logger.WithConfigID(configID).LogTrain(ctx, nil, err)
}

// prepare loads the configuration and vectors and builds an untrained map.
func (s *Service) prepare(ctx context.Context, configID uint32) (*som.Map, Config, error) {
	cfg, err := s.store.Configs().GetConfig(ctx, configID)
	if err != nil {
		return nil, Config{}, fmt.Errorf("%w: config %d: %w", ErrInvalidConfiguration, configID, translateError(err))
	}
	if err := validateConfig(cfg); err != nil {
		return nil, Config{}, err
	}

	nb, err := neighborhood(cfg.CompetitionType)
	if err != nil {
		return nil, Config{}, err
	}

	vs, err := s.Vectors(ctx)
	if err != nil {
		return nil, Config{}, err
	}

	data := make([][]float64, len(vs))
	for i, v := range vs {
		data[i] = v.Values
	}

	somOpts := append(append([]som.Option{}, s.opts.somOptions...), som.WithNeighborhood(nb))
	m, err := som.New(data, cfg.Neurons, cfg.Iterations, somOpts...)
	if err != nil {
		return nil, Config{}, translateError(err)
	}
	return m, cfg, nil
}

func (s *Service) train(ctx context.Context, runID string, cfg Config, m *som.Map) (*training.Result, error) {
	logger := s.logger.WithRunID(runID).WithConfigID(cfg.ID)

	if err := s.resources.AcquireRun(ctx); err != nil {
		logger.LogTrain(ctx, nil, err)
		s.metrics.RecordTraining(training.Failed, 0, 0, err)
		return nil, err
	}
	defer s.resources.ReleaseRun()

	var passes int
	lastTick := time.Now()
	hook := func(p training.Progress) {
		passes = p.Iteration + 1
		now := time.Now()
		s.metrics.RecordIteration(p.Iteration, p.DM, now.Sub(lastTick))
		lastTick = now
	}

	coord := training.New(m, s.opts.sink,
		training.WithTopic(s.opts.topic),
		training.WithConvergenceThreshold(s.opts.convergenceThreshold),
		training.WithRunID(runID),
		training.WithLogger(logger.Logger),
		training.WithIterationHook(hook),
	)

	start := time.Now()
	res, err := coord.Train(ctx)
	err = translateError(err)

	if err != nil {
		s.metrics.RecordTraining(training.Failed, passes, time.Since(start), err)
	} else {
		s.metrics.RecordTraining(res.State, res.Iterations, res.Elapsed, nil)
	}
	logger.LogTrain(ctx, res, err)
	return res, err
}
