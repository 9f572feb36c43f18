package kohonen

// Close stops admitting training runs and waits for background runs started
// with StartTraining to finish. Calls after the first are no-ops.
// Cancel the contexts passed to StartTraining to stop runs early.
func (s *Service) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.runs.Wait()
	return nil
}
