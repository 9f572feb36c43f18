// Package training drives a Self-Organizing Map through its iteration loop
// and reports progress to an event sink.
//
// A Coordinator runs exactly once and moves through the states
//
//	NotStarted -> Running -> Converged | Completed | Failed
//
// Each iteration is one sequential pass over the dataset. After every pass the
// mean quantization error (dm) is published as a progress event. When dm drops
// to the convergence threshold a stopped event is published and the loop ends
// early. Both success states publish a final event carrying the weights.
// Failures (engine errors, context cancellation) publish nothing further.
//
// Events are fire-and-forget: sink errors are logged and never abort a run.
// Every event carries the run id so concurrent runs sharing a topic can be
// told apart.
package training
