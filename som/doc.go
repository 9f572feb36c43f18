// Package som implements a square Self-Organizing Map (Kohonen network).
//
// The grid side is floor(sqrt(n)) where n = max(requested neurons, 2*dim), so
// the map always has at least twice as many neurons as input features (minus
// whatever a non-square n loses to the square grid). Weights are initialized
// uniformly in [-1, 1].
//
// Training is driven externally, one sample at a time:
//
//	m, err := som.New(data, 64, 100, som.WithSeed(42))
//	for t := 0; t < m.Iterations(); t++ {
//	    for i := 0; i < m.Len(); i++ {
//	        x := m.Sample(i)
//	        p, dist, _ := m.Winner(x)
//	        _ = m.Update(x, p, t, m.Iterations())
//	    }
//	}
//
// Learning rate and neighborhood radius both shrink with t/total according to
// the configured DecayFunc; the default LinearDecay reaches 1/total on the
// final iteration.
//
// A Map is not safe for concurrent use. It is meant to be owned by a single
// training run.
package som
