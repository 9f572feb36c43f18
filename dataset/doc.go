// Package dataset assembles per-image ink matrices into a normalized feature
// vector dataset.
//
// Every source is vectorized independently (in parallel, bounded by the worker
// count), then all matrices are right-padded with zero columns to the widest
// matrix of the batch. Each feature vector is the column-wise ink count,
// divided by its own maximum and rounded to a fixed number of decimals.
// All-zero vectors are left unchanged.
//
// A build either returns a complete dataset or an error; partial results are
// never returned.
package dataset
