// Package testutil provides testing utilities for kohonen.
//
// This package is intended for use in tests only. It provides a seeded,
// thread-safe RNG and helpers for building synthetic glyph images.
//
// # Random Data
//
//	rng := testutil.NewRNG(seed)
//	vec := make([]float64, 16)
//	rng.FillUniformRange(vec, -1, 1)
//	bits := rng.Bits(32*32, 0.1) // ~10% ones
//
// # Glyph Images
//
//	img := testutil.Glyph(128, 128, image.Rect(10, 20, 14, 60))
//	data := testutil.EncodePNG(img)
package testutil
