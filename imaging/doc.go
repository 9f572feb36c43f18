// Package imaging turns raw images into binary ink matrices.
//
// The pipeline is deterministic and side-effect free:
//
//  1. Resize to a fixed normalization size (128x128 by default).
//  2. Convert to grayscale, binarize at a threshold on the [0,1] scale and
//     invert so that ink pixels become 1.
//  3. Crop to the bounding box of all ink cells. A matrix without ink is
//     returned unchanged and reported as not cropped.
//
// Padding to a fixed target size is available through BinaryMatrix.Pad but is
// not part of the default pipeline.
//
// Usage:
//
//	v := imaging.NewVectorizer()
//	img, _, err := imaging.Decode(r)
//	m, cropped, err := v.Vectorize(img)
//	sums := m.ColumnSums()
package imaging
