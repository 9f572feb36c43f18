package store

import "time"

// Config is a saved training configuration.
type Config struct {
	ID              uint32    `json:"id"`
	Neurons         int       `json:"neurons"`
	CompetitionType string    `json:"competition_type"`
	Iterations      int       `json:"iterations"`
	CreatedAt       time.Time `json:"created_at"`
}

// Image describes an uploaded image. The encoded bytes are stored separately.
type Image struct {
	ID         uint32    `json:"id"`
	Name       string    `json:"name"`
	Format     string    `json:"format"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Vector is the stored feature vector of one image.
type Vector struct {
	ID        uint32    `json:"id"`
	ImageID   uint32    `json:"image_id"`
	ImageName string    `json:"image_name"`
	Values    []float64 `json:"values"`
	CreatedAt time.Time `json:"created_at"`
}
