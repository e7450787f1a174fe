package model

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// ImageUpload is the image submitted for detection. It is owned by the caller
// and not retained once Detect returns.
type ImageUpload struct {
	Data        []byte
	Filename    string
	ContentType string
	Extension   string
}

// InferenceResponse is the raw answer of the inference service.
//
// - Message is set when the service judged the image not to be a fruit photo.
// - RipenessProbabilities need not sum to 1.
type InferenceResponse struct {
	Message               *string            `json:"message,omitempty"`
	FruitType             string             `json:"fruit_type"`
	Ripeness              string             `json:"ripeness"`
	Confidence            *float64           `json:"confidence,omitempty"`
	RipenessProbabilities map[string]float64 `json:"ripeness_probabilities,omitempty"`
}

// Inconclusive reports whether the service answered with a message only.
func (r InferenceResponse) Inconclusive() bool {
	return r.Message != nil && r.Confidence == nil
}

// CalibratedResult is what a detection returns to the caller. An inconclusive
// result carries Message alone, even when the service sent an empty message.
type CalibratedResult struct {
	Message    *string    `json:"message,omitempty"`
	FruitType  string     `json:"fruit_type,omitempty"`
	Ripeness   string     `json:"ripeness,omitempty"`
	Confidence *float64   `json:"confidence,omitempty"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
}

// Inconclusive reports whether the result carries no confidence score.
func (r CalibratedResult) Inconclusive() bool {
	return r.Confidence == nil
}
