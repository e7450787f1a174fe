package detect

import (
	"bytes"
	"context"
	"errors"
	"log"
	"time"

	"github.com/example/ripeness/api-go/internal/blob"
	"github.com/example/ripeness/api-go/internal/calibrate"
	"github.com/example/ripeness/api-go/internal/inference"
	"github.com/example/ripeness/api-go/internal/model"
)

const (
	DefaultCallTimeout     = 30 * time.Second
	DefaultRollbackTimeout = 10 * time.Second
)

// Backend is the remote model service.
type Backend interface {
	Health(ctx context.Context) bool
	Predict(ctx context.Context, image []byte, filename string) (model.InferenceResponse, error)
}

// Service runs one detection per call: health check, store the image, predict,
// calibrate. A failure after the image is stored deletes it again.
type Service struct {
	Blobs      blob.Store
	Backend    Backend
	Calibrator calibrate.Calibrator
	// Prefix is prepended to generated storage keys.
	Prefix          string
	CallTimeout     time.Duration
	RollbackTimeout time.Duration
	Now             func() time.Time
	Logger          *log.Logger
}

// Detect returns a calibrated result, an inconclusive result (Message only) or
// a *model.Error.
func (s *Service) Detect(ctx context.Context, img model.ImageUpload) (model.CalibratedResult, error) {
	if !s.healthy(ctx) {
		s.logf("ripeness detection failed: inference service unavailable")
		return model.CalibratedResult{}, &model.Error{Kind: model.KindServiceUnavailable, Message: "inference service unavailable"}
	}

	key, err := s.store(ctx, img)
	if err != nil {
		s.logf("ripeness detection failed: %v", err)
		return model.CalibratedResult{}, &model.Error{Kind: model.KindStorageFailure, Message: "failed to upload image", Err: err}
	}
	s.logf("stored image at %s", key)

	resp, err := s.predict(ctx, img)
	if err != nil {
		s.rollback(ctx, key)
		s.logf("ripeness detection failed: %v", err)
		return model.CalibratedResult{}, inferenceError(err)
	}
	s.logf("received prediction fruit=%q ripeness=%q", resp.FruitType, resp.Ripeness)

	if resp.Inconclusive() {
		return model.CalibratedResult{Message: resp.Message}, nil
	}

	var raw float64
	if resp.Confidence != nil {
		raw = *resp.Confidence
	}
	calibrated := calibrate.Round2(s.Calibrator.Calibrate(resp.Ripeness, raw, resp.RipenessProbabilities))
	s.logf("confidence details original=%v calibrated=%v ripeness=%q probabilities=%v",
		raw, calibrated, resp.Ripeness, resp.RipenessProbabilities)

	ts := s.now().UTC().Truncate(time.Second)
	out := model.CalibratedResult{
		FruitType:  resp.FruitType,
		Ripeness:   resp.Ripeness,
		Confidence: &calibrated,
		Timestamp:  &ts,
		Message:    resp.Message,
	}
	return out, nil
}

func (s *Service) healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout())
	defer cancel()
	return s.Backend.Health(ctx)
}

func (s *Service) store(ctx context.Context, img model.ImageUpload) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout())
	defer cancel()
	ext := blob.Extension(img.Extension, img.Filename, img.ContentType)
	key := blob.NewKey(s.Prefix, ext, s.now())
	return s.Blobs.Put(ctx, key, bytes.NewReader(img.Data), img.ContentType)
}

func (s *Service) predict(ctx context.Context, img model.ImageUpload) (model.InferenceResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout())
	defer cancel()
	return s.Backend.Predict(ctx, img.Data, img.Filename)
}

// rollback deletes a stored image. It outlives the caller's cancellation so
// an aborted request does not leave an orphan behind. Errors are only logged.
func (s *Service) rollback(ctx context.Context, key string) {
	timeout := s.RollbackTimeout
	if timeout <= 0 {
		timeout = DefaultRollbackTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	ok, err := s.Blobs.Exists(ctx, key)
	if err != nil {
		s.logf("rollback: failed to delete %s: %v", key, err)
		return
	}
	if !ok {
		return
	}
	if err := s.Blobs.Delete(ctx, key); err != nil && !errors.Is(err, model.ErrNotFound) {
		s.logf("rollback: failed to delete %s: %v", key, err)
		return
	}
	s.logf("rollback: deleted %s", key)
}

func inferenceError(err error) *model.Error {
	msg := "failed to process image: inference service unavailable"
	if errors.Is(err, inference.ErrMalformed) {
		msg = "failed to parse inference service response"
	}
	return &model.Error{Kind: model.KindInferenceFailure, Message: msg, Err: err}
}

func (s *Service) callTimeout() time.Duration {
	if s.CallTimeout > 0 {
		return s.CallTimeout
	}
	return DefaultCallTimeout
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
