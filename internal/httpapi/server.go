package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/ripeness/api-go/internal/catalog"
	"github.com/example/ripeness/api-go/internal/model"
)

const defaultMaxUpload = 2048 << 10

type Detector interface {
	Detect(ctx context.Context, img model.ImageUpload) (model.CalibratedResult, error)
}

type FruitLister interface {
	SupportedFruits(ctx context.Context) ([]json.RawMessage, error)
}

type Server struct {
	Detector       Detector
	Fruits         FruitLister
	MaxUploadBytes int64
}

func (s Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(cors)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/detect-ripeness", s.handleDetect)
		r.Get("/supported-fruits", s.handleSupportedFruits)
		r.Get("/fruits", handleCatalog(catalog.Fruits))
		// older clients read the fruit catalog from this path
		r.Get("/diseases-fruit", handleCatalog(catalog.Fruits))
		r.Get("/diseases", handleCatalog(catalog.Diseases))
		r.Get("/history", s.handleHistory)
	})

	return r
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

var allowedImages = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

func (s Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUpload
	}
	// room for the multipart envelope around the file
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeValidation(w, fmt.Sprintf("The image may not be greater than %d kilobytes.", maxBytes>>10))
			return
		}
		writeValidation(w, "The image field is required.")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeValidation(w, "The image field is required.")
		return
	}
	defer file.Close()

	if header.Size > maxBytes {
		writeValidation(w, fmt.Sprintf("The image may not be greater than %d kilobytes.", maxBytes>>10))
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("read image: %w", err))
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	want, ok := allowedImages[ext]
	sniffed := http.DetectContentType(data)
	if !ok || sniffed != want {
		writeValidation(w, "The image must be a file of type: jpg, jpeg, png.")
		return
	}

	result, err := s.Detector.Detect(r.Context(), model.ImageUpload{
		Data:        data,
		Filename:    header.Filename,
		ContentType: sniffed,
		Extension:   strings.TrimPrefix(ext, "."),
	})
	if err != nil {
		log.Printf("detection api failed: %v", err)
		writeDetectErr(w, err)
		return
	}
	if result.Inconclusive() {
		msg := ""
		if result.Message != nil {
			msg = *result.Message
		}
		log.Printf("detection inconclusive for %s: %q", header.Filename, msg)
	}
	writeJSON(w, http.StatusOK, result)
}

func (s Server) handleSupportedFruits(w http.ResponseWriter, r *http.Request) {
	fruits, err := s.Fruits.SupportedFruits(r.Context())
	if err != nil {
		log.Printf("failed to retrieve supported fruits: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":   true,
			"message": "failed to retrieve supported fruits",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"fruits": fruits})
}

func (s Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": []any{}})
}

func handleCatalog(load func() (catalog.List, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		list, err := load()
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func writeDetectErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	msg := "ripeness detection failed"
	var de *model.Error
	if errors.As(err, &de) {
		msg = de.Message
		switch de.Kind {
		case model.KindServiceUnavailable:
			code = http.StatusServiceUnavailable
		case model.KindInferenceFailure:
			code = http.StatusBadGateway
		case model.KindStorageFailure:
			code = http.StatusInternalServerError
		}
	}
	writeJSON(w, code, map[string]any{
		"error":   true,
		"kind":    model.KindOf(err),
		"message": msg,
	})
}

func writeValidation(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"error":    "Validation failed",
		"messages": map[string][]string{"image": {msg}},
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"error": err.Error()})
}
