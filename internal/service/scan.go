package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tomaz/labelscan/internal/domain"
	"github.com/tomaz/labelscan/internal/imaging"
	"github.com/tomaz/labelscan/internal/logger"
	"github.com/tomaz/labelscan/internal/prompts"
	"github.com/tomaz/labelscan/internal/storage"
)

// LabelExtractor abstracts the external multimodal model call so the scan
// pipeline can be exercised without a live provider.
type LabelExtractor interface {
	ExtractLabel(ctx context.Context, img *domain.PreparedImage, prompt string) (string, error)
}

// AddressResolver abstracts reverse geocoding of caller coordinates.
type AddressResolver interface {
	IsEnabled() bool
	Reverse(ctx context.Context, latitude, longitude float64) (string, error)
}

// ScanService runs the per-request pipeline: prepare image, assemble prompt,
// call the model, normalize the reply. The pipeline is linear and keeps no
// state across requests.
type ScanService struct {
	vlm     LabelExtractor
	geocode AddressResolver
	store   storage.ArtifactStore
	logger  *logger.Logger
	maxEdge int
}

// ScanConfig holds configuration for the scan service.
type ScanConfig struct {
	MaxEdge int
}

// NewScanService creates a scan service. store may be nil when debug
// persistence is not configured.
func NewScanService(
	vlm LabelExtractor,
	geocode AddressResolver,
	store storage.ArtifactStore,
	log *logger.Logger,
	cfg *ScanConfig,
) *ScanService {
	maxEdge := 1024
	if cfg != nil && cfg.MaxEdge > 0 {
		maxEdge = cfg.MaxEdge
	}
	return &ScanService{
		vlm:     vlm,
		geocode: geocode,
		store:   store,
		logger:  log,
		maxEdge: maxEdge,
	}
}

// log returns a logger from context if available, otherwise the service's.
func (s *ScanService) log(ctx context.Context) *logger.Logger {
	if ctx != nil {
		return logger.FromContext(ctx)
	}
	return s.logger
}

// Scan processes one uploaded label photo. Image decode/encode failures are
// returned to the caller and abort the request before any model call; once
// the model has replied, Scan always produces a valid LabelRecord.
func (s *ScanService) Scan(ctx context.Context, imageData []byte, hints *domain.Hints, debug bool) (*domain.LabelRecord, error) {
	prepared, err := imaging.Prepare(imageData, s.maxEdge)
	if err != nil {
		return nil, err
	}

	s.log(ctx).WithFields(logger.Fields{
		"edge":       prepared.Edge,
		"input_size": len(imageData),
		"png_size":   len(prepared.Data),
	}).Debug("Prepared label image")

	if debug {
		s.saveDebugArtifact(ctx, prepared)
	}

	address := s.resolveAddress(ctx, hints)
	prompt := prompts.BuildLabelPrompt(hints, address)

	raw, err := s.vlm.ExtractLabel(ctx, prepared, prompt)
	if err != nil {
		return nil, fmt.Errorf("label extraction failed: %w", err)
	}

	record := Normalize(raw)
	if record.IsFallback() {
		s.log(ctx).WithField("reply_size", len(raw)).Warn("Model reply could not be parsed, returning raw text")
	}

	return record, nil
}

// resolveAddress turns caller coordinates into an address for the prompt.
// Best-effort: any failure degrades to an empty address.
func (s *ScanService) resolveAddress(ctx context.Context, hints *domain.Hints) string {
	if hints == nil || !hints.HasCoordinates() {
		return ""
	}
	if s.geocode == nil || !s.geocode.IsEnabled() {
		return ""
	}

	address, err := s.geocode.Reverse(ctx, *hints.Latitude, *hints.Longitude)
	if err != nil {
		s.log(ctx).WithError(err).Warn("Reverse geocoding failed, continuing without address")
		return ""
	}
	return address
}

// saveDebugArtifact persists the prepared image fire-and-forget. It runs in
// its own goroutine with a detached context so a slow or failing store can
// neither delay nor fail the request.
func (s *ScanService) saveDebugArtifact(ctx context.Context, prepared *domain.PreparedImage) {
	if s.store == nil {
		return
	}

	key := fmt.Sprintf("debug/%s.png", uuid.New().String())
	log := s.log(ctx).WithField("artifact_key", key)

	go func() {
		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.store.Upload(saveCtx, key, bytes.NewReader(prepared.Data), int64(len(prepared.Data)), prepared.MIMEType()); err != nil {
			log.WithError(err).Warn("Failed to save debug artifact")
			return
		}
		log.WithField("url", s.store.GetURL(key)).Info("Saved debug artifact")
	}()
}
