// Package loader resolves a form definition by file name from a fixed chain
// of backing stores.
package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"survey-forms/internal/common/logger"
	"survey-forms/internal/common/metrics"
)

// SchemaLoader returns the raw JSON document stored under a file name.
type SchemaLoader interface {
	Load(ctx context.Context, fileName string) (interface{}, error)
}

// SourceFailure is the failure of one source during a load.
type SourceFailure struct {
	Source string
	Err    error
}

// LoadError is returned when every source failed.
type LoadError struct {
	FileName string
	Failures []SourceFailure
}

func (e *LoadError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Source+": "+f.Err.Error())
	}
	return fmt.Sprintf("unable to load %s: %s", e.FileName, strings.Join(parts, "; "))
}

func (e *LoadError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// ErrEmptyFileName is returned for a blank file name without trying any source.
var ErrEmptyFileName = errors.New("file name is required")

// Loader walks its sources in order and returns the first document found.
type Loader struct {
	sources []Source
	logger  logger.Logger
}

// New returns a loader over sources, tried in the given order.
func New(log logger.Logger, sources ...Source) *Loader {
	return &Loader{sources: sources, logger: log}
}

// Sources returns the source names in priority order.
func (l *Loader) Sources() []string {
	names := make([]string, 0, len(l.sources))
	for _, s := range l.sources {
		names = append(names, s.Name())
	}
	return names
}

// Load tries each source once, sequentially. Failures before the first
// success are discarded; if every source fails the result is a *LoadError
// listing all of them.
func (l *Loader) Load(ctx context.Context, fileName string) (interface{}, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, ErrEmptyFileName
	}

	loadErr := &LoadError{FileName: fileName}
	for _, src := range l.sources {
		if err := ctx.Err(); err != nil {
			loadErr.Failures = append(loadErr.Failures, SourceFailure{Source: src.Name(), Err: err})
			continue
		}

		doc, err := src.Load(ctx, fileName)
		if err == nil {
			metrics.SchemaLoads.WithLabelValues(src.Name(), "success").Inc()
			l.logger.Debug("form definition loaded", map[string]interface{}{
				"fileName": fileName,
				"source":   src.Name(),
			})
			return doc, nil
		}

		result := "error"
		if errors.Is(err, ErrNotConfigured) {
			result = "skipped"
		}
		metrics.SchemaLoads.WithLabelValues(src.Name(), result).Inc()
		l.logger.Debug("form source failed", map[string]interface{}{
			"fileName": fileName,
			"source":   src.Name(),
			"error":    err.Error(),
		})
		loadErr.Failures = append(loadErr.Failures, SourceFailure{Source: src.Name(), Err: err})
	}

	if len(loadErr.Failures) == 0 {
		loadErr.Failures = append(loadErr.Failures, SourceFailure{Source: "loader", Err: errors.New("no sources configured")})
	}
	return nil, loadErr
}
