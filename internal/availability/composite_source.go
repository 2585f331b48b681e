package availability

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CompositeSource implements Source with fallback strategy
// Primary: usually HTTPSource (channel manager / PMS feed)
// Fallback: usually FileSource (local snapshot)
type CompositeSource struct {
	primary  Source
	fallback Source
	logger   *zap.Logger
}

// NewCompositeSource creates a new CompositeSource
func NewCompositeSource(primary, fallback Source, logger *zap.Logger) *CompositeSource {
	return &CompositeSource{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Availability tries the primary source first and falls back on error
func (cs *CompositeSource) Availability(ctx context.Context, from, to time.Time) (*Table, error) {
	table, err := cs.primary.Availability(ctx, from, to)
	if err == nil {
		return table, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	cs.logger.Warn("Primary availability source failed, falling back",
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Error(err))

	table, fallbackErr := cs.fallback.Availability(ctx, from, to)
	if fallbackErr != nil {
		return nil, fmt.Errorf("primary and fallback both failed: primary=%w, fallback=%v", err, fallbackErr)
	}
	return table, nil
}

// LoadFallback loads the fallback source (if FileSource)
func (cs *CompositeSource) LoadFallback() error {
	if fs, ok := cs.fallback.(*FileSource); ok {
		if err := fs.Load(); err != nil {
			return fmt.Errorf("failed to load fallback availability: %w", err)
		}
		cs.logger.Info("Fallback availability loaded successfully")
	}
	return nil
}
