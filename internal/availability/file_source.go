package availability

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrNotLoaded is returned when a FileSource is queried before Load
var ErrNotLoaded = errors.New("availability file not loaded")

// fileDocument is the on-disk layout. JSON files decode the same way since YAML is a superset.
//
//	availability:
//	  - date: 2024-06-10
//	    status: blocked
//	  - date: 2024-06-11
//	    status: available
//	    price: 145.50
//	    minStay: 2
type fileDocument struct {
	Availability []DateAvailability `yaml:"availability"`
}

// FileSource implements Source using a local YAML or JSON file
type FileSource struct {
	filePath string
	logger   *zap.Logger
	mu       sync.RWMutex
	table    *Table
}

// NewFileSource creates a new FileSource instance
func NewFileSource(filePath string, logger *zap.Logger) *FileSource {
	return &FileSource{
		filePath: filePath,
		logger:   logger,
	}
}

// Load reads availability records from file, replacing anything loaded before
func (fs *FileSource) Load() error {
	data, err := os.ReadFile(fs.filePath)
	if err != nil {
		return fmt.Errorf("failed to read availability file: %w", err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse availability file: %w", err)
	}

	table, err := NewTable(doc.Availability)
	if err != nil {
		return fmt.Errorf("failed to build availability table: %w", err)
	}

	fs.mu.Lock()
	fs.table = table
	fs.mu.Unlock()

	fs.logger.Info("Availability file loaded",
		zap.String("file", fs.filePath),
		zap.Int("records", table.Len()))

	return nil
}

// Availability returns the loaded records between from and to
func (fs *FileSource) Availability(ctx context.Context, from, to time.Time) (*Table, error) {
	fs.mu.RLock()
	table := fs.table
	fs.mu.RUnlock()

	if table == nil {
		return nil, ErrNotLoaded
	}
	return table.Availability(ctx, from, to)
}
