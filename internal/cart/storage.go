package cart

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cart-sync-api/internal/models"
)

// LocalStorage persists the full cart state between runs. The store
// writes through it synchronously on every mutation so a restart never
// loses cart contents that were present before the restart.
type LocalStorage interface {
	Save(items []models.CartLineItem) error
	Load() ([]models.CartLineItem, error)
}

// FileStorage persists the cart as a JSON file on disk
type FileStorage struct {
	filePath string
	logger   *slog.Logger
}

// NewFileStorage creates a file-backed local storage, creating the
// parent directory if needed
func NewFileStorage(filePath string, logger *slog.Logger) (*FileStorage, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cart storage directory: %w", err)
	}
	return &FileStorage{filePath: filePath, logger: logger}, nil
}

// Save writes the full item list to disk, replacing the previous state
func (s *FileStorage) Save(items []models.CartLineItem) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cart items: %w", err)
	}

	tmpPath := s.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cart file: %w", err)
	}
	if err := os.Rename(tmpPath, s.filePath); err != nil {
		return fmt.Errorf("failed to replace cart file: %w", err)
	}

	s.logger.Debug("Cart persisted to local storage",
		"file_path", s.filePath,
		"item_count", len(items))
	return nil
}

// Load reads the persisted item list; a missing file is an empty cart
func (s *FileStorage) Load() ([]models.CartLineItem, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.CartLineItem{}, nil
		}
		return nil, fmt.Errorf("failed to read cart file: %w", err)
	}

	var items []models.CartLineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart file: %w", err)
	}

	s.logger.Debug("Cart loaded from local storage",
		"file_path", s.filePath,
		"item_count", len(items))
	return items, nil
}

// NopStorage discards writes and loads nothing. Used in tests and when
// no local persistence path is configured.
type NopStorage struct{}

func (NopStorage) Save(items []models.CartLineItem) error { return nil }

func (NopStorage) Load() ([]models.CartLineItem, error) { return nil, nil }
