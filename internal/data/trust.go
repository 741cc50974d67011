package data

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/anthropics/telegram-neurocat/internal/biz/domain"
	"github.com/anthropics/telegram-neurocat/internal/biz/repo"
)

// trustRepo implements the Trust repository over a single JSON document.
// There is no in-memory cache: every Load reads the file so moderation
// always sees the latest persisted state.
type trustRepo struct {
	path string
}

// NewTrustRepo creates a new Trust repository
func NewTrustRepo(path string) repo.TrustRepo {
	return &trustRepo{path: path}
}

// Load reads the trust list; a missing file is an empty list
func (r *trustRepo) Load(ctx context.Context) (*domain.TrustList, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &domain.TrustList{}, nil
		}
		return nil, fmt.Errorf("failed to read trust file: %w", err)
	}

	var list domain.TrustList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse trust file: %w", err)
	}
	return &list, nil
}

// Save rewrites the whole document
func (r *trustRepo) Save(ctx context.Context, list *domain.TrustList) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("failed to create trust dir: %w", err)
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode trust list: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write trust file: %w", err)
	}
	return nil
}
