package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/lazyvibe/iotwb/internal/model"
)

// AzureConfigFile implements ComponentStore on top of
// <root>/.azurecomponent/azureconfig.json.
type AzureConfigFile struct {
	mu   sync.RWMutex
	path string
}

// NewAzureConfigFile returns the component store keyed to a project root.
func NewAzureConfigFile(rootPath string) *AzureConfigFile {
	return &AzureConfigFile{
		path: filepath.Join(rootPath, model.AzureConfigFolderName, model.AzureConfigFileName),
	}
}

// Path returns the backing file path.
func (s *AzureConfigFile) Path() string {
	return s.path
}

// CreateIfNotExists writes an empty component list when the file is absent.
func (s *AzureConfigFile) CreateIfNotExists(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	return s.save(&model.AzureConfigs{ComponentConfigs: []model.ComponentConfig{}})
}

// Components returns all records in the order they were persisted. The
// order is not rearranged: it must already list every component after the
// components it depends on.
func (s *AzureConfigFile) Components(_ context.Context) ([]model.ComponentConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.load()
	if err != nil {
		return nil, err
	}
	result := make([]model.ComponentConfig, len(data.ComponentConfigs))
	copy(result, data.ComponentConfigs)
	return result, nil
}

// Component retrieves a record by id.
func (s *AzureConfigFile) Component(_ context.Context, id string) (*model.ComponentConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range data.ComponentConfigs {
		if data.ComponentConfigs[i].ID == id {
			cfg := data.ComponentConfigs[i]
			return &cfg, nil
		}
	}
	return nil, ErrNotFound
}

// Append adds a new record.
func (s *AzureConfigFile) Append(_ context.Context, cfg *model.ComponentConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}
	for _, existing := range data.ComponentConfigs {
		if existing.ID == cfg.ID {
			return ErrAlreadyExists
		}
	}
	if cfg.Dependencies == nil {
		cfg.Dependencies = []model.DependencyConfig{}
	}
	data.ComponentConfigs = append(data.ComponentConfigs, *cfg)
	return s.save(data)
}

// UpdateComponentInfo merges values into the record's component info.
func (s *AzureConfigFile) UpdateComponentInfo(_ context.Context, id string, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}
	for i := range data.ComponentConfigs {
		cfg := &data.ComponentConfigs[i]
		if cfg.ID != id {
			continue
		}
		if cfg.ComponentInfo == nil {
			cfg.ComponentInfo = &model.ComponentInfo{}
		}
		if cfg.ComponentInfo.Values == nil {
			cfg.ComponentInfo.Values = make(map[string]string, len(values))
		}
		for k, v := range values {
			cfg.ComponentInfo.Values[k] = v
		}
		return s.save(data)
	}
	return ErrNotFound
}

// load reads and validates the file. A missing file reads as empty.
func (s *AzureConfigFile) load() (*model.AzureConfigs, error) {
	content, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &model.AzureConfigs{ComponentConfigs: []model.ComponentConfig{}}, nil
	}
	if err != nil {
		return nil, err
	}

	data := &model.AzureConfigs{}
	if err := json.Unmarshal(content, data); err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return data, nil
}

// save writes data to the JSON file.
func (s *AzureConfigFile) save(data *model.AzureConfigs) error {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, content, 0644)
}
