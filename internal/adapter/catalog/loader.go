// Package catalog loads the static per-reach HAND products: synthetic rating
// tables and catchment pixel masks, keyed by reach. The catalog is read once
// at startup and treated as immutable for the life of the process.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/couchcryptid/flood-risk-fusion/internal/domain"
)

// Load reads and validates a static reach catalog document.
func Load(path string) (*domain.StaticData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reach catalog: %w", err)
	}
	return Parse(data)
}

// Parse deserializes and validates a static reach catalog document.
func Parse(data []byte) (*domain.StaticData, error) {
	var s domain.StaticData
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse reach catalog: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("reach catalog: %w", err)
	}
	return &s, nil
}
