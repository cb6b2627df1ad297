package shared

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/rsx/internal/models"
)

// LoadSeed reads a TOML fixture of artists, shops, records and copies and validates its references.
func LoadSeed(path string) (*models.Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed models.Seed
	if err := toml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	if err := seed.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return &seed, nil
}
