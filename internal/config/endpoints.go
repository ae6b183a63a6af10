package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Alwanly/service-endpoint-dispatch/internal/models"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/failure"
)

// LoadEndpointsFile reads a JSON array of endpoints used to seed the registry.
func LoadEndpointsFile(path string) ([]models.Endpoint, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, failure.NewFileNotFoundError("endpoints file does not exist", path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("read endpoints file: %w", err)
	}

	var eps []models.Endpoint
	if err := json.Unmarshal(data, &eps); err != nil {
		return nil, failure.NewParseError(err.Error(), path, err)
	}
	return eps, nil
}
