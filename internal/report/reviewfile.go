// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litreview/pkg/types"
)

// WriteReviewFile saves a finished report to a YAML file so a review
// can be archived or shared outside the database.
func WriteReviewFile(path string, r types.ResearchReport) error {
	data, err := yaml.Marshal(&r)
	if err != nil {
		return fmt.Errorf("marshaling review file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadReviewFile loads a previously saved review file from disk.
func ReadReviewFile(path string) (*types.ResearchReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading review file: %w", err)
	}
	var r types.ResearchReport
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing review file: %w", err)
	}
	return &r, nil
}
