// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package hierarchy

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDataset is returned when a dataset file decodes but fails
// validation (for example a person without a name).
var ErrInvalidDataset = errors.New("invalid dataset")

// Format identifies the encoding of a dataset file.
type Format int

const (
	// FormatJSON is a top-level JSON array of countries.
	FormatJSON Format = iota

	// FormatYAML is a top-level YAML sequence of countries.
	FormatYAML
)

// String returns the string representation of the Format.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// FormatFromPath picks the format from the file extension. Anything that is
// not .yaml or .yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// datasetValidate checks struct tags on the decoded dataset.
var datasetValidate = validator.New()

// dataset wraps the top-level list so the validator can dive into it.
type dataset struct {
	Countries []Country `validate:"dive"`
}

// LoadFile reads and validates a dataset file.
func LoadFile(path string) ([]Country, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	countries, err := Decode(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", path, err)
	}
	return countries, nil
}

// Decode parses data in the given format and validates the result.
func Decode(data []byte, format Format) ([]Country, error) {
	var countries []Country
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &countries)
	default:
		err = json.Unmarshal(data, &countries)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}

	if err := Validate(countries); err != nil {
		return nil, err
	}
	return countries, nil
}

// Validate checks that every country, person and animal has a name.
func Validate(countries []Country) error {
	if err := datasetValidate.Struct(dataset{Countries: countries}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	return nil
}
