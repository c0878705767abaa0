package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/HealthForge/vitalsim/pkg/models"
)

// WriteJSON writes the series as an indented JSON array. The record shape is
// the models.Reading JSON contract: flat fields, local timestamps without
// offset, alert as explicit null when absent.
func WriteJSON(w io.Writer, series models.Series) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(series); err != nil {
		return fmt.Errorf("encode series json: %w", err)
	}
	return nil
}

// ReadJSON parses a JSON array previously produced by WriteJSON.
func ReadJSON(r io.Reader) (models.Series, error) {
	var series models.Series
	if err := json.NewDecoder(r).Decode(&series); err != nil {
		return nil, fmt.Errorf("decode series json: %w", err)
	}
	return series, nil
}
