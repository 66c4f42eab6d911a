// Package encoding maps categorical columns to integer codes and scales
// numeric features.
package encoding

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sort"
)

// LabelEncoder assigns each distinct value its index in the sorted class list.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// Fit records the sorted distinct values.
func (e *LabelEncoder) Fit(values []string) {
	seen := make(map[string]struct{}, len(values))
	classes := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			classes = append(classes, v)
		}
	}
	sort.Strings(classes)
	e.Classes = classes
}

// Encode returns the code of v. A value not seen during Fit maps to
// len(Classes), one past the last fitted code, and e is left unchanged.
func (e *LabelEncoder) Encode(v string) int {
	if i := slices.Index(e.Classes, v); i >= 0 {
		return i
	}
	return len(e.Classes)
}

// Encoders holds one LabelEncoder per categorical column.
type Encoders map[string]*LabelEncoder

// Save writes the encoders as JSON.
func (e Encoders) Save(filename string) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode label encoders: %w", err)
	}
	return os.WriteFile(filename, data, 0o644)
}

// LoadEncoders reads encoders written by Save.
func LoadEncoders(filename string) (Encoders, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read label encoders: %w", err)
	}
	var e Encoders
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to decode label encoders: %w", err)
	}
	return e, nil
}

// Scaler is a per-feature min-max scaler.
type Scaler struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

// FitScaler computes per-column bounds of samples.
func FitScaler(samples [][]float64) *Scaler {
	if len(samples) == 0 {
		return &Scaler{}
	}
	n := len(samples[0])
	s := &Scaler{Min: slices.Clone(samples[0]), Max: slices.Clone(samples[0])}
	for _, row := range samples[1:] {
		for j := 0; j < n; j++ {
			s.Min[j] = min(s.Min[j], row[j])
			s.Max[j] = max(s.Max[j], row[j])
		}
	}
	return s
}

// Transform scales x in place. Constant features map to 0.
func (s *Scaler) Transform(x []float64) {
	for j := range x {
		diff := s.Max[j] - s.Min[j]
		if diff != 0 {
			x[j] = (x[j] - s.Min[j]) / diff
		} else {
			x[j] = 0
		}
	}
}

// TransformAll scales every sample in place.
func (s *Scaler) TransformAll(samples [][]float64) {
	for _, x := range samples {
		s.Transform(x)
	}
}

// Save writes the scaler as JSON.
func (s *Scaler) Save(filename string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode scaler: %w", err)
	}
	return os.WriteFile(filename, data, 0o644)
}

// LoadScaler reads a scaler written by Save.
func LoadScaler(filename string) (*Scaler, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read scaler: %w", err)
	}
	s := &Scaler{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to decode scaler: %w", err)
	}
	return s, nil
}
