package train

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/FlavioCFOliveira/resafraud/internal/encoding"
	"github.com/FlavioCFOliveira/resafraud/internal/features"
	"github.com/FlavioCFOliveira/resafraud/internal/net"
)

// File names inside a model directory.
const (
	ModelFile    = "fraud_model.bin"
	EncodersFile = "label_encoders.json"
	ScalerFile   = "scaler.json"
	FeaturesFile = "features.json"
)

// ErrFeatureMismatch is returned when a saved model was trained on a different
// feature order than the one this build encodes.
var ErrFeatureMismatch = errors.New("model feature order mismatch")

// Bundle is everything needed to score a reservation: the network and the
// preprocessing fitted alongside it.
type Bundle struct {
	Network  *net.Network
	Encoders encoding.Encoders
	Scaler   *encoding.Scaler
	Features []string
}

// Score returns the fraud probability of one row given as column → value.
// Unseen categories take the code one past the fitted classes. Score reuses
// network buffers, so callers serialise access.
func (b *Bundle) Score(values map[string]string) (float64, error) {
	x, err := features.Vector(values, b.Encoders)
	if err != nil {
		return 0, err
	}
	b.Scaler.Transform(x)
	return b.Network.Predict(x), nil
}

// Save writes the bundle into dir, creating it if needed.
func (b *Bundle) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model dir: %w", err)
	}
	if err := b.Network.Save(filepath.Join(dir, ModelFile)); err != nil {
		return err
	}
	if err := b.Encoders.Save(filepath.Join(dir, EncodersFile)); err != nil {
		return err
	}
	if err := b.Scaler.Save(filepath.Join(dir, ScalerFile)); err != nil {
		return err
	}
	data, err := json.MarshalIndent(b.Features, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode feature order: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, FeaturesFile), data, 0o644)
}

// LoadBundle reads a bundle written by Save.
func LoadBundle(dir string) (*Bundle, error) {
	network, err := net.Load(filepath.Join(dir, ModelFile))
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	enc, err := encoding.LoadEncoders(filepath.Join(dir, EncodersFile))
	if err != nil {
		return nil, err
	}
	scaler, err := encoding.LoadScaler(filepath.Join(dir, ScalerFile))
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, FeaturesFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read feature order: %w", err)
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("failed to decode feature order: %w", err)
	}
	if !slices.Equal(names, features.Names()) {
		return nil, ErrFeatureMismatch
	}
	if len(scaler.Min) != len(names) {
		return nil, fmt.Errorf("%w: scaler has %d columns, want %d", ErrFeatureMismatch, len(scaler.Min), len(names))
	}

	return &Bundle{Network: network, Encoders: enc, Scaler: scaler, Features: names}, nil
}
