package generator

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/FlavioCFOliveira/resafraud/internal/reservation"
)

// ErrInvalidProfile is returned when a distribution parameter is outside the
// range its sampler accepts.
var ErrInvalidProfile = errors.New("invalid generation profile")

// Choice is a categorical distribution over string values.
type Choice struct {
	Values  []string  `yaml:"values"`
	Weights []float64 `yaml:"weights"`
}

// Profile holds the distribution parameters used for one label. Each field is
// one fraud-pattern assumption; none of them is learned.
type Profile struct {
	// LookbackDays bounds how far before the anchor an account can be created.
	LookbackDays int `yaml:"lookback_days"`
	// ReservationOffsetDays bounds the gap between account creation and reservation.
	ReservationOffsetDays int `yaml:"reservation_offset_days"`

	Status      Choice `yaml:"status"`
	EmailDomain Choice `yaml:"email_domain"`

	// Poisson means for the behavioural counters.
	CancellationsMean   float64 `yaml:"cancellations_mean"`
	ModificationsMean   float64 `yaml:"modifications_mean"`
	PaymentAttemptsMean float64 `yaml:"payment_attempts_mean"`

	PaymentFailureRate float64 `yaml:"payment_failure_rate"`
	PaymentDelayDays   int     `yaml:"payment_delay_days"`
	AmountPerPlaceMin  float64 `yaml:"amount_per_place_min"`
	AmountPerPlaceMax  float64 `yaml:"amount_per_place_max"`
	ReminderRate       float64 `yaml:"reminder_rate"`
}

// Profiles maps a label to its distribution parameters.
type Profiles map[reservation.Label]Profile

// DefaultProfiles returns the reference parameters.
func DefaultProfiles() Profiles {
	return Profiles{
		reservation.Fraud: {
			LookbackDays:          30,
			ReservationOffsetDays: 30,
			Status: Choice{
				Values:  reservation.Statuses,
				Weights: []float64{0.4, 0.4, 0.2},
			},
			EmailDomain: Choice{
				Values:  []string{"tempmail.com", "mailinator.com", "gmail.com"},
				Weights: []float64{0.45, 0.45, 0.1},
			},
			CancellationsMean:   3,
			ModificationsMean:   2,
			PaymentAttemptsMean: 3,
			PaymentFailureRate:  0.4,
			PaymentDelayDays:    7,
			AmountPerPlaceMin:   50,
			AmountPerPlaceMax:   300,
			ReminderRate:        0.7,
		},
		reservation.Legit: {
			LookbackDays:          365,
			ReservationOffsetDays: 30,
			Status: Choice{
				Values:  reservation.Statuses,
				Weights: []float64{0.8, 0.1, 0.1},
			},
			EmailDomain: Choice{
				Values:  reservation.EmailDomains,
				Weights: []float64{0.6, 0.15, 0.15, 0.05, 0.05},
			},
			CancellationsMean:   0.5,
			ModificationsMean:   0.3,
			PaymentAttemptsMean: 0.2,
			PaymentFailureRate:  0,
			PaymentDelayDays:    7,
			AmountPerPlaceMin:   50,
			AmountPerPlaceMax:   300,
			ReminderRate:        0.7,
		},
	}
}

type profileFile struct {
	Fraud Profile `yaml:"fraud"`
	Legit Profile `yaml:"legit"`
}

// LoadProfiles reads a YAML file with "fraud" and "legit" sections. Keys absent
// from the file keep their default value.
func LoadProfiles(path string) (Profiles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	defaults := DefaultProfiles()
	file := profileFile{
		Fraud: defaults[reservation.Fraud],
		Legit: defaults[reservation.Legit],
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse profile file: %w", err)
	}

	profiles := Profiles{
		reservation.Fraud: file.Fraud,
		reservation.Legit: file.Legit,
	}
	if err := profiles.Validate(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Validate checks every label has a profile whose parameters are in range.
func (ps Profiles) Validate() error {
	for _, label := range []reservation.Label{reservation.Fraud, reservation.Legit} {
		p, ok := ps[label]
		if !ok {
			return fmt.Errorf("%w: no profile for %s", ErrInvalidProfile, label)
		}
		if err := p.validate(); err != nil {
			return fmt.Errorf("%s profile: %w", label, err)
		}
	}
	return nil
}

func (p Profile) validate() error {
	if p.LookbackDays <= 0 {
		return fmt.Errorf("%w: lookback_days must be positive", ErrInvalidProfile)
	}
	if p.ReservationOffsetDays < 0 || p.PaymentDelayDays < 0 {
		return fmt.Errorf("%w: day offsets must not be negative", ErrInvalidProfile)
	}
	if err := p.Status.validate("status"); err != nil {
		return err
	}
	if err := p.EmailDomain.validate("email_domain"); err != nil {
		return err
	}
	for name, mean := range map[string]float64{
		"cancellations_mean":    p.CancellationsMean,
		"modifications_mean":    p.ModificationsMean,
		"payment_attempts_mean": p.PaymentAttemptsMean,
	} {
		if mean < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidProfile, name)
		}
	}
	for name, rate := range map[string]float64{
		"payment_failure_rate": p.PaymentFailureRate,
		"reminder_rate":        p.ReminderRate,
	} {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("%w: %s must be within [0,1]", ErrInvalidProfile, name)
		}
	}
	if p.AmountPerPlaceMin < 0 || p.AmountPerPlaceMax <= p.AmountPerPlaceMin {
		return fmt.Errorf("%w: amount bounds must satisfy 0 <= min < max", ErrInvalidProfile)
	}
	return nil
}

func (c Choice) validate(name string) error {
	if len(c.Values) == 0 || len(c.Values) != len(c.Weights) {
		return fmt.Errorf("%w: %s needs one weight per value", ErrInvalidProfile, name)
	}
	var sum float64
	for _, w := range c.Weights {
		if w < 0 {
			return fmt.Errorf("%w: %s has a negative weight", ErrInvalidProfile, name)
		}
		sum += w
	}
	if sum == 0 {
		return fmt.Errorf("%w: %s weights sum to zero", ErrInvalidProfile, name)
	}
	return nil
}
