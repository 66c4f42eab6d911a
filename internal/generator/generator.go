// Package generator produces synthetic reservation records whose field
// distributions depend on a fraud label.
//
// All randomness comes from an explicit *rand.Rand, and all timestamps are
// relative to an explicit anchor time, so a generator built from the same
// seed, anchor and profiles always yields the same records.
package generator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/FlavioCFOliveira/resafraud/internal/reservation"
)

// ErrInvalidRatio is returned for a fraud ratio outside [0,1] or a negative total.
var ErrInvalidRatio = errors.New("invalid dataset size or fraud ratio")

const secondsPerDay = 24 * 3600

// Generator draws records from a single random stream. It is not safe for
// concurrent use; see GenerateParallel for the parallel form.
type Generator struct {
	rng      *rand.Rand
	now      time.Time
	profiles Profiles

	status map[reservation.Label]distuv.Categorical
	domain map[reservation.Label]distuv.Categorical
}

// New returns a Generator drawing from rng with timestamps relative to now,
// taken in UTC and truncated to the second.
// profiles must have passed Validate.
func New(rng *rand.Rand, now time.Time, profiles Profiles) *Generator {
	g := &Generator{
		rng:      rng,
		now:      now.UTC().Truncate(time.Second),
		profiles: profiles,
		status:   make(map[reservation.Label]distuv.Categorical, len(profiles)),
		domain:   make(map[reservation.Label]distuv.Categorical, len(profiles)),
	}
	for label, p := range profiles {
		g.status[label] = distuv.NewCategorical(p.Status.Weights, rng)
		g.domain[label] = distuv.NewCategorical(p.EmailDomain.Weights, rng)
	}
	return g
}

// NewSeeded returns a Generator with its own source seeded with seed.
func NewSeeded(seed uint64, now time.Time, profiles Profiles) *Generator {
	return New(rand.New(rand.NewSource(seed)), now, profiles)
}

// Generate returns n independent records carrying label.
func (g *Generator) Generate(n int, label reservation.Label) []reservation.Record {
	p := g.profiles[label]
	records := make([]reservation.Record, n)
	for i := range records {
		records[i] = g.record(p, label)
	}
	return records
}

func (g *Generator) record(p Profile, label reservation.Label) reservation.Record {
	created := g.now.Add(-time.Duration(p.LookbackDays) * 24 * time.Hour).
		Add(time.Duration(g.between(0, p.LookbackDays*secondsPerDay)) * time.Second)
	reserved := created.AddDate(0, 0, g.between(0, p.ReservationOffsetDays))

	places := g.between(1, 3)
	travellers := g.between(1, places)

	status := p.Status.Values[int(g.status[label].Rand())]
	reminder := g.rng.Float64() < p.ReminderRate
	flightFrequency := g.between(1, 100)

	domain := p.EmailDomain.Values[int(g.domain[label].Rand())]
	email := fmt.Sprintf("user_%d@%s", g.between(1000, 9999), domain)
	country := g.pick(reservation.Countries)
	city := g.pick(reservation.Cities)
	newsletter := g.rng.Intn(2) == 1
	satisfaction := g.between(1, 5)

	cancellations := g.poisson(p.CancellationsMean)
	modifications := g.poisson(p.ModificationsMean)
	attempts := g.poisson(p.PaymentAttemptsMean)

	amount := float64(places) * distuv.Uniform{Min: p.AmountPerPlaceMin, Max: p.AmountPerPlaceMax, Src: g.rng}.Rand()
	paymentStatus := reservation.PaymentSucceeded
	if p.PaymentFailureRate > 0 && g.rng.Float64() < p.PaymentFailureRate {
		paymentStatus = reservation.PaymentFailed
	}
	failures := 0
	if paymentStatus == reservation.PaymentFailed {
		failures = 1
	}
	mode := g.pick(reservation.PaymentModes)
	paid := reserved.AddDate(0, 0, g.between(0, p.PaymentDelayDays))

	return reservation.Record{
		ReservationID:      fmt.Sprintf("res_%d", g.between(100000, 999999)),
		UserID:             fmt.Sprintf("user_%d", g.between(1000, 9999)),
		ReservedAt:         reserved,
		Hour:               reserved.Hour(),
		DayOfWeek:          reservation.Weekday(reserved),
		Month:              int(reserved.Month()),
		Places:             places,
		Travellers:         travellers,
		Status:             status,
		ReminderSent:       reminder,
		FlightFrequency:    flightFrequency,
		AccountAgeDays:     reservation.WholeDays(reserved.Sub(created)),
		PaymentDelayDays:   reservation.WholeDays(paid.Sub(reserved)),
		Amount:             math.Round(amount*100) / 100,
		PaymentFailures:    failures,
		PaymentStatus:      paymentStatus,
		PaymentMode:        mode,
		Country:            country,
		City:               city,
		Newsletter:         newsletter,
		Satisfaction:       satisfaction,
		PriorCancellations: cancellations,
		Modifications:      modifications,
		PaymentAttempts:    attempts,
		EmailDomain:        domain,
		SuspiciousDomain:   reservation.IsSuspiciousDomain(domain),
		Label:              label,
		CreatedAt:          created,
		PaidAt:             paid,
		Email:              email,
	}
}

// between returns a uniform integer in [lo, hi].
func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

func (g *Generator) pick(values []string) string {
	return values[g.rng.Intn(len(values))]
}

func (g *Generator) poisson(mean float64) int {
	if mean == 0 {
		return 0
	}
	return int(distuv.Poisson{Lambda: mean, Src: g.rng}.Rand())
}

// Counts splits total into fraud and legitimate record counts. The fraud count
// is floor(total * ratio).
func Counts(total int, ratio float64) (fraud, legit int, err error) {
	if total < 0 || ratio < 0 || ratio > 1 || math.IsNaN(ratio) {
		return 0, 0, fmt.Errorf("%w: total=%d ratio=%v", ErrInvalidRatio, total, ratio)
	}
	fraud = int(float64(total) * ratio)
	return fraud, total - fraud, nil
}
