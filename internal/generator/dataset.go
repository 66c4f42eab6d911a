package generator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"

	"github.com/FlavioCFOliveira/resafraud/internal/reservation"
)

// ChunkSize is the number of records produced by one derived generator in
// GenerateParallel. Changing it changes the output for a given seed.
const ChunkSize = 256

// Options describes a full dataset.
type Options struct {
	Total      int
	FraudRatio float64
	Seed       uint64
	Now        time.Time
	Profiles   Profiles

	// Workers > 0 selects chunked generation with per-chunk derived seeds.
	// Zero keeps the single shared stream.
	Workers int
}

// Summary reports how many records of each label a dataset holds.
type Summary struct {
	Total int
	Fraud int
	Legit int
}

// Build generates the fraud rows, then the legitimate rows, and shuffles the
// concatenation with a separate source seeded with the same seed.
func Build(ctx context.Context, opts Options) ([]reservation.Record, Summary, error) {
	fraudCount, legitCount, err := Counts(opts.Total, opts.FraudRatio)
	if err != nil {
		return nil, Summary{}, err
	}
	profiles := opts.Profiles
	if profiles == nil {
		profiles = DefaultProfiles()
	}
	if err := profiles.Validate(); err != nil {
		return nil, Summary{}, err
	}

	var fraud, legit []reservation.Record
	if opts.Workers > 0 {
		fraud, err = GenerateParallel(ctx, fraudCount, reservation.Fraud, opts.Seed, opts.Now, profiles, opts.Workers)
		if err != nil {
			return nil, Summary{}, fmt.Errorf("failed to generate fraud records: %w", err)
		}
		legit, err = GenerateParallel(ctx, legitCount, reservation.Legit, opts.Seed, opts.Now, profiles, opts.Workers)
		if err != nil {
			return nil, Summary{}, fmt.Errorf("failed to generate legitimate records: %w", err)
		}
	} else {
		g := NewSeeded(opts.Seed, opts.Now, profiles)
		fraud = g.Generate(fraudCount, reservation.Fraud)
		legit = g.Generate(legitCount, reservation.Legit)
	}

	records := append(fraud, legit...)
	Shuffle(records, opts.Seed)

	return records, Summary{Total: len(records), Fraud: fraudCount, Legit: legitCount}, nil
}

// Shuffle permutes records in place using a source seeded with seed.
func Shuffle(records []reservation.Record, seed uint64) {
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(records), func(i, j int) {
		records[i], records[j] = records[j], records[i]
	})
}

// GenerateParallel produces n records with label using up to workers
// goroutines. Records are generated in chunks of ChunkSize; chunk i uses its
// own generator seeded with Derive(seed, label, i), so the result depends on
// seed, label and n only, never on the number of workers.
func GenerateParallel(ctx context.Context, n int, label reservation.Label, seed uint64, now time.Time, profiles Profiles, workers int) ([]reservation.Record, error) {
	if workers < 1 {
		workers = 1
	}
	records := make([]reservation.Record, n)
	chunks := (n + ChunkSize - 1) / ChunkSize

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < chunks; i++ {
		if gctx.Err() != nil {
			break
		}
		start := i * ChunkSize
		end := min(start+ChunkSize, n)
		chunkSeed := Derive(seed, label, i)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			gen := NewSeeded(chunkSeed, now, profiles)
			copy(records[start:end], gen.Generate(end-start, label))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Derive returns the seed for chunk index of label under the master seed.
// It is a splitmix64 finalizer over the three inputs.
func Derive(seed uint64, label reservation.Label, index int) uint64 {
	z := seed + 0x9e3779b97f4a7c15*uint64(index+1) + uint64(label)<<56
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
