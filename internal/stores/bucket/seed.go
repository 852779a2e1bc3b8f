package bucket

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"

	"github.com/ethanbaker/bucket/pkg/store"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// SeedFile is the YAML layout of a seed document
type SeedFile struct {
	Factoids []store.Factoid `yaml:"factoids"`
}

// ParseSeed decodes a seed document
func ParseSeed(data []byte) (*SeedFile, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}

	for i, f := range seed.Factoids {
		if f.Fact == "" || f.Verb == "" || f.Tidbit == "" {
			return nil, fmt.Errorf("seed factoid %d is missing fact, verb or tidbit", i)
		}
	}

	return &seed, nil
}

// Seed inserts the given seed document (or the built-in one when data is nil), skipping
// factoids that already exist. Returns how many rows were inserted
func Seed(ctx context.Context, s store.FactStore, data []byte) (int, error) {
	if data == nil {
		data = defaultSeed
	}

	seed, err := ParseSeed(data)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, f := range seed.Factoids {
		fact := f
		if err := s.InsertFact(ctx, &fact); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				continue
			}
			return inserted, fmt.Errorf("failed to seed '%s': %w", f.Fact, err)
		}
		inserted++
	}

	if inserted > 0 {
		log.Printf("[STORE]: Seeded %d factoids", inserted)
	}
	return inserted, nil
}
