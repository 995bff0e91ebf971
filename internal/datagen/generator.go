// Package datagen synthesizes request payloads from contract schemas.
package datagen

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// referenceDate anchors generated dates so a seed fully determines output
var referenceDate = time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)

// DataGenerator produces realistic literal values from an injected random source
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a generator drawing from rng
func NewDataGenerator(rng *rand.Rand) *DataGenerator {
	return &DataGenerator{rng: rng}
}

// NewSeededGenerator creates a generator with a PCG source for seed
func NewSeededGenerator(seed uint64) *DataGenerator {
	return NewDataGenerator(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func (g *DataGenerator) Email() string {
	return fmt.Sprintf("%s.%s@%s.com",
		strings.ToLower(g.pick(firstNames)),
		strings.ToLower(g.pick(lastNames)),
		g.pick([]string{"example", "test", "mail"}))
}

// Date returns an ISO 8601 calendar date within the year before referenceDate
func (g *DataGenerator) Date() string {
	return referenceDate.AddDate(0, 0, -g.rng.IntN(365)).Format(time.DateOnly)
}

func (g *DataGenerator) DateTime() string {
	t := referenceDate.AddDate(0, 0, -g.rng.IntN(365)).Add(time.Duration(g.rng.IntN(86400)) * time.Second)
	return t.Format(time.RFC3339)
}

// NumericID returns a numeric-looking identifier string
func (g *DataGenerator) NumericID() string {
	return strconv.Itoa(g.Int(1000, 9999))
}

// UUID returns a version 4 UUID drawn from the generator's source
func (g *DataGenerator) UUID() string {
	id, err := uuid.NewRandomFromReader(rngReader{g.rng})
	if err != nil {
		return uuid.Nil.String()
	}
	return id.String()
}

// rngReader adapts a seeded source to io.Reader
type rngReader struct {
	rng *rand.Rand
}

func (r rngReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.rng.UintN(256))
	}
	return len(p), nil
}

func (g *DataGenerator) URL() string {
	return fmt.Sprintf("https://%s.example.com/%s", strings.ToLower(g.pick(companies)), g.pick(words))
}

func (g *DataGenerator) Word() string {
	return g.pick(words)
}

// Int returns a value in [min, max]
func (g *DataGenerator) Int(min, max int) int {
	if max <= min {
		return min
	}
	return g.rng.IntN(max-min+1) + min
}

// Float returns a value in [min, max] rounded to two decimals
func (g *DataGenerator) Float(min, max float64) float64 {
	if max <= min {
		return min
	}
	v := math.Round((min+g.rng.Float64()*(max-min))*100) / 100
	return math.Min(math.Max(v, min), max)
}

func (g *DataGenerator) Bool() bool {
	return g.rng.IntN(2) == 1
}

// Chance reports true with probability p
func (g *DataGenerator) Chance(p float64) bool {
	return g.rng.Float64() < p
}

// Index returns a uniform index into a collection of length n
func (g *DataGenerator) Index(n int) int {
	return g.rng.IntN(n)
}

func (g *DataGenerator) pick(items []string) string {
	return items[g.rng.IntN(len(items))]
}

var firstNames = []string{
	"James", "Mary", "John", "Patricia", "Robert", "Jennifer", "Michael", "Linda",
	"William", "Elizabeth", "David", "Barbara", "Emma", "Olivia", "Liam", "Noah",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
	"Martinez", "Wilson", "Anderson", "Taylor", "Moore", "Lee", "Thompson", "White",
}

var companies = []string{
	"Acme", "Globex", "Initech", "Umbrella", "Stark", "Wayne", "Cyberdyne", "Aperture",
}

var words = []string{
	"lorem", "ipsum", "dolor", "sit", "amet", "test", "data", "sample", "example", "demo",
}
