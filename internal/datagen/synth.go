package datagen

import (
	"math"
	"strings"

	"github.com/QTest-hq/riskgen/internal/contract"
)

const (
	// DefaultInclusionProbability is the chance an optional property is emitted
	DefaultInclusionProbability = 0.7

	// DefaultMaxDepth bounds recursion independently of the reference guard
	DefaultMaxDepth = 32

	defaultMin = 1
	defaultMax = 100

	placeholderString = "sample-string"
)

// Options tunes payload synthesis
type Options struct {
	InclusionProbability float64
	MaxDepth             int
}

// Synthesizer turns schema nodes into values. It is not safe for concurrent
// use because it draws from a single random source; give each worker its own.
type Synthesizer struct {
	gen      *DataGenerator
	resolver *contract.Resolver
	opts     Options
}

// NewSynthesizer creates a synthesizer. resolver may be nil when the schema
// carries no references.
func NewSynthesizer(gen *DataGenerator, resolver *contract.Resolver, opts Options) *Synthesizer {
	if opts.InclusionProbability < 0 || opts.InclusionProbability > 1 {
		opts.InclusionProbability = DefaultInclusionProbability
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Synthesizer{gen: gen, resolver: resolver, opts: opts}
}

// Synthesize produces a happy-path value for a schema node. A reference
// that is re-entered while it is still being expanded, or a node beyond
// MaxDepth, becomes the opaque placeholder nil.
func (s *Synthesizer) Synthesize(schema *contract.Schema, fieldName string) (any, error) {
	return s.walk(schema, fieldName, 0, make(map[string]bool))
}

func (s *Synthesizer) walk(schema *contract.Schema, fieldName string, depth int, active map[string]bool) (any, error) {
	if schema == nil || depth > s.opts.MaxDepth {
		return nil, nil
	}

	switch schema.Kind {
	case contract.KindRef:
		return s.ref(schema, fieldName, depth, active)
	case contract.KindObject:
		return s.object(schema, depth, active)
	case contract.KindArray:
		item, err := s.walk(schema.Items, fieldName, depth+1, active)
		if err != nil {
			return nil, err
		}
		return []any{item}, nil
	case contract.KindString, contract.KindInteger, contract.KindNumber, contract.KindBoolean:
		return s.primitive(schema, fieldName), nil
	case contract.KindUnknown:
		return "", nil
	default:
		return nil, nil
	}
}

func (s *Synthesizer) ref(schema *contract.Schema, fieldName string, depth int, active map[string]bool) (any, error) {
	if active[schema.Ref] {
		return nil, nil
	}
	if s.resolver == nil {
		return nil, &contract.SchemaResolutionError{Ref: schema.Ref, Reason: "no resolver configured"}
	}
	target, err := s.resolver.Resolve(schema.Ref)
	if err != nil {
		return nil, err
	}

	active[schema.Ref] = true
	defer delete(active, schema.Ref)
	return s.walk(target, fieldName, depth+1, active)
}

func (s *Synthesizer) object(schema *contract.Schema, depth int, active map[string]bool) (map[string]any, error) {
	result := make(map[string]any)
	for _, name := range schema.PropertyNames() {
		if !schema.IsRequired(name) && !s.gen.Chance(s.opts.InclusionProbability) {
			continue
		}
		v, err := s.walk(schema.Properties[name], name, depth+1, active)
		if err != nil {
			return nil, err
		}
		result[name] = v
	}

	// Required names without a declared property still have to be present
	for _, name := range schema.Required {
		if _, ok := result[name]; !ok {
			result[name] = placeholderString
		}
	}
	return result, nil
}

func (s *Synthesizer) primitive(schema *contract.Schema, fieldName string) any {
	if schema.Example != nil {
		return schema.Example
	}
	if schema.Default != nil {
		return schema.Default
	}
	if len(schema.Enum) > 0 {
		return schema.Enum[s.gen.Index(len(schema.Enum))]
	}

	switch schema.Kind {
	case contract.KindString:
		return s.str(schema, fieldName)
	case contract.KindInteger:
		lo, hi := bounds(schema)
		ilo, ihi := math.Ceil(lo), math.Floor(hi)
		if ilo > ihi {
			// no integer inside the declared range; stay within it
			return lo
		}
		return s.gen.Int(int(ilo), int(ihi))
	case contract.KindNumber:
		lo, hi := bounds(schema)
		return s.gen.Float(lo, hi)
	default:
		return s.gen.Bool()
	}
}

func (s *Synthesizer) str(schema *contract.Schema, fieldName string) string {
	var v string
	switch schema.Format {
	case "email":
		v = s.gen.Email()
	case "date":
		v = s.gen.Date()
	case "date-time":
		v = s.gen.DateTime()
	case "uuid":
		v = s.gen.UUID()
	case "uri", "url":
		v = s.gen.URL()
	default:
		v = s.hinted(fieldName)
	}

	if schema.MinLength != nil && len(v) < *schema.MinLength {
		v += strings.Repeat("x", *schema.MinLength-len(v))
	}
	if schema.MaxLength != nil && *schema.MaxLength >= 0 && len(v) > *schema.MaxLength {
		v = v[:*schema.MaxLength]
	}
	return v
}

// hinted infers a realistic literal from the field name
func (s *Synthesizer) hinted(fieldName string) string {
	name := strings.ToLower(fieldName)
	switch {
	case strings.Contains(name, "email"):
		return s.gen.Email()
	case strings.Contains(name, "date"):
		return s.gen.Date()
	case strings.Contains(name, "id"):
		return s.gen.NumericID()
	default:
		return placeholderString
	}
}

// bounds returns the value range for numeric kinds, honouring declared
// minimum/maximum and defaulting to [1, 100]. An inverted pair is swapped.
func bounds(schema *contract.Schema) (float64, float64) {
	lo, hi := float64(defaultMin), float64(defaultMax)
	switch {
	case schema.Minimum != nil && schema.Maximum != nil:
		lo, hi = *schema.Minimum, *schema.Maximum
	case schema.Minimum != nil:
		lo, hi = *schema.Minimum, *schema.Minimum+defaultMax-defaultMin
	case schema.Maximum != nil:
		lo, hi = *schema.Maximum-(defaultMax-defaultMin), *schema.Maximum
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo, hi
}
