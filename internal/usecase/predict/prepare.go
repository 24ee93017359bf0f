// Package predict turns a raw feature row into a prediction over the loaded
// artifacts.
package predict

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/inferd/internal/domain"
)

// Preparer turns a raw feature row into an aligned, fully numeric, scaled
// vector ready for inference.
type Preparer struct {
	names      []string // resolved schema order
	modelNames []string // model-declared order, nil when unknown
	encoders   map[string]Encoder
	scaler     Transformer // nil when no scaler artifact is available
}

// NewPreparer creates a row preparer over the resolved schema and artifacts.
func NewPreparer(
	names, modelNames []string, encoders map[string]Encoder, scaler Transformer,
) *Preparer {
	return &Preparer{
		names:      names,
		modelNames: modelNames,
		encoders:   encoders,
		scaler:     scaler,
	}
}

// cell tracks one column through encoding and coercion.
type cell struct {
	value   float64
	raw     any
	numeric bool
}

// Prepare runs the preparation pipeline: categorical encoding, column
// completion, numeric coercion, the residual non-numeric check, alignment
// to the model's column order, scaling and the finiteness check. It returns
// the vector together with the exact ordered column sequence it follows.
func (p *Preparer) Prepare(row domain.FeatureRow) ([]float64, []string, error) {
	cols := make(map[string]cell, len(row))
	for name, raw := range row {
		cols[name] = cell{raw: raw}
	}

	// categorical encoding for encoder columns present in the row
	for name, enc := range p.encoders {
		c, present := cols[name]
		if !present {
			continue
		}
		if code, ok := enc.Encode(domain.Stringify(c.raw)); ok {
			cols[name] = cell{value: float64(code), raw: c.raw, numeric: true}
		}
	}

	// column completion: expected columns absent from the row become 0
	target := p.expected()
	for _, name := range target {
		if _, ok := cols[name]; !ok {
			cols[name] = cell{numeric: true}
		}
	}

	// numeric coercion of whatever is still raw; columns without an encoder
	// are forced to 0 on parse failure, encoder columns are left for the
	// residual check below
	for name, c := range cols {
		if c.numeric {
			continue
		}
		if v, ok := coerce(c.raw); ok {
			cols[name] = cell{value: v, raw: c.raw, numeric: true}
			continue
		}
		if _, hasEncoder := p.encoders[name]; !hasEncoder {
			cols[name] = cell{raw: c.raw, numeric: true}
		}
	}

	// residual non-numeric columns are a hard error, never silently coerced
	var bad map[string]any
	for name, c := range cols {
		if !c.numeric {
			if bad == nil {
				bad = make(map[string]any)
			}
			bad[name] = c.raw
		}
	}
	if bad != nil {
		return nil, nil, domain.NewNonNumeric(bad)
	}

	// alignment: select and order columns to the target sequence
	vec := make([]float64, len(target))
	for i, name := range target {
		if c, ok := cols[name]; ok {
			vec[i] = c.value
		}
	}

	if err := p.scale(vec, target); err != nil {
		return nil, nil, err
	}

	// NaN values after alignment/scaling are a hard error
	var nonFinite []string
	for i, v := range vec {
		if math.IsNaN(v) {
			nonFinite = append(nonFinite, target[i])
		}
	}
	if nonFinite != nil {
		return nil, nil, domain.NewNonFinite(nonFinite)
	}

	return vec, target, nil
}

// expected returns the model-declared column order when known, else the
// resolved schema order.
func (p *Preparer) expected() []string {
	if len(p.modelNames) > 0 {
		return p.modelNames
	}
	return p.names
}

// scale applies the scaler. With declared scaler columns only those are
// rescaled (absent ones contribute 0.0); without declared columns the whole
// row is transformed positionally.
func (p *Preparer) scale(vec []float64, target []string) error {
	if p.scaler == nil {
		return nil
	}

	declared := p.scaler.FeatureNames()
	if len(declared) == 0 {
		if err := p.scaler.Transform(vec); err != nil {
			return fmt.Errorf("scale row: %w", err)
		}
		return nil
	}

	idx := make(map[string]int, len(target))
	for i, name := range target {
		idx[name] = i
	}

	sub := make([]float64, len(declared))
	for i, name := range declared {
		if j, ok := idx[name]; ok {
			sub[i] = vec[j]
		}
	}
	if err := p.scaler.Transform(sub); err != nil {
		return fmt.Errorf("scale row: %w", err)
	}
	for i, name := range declared {
		if j, ok := idx[name]; ok {
			vec[j] = sub[i]
		}
	}
	return nil
}

// coerce parses a raw value into a float64. ok=false marks values that
// cannot be interpreted numerically at all. A nil value becomes NaN, the
// way a missing numeric parses in a dataframe, and is caught later by the
// finiteness check.
func coerce(raw any) (float64, bool) {
	switch t := raw.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case nil:
		return math.NaN(), true
	case string:
		v, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}
