package artifact

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/kailas-cloud/inferd/internal/domain"
)

// Encoder maps a categorical label to its numeric code.
// Each implementation defines its own unseen-label policy.
type Encoder interface {
	// Encode returns the code for a label. ok=false means the encoder cannot
	// code values at all and the raw value must pass through unchanged.
	Encode(label string) (code int, ok bool)
	// Options returns the known category labels for client-facing schemas.
	Options() []string
}

// VocabEncoder resolves labels against a mutable vocabulary.
// An unseen label is appended to the vocabulary and assigned the next code;
// the assignment persists for the process lifetime. The mutex serializes
// concurrent appends so code assignment stays deterministic.
type VocabEncoder struct {
	mu      sync.Mutex
	classes []string
	index   map[string]int
}

// NewVocabEncoder creates a vocabulary encoder over the given classes.
func NewVocabEncoder(classes []string) *VocabEncoder {
	idx := make(map[string]int, len(classes))
	for i, c := range classes {
		if _, seen := idx[c]; !seen {
			idx[c] = i
		}
	}
	return &VocabEncoder{classes: classes, index: idx}
}

// Encode returns the label's code, extending the vocabulary when unseen.
func (e *VocabEncoder) Encode(label string) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if i, ok := e.index[label]; ok {
		return i, true
	}
	e.classes = append(e.classes, label)
	e.index[label] = len(e.classes) - 1
	return len(e.classes) - 1, true
}

// Options returns a snapshot of the current vocabulary.
func (e *VocabEncoder) Options() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

// MappingEncoder codes labels through an explicit label->code table.
// Unseen labels map to the sentinel -1.
type MappingEncoder struct {
	mapping map[string]int
}

// NewMappingEncoder creates a mapping encoder.
func NewMappingEncoder(mapping map[string]int) *MappingEncoder {
	return &MappingEncoder{mapping: mapping}
}

// Encode returns the mapped code, or -1 for an unseen label.
func (e *MappingEncoder) Encode(label string) (int, bool) {
	if code, ok := e.mapping[label]; ok {
		return code, true
	}
	return -1, true
}

// Options returns the mapping keys in sorted order.
func (e *MappingEncoder) Options() []string {
	out := make([]string, 0, len(e.mapping))
	for k := range e.mapping {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SequenceEncoder codes a label as its position in an ordered label list.
// Unseen labels map to the sentinel -1.
type SequenceEncoder struct {
	values []string
}

// NewSequenceEncoder creates a sequence encoder.
func NewSequenceEncoder(values []string) *SequenceEncoder {
	return &SequenceEncoder{values: values}
}

// Encode returns the label's position, or -1 when absent.
func (e *SequenceEncoder) Encode(label string) (int, bool) {
	for i, v := range e.values {
		if v == label {
			return i, true
		}
	}
	return -1, true
}

// Options returns the label list.
func (e *SequenceEncoder) Options() []string {
	out := make([]string, len(e.values))
	copy(out, e.values)
	return out
}

// PassthroughEncoder stands in for an unrecognized encoder shape.
// It codes nothing: values pass through unchanged and the option list is empty.
type PassthroughEncoder struct{}

func (PassthroughEncoder) Encode(string) (int, bool) { return 0, false }
func (PassthroughEncoder) Options() []string         { return nil }

// EncoderSet maps column names to their encoders.
type EncoderSet map[string]Encoder

// Keys returns the encoded column names in sorted order.
func (s EncoderSet) Keys() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// UnmarshalJSON decodes the polymorphic per-column encoder shapes:
// an object carrying a "classes" array becomes a vocabulary encoder, an
// object of label->number pairs becomes a mapping encoder, a plain array
// becomes a sequence encoder. Anything else is kept as a passthrough.
func (s *EncoderSet) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("encoder set must be an object: %w", err)
	}

	out := make(EncoderSet, len(raw))
	for col, msg := range raw {
		out[col] = decodeEncoder(msg)
	}
	*s = out
	return nil
}

func decodeEncoder(msg json.RawMessage) Encoder {
	var seq []any
	if err := json.Unmarshal(msg, &seq); err == nil {
		return NewSequenceEncoder(stringifyAll(seq))
	}

	var vocab struct {
		Classes []any `json:"classes"`
	}
	if err := json.Unmarshal(msg, &vocab); err == nil && vocab.Classes != nil {
		return NewVocabEncoder(stringifyAll(vocab.Classes))
	}

	var mapping map[string]float64
	if err := json.Unmarshal(msg, &mapping); err == nil && len(mapping) > 0 {
		m := make(map[string]int, len(mapping))
		for k, v := range mapping {
			m[k] = int(v)
		}
		return NewMappingEncoder(m)
	}

	return PassthroughEncoder{}
}

func stringifyAll(vals []any) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = domain.Stringify(v)
	}
	return out
}
