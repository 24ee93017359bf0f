package predict

import (
	"testing"

	"github.com/kailas-cloud/inferd/internal/artifact"
)

// mockModel records the row it was called with and echoes canned outputs.
type mockModel struct {
	names      []string
	classes    []any
	label      any
	proba      []float64
	err        error
	lastRow    []float64
	name       string
	probaCalls int
}

func (m *mockModel) Predict(row []float64) (any, error) {
	m.lastRow = append([]float64(nil), row...)
	return m.label, m.err
}

func (m *mockModel) FeatureNames() []string { return m.names }
func (m *mockModel) Classes() []any         { return m.classes }

func (m *mockModel) Name() string {
	if m.name != "" {
		return m.name
	}
	return "MockModel"
}

// probaMockModel adds the probability capability on top of mockModel.
type probaMockModel struct {
	mockModel
}

func (m *probaMockModel) PredictProba(row []float64) ([]float64, error) {
	m.probaCalls++
	return m.proba, nil
}

// mockScaler doubles every value so scaling is observable in tests.
type mockScaler struct {
	columns []string
	calls   int
}

func (m *mockScaler) FeatureNames() []string { return m.columns }

func (m *mockScaler) Transform(row []float64) error {
	m.calls++
	for i := range row {
		row[i] *= 2
	}
	return nil
}

// encoderMap adapts an artifact.EncoderSet to the preparer's consumer map.
func encoderMap(t *testing.T, set artifact.EncoderSet) map[string]Encoder {
	t.Helper()
	out := make(map[string]Encoder, len(set))
	for name, enc := range set {
		out[name] = enc
	}
	return out
}
