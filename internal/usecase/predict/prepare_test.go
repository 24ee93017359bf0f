package predict

import (
	"errors"
	"reflect"
	"testing"

	"github.com/kailas-cloud/inferd/internal/artifact"
	"github.com/kailas-cloud/inferd/internal/domain"
)

func TestPrepare_EncodesCompletesAndAligns(t *testing.T) {
	encoders := encoderMap(t, artifact.EncoderSet{
		"Gender": artifact.NewVocabEncoder([]string{"Male", "Female"}),
	})
	prep := NewPreparer([]string{"Age", "Gender", "BMI"}, nil, encoders, nil)

	vec, used, err := prep.Prepare(domain.FeatureRow{
		"Age":    float64(16),
		"Gender": "Female",
		// BMI absent: completed as 0
	})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}

	if !reflect.DeepEqual(used, []string{"Age", "Gender", "BMI"}) {
		t.Errorf("unexpected used columns %v", used)
	}
	if !reflect.DeepEqual(vec, []float64{16, 1, 0}) {
		t.Errorf("expected [16 1 0], got %v", vec)
	}
}

func TestPrepare_ModelOrderWinsOverResolvedOrder(t *testing.T) {
	prep := NewPreparer(
		[]string{"A", "B", "C"},
		[]string{"C", "A"}, // model-declared order takes precedence
		nil, nil,
	)

	vec, used, err := prep.Prepare(domain.FeatureRow{"A": 1.0, "B": 2.0, "C": 3.0})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if !reflect.DeepEqual(used, []string{"C", "A"}) {
		t.Errorf("unexpected used columns %v", used)
	}
	if !reflect.DeepEqual(vec, []float64{3, 1}) {
		t.Errorf("expected [3 1], got %v", vec)
	}
}

func TestPrepare_ScrambledOrderIsIrrelevant(t *testing.T) {
	prep := NewPreparer([]string{"A", "B", "C"}, nil, nil, nil)

	first, _, err := prep.Prepare(domain.FeatureRow{"A": 1.0, "B": 2.0, "C": 3.0})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	second, _, err := prep.Prepare(domain.FeatureRow{"C": 3.0, "A": 1.0, "B": 2.0})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("alignment must be order-independent: %v vs %v", first, second)
	}
}

func TestPrepare_EmptyRowIsAllZeros(t *testing.T) {
	prep := NewPreparer([]string{"A", "B"}, nil, nil, nil)

	vec, _, err := prep.Prepare(domain.FeatureRow{})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if !reflect.DeepEqual(vec, []float64{0, 0}) {
		t.Errorf("expected all-zero vector, got %v", vec)
	}
}

func TestPrepare_StringNumbersAreCoerced(t *testing.T) {
	prep := NewPreparer([]string{"Age", "BMI"}, nil, nil, nil)

	vec, _, err := prep.Prepare(domain.FeatureRow{"Age": " 16 ", "BMI": "21.5"})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if !reflect.DeepEqual(vec, []float64{16, 21.5}) {
		t.Errorf("expected [16 21.5], got %v", vec)
	}
}

func TestPrepare_UnparseableWithoutEncoderBecomesZero(t *testing.T) {
	prep := NewPreparer([]string{"Age"}, nil, nil, nil)

	vec, _, err := prep.Prepare(domain.FeatureRow{"Age": "sixteen"})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if vec[0] != 0 {
		t.Errorf("expected forced 0, got %v", vec[0])
	}
}

func TestPrepare_ResidualNonNumericIsHardError(t *testing.T) {
	// a passthrough encoder leaves the raw value in place, so an
	// unparseable string must surface as a hard error naming the column
	encoders := encoderMap(t, artifact.EncoderSet{
		"Notes": artifact.PassthroughEncoder{},
	})
	prep := NewPreparer([]string{"Age", "Notes"}, nil, encoders, nil)

	_, _, err := prep.Prepare(domain.FeatureRow{"Age": 16.0, "Notes": "free text"})
	if !errors.Is(err, domain.ErrNonNumeric) {
		t.Fatalf("expected ErrNonNumeric, got %v", err)
	}

	var nn *domain.NonNumericError
	if !errors.As(err, &nn) {
		t.Fatal("expected a NonNumericError")
	}
	if nn.Values["Notes"] != "free text" {
		t.Errorf("expected offending value recorded, got %v", nn.Values)
	}
}

func TestPrepare_UnseenLabels(t *testing.T) {
	tests := []struct {
		name     string
		encoders artifact.EncoderSet
		wantCode float64
	}{
		{
			name: "vocab appends and codes",
			encoders: artifact.EncoderSet{
				"Gender": artifact.NewVocabEncoder([]string{"Male", "Female"}),
			},
			wantCode: 2,
		},
		{
			name: "mapping falls back to sentinel",
			encoders: artifact.EncoderSet{
				"Gender": artifact.NewMappingEncoder(map[string]int{"Male": 0, "Female": 1}),
			},
			wantCode: -1,
		},
		{
			name: "sequence falls back to sentinel",
			encoders: artifact.EncoderSet{
				"Gender": artifact.NewSequenceEncoder([]string{"Male", "Female"}),
			},
			wantCode: -1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prep := NewPreparer([]string{"Gender"}, nil, encoderMap(t, tc.encoders), nil)
			vec, _, err := prep.Prepare(domain.FeatureRow{"Gender": "Unknown"})
			if err != nil {
				t.Fatalf("unseen label must never raise, got %v", err)
			}
			if vec[0] != tc.wantCode {
				t.Errorf("expected code %v, got %v", tc.wantCode, vec[0])
			}
		})
	}
}

func TestPrepare_ScalerDeclaredColumnsOnly(t *testing.T) {
	scaler := &mockScaler{columns: []string{"Age"}}
	prep := NewPreparer([]string{"Age", "Gender"}, nil, nil, scaler)

	vec, _, err := prep.Prepare(domain.FeatureRow{"Age": 10.0, "Gender": 1.0})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if vec[0] != 20 {
		t.Errorf("expected scaled Age 20, got %v", vec[0])
	}
	if vec[1] != 1 {
		t.Errorf("expected Gender untouched, got %v", vec[1])
	}
}

func TestPrepare_ScalerWithoutDeclaredColumnsScalesWholeRow(t *testing.T) {
	scaler := &mockScaler{}
	prep := NewPreparer([]string{"A", "B"}, nil, nil, scaler)

	vec, _, err := prep.Prepare(domain.FeatureRow{"A": 1.0, "B": 2.0})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if !reflect.DeepEqual(vec, []float64{2, 4}) {
		t.Errorf("expected whole row scaled, got %v", vec)
	}
}

func TestPrepare_NilValueFailsFinitenessCheck(t *testing.T) {
	prep := NewPreparer([]string{"Age"}, nil, nil, nil)

	_, _, err := prep.Prepare(domain.FeatureRow{"Age": nil})
	if !errors.Is(err, domain.ErrNonFinite) {
		t.Fatalf("expected ErrNonFinite, got %v", err)
	}

	var nf *domain.NonFiniteError
	if !errors.As(err, &nf) {
		t.Fatal("expected a NonFiniteError")
	}
	if len(nf.Columns) != 1 || nf.Columns[0] != "Age" {
		t.Errorf("expected offending column Age, got %v", nf.Columns)
	}
}

func TestPrepare_ExtraColumnsAreDropped(t *testing.T) {
	prep := NewPreparer([]string{"A"}, nil, nil, nil)

	vec, used, err := prep.Prepare(domain.FeatureRow{"A": 1.0, "Unrelated": "junk"})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if len(vec) != 1 || len(used) != 1 {
		t.Errorf("expected only schema columns, got vec=%v used=%v", vec, used)
	}
}
