package artifact

import (
	"math"
	"testing"
)

func TestScaler_StandardTransform(t *testing.T) {
	s := &Scaler{
		Kind:   ScalerStandard,
		Center: []float64{10, 0},
		Scale:  []float64{2, 1},
	}
	row := []float64{14, 3}
	if err := s.Transform(row); err != nil {
		t.Fatalf("transform: %v", err)
	}
	if row[0] != 2 || row[1] != 3 {
		t.Errorf("expected [2 3], got %v", row)
	}
}

func TestScaler_StandardZeroVariance(t *testing.T) {
	s := &Scaler{
		Kind:   ScalerStandard,
		Center: []float64{5},
		Scale:  []float64{0},
	}
	row := []float64{7}
	if err := s.Transform(row); err != nil {
		t.Fatalf("transform: %v", err)
	}
	if row[0] != 2 {
		t.Errorf("expected zero-variance column divided by 1, got %v", row[0])
	}
}

func TestScaler_MinMaxTransform(t *testing.T) {
	s := &Scaler{
		Kind:   ScalerMinMax,
		Center: []float64{-0.5},
		Scale:  []float64{0.5},
	}
	row := []float64{3}
	if err := s.Transform(row); err != nil {
		t.Fatalf("transform: %v", err)
	}
	if row[0] != 1 {
		t.Errorf("expected 1, got %v", row[0])
	}
}

func TestScaler_WidthMismatch(t *testing.T) {
	s := &Scaler{Kind: ScalerStandard, Center: []float64{0, 0}, Scale: []float64{1, 1}}
	if err := s.Transform([]float64{1}); err == nil {
		t.Error("expected error for row width mismatch")
	}
}

func TestScaler_Validate(t *testing.T) {
	tests := []struct {
		name    string
		scaler  Scaler
		wantErr bool
	}{
		{
			name:   "valid standard",
			scaler: Scaler{Kind: ScalerStandard, Center: []float64{0}, Scale: []float64{1}},
		},
		{
			name:    "unknown kind",
			scaler:  Scaler{Kind: "robust", Center: []float64{0}, Scale: []float64{1}},
			wantErr: true,
		},
		{
			name:    "no parameters",
			scaler:  Scaler{Kind: ScalerStandard},
			wantErr: true,
		},
		{
			name:    "center scale mismatch",
			scaler:  Scaler{Kind: ScalerStandard, Center: []float64{0}, Scale: []float64{1, 2}},
			wantErr: true,
		},
		{
			name: "names parameter mismatch",
			scaler: Scaler{
				Kind: ScalerStandard, Columns: []string{"a"},
				Center: []float64{0, 0}, Scale: []float64{1, 1},
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.scaler.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestScaler_TransformPreservesNaN(t *testing.T) {
	s := &Scaler{Kind: ScalerStandard, Center: []float64{0}, Scale: []float64{1}}
	row := []float64{math.NaN()}
	if err := s.Transform(row); err != nil {
		t.Fatalf("transform: %v", err)
	}
	if !math.IsNaN(row[0]) {
		t.Error("expected NaN to survive scaling, caught later by the finiteness check")
	}
}
