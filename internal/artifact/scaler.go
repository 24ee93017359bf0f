package artifact

import (
	"fmt"
)

// Scaler kinds supported by the portable artifact format.
const (
	ScalerStandard = "standard"
	ScalerMinMax   = "minmax"
)

// Scaler rescales a numeric row column-by-column.
//
// For "standard" scalers Center holds the per-column mean and Scale the
// per-column standard deviation: x -> (x - center) / scale.
// For "minmax" scalers Center holds the per-column offset and Scale the
// per-column factor: x -> x*scale + center (sklearn's min_/scale_ export).
type Scaler struct {
	Kind    string    `json:"scaler_type"`
	Columns []string  `json:"feature_names,omitempty"`
	Center  []float64 `json:"center"`
	Scale   []float64 `json:"scale"`
}

// FeatureNames returns the scaler's declared input columns, nil when unknown.
func (s *Scaler) FeatureNames() []string { return s.Columns }

// NumFeatures returns the number of columns the scaler was fitted on.
func (s *Scaler) NumFeatures() int { return len(s.Scale) }

// Validate checks internal consistency of the decoded scaler.
func (s *Scaler) Validate() error {
	switch s.Kind {
	case ScalerStandard, ScalerMinMax:
	default:
		return fmt.Errorf("unknown scaler_type %q", s.Kind)
	}
	if len(s.Scale) == 0 {
		return fmt.Errorf("scaler has no scale parameters")
	}
	if len(s.Center) != len(s.Scale) {
		return fmt.Errorf("scaler center/scale length mismatch: %d vs %d",
			len(s.Center), len(s.Scale))
	}
	if len(s.Columns) > 0 && len(s.Columns) != len(s.Scale) {
		return fmt.Errorf("scaler feature_names length %d does not match %d parameters",
			len(s.Columns), len(s.Scale))
	}
	return nil
}

// Transform rescales the row in place. The row must be positionally aligned
// with the scaler's fitted columns.
func (s *Scaler) Transform(row []float64) error {
	if len(row) != len(s.Scale) {
		return fmt.Errorf("scaler expects %d features, got %d", len(s.Scale), len(row))
	}
	for i := range row {
		switch s.Kind {
		case ScalerStandard:
			scale := s.Scale[i]
			if scale == 0 {
				scale = 1 // zero-variance column, matches sklearn's guard
			}
			row[i] = (row[i] - s.Center[i]) / scale
		case ScalerMinMax:
			row[i] = row[i]*s.Scale[i] + s.Center[i]
		default:
			return fmt.Errorf("unknown scaler_type %q", s.Kind)
		}
	}
	return nil
}
