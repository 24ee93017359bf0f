package predict

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/inferd/internal/domain"
)

// Service runs single-row inference over the loaded artifacts.
type Service struct {
	model Model
	prep  *Preparer
}

// New creates a prediction service.
func New(model Model, prep *Preparer) *Service {
	return &Service{model: model, prep: prep}
}

var _ Predictor = (*Service)(nil)

// PredictOne prepares the raw row and runs the model on it. The returned
// prediction carries the label, the optional class distribution and the
// exact ordered feature sequence that was used.
func (s *Service) PredictOne(
	_ context.Context, row domain.FeatureRow,
) (domain.Prediction, error) {
	vec, used, err := s.prep.Prepare(row)
	if err != nil {
		return domain.Prediction{}, err
	}

	label, err := s.model.Predict(vec)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("model predict: %w", err)
	}

	pred := domain.Prediction{
		Label:        label,
		UsedFeatures: used,
		ModelName:    s.model.Name(),
	}

	if pm, ok := s.model.(ProbaModel); ok {
		dist, err := pm.PredictProba(vec)
		if err != nil {
			return domain.Prediction{}, fmt.Errorf("model predict proba: %w", err)
		}
		pred.Proba = probaByClass(dist, s.model.Classes())
	}

	return pred, nil
}

// probaByClass pairs probabilities with class labels: the model-declared
// labels when present, else the synthetic sequence 0..k-1. Keys are the
// stringified labels; values are the raw floats without renormalization.
func probaByClass(dist []float64, classes []any) map[string]float64 {
	out := make(map[string]float64, len(dist))
	for i, p := range dist {
		var label any = i
		if i < len(classes) {
			label = classes[i]
		}
		out[domain.Stringify(label)] = p
	}
	return out
}
