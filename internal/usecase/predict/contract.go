package predict

import (
	"context"

	"github.com/kailas-cloud/inferd/internal/domain"
)

// Model is the consumer interface over the loaded classifier.
type Model interface {
	Predict(row []float64) (any, error)
	FeatureNames() []string
	Classes() []any
	Name() string
}

// ProbaModel is satisfied by models that can produce a class distribution.
type ProbaModel interface {
	PredictProba(row []float64) ([]float64, error)
}

// Transformer is the consumer interface over the fitted scaler.
type Transformer interface {
	FeatureNames() []string
	Transform(row []float64) error
}

// Encoder codes a categorical label. ok=false means the value passes through.
type Encoder interface {
	Encode(label string) (code int, ok bool)
}

// Predictor runs single-row inference. Implemented by Service and by the
// caching decorator that wraps it.
type Predictor interface {
	PredictOne(ctx context.Context, row domain.FeatureRow) (domain.Prediction, error)
}
