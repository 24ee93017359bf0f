package domain

// FeatureRow is a single raw mapping from feature name to submitted value.
// Values arrive untyped from the client: strings, numbers, booleans or null.
type FeatureRow map[string]any

// Prediction is the outcome of a single-row inference.
type Prediction struct {
	// Label is the predicted class as a plain scalar (string or number).
	Label any
	// Proba maps stringified class labels to raw probabilities.
	// Nil when the model cannot produce a distribution. The values are the
	// model's output as-is and are not renormalized.
	Proba map[string]float64
	// UsedFeatures is the exact ordered column sequence fed to the model.
	UsedFeatures []string
	// ModelName identifies the loaded model kind.
	ModelName string
}
