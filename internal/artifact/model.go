package artifact

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/kailas-cloud/inferd/internal/domain"
)

// Model is the inference surface of a loaded classifier.
type Model interface {
	// Predict runs single-row inference and returns the class label as a
	// plain scalar.
	Predict(row []float64) (any, error)
	// FeatureNames returns the model-declared input columns, nil when unknown.
	FeatureNames() []string
	// NumFeatures returns the declared input width, 0 when unknown.
	NumFeatures() int
	// Classes returns the declared class labels, nil when unknown.
	Classes() []any
	// Name identifies the model kind for clients.
	Name() string
}

// ProbaPredictor is implemented by models that produce a class distribution.
type ProbaPredictor interface {
	PredictProba(row []float64) ([]float64, error)
}

// Model kinds supported by the portable artifact format.
const (
	ModelRandomForest = "random_forest"
	ModelLogistic     = "logistic_regression"
)

type modelFile struct {
	ModelType    string      `json:"model_type"`
	FeatureNames []string    `json:"feature_names,omitempty"`
	NFeatures    int         `json:"n_features,omitempty"`
	Classes      []any       `json:"classes,omitempty"`
	Trees        []Tree      `json:"trees,omitempty"`
	Coefficients [][]float64 `json:"coefficients,omitempty"`
	Intercepts   []float64   `json:"intercepts,omitempty"`
}

// DecodeModel builds a Model from its portable representation.
func DecodeModel(data []byte) (Model, error) {
	var mf modelFile
	if err := decodePortable(data, &mf); err != nil {
		return nil, err
	}

	base := modelBase{
		featureNames: mf.FeatureNames,
		nFeatures:    mf.NFeatures,
		classes:      mf.Classes,
	}
	if base.nFeatures == 0 && len(base.featureNames) > 0 {
		base.nFeatures = len(base.featureNames)
	}

	switch mf.ModelType {
	case ModelRandomForest:
		m := &Forest{modelBase: base, trees: mf.Trees}
		if err := m.validate(); err != nil {
			return nil, fmt.Errorf("random_forest: %w", err)
		}
		return m, nil
	case ModelLogistic:
		m := &Logistic{modelBase: base, coef: mf.Coefficients, intercept: mf.Intercepts}
		if err := m.validate(); err != nil {
			return nil, fmt.Errorf("logistic_regression: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedModel, mf.ModelType)
	}
}

// modelBase carries the attributes shared by all model kinds.
type modelBase struct {
	featureNames []string
	nFeatures    int
	classes      []any
}

func (b *modelBase) FeatureNames() []string { return b.featureNames }
func (b *modelBase) NumFeatures() int       { return b.nFeatures }
func (b *modelBase) Classes() []any         { return b.classes }

// label resolves a class index to its declared label, falling back to the
// synthetic sequence 0..k-1.
func (b *modelBase) label(idx int) any {
	if idx < len(b.classes) {
		return b.classes[idx]
	}
	return idx
}

func (b *modelBase) checkWidth(row []float64) error {
	if b.nFeatures > 0 && len(row) != b.nFeatures {
		return fmt.Errorf("model expects %d features, got %d", b.nFeatures, len(row))
	}
	return nil
}

// Tree is one decision tree in the sklearn export layout: parallel node
// arrays where children_left[i] == -1 marks a leaf and Value[i] holds the
// leaf's class sample counts.
type Tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

// leaf walks the tree for the row and returns the leaf's class counts.
func (t *Tree) leaf(row []float64) []float64 {
	node := 0
	for t.ChildrenLeft[node] >= 0 {
		if row[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return t.Value[node]
}

func (t *Tree) validate() error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("tree node arrays have inconsistent lengths")
	}
	for i := 0; i < n; i++ {
		if t.ChildrenLeft[i] >= n || t.ChildrenRight[i] >= n {
			return fmt.Errorf("tree node %d points past the node array", i)
		}
	}
	return nil
}

// Forest is a random-forest classifier: the prediction is the argmax of the
// per-tree leaf distributions averaged after normalization.
type Forest struct {
	modelBase
	trees []Tree
}

func (m *Forest) Name() string { return "RandomForestClassifier" }

func (m *Forest) validate() error {
	if len(m.trees) == 0 {
		return fmt.Errorf("model has no trees")
	}
	for i := range m.trees {
		if err := m.trees[i].validate(); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	if k := len(m.classes); k > 0 {
		if w := len(m.trees[0].Value[0]); w != k {
			return fmt.Errorf("leaf width %d does not match %d classes", w, k)
		}
	}
	return nil
}

// Predict returns the majority class across trees.
func (m *Forest) Predict(row []float64) (any, error) {
	proba, err := m.PredictProba(row)
	if err != nil {
		return nil, err
	}
	return m.label(argmax(proba)), nil
}

// PredictProba averages the normalized leaf distributions of every tree.
func (m *Forest) PredictProba(row []float64) ([]float64, error) {
	if err := m.checkWidth(row); err != nil {
		return nil, err
	}

	width := len(m.trees[0].Value[0])
	acc := make([]float64, width)
	for i := range m.trees {
		leaf := m.trees[i].leaf(row)
		if len(leaf) != width {
			return nil, fmt.Errorf("tree %d leaf width %d, expected %d", i, len(leaf), width)
		}
		total := 0.0
		for _, v := range leaf {
			total += v
		}
		if total == 0 {
			continue
		}
		for j, v := range leaf {
			acc[j] += v / total
		}
	}
	for j := range acc {
		acc[j] /= float64(len(m.trees))
	}
	return acc, nil
}

// Logistic is a logistic-regression classifier. A single coefficient row is
// treated as a binary model; multiple rows run one-vs-rest with softmax.
type Logistic struct {
	modelBase
	coef      [][]float64
	intercept []float64
}

func (m *Logistic) Name() string { return "LogisticRegression" }

func (m *Logistic) validate() error {
	if len(m.coef) == 0 {
		return fmt.Errorf("model has no coefficients")
	}
	if len(m.intercept) != len(m.coef) {
		return fmt.Errorf("intercepts length %d does not match %d coefficient rows",
			len(m.intercept), len(m.coef))
	}
	width := len(m.coef[0])
	for i, row := range m.coef {
		if len(row) != width {
			return fmt.Errorf("coefficient row %d has width %d, expected %d", i, len(row), width)
		}
	}
	if m.nFeatures > 0 && width != m.nFeatures {
		return fmt.Errorf("coefficient width %d does not match n_features %d", width, m.nFeatures)
	}
	if k := len(m.classes); k > 0 {
		want := len(m.coef)
		if want == 1 {
			want = 2
		}
		if k != want {
			return fmt.Errorf("%d classes declared for %d coefficient rows", k, len(m.coef))
		}
	}
	return nil
}

// Predict returns the class with the highest probability.
func (m *Logistic) Predict(row []float64) (any, error) {
	proba, err := m.PredictProba(row)
	if err != nil {
		return nil, err
	}
	return m.label(argmax(proba)), nil
}

// PredictProba returns sigmoid output for binary models and softmax scores
// for multiclass models.
func (m *Logistic) PredictProba(row []float64) ([]float64, error) {
	if err := m.checkWidth(row); err != nil {
		return nil, err
	}
	if len(row) != len(m.coef[0]) {
		return nil, fmt.Errorf("model expects %d features, got %d", len(m.coef[0]), len(row))
	}

	if len(m.coef) == 1 {
		p := sigmoid(dot(m.coef[0], row) + m.intercept[0])
		return []float64{1 - p, p}, nil
	}

	scores := make([]float64, len(m.coef))
	maxScore := math.Inf(-1)
	for i := range m.coef {
		scores[i] = dot(m.coef[i], row) + m.intercept[i]
		if scores[i] > maxScore {
			maxScore = scores[i]
		}
	}
	sum := 0.0
	for i, s := range scores {
		scores[i] = math.Exp(s - maxScore)
		sum += scores[i]
	}
	for i := range scores {
		scores[i] /= sum
	}
	return scores, nil
}

func dot(a, b []float64) float64 {
	var out float64
	for i := range a {
		out += a[i] * b[i]
	}
	return out
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func argmax(vals []float64) int {
	best := 0
	for i, v := range vals {
		if v > vals[best] {
			best = i
		}
	}
	return best
}

// compile-time capability checks
var (
	_ Model            = (*Forest)(nil)
	_ ProbaPredictor   = (*Forest)(nil)
	_ Model            = (*Logistic)(nil)
	_ ProbaPredictor   = (*Logistic)(nil)
	_ json.Unmarshaler = (*EncoderSet)(nil)
)
