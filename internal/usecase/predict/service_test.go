package predict

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kailas-cloud/inferd/internal/domain"
)

func TestPredictOne_LabelOnlyModel(t *testing.T) {
	model := &mockModel{label: "High", name: "RandomForestClassifier"}
	prep := NewPreparer([]string{"Age", "BMI"}, nil, nil, nil)
	svc := New(model, prep)

	pred, err := svc.PredictOne(context.Background(), domain.FeatureRow{
		"Age": 16.0, "BMI": 21.5,
	})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}

	if pred.Label != "High" {
		t.Errorf("expected label High, got %v", pred.Label)
	}
	if pred.Proba != nil {
		t.Errorf("expected no proba for a label-only model, got %v", pred.Proba)
	}
	if pred.ModelName != "RandomForestClassifier" {
		t.Errorf("unexpected model name %q", pred.ModelName)
	}
	if !reflect.DeepEqual(pred.UsedFeatures, []string{"Age", "BMI"}) {
		t.Errorf("unexpected used features %v", pred.UsedFeatures)
	}
	if !reflect.DeepEqual(model.lastRow, []float64{16, 21.5}) {
		t.Errorf("model saw row %v", model.lastRow)
	}
}

func TestPredictOne_ProbaKeyedByClasses(t *testing.T) {
	model := &probaMockModel{mockModel: mockModel{
		label:   "Medium",
		classes: []any{"Low", "Medium", "High"},
		proba:   []float64{0.1, 0.6, 0.3},
	}}
	svc := New(model, NewPreparer([]string{"Age"}, nil, nil, nil))

	pred, err := svc.PredictOne(context.Background(), domain.FeatureRow{"Age": 16.0})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}

	want := map[string]float64{"Low": 0.1, "Medium": 0.6, "High": 0.3}
	if !reflect.DeepEqual(pred.Proba, want) {
		t.Errorf("expected proba %v, got %v", want, pred.Proba)
	}
	if model.probaCalls != 1 {
		t.Errorf("expected one proba call, got %d", model.probaCalls)
	}
}

func TestPredictOne_SyntheticClassLabels(t *testing.T) {
	model := &probaMockModel{mockModel: mockModel{
		label: 1,
		proba: []float64{0.25, 0.75},
	}}
	svc := New(model, NewPreparer([]string{"Age"}, nil, nil, nil))

	pred, err := svc.PredictOne(context.Background(), domain.FeatureRow{"Age": 16.0})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}

	want := map[string]float64{"0": 0.25, "1": 0.75}
	if !reflect.DeepEqual(pred.Proba, want) {
		t.Errorf("expected synthetic keys %v, got %v", want, pred.Proba)
	}
}

func TestPredictOne_NumericClassLabelsStringified(t *testing.T) {
	model := &probaMockModel{mockModel: mockModel{
		label:   float64(1),
		classes: []any{float64(0), float64(1)},
		proba:   []float64{0.4, 0.6},
	}}
	svc := New(model, NewPreparer([]string{"Age"}, nil, nil, nil))

	pred, err := svc.PredictOne(context.Background(), domain.FeatureRow{"Age": 16.0})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}

	want := map[string]float64{"0": 0.4, "1": 0.6}
	if !reflect.DeepEqual(pred.Proba, want) {
		t.Errorf("expected %v, got %v", want, pred.Proba)
	}
}

func TestPredictOne_PreparationErrorsPassThrough(t *testing.T) {
	model := &mockModel{label: "High"}
	prep := NewPreparer([]string{"Age"}, nil, nil, nil)
	svc := New(model, prep)

	_, err := svc.PredictOne(context.Background(), domain.FeatureRow{"Age": nil})
	if !errors.Is(err, domain.ErrNonFinite) {
		t.Fatalf("expected ErrNonFinite, got %v", err)
	}
	if model.lastRow != nil {
		t.Error("model must not run on a row that failed preparation")
	}
}

func TestPredictOne_ModelErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	model := &mockModel{err: boom}
	svc := New(model, NewPreparer([]string{"Age"}, nil, nil, nil))

	_, err := svc.PredictOne(context.Background(), domain.FeatureRow{"Age": 16.0})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped model error, got %v", err)
	}
}

func TestPredictOne_FullPipeline(t *testing.T) {
	model := &probaMockModel{mockModel: mockModel{
		label:   "High",
		classes: []any{"Low", "Medium", "High"},
		proba:   []float64{0.05, 0.2, 0.75},
	}}
	scaler := &mockScaler{columns: []string{"Age", "BMI"}}
	prep := NewPreparer([]string{"Age", "Gender", "BMI"}, nil, nil, scaler)
	svc := New(model, prep)

	pred, err := svc.PredictOne(context.Background(), domain.FeatureRow{
		"Age": 16.0, "Gender": 1.0, "BMI": 21.5,
	})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}

	if !reflect.DeepEqual(model.lastRow, []float64{32, 1, 43}) {
		t.Errorf("expected scaled Age/BMI only, model saw %v", model.lastRow)
	}
	if pred.Label != "High" {
		t.Errorf("expected High, got %v", pred.Label)
	}
	if len(pred.Proba) != 3 {
		t.Errorf("expected a probability per class, got %v", pred.Proba)
	}
}
