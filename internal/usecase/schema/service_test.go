package schema

import (
	"reflect"
	"testing"

	"github.com/kailas-cloud/inferd/internal/artifact"
	"github.com/kailas-cloud/inferd/internal/domain"
)

func TestSchema_FieldTypesAndOrder(t *testing.T) {
	encoders := artifact.EncoderSet{
		"Gender":      artifact.NewVocabEncoder([]string{"Male", "Female"}),
		"Grade_Level": artifact.NewSequenceEncoder([]string{"9th", "10th"}),
		"Notes":       artifact.PassthroughEncoder{},
	}
	svc := New([]string{"Age", "Gender", "Grade_Level", "Notes"}, encoders)

	s := svc.Schema()
	if len(s.Fields) != 4 {
		t.Fatalf("expected 4 fields, got %d", len(s.Fields))
	}

	if s.Fields[0].Name != "Age" || s.Fields[0].Type != domain.FieldNumber {
		t.Errorf("expected Age as number, got %+v", s.Fields[0])
	}
	if s.Fields[1].Type != domain.FieldSelect {
		t.Errorf("expected Gender as select, got %+v", s.Fields[1])
	}
	if !reflect.DeepEqual(s.Fields[1].Options, []string{"Male", "Female"}) {
		t.Errorf("unexpected Gender options %v", s.Fields[1].Options)
	}
	// passthrough encoders expose no options, so the field stays numeric
	if s.Fields[3].Type != domain.FieldNumber {
		t.Errorf("expected Notes as number, got %+v", s.Fields[3])
	}

	if s.Note == "" {
		t.Error("expected a non-empty note")
	}
}

func TestSchema_OptionsReadAtCallTime(t *testing.T) {
	gender := artifact.NewVocabEncoder([]string{"Male", "Female"})
	svc := New([]string{"Gender"}, artifact.EncoderSet{"Gender": gender})

	before := svc.Schema()
	if len(before.Fields[0].Options) != 2 {
		t.Fatalf("expected 2 options, got %v", before.Fields[0].Options)
	}

	// a request-time unseen label extends the vocabulary; the schema follows
	gender.Encode("Nonbinary")

	after := svc.Schema()
	if len(after.Fields[0].Options) != 3 {
		t.Errorf("expected 3 options after vocabulary growth, got %v", after.Fields[0].Options)
	}
}

func TestFeatureNames_ReturnsCopy(t *testing.T) {
	svc := New([]string{"A", "B"}, artifact.EncoderSet{})
	names := svc.FeatureNames()
	names[0] = "mutated"
	if svc.FeatureNames()[0] != "A" {
		t.Error("FeatureNames must return a copy, not the internal slice")
	}
}
