package schema

import (
	"fmt"

	"github.com/kailas-cloud/inferd/internal/artifact"
	"github.com/kailas-cloud/inferd/internal/domain"
)

// Service builds the client-facing input schema. The feature-name list is
// resolved once at construction; categorical options are read from the
// encoders on every call so request-time vocabulary growth stays visible.
type Service struct {
	names    []string
	encoders artifact.EncoderSet
}

// New creates a schema service over the resolved feature names.
func New(names []string, encoders artifact.EncoderSet) *Service {
	return &Service{names: names, encoders: encoders}
}

// FeatureNames returns the resolved ordered feature-name list.
func (s *Service) FeatureNames() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Schema describes every expected input field for form-building clients.
func (s *Service) Schema() domain.Schema {
	fields := make([]domain.Field, 0, len(s.names))
	for _, name := range s.names {
		field := domain.Field{Name: name, Type: domain.FieldNumber}
		if enc, ok := s.encoders[name]; ok {
			if opts := enc.Options(); len(opts) > 0 {
				field.Type = domain.FieldSelect
				field.Options = opts
			}
		}
		fields = append(fields, field)
	}

	return domain.Schema{
		Fields: fields,
		Note: fmt.Sprintf("%d fields exposed. Order follows the one expected by the model.",
			len(fields)),
	}
}
