package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/inferd/internal/domain"
)

// Artifact file names inside the data directory.
const (
	ModelFile    = "model.json"
	ScalerFile   = "scaler.json"
	EncodersFile = "encoders.json"
)

// Bundle holds the three deserialized artifacts the service runs on.
type Bundle struct {
	Model    Model
	Scaler   *Scaler
	Encoders EncoderSet
}

// LoadBundle reads the model, scaler and encoder-set artifacts from dir.
// Artifacts are a build-time dependency: any load failure is fatal for the
// caller, there is no request-time recovery.
func LoadBundle(dir string) (*Bundle, error) {
	modelData, err := readArtifact(filepath.Join(dir, ModelFile))
	if err != nil {
		return nil, err
	}
	model, err := DecodeModel(modelData)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrArtifactLoad, ModelFile, err)
	}

	scalerData, err := readArtifact(filepath.Join(dir, ScalerFile))
	if err != nil {
		return nil, err
	}
	var scaler Scaler
	if err := decodePortable(scalerData, &scaler); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrArtifactLoad, ScalerFile, err)
	}
	if err := scaler.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrArtifactLoad, ScalerFile, err)
	}

	encodersData, err := readArtifact(filepath.Join(dir, EncodersFile))
	if err != nil {
		return nil, err
	}
	encoders := EncoderSet{}
	if err := decodePortable(encodersData, &encoders); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrArtifactLoad, EncodersFile, err)
	}

	return &Bundle{Model: model, Scaler: &scaler, Encoders: encoders}, nil
}

func readArtifact(path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrArtifactLoad, path, err)
	}
	return data, nil
}

// decodePortable decodes an artifact payload into v. JSON is the primary
// format; on any JSON failure the same bytes are retried as YAML, normalized
// through a JSON round-trip so custom unmarshalers still apply.
func decodePortable(data []byte, v any) error {
	jsonErr := json.Unmarshal(data, v)
	if jsonErr == nil {
		return nil
	}

	var intermediate any
	if yamlErr := yaml.Unmarshal(data, &intermediate); yamlErr != nil {
		return fmt.Errorf("json: %w; yaml: %w", jsonErr, yamlErr)
	}
	normalized, err := json.Marshal(intermediate)
	if err != nil {
		return fmt.Errorf("normalize yaml: %w", err)
	}
	if err := json.Unmarshal(normalized, v); err != nil {
		return fmt.Errorf("decode normalized yaml: %w", err)
	}
	return nil
}
