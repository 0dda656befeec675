package artifact

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/soclens/internal/domain"
)

type scalerDocument struct {
	Fields   []string  `json:"fields"`
	Mean     []float64 `json:"mean"`
	Scale    []float64 `json:"scale"`
	WithMean *bool     `json:"with_mean"`
	WithStd  *bool     `json:"with_std"`
}

// Scaler is the standardising numeric scaler artifact.
type Scaler struct {
	fields   []string
	mean     []float64
	scale    []float64
	withMean bool
	withStd  bool
}

var _ domain.NumericScaler = (*Scaler)(nil)

// DecodeScaler parses and validates a scaler document.
func DecodeScaler(data []byte) (*Scaler, error) {
	var doc scalerDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode scaler: %w: %w", domain.ErrArtifactMalformed, err)
	}
	n := len(doc.Fields)
	if n == 0 {
		return nil, fmt.Errorf("scaler: no fields: %w", domain.ErrArtifactMalformed)
	}

	s := &Scaler{
		fields:   append([]string(nil), doc.Fields...),
		withMean: doc.WithMean == nil || *doc.WithMean,
		withStd:  doc.WithStd == nil || *doc.WithStd,
	}
	if s.withMean {
		if len(doc.Mean) != n {
			return nil, fmt.Errorf("scaler: %d means for %d fields: %w", len(doc.Mean), n, domain.ErrArtifactMalformed)
		}
		s.mean = doc.Mean
	}
	if s.withStd {
		if len(doc.Scale) != n {
			return nil, fmt.Errorf("scaler: %d scales for %d fields: %w", len(doc.Scale), n, domain.ErrArtifactMalformed)
		}
		s.scale = doc.Scale
	}
	return s, nil
}

// Fields implements domain.NumericScaler.
func (s *Scaler) Fields() []string { return append([]string(nil), s.fields...) }

// Scale implements domain.NumericScaler. A zero scale leaves the centred value unscaled.
func (s *Scaler) Scale(values []float64) ([]float64, error) {
	if len(values) != len(s.fields) {
		return nil, &domain.MismatchError{Component: "numeric scaler input", Want: len(s.fields), Got: len(values)}
	}
	out := make([]float64, len(values))
	for i, x := range values {
		if s.withMean {
			x -= s.mean[i]
		}
		if s.withStd && s.scale[i] != 0 {
			x /= s.scale[i]
		}
		out[i] = x
	}
	return out, nil
}
