package domain

import (
	"context"
	"fmt"
)

// Capability names one externally supplied, pre-trained artifact.
type Capability string

const (
	// CapTextEncoder is the TF-IDF text vectorizer used for feature fusion.
	CapTextEncoder Capability = "text_encoder"
	// CapCategoricalEncoder is the one-hot categorical encoder.
	CapCategoricalEncoder Capability = "categorical_encoder"
	// CapNumericScaler is the numeric field scaler.
	CapNumericScaler Capability = "numeric_scaler"
	// CapSeverityClassifier is the multi-class severity classifier.
	CapSeverityClassifier Capability = "severity_classifier"
	// CapHighCriticalClassifier is the binary high/critical classifier.
	CapHighCriticalClassifier Capability = "high_critical_classifier"
	// CapRetrievalEncoder is the encoder used by the similarity retriever.
	CapRetrievalEncoder Capability = "retrieval_encoder"
)

// TextEncoder maps text to a weighted term vector over a fixed vocabulary.
type TextEncoder interface {
	// Identity distinguishes encoders for cache keys (model + vocabulary fingerprint).
	Identity() string
	// Width is the vocabulary size.
	Width() int
	Encode(ctx context.Context, text string) (SparseVector, error)
}

// BatchTextEncoder encodes many texts in one call.
type BatchTextEncoder interface {
	EncodeBatch(ctx context.Context, texts []string) ([]SparseVector, error)
}

// CategoricalEncoder maps a tuple of categorical values to an indicator vector.
type CategoricalEncoder interface {
	// Fields returns the field names in training order.
	Fields() []string
	// Cardinalities returns the per-field bucket counts, unknown buckets included.
	Cardinalities() []int
	Width() int
	// Indicators expects values aligned with Fields.
	Indicators(values []string) ([]float64, error)
}

// NumericScaler normalises a tuple of numeric fields.
type NumericScaler interface {
	Fields() []string
	// Scale expects values aligned with Fields.
	Scale(values []float64) ([]float64, error)
}

// Classifier is a pre-trained linear classifier over a fused feature vector.
type Classifier interface {
	Width() int
	Classes() []string
	Predict(features []float64) (string, error)
}

// EncodeAll encodes texts, using BatchTextEncoder when the encoder supports it.
func EncodeAll(ctx context.Context, e TextEncoder, texts []string) ([]SparseVector, error) {
	if be, ok := e.(BatchTextEncoder); ok {
		vecs, err := be.EncodeBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("batch encode: %w", err)
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("batch encode: got %d vectors for %d texts", len(vecs), len(texts))
		}
		return vecs, nil
	}

	vecs := make([]SparseVector, len(texts))
	for i, t := range texts {
		v, err := e.Encode(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("encode [%d]: %w", i, err)
		}
		vecs[i] = v
	}
	return vecs, nil
}

// Absent is the absent variant of every capability port.
// Each method fails with a CapabilityError naming the capability.
type Absent struct {
	Capability Capability
}

var (
	_ TextEncoder        = Absent{}
	_ CategoricalEncoder = Absent{}
	_ NumericScaler      = Absent{}
	_ Classifier         = Absent{}
)

func (a Absent) err() error {
	return &CapabilityError{Action: string(a.Capability), Missing: []Capability{a.Capability}}
}

// Identity implements TextEncoder.
func (a Absent) Identity() string { return "absent:" + string(a.Capability) }

// Width implements the ports; an absent capability has no columns.
func (a Absent) Width() int { return 0 }

// Encode implements TextEncoder.
func (a Absent) Encode(context.Context, string) (SparseVector, error) { return SparseVector{}, a.err() }

// Fields implements CategoricalEncoder and NumericScaler.
func (a Absent) Fields() []string { return nil }

// Cardinalities implements CategoricalEncoder.
func (a Absent) Cardinalities() []int { return nil }

// Indicators implements CategoricalEncoder.
func (a Absent) Indicators([]string) ([]float64, error) { return nil, a.err() }

// Scale implements NumericScaler.
func (a Absent) Scale([]float64) ([]float64, error) { return nil, a.err() }

// Classes implements Classifier.
func (a Absent) Classes() []string { return nil }

// Predict implements Classifier.
func (a Absent) Predict([]float64) (string, error) { return "", a.err() }

// IsAbsent reports whether v is nil or the absent variant of a port.
func IsAbsent(v any) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Absent)
	return ok
}
