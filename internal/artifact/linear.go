package artifact

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/soclens/internal/domain"
	"github.com/kailas-cloud/soclens/internal/domain/feature"
)

type linearDocument struct {
	Classes       []any           `json:"classes"`
	Coef          [][]float64     `json:"coef"`
	Intercept     []float64       `json:"intercept"`
	FeatureLayout *feature.Layout `json:"feature_layout"`
}

// Linear is a pre-trained linear classifier (logistic regression decision function).
type Linear struct {
	classes   []string
	coef      [][]float64
	intercept []float64
	width     int
	layout    *feature.Layout
}

var _ domain.Classifier = (*Linear)(nil)

// DecodeLinear parses and validates a classifier document.
func DecodeLinear(data []byte) (*Linear, error) {
	var doc linearDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode classifier: %w: %w", domain.ErrArtifactMalformed, err)
	}
	if len(doc.Classes) < 2 {
		return nil, fmt.Errorf("classifier: need at least 2 classes, got %d: %w",
			len(doc.Classes), domain.ErrArtifactMalformed)
	}

	rows := len(doc.Classes)
	if rows == 2 {
		rows = 1
	}
	if len(doc.Coef) != rows || len(doc.Intercept) != rows {
		return nil, fmt.Errorf("classifier: %d classes need %d coef rows and intercepts, got %d and %d: %w",
			len(doc.Classes), rows, len(doc.Coef), len(doc.Intercept), domain.ErrArtifactMalformed)
	}

	width := len(doc.Coef[0])
	if width == 0 {
		return nil, fmt.Errorf("classifier: empty coefficient row: %w", domain.ErrArtifactMalformed)
	}
	for i, row := range doc.Coef {
		if len(row) != width {
			return nil, fmt.Errorf("classifier: coef row %d has %d columns, row 0 has %d: %w",
				i, len(row), width, domain.ErrArtifactMalformed)
		}
	}

	classes := make([]string, len(doc.Classes))
	for i, c := range doc.Classes {
		classes[i] = classLabel(c)
	}

	return &Linear{
		classes:   classes,
		coef:      doc.Coef,
		intercept: doc.Intercept,
		width:     width,
		layout:    doc.FeatureLayout,
	}, nil
}

func classLabel(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(c)
	default:
		return fmt.Sprint(c)
	}
}

// Width implements domain.Classifier.
func (m *Linear) Width() int { return m.width }

// Classes implements domain.Classifier.
func (m *Linear) Classes() []string { return append([]string(nil), m.classes...) }

// PositiveClass returns the class predicted for a positive binary decision.
func (m *Linear) PositiveClass() string { return m.classes[len(m.classes)-1] }

// DeclaredLayout returns the training-time feature layout, if the artifact carries one.
func (m *Linear) DeclaredLayout() (feature.Layout, bool) {
	if m.layout == nil {
		return feature.Layout{}, false
	}
	return *m.layout, true
}

// Predict implements domain.Classifier. Multi-class ties resolve to the earlier class.
func (m *Linear) Predict(features []float64) (string, error) {
	if len(features) != m.width {
		return "", &domain.MismatchError{Component: "classifier input", Want: m.width, Got: len(features)}
	}

	if len(m.coef) == 1 {
		if m.decision(0, features) > 0 {
			return m.classes[1], nil
		}
		return m.classes[0], nil
	}

	best, bestScore := 0, m.decision(0, features)
	for k := 1; k < len(m.coef); k++ {
		if s := m.decision(k, features); s > bestScore {
			best, bestScore = k, s
		}
	}
	return m.classes[best], nil
}

func (m *Linear) decision(row int, x []float64) float64 {
	s := m.intercept[row]
	for i, w := range m.coef[row] {
		s += w * x[i]
	}
	return s
}
