package artifact

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/kailas-cloud/soclens/internal/domain"
)

// Files names the artifact documents inside a source.
type Files struct {
	TextEncoder            string `yaml:"text_encoder"`
	CategoricalEncoder     string `yaml:"categorical_encoder"`
	NumericScaler          string `yaml:"numeric_scaler"`
	SeverityClassifier     string `yaml:"severity_classifier"`
	HighCriticalClassifier string `yaml:"high_critical_classifier"`
}

// DefaultFiles returns the conventional artifact file names.
func DefaultFiles() Files {
	return Files{
		TextEncoder:            "tfidf_vectorizer.json",
		CategoricalEncoder:     "onehot_encoder.json",
		NumericScaler:          "numeric_scaler.json",
		SeverityClassifier:     "clf_severity_logreg.json",
		HighCriticalClassifier: "clf_highcritical_logreg.json",
	}
}

// Status reports the availability of one capability.
type Status struct {
	Capability domain.Capability `json:"capability"`
	Available  bool              `json:"available"`
	Artifact   string            `json:"artifact"`
	Reason     string            `json:"reason,omitempty"`
}

// Set is the read-only bundle of capabilities for a session.
// Absent capabilities hold domain.Absent.
type Set struct {
	Text         domain.TextEncoder
	Categorical  domain.CategoricalEncoder
	Numeric      domain.NumericScaler
	Severity     domain.Classifier
	HighCritical domain.Classifier

	source   string
	statuses []Status
}

// Load resolves every artifact independently. It never fails: missing or
// malformed artifacts become absent capabilities and are reported in Statuses.
func Load(ctx context.Context, src Source, files Files, logger *zap.Logger) *Set {
	s := &Set{source: src.Name()}

	var st Status
	s.Text, st = load(ctx, src, domain.CapTextEncoder, files.TextEncoder, logger,
		func(b []byte) (domain.TextEncoder, error) { return DecodeTFIDF(b) })
	s.statuses = append(s.statuses, st)

	s.Categorical, st = load(ctx, src, domain.CapCategoricalEncoder, files.CategoricalEncoder, logger,
		func(b []byte) (domain.CategoricalEncoder, error) { return DecodeOneHot(b) })
	s.statuses = append(s.statuses, st)

	s.Numeric, st = load(ctx, src, domain.CapNumericScaler, files.NumericScaler, logger,
		func(b []byte) (domain.NumericScaler, error) { return DecodeScaler(b) })
	s.statuses = append(s.statuses, st)

	s.Severity, st = load(ctx, src, domain.CapSeverityClassifier, files.SeverityClassifier, logger,
		func(b []byte) (domain.Classifier, error) { return DecodeLinear(b) })
	s.statuses = append(s.statuses, st)

	s.HighCritical, st = load(ctx, src, domain.CapHighCriticalClassifier, files.HighCriticalClassifier, logger,
		func(b []byte) (domain.Classifier, error) { return DecodeLinear(b) })
	s.statuses = append(s.statuses, st)

	if missing := s.Missing(); len(missing) > 0 {
		logger.Warn("Artifacts unavailable, affected actions will degrade",
			zap.String("source", s.source),
			zap.Any("missing", missing),
		)
	}
	return s
}

// load decodes one artifact, falling back to the absent variant.
// T is always one of the port interfaces, which domain.Absent implements.
func load[T any](
	ctx context.Context,
	src Source,
	capability domain.Capability,
	name string,
	logger *zap.Logger,
	decode func([]byte) (T, error),
) (T, Status) {
	st := Status{Capability: capability, Artifact: name}
	absent, _ := any(domain.Absent{Capability: capability}).(T)

	if name == "" {
		st.Reason = "not configured"
		return absent, st
	}

	data, err := src.Read(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrArtifactNotFound) {
			st.Reason = "not found"
		} else {
			st.Reason = err.Error()
			logger.Error("Failed to read artifact", zap.String("artifact", name), zap.Error(err))
		}
		return absent, st
	}

	v, err := decode(data)
	if err != nil {
		st.Reason = err.Error()
		logger.Error("Failed to decode artifact", zap.String("artifact", name), zap.Error(err))
		return absent, st
	}

	st.Available = true
	logger.Debug("Artifact loaded", zap.String("capability", string(capability)), zap.String("artifact", name))
	return v, st
}

// Source returns the artifact source description.
func (s *Set) Source() string { return s.source }

// Statuses returns the per-capability availability in load order.
func (s *Set) Statuses() []Status { return append([]Status(nil), s.statuses...) }

// Missing lists the unavailable capabilities.
func (s *Set) Missing() []domain.Capability {
	var out []domain.Capability
	for _, st := range s.statuses {
		if !st.Available {
			out = append(out, st.Capability)
		}
	}
	return out
}
