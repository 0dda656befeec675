package predict

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/soclens/internal/domain"
	"github.com/kailas-cloud/soclens/internal/domain/feature"
	"github.com/kailas-cloud/soclens/internal/domain/prediction"
	"github.com/kailas-cloud/soclens/internal/usecase/fusion"
)

// layoutDeclarer is implemented by classifiers that carry their training layout.
type layoutDeclarer interface {
	DeclaredLayout() (feature.Layout, bool)
}

// positiveClasser is implemented by binary classifiers that name their positive class.
type positiveClasser interface {
	PositiveClass() string
}

// Capabilities bundles the ports the adapter consumes.
type Capabilities struct {
	Text         domain.TextEncoder
	Categorical  domain.CategoricalEncoder
	Numeric      domain.NumericScaler
	Severity     domain.Classifier
	HighCritical domain.Classifier
}

// Service is the classifier invocation adapter: it fuses an incident into a
// feature vector and applies the severity and high/critical classifiers.
type Service struct {
	assembler    *fusion.Assembler
	severity     domain.Classifier
	highCritical domain.Classifier
	missing      []domain.Capability
}

// New resolves the adapter once per session. Missing capabilities degrade
// Predict to an unavailable result; a feature layout mismatch between the
// encoders and a classifier is returned as a configuration error.
func New(caps Capabilities, logger *zap.Logger) (*Service, error) {
	s := &Service{}

	for _, c := range []struct {
		port any
		name domain.Capability
	}{
		{caps.Text, domain.CapTextEncoder},
		{caps.Categorical, domain.CapCategoricalEncoder},
		{caps.Numeric, domain.CapNumericScaler},
		{caps.Severity, domain.CapSeverityClassifier},
	} {
		if domain.IsAbsent(c.port) {
			s.missing = append(s.missing, c.name)
		}
	}
	if len(s.missing) > 0 {
		logger.Warn("prediction unavailable", zap.Any("missing", s.missing))
		return s, nil
	}

	asm, err := fusion.New(caps.Text, caps.Categorical, caps.Numeric)
	if err != nil {
		return nil, fmt.Errorf("build assembler: %w", err)
	}
	if err := checkClassifier(asm.Layout(), string(domain.CapSeverityClassifier), caps.Severity); err != nil {
		return nil, err
	}

	s.assembler = asm
	s.severity = caps.Severity

	if !domain.IsAbsent(caps.HighCritical) {
		if err := checkClassifier(asm.Layout(), string(domain.CapHighCriticalClassifier), caps.HighCritical); err != nil {
			return nil, err
		}
		s.highCritical = caps.HighCritical
	}
	return s, nil
}

func checkClassifier(layout feature.Layout, name string, clf domain.Classifier) error {
	var declared feature.Layout
	if ld, ok := clf.(layoutDeclarer); ok {
		declared, _ = ld.DeclaredLayout()
	}
	if err := layout.CheckDeclared(name, declared, clf.Width()); err != nil {
		return fmt.Errorf("check %s: %w", name, err)
	}
	return nil
}

// Missing lists the capabilities whose absence makes prediction unavailable.
func (s *Service) Missing() []domain.Capability {
	return append([]domain.Capability(nil), s.missing...)
}

// HasHighCritical reports whether the binary classifier is wired.
func (s *Service) HasHighCritical() bool { return s.highCritical != nil }

// Predict validates the request, fuses it and classifies the feature vector.
func (s *Service) Predict(ctx context.Context, req Request) (prediction.Prediction, error) {
	if err := req.Validate(); err != nil {
		return prediction.Prediction{}, err
	}
	if len(s.missing) > 0 {
		return prediction.Unavailable(s.missing...), nil
	}

	vec, err := s.assembler.Assemble(ctx, req.Input())
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("assemble features: %w", err)
	}
	return s.Classify(vec)
}

// Classify applies the classifiers to an already fused vector.
// The high/critical flag is omitted when its classifier is absent.
func (s *Service) Classify(vec feature.Vector) (prediction.Prediction, error) {
	if len(s.missing) > 0 {
		return prediction.Unavailable(s.missing...), nil
	}

	features := vec.Values()
	label, err := s.severity.Predict(features)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("predict severity: %w", err)
	}

	if s.highCritical == nil {
		return prediction.New(label, nil), nil
	}

	hc, err := s.highCritical.Predict(features)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("predict high/critical: %w", err)
	}
	flag := hc == positiveClass(s.highCritical)
	return prediction.New(label, &flag), nil
}

func positiveClass(clf domain.Classifier) string {
	if pc, ok := clf.(positiveClasser); ok {
		return pc.PositiveClass()
	}
	classes := clf.Classes()
	return classes[len(classes)-1]
}
