package prediction

import "github.com/kailas-cloud/soclens/internal/domain"

// Prediction is the classifier adapter outcome for one feature vector.
type Prediction struct {
	available    bool
	severity     string
	highCritical *bool
	missing      []domain.Capability
}

// Unavailable reports that prediction could not run because capabilities are missing.
func Unavailable(missing ...domain.Capability) Prediction {
	return Prediction{missing: append([]domain.Capability(nil), missing...)}
}

// New creates an available prediction. highCritical is nil when the binary
// classifier is absent.
func New(severity string, highCritical *bool) Prediction {
	var flag *bool
	if highCritical != nil {
		v := *highCritical
		flag = &v
	}
	return Prediction{available: true, severity: severity, highCritical: flag}
}

// Available reports whether a severity label was produced.
func (p Prediction) Available() bool { return p.available }

// Severity returns the predicted label ("" when unavailable).
func (p Prediction) Severity() string { return p.severity }

// HighCritical returns the binary flag and whether it was produced.
func (p Prediction) HighCritical() (bool, bool) {
	if p.highCritical == nil {
		return false, false
	}
	return *p.highCritical, true
}

// Missing lists the capabilities that prevented prediction.
func (p Prediction) Missing() []domain.Capability {
	return append([]domain.Capability(nil), p.missing...)
}
