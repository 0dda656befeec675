package feature

import "github.com/kailas-cloud/soclens/internal/domain"

// Vector is a fused feature vector whose width always equals its layout width.
type Vector struct {
	values []float64
	layout Layout
}

// New concatenates the three blocks. Any block whose width disagrees with the
// layout is a configuration error.
func New(layout Layout, text, categorical, numeric []float64) (Vector, error) {
	if len(text) != layout.TextWidth {
		return Vector{}, &domain.MismatchError{Component: "text block", Want: layout.TextWidth, Got: len(text)}
	}
	if len(categorical) != layout.CategoricalWidth() {
		return Vector{}, &domain.MismatchError{
			Component: "categorical block", Want: layout.CategoricalWidth(), Got: len(categorical),
		}
	}
	if len(numeric) != len(layout.NumericFields) {
		return Vector{}, &domain.MismatchError{
			Component: "numeric block", Want: len(layout.NumericFields), Got: len(numeric),
		}
	}

	values := make([]float64, 0, layout.Width())
	values = append(values, text...)
	values = append(values, categorical...)
	values = append(values, numeric...)
	return Vector{values: values, layout: layout}, nil
}

// Values returns a copy of the columns.
func (v Vector) Values() []float64 { return append([]float64(nil), v.values...) }

// Width returns the column count.
func (v Vector) Width() int { return len(v.values) }

// Layout returns the vector layout.
func (v Vector) Layout() Layout { return v.layout }

// Text returns a copy of the text block.
func (v Vector) Text() []float64 {
	return append([]float64(nil), v.values[:v.layout.TextWidth]...)
}

// Categorical returns a copy of the categorical block.
func (v Vector) Categorical() []float64 {
	start := v.layout.TextWidth
	return append([]float64(nil), v.values[start:start+v.layout.CategoricalWidth()]...)
}

// Numeric returns a copy of the numeric block.
func (v Vector) Numeric() []float64 {
	start := v.layout.TextWidth + v.layout.CategoricalWidth()
	return append([]float64(nil), v.values[start:]...)
}
