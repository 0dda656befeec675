package feature

import (
	"fmt"
	"slices"

	"github.com/kailas-cloud/soclens/internal/domain"
)

// Layout describes the column structure of a fused feature vector:
// [text block | categorical block | numeric block].
type Layout struct {
	TextWidth         int      `json:"text_width" yaml:"text_width"`
	CategoricalFields []string `json:"categorical_fields" yaml:"categorical_fields"`
	CategoricalWidths []int    `json:"categorical_widths" yaml:"categorical_widths"`
	NumericFields     []string `json:"numeric_fields" yaml:"numeric_fields"`
}

// CategoricalWidth is the sum of per-field bucket counts.
func (l Layout) CategoricalWidth() int {
	var w int
	for _, n := range l.CategoricalWidths {
		w += n
	}
	return w
}

// Width is the total column count.
func (l Layout) Width() int {
	return l.TextWidth + l.CategoricalWidth() + len(l.NumericFields)
}

// CheckDeclared verifies that a declared (training-time) layout agrees with l.
// Only the parts the declaration specifies are compared; total width must always match.
func (l Layout) CheckDeclared(component string, declared Layout, declaredWidth int) error {
	if declaredWidth != l.Width() {
		return &domain.MismatchError{Component: component, Want: l.Width(), Got: declaredWidth}
	}
	if declared.TextWidth != 0 && declared.TextWidth != l.TextWidth {
		return &domain.MismatchError{
			Component: component, Want: l.TextWidth, Got: declared.TextWidth, Detail: "text block",
		}
	}
	if declared.CategoricalFields != nil && !slices.Equal(declared.CategoricalFields, l.CategoricalFields) {
		return &domain.MismatchError{
			Component: component, Want: l.Width(), Got: declaredWidth,
			Detail: fmt.Sprintf("categorical order %v, assembler uses %v", declared.CategoricalFields, l.CategoricalFields),
		}
	}
	if declared.CategoricalWidths != nil && !slices.Equal(declared.CategoricalWidths, l.CategoricalWidths) {
		return &domain.MismatchError{
			Component: component, Want: l.CategoricalWidth(), Got: declared.CategoricalWidth(),
			Detail: "categorical cardinalities",
		}
	}
	if declared.NumericFields != nil && !slices.Equal(declared.NumericFields, l.NumericFields) {
		return &domain.MismatchError{
			Component: component, Want: l.Width(), Got: declaredWidth,
			Detail: fmt.Sprintf("numeric order %v, assembler uses %v", declared.NumericFields, l.NumericFields),
		}
	}
	return nil
}
