package fusion

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/soclens/internal/domain"
	"github.com/kailas-cloud/soclens/internal/domain/feature"
	"github.com/kailas-cloud/soclens/internal/domain/incident"
)

// Input carries one incident's raw attributes. Categorical and numeric values
// are keyed by the field names the artifacts were trained on; missing keys
// fall back to the unknown bucket and zero respectively.
type Input struct {
	Description string
	Categorical map[string]string
	Numeric     map[string]float64
}

// InputFromRecord builds an Input from a corpus record.
func InputFromRecord(r *incident.Record) Input {
	return Input{
		Description: r.Description(),
		Categorical: map[string]string{
			string(incident.ColThreatType): r.ThreatType(),
			string(incident.ColStatus):     r.Status(),
			string(incident.ColAssetType):  r.AssetType(),
			string(incident.ColDepartment): r.Department(),
			string(incident.ColDayOfWeek):  r.DayOfWeek(),
		},
		Numeric: r.Numerics(),
	}
}

// Assembler concatenates text, categorical and numeric blocks into one
// feature vector in the artifact-agreed order. It holds no mutable state.
type Assembler struct {
	text   domain.TextEncoder
	cat    domain.CategoricalEncoder
	num    domain.NumericScaler
	layout feature.Layout
}

// New creates an Assembler. Absent capabilities yield a *domain.CapabilityError.
func New(text domain.TextEncoder, cat domain.CategoricalEncoder, num domain.NumericScaler) (*Assembler, error) {
	var missing []domain.Capability
	if domain.IsAbsent(text) {
		missing = append(missing, domain.CapTextEncoder)
	}
	if domain.IsAbsent(cat) {
		missing = append(missing, domain.CapCategoricalEncoder)
	}
	if domain.IsAbsent(num) {
		missing = append(missing, domain.CapNumericScaler)
	}
	if len(missing) > 0 {
		return nil, &domain.CapabilityError{Action: "feature fusion", Missing: missing}
	}

	layout := feature.Layout{
		TextWidth:         text.Width(),
		CategoricalFields: cat.Fields(),
		CategoricalWidths: cat.Cardinalities(),
		NumericFields:     num.Fields(),
	}
	if layout.CategoricalWidth() != cat.Width() {
		return nil, &domain.MismatchError{
			Component: "categorical encoder", Want: layout.CategoricalWidth(), Got: cat.Width(),
			Detail: "cardinalities disagree with encoder width",
		}
	}

	return &Assembler{text: text, cat: cat, num: num, layout: layout}, nil
}

// Layout returns the fused column structure.
func (a *Assembler) Layout() feature.Layout { return a.layout }

// Assemble produces the feature vector for one incident.
func (a *Assembler) Assemble(ctx context.Context, in Input) (feature.Vector, error) {
	textVec, err := a.text.Encode(ctx, in.Description)
	if err != nil {
		return feature.Vector{}, fmt.Errorf("encode text: %w", err)
	}
	if textVec.MaxIndex() >= a.layout.TextWidth {
		return feature.Vector{}, &domain.MismatchError{
			Component: "text encoder", Want: a.layout.TextWidth, Got: textVec.MaxIndex() + 1,
			Detail: "column outside vocabulary",
		}
	}

	catValues := make([]string, len(a.layout.CategoricalFields))
	for i, f := range a.layout.CategoricalFields {
		catValues[i] = in.Categorical[f]
	}
	catBlock, err := a.cat.Indicators(catValues)
	if err != nil {
		return feature.Vector{}, fmt.Errorf("encode categorical: %w", err)
	}

	numValues := make([]float64, len(a.layout.NumericFields))
	for i, f := range a.layout.NumericFields {
		numValues[i] = in.Numeric[f]
	}
	numBlock, err := a.num.Scale(numValues)
	if err != nil {
		return feature.Vector{}, fmt.Errorf("scale numeric: %w", err)
	}

	vec, err := feature.New(a.layout, textVec.Dense(a.layout.TextWidth), catBlock, numBlock)
	if err != nil {
		return feature.Vector{}, fmt.Errorf("fuse features: %w", err)
	}
	return vec, nil
}
