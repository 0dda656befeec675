package artifact

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/soclens/internal/domain"
)

// DefaultUnknown is the category token reserved for unseen values.
const DefaultUnknown = "unknown"

type onehotDocument struct {
	Fields     []string   `json:"fields"`
	Categories [][]string `json:"categories"`
	Unknown    string     `json:"unknown"`
}

// OneHot is the categorical indicator encoder artifact.
// Every field owns a reserved unknown bucket.
type OneHot struct {
	fields  []string
	index   []map[string]int
	unknown []int
	widths  []int
	offsets []int
	width   int
	token   string
}

var _ domain.CategoricalEncoder = (*OneHot)(nil)

// DecodeOneHot parses and validates an encoder document.
func DecodeOneHot(data []byte) (*OneHot, error) {
	var doc onehotDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode onehot: %w: %w", domain.ErrArtifactMalformed, err)
	}
	if len(doc.Fields) == 0 {
		return nil, fmt.Errorf("onehot: no fields: %w", domain.ErrArtifactMalformed)
	}
	if len(doc.Categories) != len(doc.Fields) {
		return nil, fmt.Errorf("onehot: %d category lists for %d fields: %w",
			len(doc.Categories), len(doc.Fields), domain.ErrArtifactMalformed)
	}

	token := doc.Unknown
	if token == "" {
		token = DefaultUnknown
	}

	e := &OneHot{
		fields:  append([]string(nil), doc.Fields...),
		index:   make([]map[string]int, len(doc.Fields)),
		unknown: make([]int, len(doc.Fields)),
		widths:  make([]int, len(doc.Fields)),
		offsets: make([]int, len(doc.Fields)),
		token:   token,
	}

	for f, cats := range doc.Categories {
		idx := make(map[string]int, len(cats)+1)
		for _, c := range cats {
			if _, dup := idx[c]; dup {
				return nil, fmt.Errorf("onehot: field %q repeats category %q: %w",
					doc.Fields[f], c, domain.ErrArtifactMalformed)
			}
			idx[c] = len(idx)
		}
		if _, ok := idx[token]; !ok {
			idx[token] = len(idx)
		}
		e.index[f] = idx
		e.unknown[f] = idx[token]
		e.widths[f] = len(idx)
		e.offsets[f] = e.width
		e.width += len(idx)
	}
	return e, nil
}

// Fields implements domain.CategoricalEncoder.
func (e *OneHot) Fields() []string { return append([]string(nil), e.fields...) }

// Cardinalities implements domain.CategoricalEncoder.
func (e *OneHot) Cardinalities() []int { return append([]int(nil), e.widths...) }

// Width implements domain.CategoricalEncoder.
func (e *OneHot) Width() int { return e.width }

// UnknownToken returns the reserved unknown category.
func (e *OneHot) UnknownToken() string { return e.token }

// Indicators implements domain.CategoricalEncoder. Blank or unseen values use
// the field's unknown bucket.
func (e *OneHot) Indicators(values []string) ([]float64, error) {
	if len(values) != len(e.fields) {
		return nil, &domain.MismatchError{Component: "categorical encoder input", Want: len(e.fields), Got: len(values)}
	}
	out := make([]float64, e.width)
	for f, raw := range values {
		col, ok := e.index[f][strings.TrimSpace(raw)]
		if !ok {
			col = e.unknown[f]
		}
		out[e.offsets[f]+col] = 1
	}
	return out, nil
}
