package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/kailas-cloud/soclens/internal/domain"
)

// tokenPattern matches runs of two or more word characters. terms applies it
// after NFKC normalisation, so a vocabulary must be built from NFKC text:
// compatibility forms such as full-width letters or ligatures fold before
// matching and will miss terms stored in their raw form.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

type tfidfDocument struct {
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	Lowercase   *bool          `json:"lowercase"`
	NgramRange  []int          `json:"ngram_range"`
	StopWords   []string       `json:"stop_words"`
	SublinearTF bool           `json:"sublinear_tf"`
	Norm        *string        `json:"norm"`
}

// TFIDF is the vector-space text encoder artifact.
type TFIDF struct {
	vocab       map[string]int
	idf         []float64
	lowercase   bool
	minN, maxN  int
	stopWords   map[string]struct{}
	sublinearTF bool
	l2          bool
	identity    string
}

var _ domain.TextEncoder = (*TFIDF)(nil)

// DecodeTFIDF parses and validates a vectorizer document.
func DecodeTFIDF(data []byte) (*TFIDF, error) {
	var doc tfidfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode tfidf: %w: %w", domain.ErrArtifactMalformed, err)
	}
	if len(doc.Vocabulary) == 0 {
		return nil, fmt.Errorf("tfidf: empty vocabulary: %w", domain.ErrArtifactMalformed)
	}
	if len(doc.IDF) != len(doc.Vocabulary) {
		return nil, fmt.Errorf("tfidf: %d idf weights for %d terms: %w",
			len(doc.IDF), len(doc.Vocabulary), domain.ErrArtifactMalformed)
	}

	seen := make([]bool, len(doc.Vocabulary))
	for term, col := range doc.Vocabulary {
		if col < 0 || col >= len(seen) {
			return nil, fmt.Errorf("tfidf: term %q has column %d outside [0,%d): %w",
				term, col, len(seen), domain.ErrArtifactMalformed)
		}
		if seen[col] {
			return nil, fmt.Errorf("tfidf: column %d assigned twice: %w", col, domain.ErrArtifactMalformed)
		}
		seen[col] = true
	}

	minN, maxN := 1, 1
	if len(doc.NgramRange) == 2 {
		minN, maxN = doc.NgramRange[0], doc.NgramRange[1]
	}
	if minN < 1 || maxN < minN {
		return nil, fmt.Errorf("tfidf: invalid ngram_range %v: %w", doc.NgramRange, domain.ErrArtifactMalformed)
	}

	l2 := true
	if doc.Norm != nil {
		switch *doc.Norm {
		case "l2":
		case "", "none":
			l2 = false
		default:
			return nil, fmt.Errorf("tfidf: unsupported norm %q: %w", *doc.Norm, domain.ErrArtifactMalformed)
		}
	}

	lowercase := true
	if doc.Lowercase != nil {
		lowercase = *doc.Lowercase
	}

	stop := make(map[string]struct{}, len(doc.StopWords))
	for _, w := range doc.StopWords {
		stop[w] = struct{}{}
	}

	sum := sha256.Sum256(data)
	return &TFIDF{
		vocab:       doc.Vocabulary,
		idf:         doc.IDF,
		lowercase:   lowercase,
		minN:        minN,
		maxN:        maxN,
		stopWords:   stop,
		sublinearTF: doc.SublinearTF,
		l2:          l2,
		identity:    "tfidf:" + hex.EncodeToString(sum[:6]),
	}, nil
}

// Identity implements domain.TextEncoder.
func (v *TFIDF) Identity() string { return v.identity }

// Width implements domain.TextEncoder.
func (v *TFIDF) Width() int { return len(v.idf) }

// Encode implements domain.TextEncoder. Blank text encodes to the zero vector.
func (v *TFIDF) Encode(_ context.Context, text string) (domain.SparseVector, error) {
	if strings.TrimSpace(text) == "" {
		return domain.SparseVector{}, nil
	}

	counts := make(map[int]float64)
	for _, term := range v.terms(text) {
		if col, ok := v.vocab[term]; ok {
			counts[col]++
		}
	}

	for col, tf := range counts {
		if v.sublinearTF {
			tf = 1 + math.Log(tf)
		}
		counts[col] = tf * v.idf[col]
	}

	vec := domain.NewSparseVector(counts)
	if v.l2 {
		vec = vec.Normalize()
	}
	return vec, nil
}

// EncodeBatch implements domain.BatchTextEncoder.
func (v *TFIDF) EncodeBatch(ctx context.Context, texts []string) ([]domain.SparseVector, error) {
	out := make([]domain.SparseVector, len(texts))
	for i, t := range texts {
		vec, err := v.Encode(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (v *TFIDF) terms(text string) []string {
	text = norm.NFKC.String(text)
	if v.lowercase {
		text = strings.ToLower(text)
	}

	raw := tokenPattern.FindAllString(text, -1)
	tokens := raw[:0]
	for _, t := range raw {
		if _, stop := v.stopWords[t]; !stop {
			tokens = append(tokens, t)
		}
	}

	if v.minN == 1 && v.maxN == 1 {
		return tokens
	}

	terms := make([]string, 0, len(tokens)*(v.maxN-v.minN+1))
	for n := v.minN; n <= v.maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}
