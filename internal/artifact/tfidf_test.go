package artifact

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/soclens/internal/domain"
)

func decodeTestVectorizer(t *testing.T, doc map[string]any) *TFIDF {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	v, err := DecodeTFIDF(data)
	require.NoError(t, err)
	return v
}

func TestTFIDF_EncodeNormalized(t *testing.T) {
	v := decodeTestVectorizer(t, testVectorizerDoc())
	vec, err := v.Encode(context.Background(), "Credential PHISHING via HR portal!")
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 3, 4}, vec.Indices)
	assert.InDelta(t, 1.0, vec.Norm(), 1e-9)
	assert.InDelta(t, 1.0, vec.Dot(vec), 1e-9)
}

func TestTFIDF_BlankIsZero(t *testing.T) {
	v := decodeTestVectorizer(t, testVectorizerDoc())
	for _, text := range []string{"", "   ", "\n\t"} {
		vec, err := v.Encode(context.Background(), text)
		require.NoError(t, err)
		assert.True(t, vec.IsZero())
	}

	vec, err := v.Encode(context.Background(), "zzz qqq")
	require.NoError(t, err)
	assert.True(t, vec.IsZero(), "out-of-vocabulary text encodes to zero")
}

func TestTFIDF_TermFrequencyAndIDF(t *testing.T) {
	doc := testVectorizerDoc()
	doc["norm"] = "none"
	v := decodeTestVectorizer(t, doc)

	vec, err := v.Encode(context.Background(), "ransom ransom note")
	require.NoError(t, err)
	dense := vec.Dense(v.Width())
	assert.InDelta(t, 2*2.1, dense[8], 1e-9)
	assert.InDelta(t, 1.7, dense[9], 1e-9)

	doc["sublinear_tf"] = true
	v = decodeTestVectorizer(t, doc)
	vec, err = v.Encode(context.Background(), "ransom ransom note")
	require.NoError(t, err)
	assert.InDelta(t, (1+math.Log(2))*2.1, vec.Dense(v.Width())[8], 1e-9)
}

func TestTFIDF_SingleCharTokensAndStopWords(t *testing.T) {
	doc := testVectorizerDoc()
	doc["stop_words"] = []string{"via"}
	v := decodeTestVectorizer(t, doc)

	vec, err := v.Encode(context.Background(), "a via portal")
	require.NoError(t, err)
	assert.Equal(t, []int{4}, vec.Indices)
}

func TestTFIDF_Bigrams(t *testing.T) {
	v := decodeTestVectorizer(t, map[string]any{
		"vocabulary":  map[string]int{"ransom": 0, "ransom note": 1, "note": 2},
		"idf":         []float64{1, 1, 1},
		"ngram_range": []int{1, 2},
		"norm":        "none",
	})
	vec, err := v.Encode(context.Background(), "Ransom note")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, vec.Indices)
}

func TestTFIDF_IdentityStable(t *testing.T) {
	a := decodeTestVectorizer(t, testVectorizerDoc())
	b := decodeTestVectorizer(t, testVectorizerDoc())
	assert.Equal(t, a.Identity(), b.Identity())
	assert.Equal(t, 11, a.Width())
}

func TestDecodeTFIDF_Malformed(t *testing.T) {
	tests := map[string]string{
		"not json":         `{`,
		"empty":            `{"vocabulary":{},"idf":[]}`,
		"idf length":       `{"vocabulary":{"a":0,"b":1},"idf":[1]}`,
		"column range":     `{"vocabulary":{"a":0,"b":5},"idf":[1,1]}`,
		"duplicate col":    `{"vocabulary":{"a":0,"b":0},"idf":[1,1]}`,
		"bad ngram":        `{"vocabulary":{"a":0},"idf":[1],"ngram_range":[2,1]}`,
		"unsupported norm": `{"vocabulary":{"a":0},"idf":[1],"norm":"l1"}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeTFIDF([]byte(doc))
			require.ErrorIs(t, err, domain.ErrArtifactMalformed)
		})
	}
}

func TestTFIDF_CompatibilityFormsFoldBeforeMatching(t *testing.T) {
	v := decodeTestVectorizer(t, testVectorizerDoc())

	plain, err := v.Encode(context.Background(), "phishing")
	require.NoError(t, err)
	fullWidth, err := v.Encode(context.Background(), "ＰＨＩＳＨＩＮＧ")
	require.NoError(t, err)

	require.False(t, plain.IsZero())
	assert.Equal(t, plain, fullWidth)
}
