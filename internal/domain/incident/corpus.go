package incident

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Corpus is an immutable snapshot of incident records.
// Filtering produces a new view; the original is never mutated.
type Corpus struct {
	source      string
	records     []Record
	schema      Schema
	fingerprint string
}

// NewCorpus creates a corpus snapshot. Records keep the order given.
func NewCorpus(source string, schema Schema, records []Record) Corpus {
	recs := make([]Record, len(records))
	copy(recs, records)
	return Corpus{
		source:      source,
		records:     recs,
		schema:      schema,
		fingerprint: fingerprint(recs),
	}
}

// Source describes where the corpus was loaded from.
func (c Corpus) Source() string { return c.source }

// Schema returns the column presence flags.
func (c Corpus) Schema() Schema { return c.schema }

// Len returns the number of records.
func (c Corpus) Len() int { return len(c.records) }

// At returns the i-th record.
func (c Corpus) At(i int) Record { return c.records[i] }

// Records returns a copy of the record slice.
func (c Corpus) Records() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Descriptions returns the description of every record in corpus order ("" for missing).
func (c Corpus) Descriptions() []string {
	out := make([]string, len(c.records))
	for i := range c.records {
		out[i] = c.records[i].Description()
	}
	return out
}

// Fingerprint identifies the corpus content relevant to text encoding.
func (c Corpus) Fingerprint() string { return c.fingerprint }

// Filter returns a new view containing only matching records, in original order.
func (c Corpus) Filter(f Filter) Corpus {
	if f.IsEmpty() {
		return c
	}
	out := make([]Record, 0, len(c.records))
	for i := range c.records {
		if f.matches(&c.records[i], c.schema) {
			out = append(out, c.records[i])
		}
	}
	return Corpus{
		source:      c.source,
		records:     out,
		schema:      c.schema,
		fingerprint: fingerprint(out),
	}
}

func fingerprint(records []Record) string {
	h := sha256.New()
	var lenBuf [8]byte
	for i := range records {
		d := records[i].Description()
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(d)))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.Write([]byte(d))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
