package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/soclens/internal/artifact"
	"github.com/kailas-cloud/soclens/internal/repository/corpus"
)

const testCorpusCSV = `description,threat_type,severity,status,asset_type,asset_owner_department,hour,month,timestamp
Phishing email credential harvest,Phishing,High,Open,Laptop,HR,9,3,2024-03-01 09:12:00
Ransomware encrypted file server,Ransomware,Critical,Investigating,Server,Finance,2,3,2024-03-02 02:40:00
Traffic spike on web tier,DDoS,Medium,Closed,Server,IT,14,4,2024-04-10 14:05:00
`

// severityWidth is text (3) + threat_type one-hot with unknown bucket (3) + hour, month.
const severityWidth = 8

func writeJSON(t *testing.T, dir, name string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
}

// writeArtifacts writes a complete, mutually consistent artifact set.
// A phishing description scores High and flags high/critical.
func writeArtifacts(t *testing.T, dir string, severityCoefWidth int) {
	t.Helper()
	files := artifact.DefaultFiles()

	writeJSON(t, dir, files.TextEncoder, map[string]any{
		"vocabulary": map[string]int{"phishing": 0, "ransomware": 1, "traffic": 2},
		"idf":        []float64{1, 1, 1},
	})
	writeJSON(t, dir, files.CategoricalEncoder, map[string]any{
		"fields":     []string{"threat_type"},
		"categories": [][]string{{"Phishing", "Ransomware"}},
	})
	writeJSON(t, dir, files.NumericScaler, map[string]any{
		"fields": []string{"hour", "month"},
		"mean":   []float64{0, 0},
		"scale":  []float64{1, 1},
	})

	row := func(first float64) []float64 {
		r := make([]float64, severityCoefWidth)
		r[0] = first
		return r
	}
	writeJSON(t, dir, files.SeverityClassifier, map[string]any{
		"classes":   []string{"High", "Low", "Medium"},
		"coef":      [][]float64{row(5), row(0), row(0)},
		"intercept": []float64{0, 1, 0},
	})
	writeJSON(t, dir, files.HighCriticalClassifier, map[string]any{
		"classes":   []int{0, 1},
		"coef":      [][]float64{row(5)},
		"intercept": []float64{-1},
	})
}

func writeCorpus(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "incidents.csv")
	require.NoError(t, os.WriteFile(path, []byte(testCorpusCSV), 0o600))
	return path
}

func newTestSession(t *testing.T, artifactDir string, strict bool) *Session {
	t.Helper()
	return New(Options{
		Artifacts: artifact.NewDirSource(artifactDir),
		Files:     artifact.DefaultFiles(),
		Corpus:    corpus.NewCSVLoader(writeCorpus(t, t.TempDir()), zap.NewNop()),
		Strict:    strict,
	})
}
