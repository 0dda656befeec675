package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// writeJSON marshals v into dir/name.
func writeJSON(t *testing.T, dir, name string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func testVectorizerDoc() map[string]any {
	return map[string]any{
		"vocabulary": map[string]int{
			"credential": 0, "phishing": 1, "via": 2, "hr": 3, "portal": 4,
			"volumetric": 5, "traffic": 6, "spike": 7, "ransom": 8, "note": 9, "found": 10,
		},
		"idf": []float64{1.5, 1.2, 1.0, 1.8, 1.8, 2.0, 1.4, 1.9, 2.1, 1.7, 1.1},
	}
}
