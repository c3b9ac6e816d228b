package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperifyio/relnotes/internal/extract"
)

// manifestEntry is a compact record of one extracted country.
type manifestEntry struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Code   string `json:"code,omitempty"`
	Match  string `json:"match"`
	SHA256 string `json:"sha256"`
	Chars  int    `json:"chars"`
}

// manifestMeta captures high-level run details that aid auditing.
type manifestMeta struct {
	RunID          string    `json:"run_id"`
	Document       string    `json:"document"`
	DocumentSHA256 string    `json:"document_sha256"`
	Reference      string    `json:"reference"`
	Version        string    `json:"version"`
	RecordCount    int       `json:"record_count"`
	Unmatched      int       `json:"unmatched"`
	Uploaded       int       `json:"uploaded"`
	Failed         int       `json:"failed"`
	DryRun         bool      `json:"dry_run"`
	BuildVersion   string    `json:"build_version"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// computeSHA256Hex returns a lowercase hex-encoded SHA-256 of the given text.
func computeSHA256Hex(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// buildManifestRecords digests the exact description text of each record.
func buildManifestRecords(res extract.Result) []manifestEntry {
	out := make([]manifestEntry, 0, len(res.Records))
	for i, r := range res.Records {
		match := "none"
		if i < len(res.Matches) {
			match = res.Matches[i].Kind.String()
		}
		out = append(out, manifestEntry{
			Index:  i + 1,
			Name:   strings.TrimSpace(r.Name),
			Code:   r.Code,
			Match:  match,
			SHA256: computeSHA256Hex(r.Description),
			Chars:  len(r.Description),
		})
	}
	return out
}

// marshalManifestJSON encodes a machine-readable sidecar manifest.
func marshalManifestJSON(meta manifestMeta, entries []manifestEntry) ([]byte, error) {
	payload := struct {
		Meta    manifestMeta    `json:"meta"`
		Records []manifestEntry `json:"records"`
	}{Meta: meta, Records: entries}
	return json.MarshalIndent(payload, "", "  ")
}

func writeManifest(path string, meta manifestMeta, entries []manifestEntry) error {
	b, err := marshalManifestJSON(meta, entries)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
