package app

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/relnotes/internal/extract"
	"github.com/hyperifyio/relnotes/internal/reference"
	"github.com/hyperifyio/relnotes/internal/rewrite"
	"github.com/hyperifyio/relnotes/internal/store"
)

const (
	fixtureDocument  = "testdata/highlights.html"
	fixtureReference = "testdata/Country-names.csv"

	argentinaHighlights = "Added 1200 mi of new roads in Patagonia.\n Updated speed limits."
)

// recordingStore keeps upserted notes in memory and fails for the codes in
// failOn.
type recordingStore struct {
	notes  []store.Note
	failOn map[string]bool
	closed bool
}

func (s *recordingStore) Upsert(_ context.Context, n store.Note) error {
	if s.failOn[n.Country] {
		return errors.New("connection reset")
	}
	s.notes = append(s.notes, n)
	return nil
}

func (s *recordingStore) Close() error {
	s.closed = true
	return nil
}

func fixtureConfig() Config {
	return Config{
		DocumentPath:  fixtureDocument,
		ReferencePath: fixtureReference,
		RemoveWords:   []string{"Foo"},
		DatabaseURL:   "postgres://unused.invalid/notes",
	}
}

// newTestApp returns an app writing its report to out and persisting into
// the returned recordingStore.
func newTestApp(t *testing.T, cfg Config) (*App, *recordingStore, *bytes.Buffer, *int) {
	t.Helper()
	if cfg.Substitutions == nil {
		cfg.Substitutions = fixtureSubstitutions()
	}
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	rec := &recordingStore{}
	opened := 0
	a.openStore = func(context.Context, string) (store.Store, error) {
		opened++
		return rec, nil
	}
	var out bytes.Buffer
	a.SetOutput(&out)
	return a, rec, &out, &opened
}

func writeReference(t *testing.T, rows string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "Country-names.csv")
	require.NoError(t, os.WriteFile(p, []byte("Code,Country\n"+rows), 0o644))
	return p
}

func writeDocument(t *testing.T, html string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "highlights.html")
	require.NoError(t, os.WriteFile(p, []byte(html), 0o644))
	return p
}

func TestRun_UploadsResolvedRecords(t *testing.T) {
	a, rec, out, opened := newTestApp(t, fixtureConfig())

	require.NoError(t, a.Run(context.Background()))

	assert.Equal(t, 1, *opened, "store is opened once per run")
	assert.True(t, rec.closed)
	require.Len(t, rec.notes, 2)
	assert.Equal(t, store.Note{Version: "2024.09", Country: "AR", Highlights: argentinaHighlights}, rec.notes[0])
	assert.Equal(t, "BR", rec.notes[1].Country)
	assert.Equal(t, "Improved POI coverage in São Paulo.", rec.notes[1].Highlights)

	report := out.String()
	assert.Contains(t, report, "Total Country Count: 2\n")
	assert.Contains(t, report, "Uploading data to the database...")
	assert.Contains(t, report, "Country Name: Argentina, ISO Code: AR, Version: 2024.09\nDescription: "+argentinaHighlights)
	assert.Contains(t, report, "Country Name: Brazil, ISO Code: BR, Version: 2024.09")
	assert.NotContains(t, report, "General")
	assert.Contains(t, report, "uploaded=2; failed=0; gated=false")
}

func TestRun_UnmatchedCountryBlocksPersistence(t *testing.T) {
	cfg := fixtureConfig()
	cfg.ReferencePath = writeReference(t, "AR,Argentina\nDE,Germany\n")
	a, rec, out, opened := newTestApp(t, cfg)

	err := a.Run(context.Background())
	require.ErrorIs(t, err, ErrUnresolvedCountries)

	assert.Zero(t, *opened)
	assert.Empty(t, rec.notes)

	report := out.String()
	assert.Contains(t, report, "Total Country Count: 2\n")
	assert.Contains(t, report, "ERROR: The following countries have no matching ISO codes in the CSV file. Please update the CSV and retry:\n- Brazil\n")
	assert.NotContains(t, report, "Uploading data")
	// The listing is still printed, with Brazil's code absent.
	assert.Contains(t, report, "Country Name: Brazil, ISO Code: None, Version: 2024.09")
	assert.Contains(t, report, "Country Name: Argentina, ISO Code: AR")
	assert.Less(t, strings.Index(report, "- Brazil"), strings.Index(report, listingSeparator))
}

func TestRun_DuplicateCodesBlockPersistence(t *testing.T) {
	cfg := fixtureConfig()
	cfg.DocumentPath = writeDocument(t, `<html><head><title>MN Highlights 2025.03</title></head><body>
<h2 class="CountryName">Argentina</h2><ul class="CountryRemark"><li>One</li></ul>
<h2 class="CountryName">Argentina (mainland)</h2><ul class="CountryRemark"><li>Two</li></ul>
</body></html>`)
	a, rec, out, opened := newTestApp(t, cfg)

	err := a.Run(context.Background())
	require.ErrorIs(t, err, ErrUnresolvedCountries)
	assert.Zero(t, *opened)
	assert.Empty(t, rec.notes)
	assert.Contains(t, out.String(), "- AR: Argentina, Argentina (mainland)\n")
}

func TestRun_PartialUploadContinuesBatch(t *testing.T) {
	a, rec, out, _ := newTestApp(t, fixtureConfig())
	rec.failOn = map[string]bool{"AR": true}

	err := a.Run(context.Background())
	require.ErrorIs(t, err, ErrPartialUpload)
	assert.Contains(t, err.Error(), "1 of 2 records failed")

	require.Len(t, rec.notes, 1)
	assert.Equal(t, "BR", rec.notes[0].Country)
	assert.True(t, rec.closed)
	assert.Contains(t, out.String(), "uploaded=1; failed=1")
}

func TestRun_StoreOpenFailureStillPrintsListing(t *testing.T) {
	a, _, out, _ := newTestApp(t, fixtureConfig())
	a.openStore = func(context.Context, string) (store.Store, error) {
		return nil, errors.New("dial tcp: connection refused")
	}

	err := a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open store")
	assert.False(t, errors.Is(err, ErrPartialUpload))
	assert.Contains(t, out.String(), "Country Name: Brazil, ISO Code: BR")
}

func TestRun_DryRunSkipsStore(t *testing.T) {
	cfg := fixtureConfig()
	cfg.DryRun = true
	cfg.DatabaseURL = ""
	a, rec, out, opened := newTestApp(t, cfg)

	require.NoError(t, a.Run(context.Background()))
	assert.Zero(t, *opened)
	assert.Empty(t, rec.notes)
	assert.NotContains(t, out.String(), "Uploading data")
	assert.Contains(t, out.String(), "dry_run=true")
}

func TestRun_FatalErrorsProduceNoReport(t *testing.T) {
	t.Run("document not found", func(t *testing.T) {
		cfg := fixtureConfig()
		cfg.DocumentPath = filepath.Join(t.TempDir(), "missing.html")
		a, rec, out, _ := newTestApp(t, cfg)

		err := a.Run(context.Background())
		require.ErrorIs(t, err, extract.ErrDocumentNotFound)
		assert.Contains(t, err.Error(), cfg.DocumentPath)
		assert.Empty(t, out.String())
		assert.Empty(t, rec.notes)
	})
	t.Run("mismatch", func(t *testing.T) {
		cfg := fixtureConfig()
		cfg.DocumentPath = writeDocument(t, `<html><head><title>MN Highlights 2025.03</title></head><body>
<h2 class="CountryName">Argentina</h2><ul class="CountryRemark"><li>One</li></ul>
<h2 class="CountryName">Brazil</h2><ul class="CountryRemark"><li>Two</li></ul>
<h2 class="CountryName">Germany</h2>
</body></html>`)
		a, rec, out, _ := newTestApp(t, cfg)

		err := a.Run(context.Background())
		require.ErrorIs(t, err, extract.ErrMismatch)
		assert.Empty(t, out.String())
		assert.Empty(t, rec.notes)
	})
}

func TestNew_MissingReferenceIsFatal(t *testing.T) {
	cfg := fixtureConfig()
	cfg.ReferencePath = filepath.Join(t.TempDir(), "absent.csv")
	_, err := New(context.Background(), cfg)
	require.ErrorIs(t, err, reference.ErrLoad)
	assert.Contains(t, err.Error(), "absent.csv")
}

func TestRun_DerivedDocumentPath(t *testing.T) {
	root := t.TempDir()
	cfg := fixtureConfig()
	cfg.DocumentPath = ""
	cfg.DocumentRoot = root
	cfg.Region = "EUR"
	cfg.Version = "2024.09"

	target := cfg.DocumentFile()
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	b, err := os.ReadFile(fixtureDocument)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(target, b, 0o644))

	a, rec, _, _ := newTestApp(t, cfg)
	require.NoError(t, a.Run(context.Background()))
	assert.Len(t, rec.notes, 2)
}

func TestRun_WritesManifestAndPDF(t *testing.T) {
	dir := t.TempDir()
	cfg := fixtureConfig()
	cfg.ManifestPath = filepath.Join(dir, "out", "run.manifest.json")
	cfg.ReportPDFPath = filepath.Join(dir, "listing.pdf")
	a, _, _, _ := newTestApp(t, cfg)

	require.NoError(t, a.Run(context.Background()))

	raw, err := os.ReadFile(cfg.ManifestPath)
	require.NoError(t, err)
	var payload struct {
		Meta    manifestMeta    `json:"meta"`
		Records []manifestEntry `json:"records"`
	}
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, a.RunID(), payload.Meta.RunID)
	assert.Equal(t, "2024.09", payload.Meta.Version)
	assert.Equal(t, 2, payload.Meta.RecordCount)
	assert.Equal(t, 2, payload.Meta.Uploaded)
	assert.Len(t, payload.Meta.DocumentSHA256, 64)
	require.Len(t, payload.Records, 2)
	assert.Equal(t, "AR", payload.Records[0].Code)
	assert.Equal(t, "exact", payload.Records[0].Match)
	assert.Equal(t, computeSHA256Hex(argentinaHighlights), payload.Records[0].SHA256)

	pdf, err := os.ReadFile(cfg.ReportPDFPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}

func TestRun_SQLiteEndToEnd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "notes.db")
	cfg := fixtureConfig()
	cfg.DatabaseURL = dbPath
	cfg.Substitutions = fixtureSubstitutions()
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	a.SetOutput(&bytes.Buffer{})

	// A second run overwrites rather than duplicates.
	require.NoError(t, a.Run(context.Background()))
	require.NoError(t, a.Run(context.Background()))

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM release_notes`).Scan(&count))
	assert.Equal(t, 2, count)

	var highlights string
	require.NoError(t, db.QueryRow(`SELECT highlights FROM release_notes WHERE data_source_version = ? AND country = ?`, "2024.09", "AR").Scan(&highlights))
	assert.Equal(t, argentinaHighlights, highlights)
}

// Each pipeline stage logs with a stage field so runs are auditable.
func TestOperationalLogs_Stages(t *testing.T) {
	var buf bytes.Buffer
	oldLogger := log.Logger
	log.Logger = zerolog.New(&buf).With().Timestamp().Logger()
	t.Cleanup(func() { log.Logger = oldLogger })

	a, _, _, _ := newTestApp(t, fixtureConfig())
	require.NoError(t, a.Run(context.Background()))

	logs := buf.String()
	for _, stage := range []string{`"stage":"reference"`, `"stage":"extract"`, `"stage":"persist"`} {
		assert.Contains(t, logs, stage)
	}
	assert.Contains(t, logs, `"run_id":"`+a.RunID()+`"`)
	assert.Contains(t, logs, `"elapsed_ms":`)
	assert.Contains(t, logs, `"rewrite_rules":true`)
}

func TestCheckResolution(t *testing.T) {
	res := extract.Result{
		Records: []extract.Record{
			{Name: "Argentina", Code: "AR"},
			{Name: "Atlantis"},
			{Name: "Brazil", Code: "BR"},
			{Name: "Argentine Republic", Code: "AR"},
		},
		Unmatched: []string{"Atlantis"},
	}
	g := checkResolution(res)
	assert.False(t, g.ok())
	assert.Equal(t, []string{"Atlantis"}, g.Unmatched)
	assert.Equal(t, []duplicateCode{{Code: "AR", Names: []string{"Argentina", "Argentine Republic"}}}, g.Duplicates)

	assert.True(t, checkResolution(extract.Result{Records: []extract.Record{{Name: "Brazil", Code: "BR"}}}).ok())
}

func TestRunFooter(t *testing.T) {
	res := extract.Result{Version: "2024.09", Records: make([]extract.Record, 3), Unmatched: []string{"Atlantis"}}
	got := runFooter("run-1", res, runStats{gated: true}, false)
	assert.Equal(t, "Run: id=run-1; version=2024.09; records=3; unmatched=1; uploaded=0; failed=0; gated=true; dry_run=false\n", got)
}

func TestRenderSummaryTable(t *testing.T) {
	a, _, _, _ := newTestApp(t, fixtureConfig())
	b, err := os.ReadFile(fixtureDocument)
	require.NoError(t, err)
	ex := extract.Extractor{Resolver: a.resolver}
	res, err := ex.Extract(b)
	require.NoError(t, err)

	tbl := renderSummaryTable(res)
	assert.Contains(t, tbl, "Argentina")
	assert.Contains(t, tbl, "exact")
	assert.Contains(t, tbl, "version 2024.09")
}

func TestRenderReportMarkdown(t *testing.T) {
	res := extract.Result{Version: "2024.09", Records: []extract.Record{
		{Name: "Atlantis", Description: "Sunk\n Rebuilt"},
	}}
	md := renderReportMarkdown(res)
	assert.Contains(t, md, "# Release notes 2024.09\n")
	assert.Contains(t, md, "## Atlantis (None)\n\n- Sunk\n- Rebuilt\n")
}

func fixtureSubstitutions() []rewrite.Substitution {
	return []rewrite.Substitution{{From: "km", To: "mi"}}
}
