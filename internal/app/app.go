package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/relnotes/internal/extract"
	"github.com/hyperifyio/relnotes/internal/reference"
	"github.com/hyperifyio/relnotes/internal/resolve"
	"github.com/hyperifyio/relnotes/internal/store"
)

var (
	// ErrUnresolvedCountries is returned when at least one record has no
	// usable ISO code. Nothing is persisted in that case.
	ErrUnresolvedCountries = errors.New("unresolved countries")
	// ErrPartialUpload is returned after a batch in which some upserts failed.
	ErrPartialUpload = errors.New("partial upload")
)

// App runs one extraction and upload for a configured document.
type App struct {
	cfg      Config
	table    reference.Table
	resolver *resolve.Resolver

	openStore func(ctx context.Context, dsn string) (store.Store, error)
	out       io.Writer
	runID     string
}

// New loads the reference table. A table that cannot be loaded is fatal.
func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	table, err := reference.Load(cfg.ReferencePath)
	if err != nil {
		return nil, err
	}
	log.Info().Str("stage", "reference").Int("entries", len(table)).Int64("elapsed_ms", time.Since(start).Milliseconds()).Msg("reference table loaded")
	return &App{
		cfg:       cfg,
		table:     table,
		resolver:  resolve.New(table),
		openStore: store.Open,
		out:       os.Stdout,
		runID:     uuid.NewString(),
	}, nil
}

// SetOutput redirects the operator report. Defaults to stdout.
func (a *App) SetOutput(w io.Writer) { a.out = w }

// Resolve looks a single country name up in the loaded reference table.
func (a *App) Resolve(name string) resolve.Match { return a.resolver.Resolve(name) }

// RunID identifies this run in logs and the manifest.
func (a *App) RunID() string { return a.runID }

// runStats is what a run did, reported in the footer and manifest.
type runStats struct {
	uploaded int
	failed   int
	gated    bool
}

// Run extracts the document, prints the report and, when every record is
// resolved, upserts the records. The listing is printed even when the
// persistence gate or the store fails.
func (a *App) Run(ctx context.Context) error {
	start := time.Now()
	logger := log.With().Str("run_id", a.runID).Logger()

	path := a.cfg.DocumentFile()
	doc, err := extract.ReadDocument(path)
	if err != nil {
		return err
	}
	rules := a.cfg.Rules()
	if rules.Empty() {
		logger.Debug().Str("stage", "extract").Msg("no rewrite rules configured")
	}
	ex := extract.Extractor{
		Resolver: a.resolver,
		Options: extract.Options{
			Country:     extract.ParseMarker(a.cfg.CountryMarker),
			Description: extract.ParseMarker(a.cfg.DescriptionMarker),
		},
		Rules: rules,
	}
	t := time.Now()
	res, err := ex.Extract(doc)
	if err != nil {
		return err
	}
	logger.Info().Str("stage", "extract").Str("document", path).Str("version", res.Version).
		Int("records", len(res.Records)).Int("unmatched", len(res.Unmatched)).
		Bool("rewrite_rules", !rules.Empty()).
		Int64("elapsed_ms", time.Since(t).Milliseconds()).Msg("document extracted")

	fmt.Fprintf(a.out, "Total Country Count: %d\n", len(res.Records))

	var stats runStats
	var runErr error
	gate := checkResolution(res)
	switch {
	case !gate.ok():
		stats.gated = true
		writeGateReport(a.out, gate)
		logger.Error().Str("stage", "validate").Strs("unmatched", gate.Unmatched).Int("duplicate_codes", len(gate.Duplicates)).Msg("persistence refused")
		runErr = fmt.Errorf("%w: %d unmatched, %d duplicate codes", ErrUnresolvedCountries, len(gate.Unmatched), len(gate.Duplicates))
	case a.cfg.DryRun:
		logger.Info().Str("stage", "persist").Msg("dry run; upload skipped")
	default:
		fmt.Fprintln(a.out, "Uploading data to the database...")
		t = time.Now()
		stats.uploaded, stats.failed, err = a.persist(ctx, res.Records)
		logger.Info().Str("stage", "persist").Int("uploaded", stats.uploaded).Int("failed", stats.failed).
			Int64("elapsed_ms", time.Since(t).Milliseconds()).Msg("upload finished")
		switch {
		case err != nil:
			runErr = err
		case stats.failed > 0:
			runErr = fmt.Errorf("%w: %d of %d records failed", ErrPartialUpload, stats.failed, len(res.Records))
		}
	}

	writeListing(a.out, res.Records)
	fmt.Fprintln(a.out, renderSummaryTable(res))
	fmt.Fprint(a.out, runFooter(a.runID, res, stats, a.cfg.DryRun))

	if a.cfg.ManifestPath != "" {
		meta := manifestMeta{
			RunID:          a.runID,
			Document:       path,
			DocumentSHA256: computeSHA256Hex(string(doc)),
			Reference:      a.cfg.ReferencePath,
			Version:        res.Version,
			RecordCount:    len(res.Records),
			Unmatched:      len(res.Unmatched),
			Uploaded:       stats.uploaded,
			Failed:         stats.failed,
			DryRun:         a.cfg.DryRun,
			BuildVersion:   BuildVersion,
			GeneratedAt:    time.Now().UTC(),
		}
		if err := writeManifest(a.cfg.ManifestPath, meta, buildManifestRecords(res)); err != nil {
			logger.Warn().Err(err).Str("path", a.cfg.ManifestPath).Msg("manifest write failed")
		}
	}
	if a.cfg.ReportPDFPath != "" {
		if err := writeSimplePDF(renderReportMarkdown(res), a.cfg.ReportPDFPath); err != nil {
			logger.Warn().Err(err).Str("path", a.cfg.ReportPDFPath).Msg("pdf write failed")
		}
	}

	logger.Info().Int64("elapsed_ms", time.Since(start).Milliseconds()).Msg("run finished")
	return runErr
}

// persist opens the store once and upserts records in order. A failed
// record is logged and counted; the batch continues.
func (a *App) persist(ctx context.Context, records []extract.Record) (uploaded, failed int, err error) {
	st, err := a.openStore(ctx, a.cfg.DatabaseDSN())
	if err != nil {
		return 0, 0, fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			log.Warn().Err(cerr).Str("stage", "persist").Msg("store close failed")
		}
	}()
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return uploaded, failed, err
		}
		n := store.Note{Version: r.Version, Country: r.Code, Highlights: r.Description}
		if err := st.Upsert(ctx, n); err != nil {
			failed++
			log.Error().Err(err).Str("stage", "persist").Str("country", r.Code).Str("name", r.Name).Msg("upsert failed")
			continue
		}
		uploaded++
		log.Debug().Str("stage", "persist").Str("country", r.Code).Str("version", r.Version).Msg("record upserted")
	}
	return uploaded, failed, nil
}
