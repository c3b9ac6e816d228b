package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/relnotes/internal/app"
	"github.com/hyperifyio/relnotes/internal/rewrite"
)

// options holds the raw flag values shared by all commands.
type options struct {
	input             string
	documentRoot      string
	region            string
	dataVersion       string
	reference         string
	remove            string
	from              string
	to                string
	countryMarker     string
	descriptionMarker string
	database          string
	manifest          string
	reportPDF         string
	dryRun            bool
	verbose           bool
	logJSON           bool
	envFiles          []string
	configFile        string
}

func newRootCommand() *cobra.Command {
	var opts options

	rootCmd := &cobra.Command{
		Use:           "relnotes",
		Short:         "Extract per-country release notes and upload them by ISO code",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if err := app.ValidateConfig(cfg); err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}
			a.SetOutput(cmd.OutOrStdout())
			return a.Run(cmd.Context())
		},
	}

	f := rootCmd.PersistentFlags()
	f.StringVar(&opts.input, "input", "", "Path to the highlights HTML document (overrides the derived path)")
	f.StringVar(&opts.documentRoot, "document-root", "", "Root of the published source tree (env DOCUMENT_ROOT)")
	f.StringVar(&opts.region, "region", "", "Region code, e.g. EUR (env REGION)")
	f.StringVar(&opts.dataVersion, "data-version", "", "Data source version (env VERSION)")
	f.StringVar(&opts.reference, "reference", "", "ISO code to country name CSV (env REFERENCE_CSV)")
	f.StringVar(&opts.remove, "remove", "", "Comma-separated keywords removed from descriptions (env REMOVE_WORD)")
	f.StringVar(&opts.from, "from", "", "Comma-separated terms to replace (env CHANGE_PARAMETER1)")
	f.StringVar(&opts.to, "to", "", "Comma-separated replacements, paired with --from (env CHANGE_PARAMETER2)")
	f.StringVar(&opts.countryMarker, "country-marker", "", "Country heading as tag.class (default h2.CountryName)")
	f.StringVar(&opts.descriptionMarker, "description-marker", "", "Description list as tag.class (default ul.CountryRemark)")
	f.StringVar(&opts.database, "db", "", "Database URL: postgres://... or a SQLite path (env DATABASE_URL)")
	f.StringVar(&opts.manifest, "manifest", "", "Write a JSON run manifest to this path")
	f.StringVar(&opts.reportPDF, "report.pdf", "", "Write the listing as PDF to this path")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Extract and report only; do not touch the database")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")
	f.BoolVar(&opts.logJSON, "log.json", false, "Log JSON lines even on a terminal")
	f.StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "Dotenv files loaded before reading the environment")
	f.StringVarP(&opts.configFile, "config", "c", "", "Configuration file (YAML, JSON or TOML)")

	rootCmd.AddCommand(newResolveCommand(&opts))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// loadConfig layers flags over environment over the config file over
// built-in defaults, and sets up logging from the result.
func loadConfig(opts options) (app.Config, error) {
	if err := app.LoadEnvFiles(opts.envFiles...); err != nil {
		return app.Config{}, fmt.Errorf("env files: %w", err)
	}

	cfg := app.Config{
		DocumentPath:      opts.input,
		DocumentRoot:      opts.documentRoot,
		Region:            opts.region,
		Version:           opts.dataVersion,
		ReferencePath:     opts.reference,
		CountryMarker:     opts.countryMarker,
		DescriptionMarker: opts.descriptionMarker,
		DatabaseURL:       opts.database,
		ManifestPath:      opts.manifest,
		ReportPDFPath:     opts.reportPDF,
		DryRun:            opts.dryRun,
		Verbose:           opts.verbose,
		LogJSON:           opts.logJSON,
	}
	rules := rewrite.Parse(opts.remove, opts.from, opts.to)
	cfg.RemoveWords = rules.Keywords()
	cfg.Substitutions = rules.Substitutions()

	app.ApplyEnvToConfig(&cfg)
	if strings.TrimSpace(opts.configFile) != "" {
		fc, err := app.LoadConfigFile(opts.configFile)
		if err != nil {
			return app.Config{}, fmt.Errorf("config file %s: %w", opts.configFile, err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyDefaults(&cfg)

	setupLogging(cfg.LogJSON, cfg.Verbose)
	return cfg, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), app.BuildString())
			return nil
		},
	}
}
