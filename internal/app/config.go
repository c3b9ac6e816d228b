package app

import "github.com/hyperifyio/relnotes/internal/rewrite"

// Config holds runtime configuration for the application.
type Config struct {
	// Input document. DocumentPath wins over the path derived from
	// DocumentRoot, Region and Version.
	DocumentPath string
	DocumentRoot string
	Region       string
	Version      string

	// ReferencePath is the ISO code → country name CSV.
	ReferencePath string

	// Rewrite rules applied to every description line.
	RemoveWords   []string
	Substitutions []rewrite.Substitution

	// Document markers as "tag.class".
	CountryMarker     string
	DescriptionMarker string

	// Persistence. DatabaseURL wins over the legacy credential fields.
	DatabaseURL string
	DBUser      string
	DBPassword  string
	DBHost      string
	DBName      string

	// Optional outputs
	ManifestPath  string
	ReportPDFPath string

	// Behavior
	DryRun  bool
	Verbose bool
	LogJSON bool
}

const (
	defaultDocumentRoot      = "/share/nds-sources/products/commercial"
	defaultReferencePath     = "Country-names.csv"
	defaultCountryMarker     = "h2.CountryName"
	defaultDescriptionMarker = "ul.CountryRemark"
)

// ApplyDefaults fills the fields that have a built-in default and are still
// unset. It runs after flags, environment and config file were applied.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	if trim(cfg.DocumentRoot) == "" {
		cfg.DocumentRoot = defaultDocumentRoot
	}
	if trim(cfg.ReferencePath) == "" {
		cfg.ReferencePath = defaultReferencePath
	}
	if trim(cfg.CountryMarker) == "" {
		cfg.CountryMarker = defaultCountryMarker
	}
	if trim(cfg.DescriptionMarker) == "" {
		cfg.DescriptionMarker = defaultDescriptionMarker
	}
}

// Rules compiles the configured rewrite rules.
func (c Config) Rules() rewrite.Rules {
	return rewrite.New(c.RemoveWords, c.Substitutions)
}
