package app

import (
	"os"
	"strings"

	"github.com/hyperifyio/relnotes/internal/rewrite"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	setString := func(dst *string, keys ...string) {
		if *dst != "" {
			return
		}
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	setString(&cfg.DocumentPath, "DOCUMENT_PATH")
	setString(&cfg.DocumentRoot, "DOCUMENT_ROOT")
	// REGIONS is what older job definitions export.
	setString(&cfg.Region, "REGION", "REGIONS")
	setString(&cfg.Version, "VERSION")
	setString(&cfg.ReferencePath, "REFERENCE_CSV")
	setString(&cfg.CountryMarker, "COUNTRY_MARKER")
	setString(&cfg.DescriptionMarker, "DESCRIPTION_MARKER")
	setString(&cfg.DatabaseURL, "DATABASE_URL", "DB_URL")
	setString(&cfg.DBUser, "USER_NAME")
	setString(&cfg.DBPassword, "MTC_AUTOBUILD_PASS")
	setString(&cfg.DBHost, "MTC_AUTOBUILD_HOST")
	setString(&cfg.DBName, "DB_NAME")
	setString(&cfg.ManifestPath, "MANIFEST_PATH")
	setString(&cfg.ReportPDFPath, "REPORT_PDF")

	// Whole values are trimmed; the comma-separated terms inside are not.
	if len(cfg.RemoveWords) == 0 {
		if v := strings.TrimSpace(os.Getenv("REMOVE_WORD")); v != "" {
			cfg.RemoveWords = rewrite.Parse(v, "", "").Keywords()
		}
	}
	if len(cfg.Substitutions) == 0 {
		from := strings.TrimSpace(os.Getenv("CHANGE_PARAMETER1"))
		to := strings.TrimSpace(os.Getenv("CHANGE_PARAMETER2"))
		if from != "" || to != "" {
			cfg.Substitutions = rewrite.Parse("", from, to).Substitutions()
		}
	}

	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			if s == "1" || s == "true" || s == "yes" || s == "on" {
				*dst = true
			}
		}
	}
	setBool(&cfg.DryRun, "DRY_RUN")
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.LogJSON, "LOG_JSON")
}
