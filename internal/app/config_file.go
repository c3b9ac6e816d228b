package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/relnotes/internal/extract"
	"github.com/hyperifyio/relnotes/internal/rewrite"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
	Document struct {
		Path    string `yaml:"path" json:"path" toml:"path"`
		Root    string `yaml:"root" json:"root" toml:"root"`
		Region  string `yaml:"region" json:"region" toml:"region"`
		Version string `yaml:"version" json:"version" toml:"version"`
	} `yaml:"document" json:"document" toml:"document"`

	Reference struct {
		Path string `yaml:"path" json:"path" toml:"path"`
	} `yaml:"reference" json:"reference" toml:"reference"`

	Markers struct {
		Country     string `yaml:"country" json:"country" toml:"country"`
		Description string `yaml:"description" json:"description" toml:"description"`
	} `yaml:"markers" json:"markers" toml:"markers"`

	Rewrite struct {
		Remove     []string `yaml:"remove" json:"remove" toml:"remove"`
		Substitute []struct {
			From string `yaml:"from" json:"from" toml:"from"`
			To   string `yaml:"to" json:"to" toml:"to"`
		} `yaml:"substitute" json:"substitute" toml:"substitute"`
	} `yaml:"rewrite" json:"rewrite" toml:"rewrite"`

	Database struct {
		URL      string `yaml:"url" json:"url" toml:"url"`
		User     string `yaml:"user" json:"user" toml:"user"`
		Password string `yaml:"password" json:"password" toml:"password"`
		Host     string `yaml:"host" json:"host" toml:"host"`
		Name     string `yaml:"name" json:"name" toml:"name"`
	} `yaml:"database" json:"database" toml:"database"`

	Output struct {
		Manifest  string `yaml:"manifest" json:"manifest" toml:"manifest"`
		ReportPDF string `yaml:"reportPDF" json:"reportPDF" toml:"reportPDF"`
	} `yaml:"output" json:"output" toml:"output"`

	DryRun  bool `yaml:"dryRun" json:"dryRun" toml:"dryRun"`
	Verbose bool `yaml:"verbose" json:"verbose" toml:"verbose"`
	LogJSON bool `yaml:"logJSON" json:"logJSON" toml:"logJSON"`
}

// LoadConfigFile reads YAML, JSON or TOML into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse toml: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields
// that are still unset after flags and environment were applied.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
		}
	}
	setString(&cfg.DocumentPath, fc.Document.Path)
	setString(&cfg.DocumentRoot, fc.Document.Root)
	setString(&cfg.Region, fc.Document.Region)
	setString(&cfg.Version, fc.Document.Version)
	setString(&cfg.ReferencePath, fc.Reference.Path)
	setString(&cfg.CountryMarker, fc.Markers.Country)
	setString(&cfg.DescriptionMarker, fc.Markers.Description)
	setString(&cfg.DatabaseURL, fc.Database.URL)
	setString(&cfg.DBUser, fc.Database.User)
	setString(&cfg.DBPassword, fc.Database.Password)
	setString(&cfg.DBHost, fc.Database.Host)
	setString(&cfg.DBName, fc.Database.Name)
	setString(&cfg.ManifestPath, fc.Output.Manifest)
	setString(&cfg.ReportPDFPath, fc.Output.ReportPDF)

	if len(cfg.RemoveWords) == 0 && len(fc.Rewrite.Remove) > 0 {
		cfg.RemoveWords = append([]string{}, fc.Rewrite.Remove...)
	}
	if len(cfg.Substitutions) == 0 && len(fc.Rewrite.Substitute) > 0 {
		for _, s := range fc.Rewrite.Substitute {
			cfg.Substitutions = append(cfg.Substitutions, rewrite.Substitution{From: s.From, To: s.To})
		}
	}

	if !cfg.DryRun && fc.DryRun {
		cfg.DryRun = true
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
	if !cfg.LogJSON && fc.LogJSON {
		cfg.LogJSON = true
	}
}

// ValidateConfig performs minimal validation of required settings. Dry runs
// need no database.
func ValidateConfig(cfg Config) error {
	var errs []error
	if trim(cfg.ReferencePath) == "" {
		errs = append(errs, errors.New("config: reference table path is required (or set REFERENCE_CSV)"))
	}
	if trim(cfg.DocumentPath) == "" && (trim(cfg.Region) == "" || trim(cfg.Version) == "") {
		errs = append(errs, errors.New("config: either an input document or both REGION and VERSION are required"))
	}
	if !cfg.DryRun && cfg.DatabaseDSN() == "" {
		errs = append(errs, errors.New("config: database is required (set DATABASE_URL, the legacy DB credentials, or use --dry-run)"))
	}
	for _, m := range []string{cfg.CountryMarker, cfg.DescriptionMarker} {
		if m != "" && extract.ParseMarker(m).Tag == "" {
			errs = append(errs, fmt.Errorf("config: marker %q has no tag", m))
		}
	}
	return errors.Join(errs...)
}

func trim(s string) string {
	i := 0
	j := len(s)
	for i < j && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	for j > i && (s[j-1] == ' ' || s[j-1] == '\t' || s[j-1] == '\n' || s[j-1] == '\r') {
		j--
	}
	return s[i:j]
}
