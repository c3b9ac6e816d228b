// Package reference loads the ISO code → canonical country name table used
// to resolve free-text country names.
package reference

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrLoad is returned when the reference table cannot be opened or parsed.
// The resolver cannot run without it, so callers treat it as fatal.
var ErrLoad = errors.New("reference table load failed")

// Entry maps one ISO code to its canonical country name.
type Entry struct {
	Code string
	Name string
}

// Table is the ordered set of entries. Order matters: the resolver returns
// the first matching entry.
type Table []Entry

// Load reads the CSV reference table at path. The first row is a header and
// is skipped; the first two columns are the ISO code and the canonical name.
func Load(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrLoad, path, err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debug().Str("stage", "reference").Str("path", path).Int("entries", len(t)).Msg("reference table loaded")
	return t, nil
}

// Read parses a reference table from r.
func Read(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing header row", ErrLoad)
		}
		return nil, fmt.Errorf("%w: read header: %v", ErrLoad, err)
	}

	var t Table
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoad, err)
		}
		if len(row) < 2 {
			line, _ := cr.FieldPos(0)
			log.Debug().Str("stage", "reference").Int("line", line).Msg("skipping short row")
			continue
		}
		e := Entry{Code: strings.TrimSpace(row[0]), Name: strings.TrimSpace(row[1])}
		if e.Code == "" || e.Name == "" {
			line, _ := cr.FieldPos(0)
			log.Debug().Str("stage", "reference").Int("line", line).Msg("skipping row with empty code or name")
			continue
		}
		t = append(t, e)
	}
	return t, nil
}
