package extract

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/hyperifyio/relnotes/internal/resolve"
	"github.com/hyperifyio/relnotes/internal/rewrite"
	"github.com/hyperifyio/relnotes/internal/sanitize"
)

// UnknownVersion is used when the title does not carry a version token.
const UnknownVersion = "Unknown"

// generalSection is the preamble block some documents open with.
const generalSection = "general"

var (
	// ErrDocumentNotFound is returned when the input document cannot be read.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrMismatch is returned when country blocks and description blocks
	// cannot be paired one to one.
	ErrMismatch = errors.New("country and description blocks do not match")
)

// Record is one country entry of the release notes.
type Record struct {
	Name    string
	Version string
	// Code is the resolved ISO code; empty when unresolved.
	Code        string
	Description string
}

func (r Record) String() string {
	return fmt.Sprintf("Country Name: %s, ISO Code: %s, Version: %s\nDescription: %s", r.Name, codeOrNone(r.Code), r.Version, r.Description)
}

func codeOrNone(code string) string {
	if code == "" {
		return "None"
	}
	return code
}

// Result is the output of a single extraction pass.
type Result struct {
	Version string
	Records []Record
	// Unmatched holds raw names without a resolvable code, in document order.
	Unmatched []string
	// Matches holds the resolver outcome per record, index-aligned with Records.
	Matches []resolve.Match
}

// Resolver maps a raw country name to an ISO code.
type Resolver interface {
	Resolve(raw string) resolve.Match
}

// Extractor pulls country records out of a release-notes document.
type Extractor struct {
	Resolver Resolver
	Options  Options
	Rules    rewrite.Rules
}

// ReadDocument reads the document at path. Any failure wraps
// ErrDocumentNotFound and names the path.
func ReadDocument(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDocumentNotFound, path, err)
	}
	return b, nil
}

// ExtractFile reads path and extracts it.
func (e *Extractor) ExtractFile(path string) (Result, error) {
	b, err := ReadDocument(path)
	if err != nil {
		return Result{}, err
	}
	return e.Extract(b)
}

// Extract parses doc and returns its records. Either every country block
// becomes a record or an error is returned and no records at all.
func (e *Extractor) Extract(doc []byte) (Result, error) {
	if e.Resolver == nil {
		return Result{}, errors.New("extract: resolver not configured")
	}
	opts := e.Options.withDefaults()

	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return Result{}, fmt.Errorf("parse document: %w", err)
	}

	version := versionFromTitle(findTitle(root))
	if version == "" {
		log.Warn().Str("stage", "extract").Msg("unable to extract data source version from title")
		version = UnknownVersion
	}

	var names []string
	for _, n := range findAll(root, opts.Country) {
		names = append(names, sanitize.Text(textContent(n)))
	}
	if len(names) == 0 {
		return Result{}, fmt.Errorf("%w: no %s blocks found", ErrMismatch, opts.Country)
	}

	var descriptions [][]string
	for _, n := range findAll(root, opts.Description) {
		descriptions = append(descriptions, e.descriptionLines(n, opts.Item))
	}

	if strings.EqualFold(names[0], generalSection) {
		names = names[1:]
		if len(descriptions) > 0 {
			descriptions = descriptions[1:]
		}
	}

	if len(names) != len(descriptions) {
		return Result{}, fmt.Errorf("%w: countries=%d descriptions=%d", ErrMismatch, len(names), len(descriptions))
	}

	res := Result{
		Version: version,
		Records: make([]Record, 0, len(names)),
		Matches: make([]resolve.Match, 0, len(names)),
	}
	for i, name := range names {
		m := e.Resolver.Resolve(name)
		if !m.Resolved() {
			res.Unmatched = append(res.Unmatched, name)
		}
		res.Matches = append(res.Matches, m)
		res.Records = append(res.Records, Record{
			Name:        name,
			Version:     version,
			Code:        m.Code,
			Description: strings.Join(descriptions[i], "\n"),
		})
	}
	return res, nil
}

func (e *Extractor) descriptionLines(block *html.Node, item string) []string {
	items := findAll(block, Marker{Tag: item})
	lines := make([]string, 0, len(items))
	for _, li := range items {
		lines = append(lines, e.Rules.Apply(sanitize.Text(textContent(li))))
	}
	return lines
}

// versionFromTitle returns the third whitespace-separated word of title.
func versionFromTitle(title string) string {
	fields := strings.Fields(title)
	if len(fields) < 3 {
		return ""
	}
	return fields[2]
}

func findTitle(n *html.Node) string {
	t := findFirst(n, Marker{Tag: "title"})
	if t == nil {
		return ""
	}
	return textContent(t)
}

func findFirst(n *html.Node, m Marker) *html.Node {
	var res *html.Node
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if res != nil {
			return
		}
		if m.matches(cur) {
			res = cur
			return
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
			if res != nil {
				return
			}
		}
	}
	dfs(n)
	return res
}

// findAll returns every descendant of n matching m in document order. n
// itself is not considered.
func findAll(n *html.Node, m Marker) []*html.Node {
	var out []*html.Node
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if m.matches(c) {
				out = append(out, c)
			}
			dfs(c)
		}
	}
	dfs(n)
	return out
}

// textContent concatenates every text node below n.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
