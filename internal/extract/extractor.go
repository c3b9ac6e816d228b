package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// Marker selects elements by tag name and, optionally, one class token.
type Marker struct {
	Tag   string
	Class string
}

// ParseMarker reads "tag.class" or "tag". An empty string yields the zero
// Marker, which withDefaults replaces.
func ParseMarker(s string) Marker {
	s = strings.TrimSpace(s)
	tag, class, _ := strings.Cut(s, ".")
	return Marker{Tag: strings.ToLower(tag), Class: class}
}

func (m Marker) String() string {
	if m.Class == "" {
		return m.Tag
	}
	return m.Tag + "." + m.Class
}

func (m Marker) matches(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode || !strings.EqualFold(n.Data, m.Tag) {
		return false
	}
	if m.Class == "" {
		return true
	}
	for _, attr := range n.Attr {
		if attr.Namespace != "" || !strings.EqualFold(attr.Key, "class") {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == m.Class {
				return true
			}
		}
	}
	return false
}

// Options describes where the country and description blocks live.
type Options struct {
	// Country marks the heading holding a country name (default h2.CountryName).
	Country Marker
	// Description marks the list holding that country's notes (default ul.CountryRemark).
	Description Marker
	// Item is the tag of one note inside a description block (default li).
	Item string
}

// DefaultOptions matches the layout of the published highlights documents.
func DefaultOptions() Options {
	return Options{
		Country:     Marker{Tag: "h2", Class: "CountryName"},
		Description: Marker{Tag: "ul", Class: "CountryRemark"},
		Item:        "li",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Country.Tag == "" {
		o.Country = d.Country
	}
	if o.Description.Tag == "" {
		o.Description = d.Description
	}
	if strings.TrimSpace(o.Item) == "" {
		o.Item = d.Item
	}
	return o
}
