package app

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// DocumentFile returns the highlights document to read. An explicit
// DocumentPath is used as is; otherwise the path follows the published
// source tree layout:
//
//	<root>/<region><version>/documentation/mn/release_notes/release_notes/whats_new/highlights_and_improvements_mn_<region>_<version>.html
func (c Config) DocumentFile() string {
	if p := strings.TrimSpace(c.DocumentPath); p != "" {
		return p
	}
	region := strings.TrimSpace(c.Region)
	version := strings.TrimSpace(c.Version)
	root := strings.TrimSpace(c.DocumentRoot)
	if root == "" {
		root = defaultDocumentRoot
	}
	dir := filepath.Join(root, region+version, "documentation", "mn", "release_notes", "release_notes", "whats_new")
	name := fmt.Sprintf("highlights_and_improvements_mn_%s_%s.html", region, version)
	return filepath.Join(dir, name)
}

// DatabaseDSN returns DatabaseURL, or a PostgreSQL URL assembled from the
// legacy credential fields when only those are set. Empty when neither is
// configured.
func (c Config) DatabaseDSN() string {
	if u := strings.TrimSpace(c.DatabaseURL); u != "" {
		return u
	}
	host := strings.TrimSpace(c.DBHost)
	if host == "" {
		return ""
	}
	u := url.URL{Scheme: "postgres", Host: host, Path: "/" + strings.TrimSpace(c.DBName)}
	switch {
	case c.DBUser != "" && c.DBPassword != "":
		u.User = url.UserPassword(c.DBUser, c.DBPassword)
	case c.DBUser != "":
		u.User = url.User(c.DBUser)
	}
	return u.String()
}
