// Package extract reads a release-notes HTML document and turns its country
// sections into records.
//
// A document carries its data source version as the third word of <title>,
// a heading per country (h2.CountryName by default) and, in the same order,
// one list of notes per country (ul.CountryRemark). Headings and lists are
// paired by position. A leading "General" heading is a preamble and is
// dropped together with its list.
//
// Each note is whitespace-normalized and passed through the configured
// rewrite rules; each country name is resolved to an ISO code. Names that
// cannot be resolved are reported in Result.Unmatched rather than failing
// the pass.
package extract
