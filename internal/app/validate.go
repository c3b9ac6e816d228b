package app

import "github.com/hyperifyio/relnotes/internal/extract"

// duplicateCode lists the records that resolved to one ISO code.
type duplicateCode struct {
	Code  string
	Names []string
}

// gateReport is the outcome of the check that runs before persistence.
type gateReport struct {
	Unmatched  []string
	Duplicates []duplicateCode
}

func (g gateReport) ok() bool { return len(g.Unmatched) == 0 && len(g.Duplicates) == 0 }

// checkResolution collects unmatched names and codes claimed by more than
// one record. Either would lose data on upsert. Order follows the document.
func checkResolution(res extract.Result) gateReport {
	g := gateReport{Unmatched: append([]string(nil), res.Unmatched...)}
	byCode := map[string][]string{}
	var order []string
	for _, r := range res.Records {
		if r.Code == "" {
			continue
		}
		if _, seen := byCode[r.Code]; !seen {
			order = append(order, r.Code)
		}
		byCode[r.Code] = append(byCode[r.Code], r.Name)
	}
	for _, code := range order {
		if names := byCode[code]; len(names) > 1 {
			g.Duplicates = append(g.Duplicates, duplicateCode{Code: code, Names: names})
		}
	}
	return g
}
