package normalize

import (
	"net/url"
	"strings"
)

// UnknownJurisdiction is assigned when the source domain is not in the table.
const UnknownJurisdiction = "Unknown"

var domainJurisdictions = map[string]string{
	// federal
	"ourcommons.ca": "Canada",
	"parl.ca":       "Canada",
	"parl.gc.ca":    "Canada",
	"sencanada.ca":  "Canada",
	"elections.ca":  "Canada",
	"canada.ca":     "Canada",
	"gc.ca":         "Canada",

	// provinces and territories
	"ola.org":               "Ontario",
	"elections.on.ca":       "Ontario",
	"ontario.ca":            "Ontario",
	"assnat.qc.ca":          "Quebec",
	"quebec.ca":             "Quebec",
	"leg.bc.ca":             "British Columbia",
	"gov.bc.ca":             "British Columbia",
	"assembly.ab.ca":        "Alberta",
	"alberta.ca":            "Alberta",
	"legassembly.sk.ca":     "Saskatchewan",
	"saskatchewan.ca":       "Saskatchewan",
	"gov.mb.ca":             "Manitoba",
	"nslegislature.ca":      "Nova Scotia",
	"novascotia.ca":         "Nova Scotia",
	"legnb.ca":              "New Brunswick",
	"gnb.ca":                "New Brunswick",
	"assembly.pe.ca":        "Prince Edward Island",
	"princeedwardisland.ca": "Prince Edward Island",
	"assembly.nl.ca":        "Newfoundland and Labrador",
	"gov.nl.ca":             "Newfoundland and Labrador",
	"yukonassembly.ca":      "Yukon",
	"yukon.ca":              "Yukon",
	"ntassembly.ca":         "Northwest Territories",
	"gov.nt.ca":             "Northwest Territories",
	"assembly.nu.ca":        "Nunavut",
	"gov.nu.ca":             "Nunavut",

	// municipalities
	"toronto.ca":           "Toronto",
	"montreal.ca":          "Montreal",
	"ville.montreal.qc.ca": "Montreal",
	"vancouver.ca":         "Vancouver",
	"calgary.ca":           "Calgary",
	"edmonton.ca":          "Edmonton",
	"ottawa.ca":            "Ottawa",
	"winnipeg.ca":          "Winnipeg",
	"mississauga.ca":       "Mississauga",
	"brampton.ca":          "Brampton",
	"hamilton.ca":          "Hamilton",
	"ville.quebec.qc.ca":   "Quebec City",
	"halifax.ca":           "Halifax",
}

// InferJurisdiction maps the host of rawURL to a jurisdiction. The longest matching
// domain suffix wins, so ville.quebec.qc.ca is not taken for the province.
func InferJurisdiction(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return UnknownJurisdiction
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host == "" {
		return UnknownJurisdiction
	}

	best, bestLen := UnknownJurisdiction, 0
	for domain, name := range domainJurisdictions {
		if (host == domain || strings.HasSuffix(host, "."+domain)) && len(domain) > bestLen {
			best, bestLen = name, len(domain)
		}
	}
	return best
}
