package refdata

import (
	"strconv"
	"strings"

	"github.com/workshoplabs/refgate/internal/backoffice"
)

// Cache keys identify a logical resource plus its parameters. They must be
// deterministic: the same request always yields the same key, and distinct
// parameter sets never collide (ListParams.Encode sorts its keys).

func listKey(resource string, p backoffice.ListParams) string {
	if p.IsZero() {
		return resource
	}
	return resource + "?" + p.Encode()
}

// normalizeTerm canonicalizes a free-text search term so that spellings
// differing only in case or surrounding whitespace hit the same cache slot
// and issue the same upstream query.
func normalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

func searchKey(resource, term string) string {
	return resource + "-search-" + normalizeTerm(term)
}

func featurePricesKey(vendorID int) string {
	return "feature-prices-" + strconv.Itoa(vendorID)
}
