package backoffice

import (
	"net/url"
	"strconv"
	"strings"
)

// ListParams are the query parameters shared by list endpoints: pagination,
// search term, field selection, and ordering. The zero value means "no
// parameters".
type ListParams struct {
	Page     int
	PageSize int
	Search   string
	Fields   []string
	Ordering string
}

// Values encodes the parameters as URL query values. Only set fields are
// emitted.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(p.PageSize))
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if len(p.Fields) > 0 {
		v.Set("fields", strings.Join(p.Fields, ","))
	}
	if p.Ordering != "" {
		v.Set("ordering", p.Ordering)
	}
	return v
}

// Encode renders the parameters as a canonical query string. url.Values
// sorts keys, so equal parameter sets always encode identically and cache
// keys derived from it are deterministic.
func (p ListParams) Encode() string {
	return p.Values().Encode()
}

// IsZero reports whether no parameter is set.
func (p ListParams) IsZero() bool {
	return p.Page == 0 && p.PageSize == 0 && p.Search == "" &&
		len(p.Fields) == 0 && p.Ordering == ""
}
