package shared

// Page describes a requested slice of a listing.
type Page struct {
	Number int
	Limit  int
}

// NormalizePage clamps paging inputs to sane bounds.
func NormalizePage(page, limit int) Page {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return Page{Number: page, Limit: limit}
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// HasMore reports whether rows remain past this page given the total count.
func (p Page) HasMore(total int) bool {
	return p.Number*p.Limit < total
}
