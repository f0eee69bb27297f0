package scraper

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParsePagination reads the ul.pagination bar. The current page comes from
// the active item's 1-based label; the total is the largest numeric label.
// Without a pagination bar the result is {fallback, 1}.
func ParsePagination(doc *goquery.Document, fallback int) Pagination {
	info := Pagination{CurrentPage: fallback, TotalPages: 1}

	nav := doc.Find("ul.pagination").First()
	if nav.Length() == 0 {
		return info
	}

	if n, err := strconv.Atoi(strings.TrimSpace(nav.Find("li.active a").First().Text())); err == nil && n > 0 {
		info.CurrentPage = n - 1
	}

	nav.Find("li a").Each(func(_ int, a *goquery.Selection) {
		n, err := strconv.Atoi(strings.TrimSpace(a.Text()))
		if err == nil && n > info.TotalPages {
			info.TotalPages = n
		}
	})

	return info
}
