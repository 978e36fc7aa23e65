package page

import (
	"net/url"
	"strconv"
)

// Page is the envelope of paginated listings.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// DefaultSize is how many results a listing page carries.
const DefaultSize = 20

// Compose wraps one page of results, deriving next/previous links
// from the request URL. pageNum is 1-based.
func Compose[T any](requestUrl *url.URL, total int, pageNum int, results []T) Page[T] {
	p := Page[T]{Count: total, Results: results}
	if results == nil {
		p.Results = []T{}
	}

	if pageNum*DefaultSize < total {
		next := withPage(requestUrl, pageNum+1)
		p.Next = &next
	}
	if 1 < pageNum {
		prev := withPage(requestUrl, pageNum-1)
		p.Previous = &prev
	}
	return p
}

// ParseNum reads a 1-based page number from its query form.
// Empty means the first page.
func ParseNum(s string) (int, bool) {
	if s == "" {
		return 1, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func withPage(requestUrl *url.URL, pageNum int) string {
	u := *requestUrl
	q := u.Query()
	q.Set("page", strconv.Itoa(pageNum))
	u.RawQuery = q.Encode()
	return u.String()
}
