// Package panel implements the authenticated control panel session and
// page fetching.
package panel

import "net/url"

// Response is one fetched page: HTTP status plus the (bounded) body.
type Response struct {
	StatusCode int
	Body       string
}

// OK reports whether the response carries a success status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Fetcher is the session-like capability the extraction and renewal
// components consume. Errors are genuine I/O failures only; HTTP status
// is always passed through in the Response.
type Fetcher interface {
	Get(pageURL string) (*Response, error)
	Post(pageURL string, form url.Values) (*Response, error)
}
