/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package fetch provides HTTP fetching abstractions for vendoring remote modules.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// MaxContentLength is the largest response body accepted, in bytes. Responses
// that declare a larger Content-Length are rejected before the body is read.
const MaxContentLength = 10_000_000

// Result is a successful fetch.
type Result struct {
	// Body is the response body.
	Body []byte
	// FinalURL is the URL that actually served the response, after any
	// redirects. Generated shims re-export from this URL.
	FinalURL string
}

// Fetcher provides an abstraction over HTTP fetching.
type Fetcher interface {
	// Fetch retrieves content from the given URL.
	// Any response other than HTTP 200 is an error.
	Fetch(ctx context.Context, url string) (*Result, error)
}

// HTTPFetcher implements Fetcher using net/http.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a new HTTP fetcher using the default client.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{client: http.DefaultClient}
}

// NewHTTPFetcherWithClient creates a new HTTP fetcher using a custom client.
func NewHTTPFetcherWithClient(client *http.Client) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

// Fetch retrieves content from the given URL.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Message: err.Error()}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Message: err.Error()}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}

	if resp.ContentLength > MaxContentLength {
		return nil, &FetchError{
			URL:     url,
			Message: fmt.Sprintf("content length %d exceeds limit of %d bytes", resp.ContentLength, MaxContentLength),
		}
	}

	// The declared length can be absent or lie, so the read is capped too.
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxContentLength+1))
	if err != nil {
		return nil, &FetchError{URL: url, Message: err.Error()}
	}
	if len(body) > MaxContentLength {
		return nil, &FetchError{
			URL:     url,
			Message: fmt.Sprintf("response body exceeds limit of %d bytes", MaxContentLength),
		}
	}

	return &Result{
		Body:     body,
		FinalURL: resp.Request.URL.String(),
	}, nil
}

// FetchError represents an HTTP fetch error with status information.
type FetchError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: HTTP %d: %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

// IsNotFound returns true if the error represents a 404 Not Found response.
func (e *FetchError) IsNotFound() bool {
	return e.StatusCode == 404
}
