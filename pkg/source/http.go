package source

import (
	"context"
	"errors"

	errs "github.com/dogeow/wikigraph/pkg/errors"
	"github.com/dogeow/wikigraph/pkg/httputil"
)

// HTTP fetches the graph from the knowledge base API.
type HTTP struct {
	client *httputil.Client
}

var _ Source = (*HTTP)(nil)

// NewHTTP creates a source for the API at base. Headers (for example an
// Authorization token) are sent with every request.
func NewHTTP(base string, headers map[string]string) *HTTP {
	return &HTTP{client: httputil.NewClient(base, headers)}
}

// NewHTTPWithClient creates a source over an existing client.
func NewHTTPWithClient(c *httputil.Client) *HTTP {
	return &HTTP{client: c}
}

// Client returns the underlying HTTP client.
func (s *HTTP) Client() *httputil.Client { return s.client }

// Fetch requests the graph document.
func (s *HTTP) Fetch(ctx context.Context) ([]byte, error) {
	data, err := s.client.GetBytes(ctx, GraphPath)
	if err != nil {
		return nil, classify(err, "fetch %s", s.client.URL(GraphPath))
	}
	return data, nil
}

// classify maps transport errors onto error codes.
func classify(err error, format string, args ...any) error {
	switch {
	case errors.Is(err, httputil.ErrNotFound):
		return errs.Wrap(errs.ErrCodeNotFound, err, format, args...)
	case errors.Is(err, context.DeadlineExceeded):
		return errs.Wrap(errs.ErrCodeTimeout, err, format, args...)
	case errors.Is(err, httputil.ErrNetwork):
		return errs.Wrap(errs.ErrCodeNetwork, err, format, args...)
	}
	return err
}
