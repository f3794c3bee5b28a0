// Package httputil provides the HTTP plumbing shared by the graph sources.
//
// # Client
//
// [Client] sends JSON requests to the knowledge base API. Network failures
// and 5xx responses are wrapped in [RetryableError]; 404 becomes
// [ErrNotFound]. Every request goes through [Retry], so transient errors
// are retried with exponential backoff.
//
//	c := httputil.NewClient("http://localhost:8000", nil)
//	var out map[string]any
//	err := c.Do(ctx, http.MethodGet, "/api/wiki/graph", nil, &out)
//
// # Retry
//
// [Retry] runs a function up to a fixed number of attempts, doubling the
// delay after each failure. Only errors wrapped in [RetryableError] are
// retried; anything else is returned at once.
//
// Defaults ([RetryWithBackoff]):
//
//   - Attempts: 3
//   - Initial delay: 1 second
package httputil
