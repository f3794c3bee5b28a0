package source

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	errs "github.com/dogeow/wikigraph/pkg/errors"
	"github.com/dogeow/wikigraph/pkg/graph"
	"github.com/dogeow/wikigraph/pkg/httputil"
)

// NodeInput holds the editable fields of a node.
type NodeInput struct {
	Title   string   `json:"title"`
	Slug    string   `json:"slug,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Summary string   `json:"summary,omitempty"`
}

// Validate checks the fields the API requires.
func (in NodeInput) Validate() error {
	if in.Title == "" {
		return errs.New(errs.ErrCodeInvalidInput, "node title is required")
	}
	return nil
}

// LinkInput describes a link to create. Type is optional.
type LinkInput struct {
	SourceID int64  `json:"source_id"`
	TargetID int64  `json:"target_id"`
	Type     string `json:"type,omitempty"`
}

// Validate rejects missing endpoints.
func (in LinkInput) Validate() error {
	if in.SourceID == 0 || in.TargetID == 0 {
		return errs.New(errs.ErrCodeInvalidInput, "link needs a source and a target")
	}
	return nil
}

// Client performs node and link mutations against the knowledge base API.
// Mutations return what the server answered; they never patch a loaded
// snapshot.
type Client struct {
	http *httputil.Client
}

// NewClient creates a CRUD client for the API at base.
func NewClient(base string, headers map[string]string) *Client {
	return &Client{http: httputil.NewClient(base, headers)}
}

// NewClientWith creates a CRUD client over an existing HTTP client, sharing
// its base URL and headers with an [HTTP] source.
func NewClientWith(c *httputil.Client) *Client { return &Client{http: c} }

// CreateNode creates a node and returns it as stored.
func (c *Client) CreateNode(ctx context.Context, in NodeInput) (*graph.Node, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out graph.Node
	if err := c.http.Do(ctx, http.MethodPost, "/api/wiki/nodes", in, &out); err != nil {
		return nil, classify(err, "create node %q", in.Title)
	}
	return &out, nil
}

// UpdateNode replaces the editable fields of node id.
func (c *Client) UpdateNode(ctx context.Context, id int64, in NodeInput) (*graph.Node, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out graph.Node
	if err := c.http.Do(ctx, http.MethodPut, nodePath(id), in, &out); err != nil {
		return nil, classify(err, "update node %d", id)
	}
	return &out, nil
}

// DeleteNode removes node id together with its links.
func (c *Client) DeleteNode(ctx context.Context, id int64) error {
	if err := c.http.Do(ctx, http.MethodDelete, nodePath(id), nil, nil); err != nil {
		return classify(err, "delete node %d", id)
	}
	return nil
}

// CreateLink creates a directed link.
func (c *Client) CreateLink(ctx context.Context, in LinkInput) (*graph.Link, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out graph.Link
	if err := c.http.Do(ctx, http.MethodPost, "/api/wiki/links", in, &out); err != nil {
		return nil, classify(err, "create link %d -> %d", in.SourceID, in.TargetID)
	}
	return &out, nil
}

func nodePath(id int64) string {
	return fmt.Sprintf("/api/wiki/nodes/%s", strconv.FormatInt(id, 10))
}
