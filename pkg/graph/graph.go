package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	errs "github.com/dogeow/wikigraph/pkg/errors"
)

// =============================================================================
// Decoding API
// =============================================================================

// Decode parses a load-endpoint payload into a normalized snapshot.
//
// Only a payload that is not a JSON object fails. Everything else is
// normalized and reported through the returned warnings, each carrying the
// MALFORMED_DATA code.
func Decode(data []byte) (*Snapshot, []error, error) {
	var raw struct {
		Nodes json.RawMessage `json:"nodes"`
		Links json.RawMessage `json:"links"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode graph: %w", err)
	}

	var warnings []error
	warn := func(format string, args ...any) {
		warnings = append(warnings, errs.MalformedData(format, args...))
	}

	snap := Empty()

	nodes, ok := rawArray(raw.Nodes)
	if !ok {
		warn("nodes is not an array")
	}
	seen := make(IDSet, len(nodes))
	for i, item := range nodes {
		var n Node
		if err := json.Unmarshal(item, &n); err != nil {
			warn("node %d dropped: %v", i, err)
			continue
		}
		if n.ID == "" {
			warn("node %d dropped: empty id", i)
			continue
		}
		if seen.Has(n.ID) {
			warn("node %d dropped: duplicate id %q", i, n.ID)
			continue
		}
		seen.Add(n.ID)
		if n.Tags == nil {
			n.Tags = []string{}
		}
		snap.Nodes = append(snap.Nodes, &n)
	}

	links, ok := rawArray(raw.Links)
	if !ok {
		warn("links is not an array")
	}
	for i, item := range links {
		var l Link
		if err := json.Unmarshal(item, &l); err != nil {
			warn("link %d dropped: %v", i, err)
			continue
		}
		src, dst := l.Source.ID(), l.Target.ID()
		if !seen.Has(src) || !seen.Has(dst) {
			warn("link %d dropped: endpoint %q -> %q not in graph", i, src, dst)
			continue
		}
		snap.Links = append(snap.Links, &l)
	}

	return snap, warnings, nil
}

// rawArray splits a JSON array into its elements. It reports false for
// anything that is not an array, including a missing field.
func rawArray(data json.RawMessage) ([]json.RawMessage, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	return items, true
}

// =============================================================================
// File API
// =============================================================================

// Marshal converts a snapshot to indented JSON. Endpoints are written as ids.
func Marshal(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(s, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write writes a snapshot as JSON to an io.Writer.
func Write(s *Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes a snapshot to a JSON file.
func WriteFile(s *Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(s, f)
}

// Read decodes a snapshot from an io.Reader, discarding warnings.
func Read(r io.Reader) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	snap, _, err := Decode(data)
	return snap, err
}

// ReadFile decodes a snapshot from a JSON file, discarding warnings.
func ReadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
