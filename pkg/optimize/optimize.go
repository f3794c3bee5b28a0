// Package optimize caps the number of nodes handed to the renderer.
//
// Despite the option name, "clustering" does not aggregate anything: above
// the cluster threshold the graph is truncated to the first
// MaxNodesToShow nodes, in input order, and links that lost an endpoint are
// dropped. Graphs larger than MaxNodesToShow are always truncated and raise
// the performance warning.
package optimize

import (
	"io"

	"github.com/charmbracelet/log"

	errs "github.com/dogeow/wikigraph/pkg/errors"
	"github.com/dogeow/wikigraph/pkg/graph"
)

// Default option values.
const (
	DefaultMaxNodesToShow   = 200
	DefaultClusterThreshold = 50
)

// Options configures the optimizer.
type Options struct {
	MaxNodesToShow   int  `toml:"max_nodes_to_show" yaml:"max_nodes_to_show"`
	EnableClustering bool `toml:"enable_clustering" yaml:"enable_clustering"`
	ClusterThreshold int  `toml:"cluster_threshold" yaml:"cluster_threshold"`
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		MaxNodesToShow:   DefaultMaxNodesToShow,
		EnableClustering: true,
		ClusterThreshold: DefaultClusterThreshold,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.MaxNodesToShow <= 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "max_nodes_to_show must be positive, got %d", o.MaxNodesToShow)
	}
	if o.ClusterThreshold < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "cluster_threshold must not be negative, got %d", o.ClusterThreshold)
	}
	return nil
}

// Apply returns the snapshot to render and whether the performance warning
// applies. The input is not mutated.
func Apply(s *graph.Snapshot, opts Options) (out *graph.Snapshot, degraded bool) {
	n := len(s.Nodes)
	degraded = n > opts.MaxNodesToShow
	truncate := degraded || (opts.EnableClustering && n > opts.ClusterThreshold)
	if !truncate || n <= opts.MaxNodesToShow {
		return s, degraded
	}

	kept := s.Nodes[:opts.MaxNodesToShow:opts.MaxNodesToShow]
	keep := make(graph.IDSet, len(kept))
	for _, node := range kept {
		keep.Add(node.ID)
	}
	return &graph.Snapshot{Nodes: kept, Links: graph.LinksWithin(s.Links, keep)}, degraded
}

// Optimizer applies [Options] and tracks the performance warning across
// runs, logging when it is raised or cleared.
type Optimizer struct {
	opts    Options
	logger  *log.Logger
	warning bool
	dropped int
}

// New creates an optimizer. Invalid options fall back to the defaults.
func New(opts Options, logger *log.Logger) *Optimizer {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Validate() != nil {
		opts = DefaultOptions()
	}
	return &Optimizer{opts: opts, logger: logger}
}

// Options returns the options in use.
func (o *Optimizer) Options() Options { return o.opts }

// Run optimizes s and updates the warning flag.
func (o *Optimizer) Run(s *graph.Snapshot) *graph.Snapshot {
	out, degraded := Apply(s, o.opts)
	if degraded != o.warning {
		if degraded {
			o.logger.Warn("graph exceeds display limit, truncating",
				"nodes", len(s.Nodes), "max", o.opts.MaxNodesToShow)
		} else {
			o.logger.Info("graph back within display limit", "nodes", len(s.Nodes))
		}
	}
	o.warning = degraded
	o.dropped = len(s.Nodes) - len(out.Nodes)
	return out
}

// Warning reports whether the last run exceeded MaxNodesToShow.
func (o *Optimizer) Warning() bool { return o.warning }

// Dropped returns how many nodes the last run removed.
func (o *Optimizer) Dropped() int { return o.dropped }
