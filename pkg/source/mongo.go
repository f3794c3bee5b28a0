package source

import (
	"context"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	errs "github.com/dogeow/wikigraph/pkg/errors"
)

// Collection names read by [Mongo].
const (
	NodesCollection = "nodes"
	LinksCollection = "links"
)

// MongoConfig holds connection settings.
type MongoConfig struct {
	URI      string `toml:"uri" yaml:"uri"`
	Database string `toml:"database" yaml:"database"`
}

// Mongo builds the graph document from two collections. Documents are
// passed through as-is, except that a missing "id" is taken from "_id".
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	owned  bool
}

var _ Source = (*Mongo)(nil)

// DialMongo connects to MongoDB and pings the primary.
func DialMongo(ctx context.Context, cfg MongoConfig) (*Mongo, error) {
	if cfg.Database == "" {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "mongo database name is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "ping mongo")
	}
	return &Mongo{client: client, db: client.Database(cfg.Database), owned: true}, nil
}

// NewMongo reads from db. The caller keeps ownership of the client.
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{client: db.Client(), db: db}
}

// Fetch reads both collections and encodes them as one JSON document.
func (s *Mongo) Fetch(ctx context.Context) ([]byte, error) {
	nodes, err := s.readAll(ctx, NodesCollection)
	if err != nil {
		return nil, err
	}
	links, err := s.readAll(ctx, LinksCollection)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{"nodes": nodes, "links": links})
}

func (s *Mongo) readAll(ctx context.Context, name string) ([]map[string]any, error) {
	cur, err := s.db.Collection(name).Find(ctx, bson.D{})
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "query %s", name)
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "read %s", name)
	}

	out := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		m := map[string]any(d)
		if _, ok := m["id"]; !ok {
			if oid, ok := m["_id"]; ok {
				m["id"] = idString(oid)
			}
		}
		delete(m, "_id")
		out = append(out, m)
	}
	return out, nil
}

func idString(v any) any {
	switch id := v.(type) {
	case interface{ Hex() string }:
		return id.Hex()
	case int32, int64, string:
		return id
	}
	return fmt.Sprint(v)
}

// Close disconnects the client if this source opened it.
func (s *Mongo) Close(ctx context.Context) error {
	if !s.owned {
		return nil
	}
	return s.client.Disconnect(ctx)
}
