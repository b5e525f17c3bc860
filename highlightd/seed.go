package highlightd

import (
	"context"
	"io"

	"github.com/amirrezaask/highlight/errors"
	"github.com/amirrezaask/highlight/feed"
	"github.com/amirrezaask/highlight/graph"
)

type seed struct {
	Nodes []feed.NodeSpec `json:"nodes"`
	Edges []feed.EdgeSpec `json:"edges"`
}

// LoadSeed reads {"nodes":[...],"edges":[...]} from r into body with a
// single commit.
func LoadSeed(body *graph.Body, r io.Reader) error {
	var s seed
	if err := feed.JSON.NewDecoder(r).Decode(&s); err != nil {
		return errors.E(errors.KindInvalidArgument, "cannot decode seed: %w", err)
	}
	return feed.Mutation{Op: feed.OpAdd, Nodes: s.Nodes, Edges: s.Edges}.ApplyTo(body)
}

// ObjectGetter opens objects of one bucket, as *objectstore.MinioClient does.
type ObjectGetter interface {
	Get(ctx context.Context, name string) (io.ReadCloser, error)
}

// LoadSeedObject is LoadSeed over an object read from storage.
func LoadSeedObject(ctx context.Context, body *graph.Body, objects ObjectGetter, key string) error {
	obj, err := objects.Get(ctx, key)
	if err != nil {
		return err
	}
	defer obj.Close()
	return errors.Wrap(LoadSeed(body, obj), "seed object %s", key)
}
