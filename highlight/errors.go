package highlight

import (
	"fmt"

	"github.com/amirrezaask/highlight/errors"
	"github.com/amirrezaask/highlight/graph"
)

var (
	ErrInvalidArgument = errors.E(errors.KindInvalidArgument, "node ids must be a sequence of ids")
	ErrNotFound        = errors.E(errors.KindNotFound, "node not found")
)

// NotFoundError reports the first id of a bulk highlight that has no node in
// the graph store.
type NotFoundError struct {
	ID graph.ID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("node with id %q not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func (e *NotFoundError) Kind() errors.Kind { return errors.KindNotFound }
