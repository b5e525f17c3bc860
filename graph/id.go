package graph

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"

	"github.com/amirrezaask/highlight/errors"
)

// ID identifies a node or an edge. Numeric ids are stored in their decimal
// form so that 7 and "7" refer to the same node.
type ID string

func (id ID) String() string { return string(id) }

// ParseID converts a raw id (string, integer or integral JSON number) into an ID.
func ParseID(v any) (ID, error) {
	switch id := v.(type) {
	case ID:
		return id, nil
	case string:
		return ID(id), nil
	case json.Number:
		if i, err := id.Int64(); err == nil {
			return ID(strconv.FormatInt(i, 10)), nil
		}
		if u, err := strconv.ParseUint(id.String(), 10, 64); err == nil {
			return ID(strconv.FormatUint(u, 10)), nil
		}
		if f, err := id.Float64(); err == nil {
			return fromFloat(f)
		}
		return "", errors.E(errors.KindInvalidArgument, "id %q is not an integer", id.String())
	case float64:
		return fromFloat(id)
	case float32:
		return fromFloat(float64(id))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return ID(strconv.FormatInt(rv.Int(), 10)), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return ID(strconv.FormatUint(rv.Uint(), 10)), nil
	case reflect.String:
		return ID(rv.String()), nil
	}

	return "", errors.E(errors.KindInvalidArgument, "%T cannot be used as a node id", v)
}

func fromFloat(f float64) (ID, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return "", errors.E(errors.KindInvalidArgument, "id %v is not an integer", f)
	}
	return ID(strconv.FormatFloat(f, 'f', -1, 64)), nil
}
