package dump

import (
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
)

var config = spew.ConfigState{
	Indent:                  "  ",
	SortKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

func This(obj any) {
	config.Fdump(os.Stdout, obj)
}

func To(w io.Writer, obj any) {
	config.Fdump(w, obj)
}

func String(obj any) string {
	return config.Sdump(obj)
}
