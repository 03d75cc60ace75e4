package linker

import (
	"github.com/xyproto/coslink/internal/dataset"
	"github.com/xyproto/coslink/internal/object"
)

// Input pairs an already-open dataset reader with the path it came from,
// for error messages and output naming.
type Input struct {
	Path   string
	Reader *dataset.Reader
}

// Link runs the complete two-pass link over inputs in command-line order,
// producing the final image and the engine (for its Map/Diagnostics).
func Link(inputs []Input, opts Options) (*object.Image, *Engine, error) {
	e := NewEngine(opts)
	for _, in := range inputs {
		if err := e.ScanInput(in.Path, in.Reader); err != nil {
			return nil, nil, err
		}
	}
	e.Resolve()
	e.Layout()
	img, err := e.Patch()
	if err != nil {
		return nil, nil, err
	}
	return img, e, nil
}
