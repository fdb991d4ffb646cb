package renderer

import (
	"errors"
	"fmt"
)

var (
	ErrNoScene            = errors.New("renderer: no scene loaded")
	ErrNoRenderablePasses = errors.New("renderer: shader has no buffer or image passes")
	ErrDuplicateOutput    = errors.New("renderer: output id is produced by more than one pass")
	ErrUnknownProducer    = errors.New("renderer: input references an output no pass produces")
	ErrProducerNotBuffer  = errors.New("renderer: input references the output of a non-buffer pass")
)

// LoadError aborts the loading of a shader. Pass is the index of the pass in
// the description, or -1 when the failure concerns the whole shader. Slot
// names the composed source slot a compile error points into, when known.
type LoadError struct {
	Shader string
	Pass   int
	Slot   string
	Err    error
}

func (e *LoadError) Error() string {
	switch {
	case e.Pass < 0:
		return fmt.Sprintf("renderer: failed to load %q: %v", e.Shader, e.Err)
	case e.Slot != "":
		return fmt.Sprintf("renderer: failed to load %q: pass %d (%s code): %v", e.Shader, e.Pass, e.Slot, e.Err)
	}
	return fmt.Sprintf("renderer: failed to load %q: pass %d: %v", e.Shader, e.Pass, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// DeviceError is a failure of the graphics device while rendering or presenting.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("renderer: %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }
