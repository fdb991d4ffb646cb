package gpu

import "fmt"

// CompileError reports a shader stage that failed to compile or link.
// Line is 0 when the backend log did not name one.
type CompileError struct {
	Label string
	Stage string
	Line  int
	Log   string
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("gpu: %s %s stage failed at line %d: %s", e.Label, e.Stage, e.Line, e.Log)
	}
	return fmt.Sprintf("gpu: %s %s stage failed: %s", e.Label, e.Stage, e.Log)
}
