package opengl

import (
	"errors"
	"fmt"

	gl "github.com/go-gl/gl/v4.3-core/gl"
)

var (
	// ErrGL wraps any error reported by glGetError after a pass.
	ErrGL = errors.New("opengl error")
	// ErrShaderCompile wraps compile and link failures, including the log.
	ErrShaderCompile = errors.New("shader build failed")
)

// CheckError drains the GL error queue and reports the first error seen.
func CheckError(op string) error {
	var first uint32
	for {
		code := gl.GetError()
		if code == gl.NO_ERROR {
			break
		}
		if first == 0 {
			first = code
		}
	}
	if first != 0 {
		return fmt.Errorf("%w: %s: 0x%X", ErrGL, op, first)
	}
	return nil
}
