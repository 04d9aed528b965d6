package opengl

import (
	"fmt"
	"log/slog"

	gl "github.com/go-gl/gl/v4.3-core/gl"
)

// Init loads the GL function pointers for the current context and logs the
// driver strings. It must be called after the window context is current.
func Init(logger *slog.Logger) (string, error) {
	if err := gl.Init(); err != nil {
		return "", fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	version := gl.GoStr(gl.GetString(gl.VERSION))
	if logger != nil {
		logger.Info("OpenGL initialised",
			"version", version,
			"renderer", gl.GoStr(gl.GetString(gl.RENDERER)),
			"glsl", gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION)))
	}
	return version, nil
}
