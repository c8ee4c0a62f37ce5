package libutil

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// NewHeadlessContext creates an invisible window with an OpenGL 4.5 core context,
// makes it current and loads the GL entry points.
// Has to be called from a thread locked with runtime.LockOSThread.
// The returned function destroys the window and terminates glfw.
func NewHeadlessContext(debug bool) (ctx *glfw.Window, terminate func(), err error) {
	if err := glfw.Init(); err != nil {
		return nil, nil, fmt.Errorf("could not initialize glfw: %w", err)
	}

	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 5)
	if debug {
		glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)
	}

	ctx, err = glfw.CreateWindow(64, 64, "cubefilter", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("could not create gl context: %w", err)
	}
	ctx.MakeContextCurrent()

	err = gl.InitWithProcAddrFunc(func(name string) unsafe.Pointer {
		addr := glfw.GetProcAddress(name)
		if addr == nil {
			return unsafe.Pointer(InvalidAddress)
		}
		return addr
	})
	if err != nil {
		ctx.Destroy()
		glfw.Terminate()
		return nil, nil, fmt.Errorf("could not load gl functions: %w", err)
	}

	return ctx, func() {
		ctx.Destroy()
		glfw.Terminate()
	}, nil
}
