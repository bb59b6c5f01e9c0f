package libgl

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

type ContextConfig struct {
	Width, Height int
	Title         string
	Visible       bool
	Debug         bool
}

// CreateContext opens a window with an OpenGL 4.5 core context, makes it
// current and initializes Env and State. The calling goroutine must be locked
// to the main thread. Call glfw.Terminate when done.
func CreateContext(conf ContextConfig) (*glfw.Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}

	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 5)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	if conf.Debug {
		glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)
	}
	if !conf.Visible {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}

	window, err := glfw.CreateWindow(max(conf.Width, 1), max(conf.Height, 1), conf.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}
	window.MakeContextCurrent()

	err = gl.InitWithProcAddrFunc(func(name string) unsafe.Pointer {
		addr := glfw.GetProcAddress(name)
		if addr == nil {
			return unsafe.Pointer(uintptr(0xffff_ffff_ffff_ffff))
		}
		return addr
	})
	if err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("load opengl functions: %w", err)
	}

	Init()
	return window, nil
}
