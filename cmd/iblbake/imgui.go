package main

import (
	_ "embed"
	"fmt"
	"iblbake/libgl"
	"iblbake/libutil"
	"unsafe"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/inkyblackness/imgui-go/v4"
)

//go:embed shaders/imgui.vert
var imguiVertSrc string

//go:embed shaders/imgui.frag
var imguiFragSrc string

type imGui struct {
	context   *imgui.Context
	io        imgui.IO
	frameTime float32
	vao       libgl.UnboundVertexArray
	vbo       libgl.UnboundBuffer
	ebo       libgl.UnboundBuffer
	atlas     libgl.UnboundTexture
	sampler   libgl.UnboundSampler
	shader    libgl.UnboundShaderPipeline
	programs  []libgl.ShaderProgram
}

func compilePipeline(vertSrc, fragSrc string) (libgl.UnboundShaderPipeline, []libgl.ShaderProgram, error) {
	vert := libgl.NewShader(vertSrc, gl.VERTEX_SHADER)
	if err := vert.Compile(); err != nil {
		return nil, nil, fmt.Errorf("compile %s: %w", vert.Name(), err)
	}
	frag := libgl.NewShader(fragSrc, gl.FRAGMENT_SHADER)
	if err := frag.Compile(); err != nil {
		vert.Delete()
		return nil, nil, fmt.Errorf("compile %s: %w", frag.Name(), err)
	}
	pipeline := libgl.NewPipeline()
	pipeline.Attach(vert, gl.VERTEX_SHADER_BIT)
	pipeline.Attach(frag, gl.FRAGMENT_SHADER_BIT)
	return pipeline, []libgl.ShaderProgram{vert, frag}, nil
}

// newImGui creates the imgui context and installs the input callbacks on win.
// The context of win must be current.
func newImGui(win *glfw.Window) (*imGui, error) {
	shader, programs, err := compilePipeline(imguiVertSrc, imguiFragSrc)
	if err != nil {
		return nil, err
	}

	context := imgui.CreateContext(nil)

	io := imgui.CurrentIO()
	dispWidth, dispHeight := win.GetSize()
	io.SetDisplaySize(imgui.Vec2{X: float32(dispWidth), Y: float32(dispHeight)})
	imgui.StyleColorsDark()

	vao := libgl.NewVertexArray()
	vertexSize, vertexOffsetPos, vertexOffsetUv, vertexOffsetCol := imgui.VertexBufferLayout()
	vao.Layout(0, 0, 2, gl.FLOAT, false, vertexOffsetPos)
	vao.Layout(0, 1, 2, gl.FLOAT, false, vertexOffsetUv)
	vao.Layout(0, 2, 4, gl.UNSIGNED_BYTE, true, vertexOffsetCol)

	vbo := libgl.NewBuffer()
	vbo.Grow(1024 * 8)
	vao.BindBuffer(0, vbo, 0, vertexSize)

	ebo := libgl.NewBuffer()
	ebo.Grow(1024 * 8)
	vao.BindElementBuffer(ebo)

	image := io.Fonts().TextureDataAlpha8()
	atlas := libgl.NewTexture(gl.TEXTURE_2D)
	atlas.SetDebugLabel("imgui_font_atlas")
	atlas.Allocate(1, gl.R8, image.Width, image.Height, 0)
	atlas.Load(0, image.Width, image.Height, gl.RED, unsafe.Slice((*byte)(image.Pixels), image.Width*image.Height))
	io.Fonts().SetTextureID(imgui.TextureID(atlas.Id()))

	sampler := libgl.NewSampler()
	sampler.FilterMode(gl.LINEAR, gl.LINEAR)
	sampler.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE, 0)

	win.SetCursorPosCallback(func(w *glfw.Window, mx, my float64) {
		io.SetMousePosition(imgui.Vec2{X: float32(mx), Y: float32(my)})
	})
	win.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		io.SetMouseButtonDown(int(button), action == glfw.Press)
	})
	win.SetScrollCallback(func(w *glfw.Window, x, y float64) {
		io.AddMouseWheelDelta(float32(x), float32(y))
	})
	win.SetCharCallback(func(w *glfw.Window, char rune) {
		io.AddInputCharacters(string(char))
	})
	win.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action == glfw.Press {
			io.KeyPress(int(key))
		}
		if action == glfw.Release {
			io.KeyRelease(int(key))
		}

		// Modifiers are not reliable across systems
		io.KeyCtrl(int(glfw.KeyLeftControl), int(glfw.KeyRightControl))
		io.KeyShift(int(glfw.KeyLeftShift), int(glfw.KeyRightShift))
		io.KeyAlt(int(glfw.KeyLeftAlt), int(glfw.KeyRightAlt))
		io.KeySuper(int(glfw.KeyLeftSuper), int(glfw.KeyRightSuper))
	})

	io.KeyMap(imgui.KeyTab, int(glfw.KeyTab))
	io.KeyMap(imgui.KeyLeftArrow, int(glfw.KeyLeft))
	io.KeyMap(imgui.KeyRightArrow, int(glfw.KeyRight))
	io.KeyMap(imgui.KeyUpArrow, int(glfw.KeyUp))
	io.KeyMap(imgui.KeyDownArrow, int(glfw.KeyDown))
	io.KeyMap(imgui.KeyHome, int(glfw.KeyHome))
	io.KeyMap(imgui.KeyEnd, int(glfw.KeyEnd))
	io.KeyMap(imgui.KeyDelete, int(glfw.KeyDelete))
	io.KeyMap(imgui.KeyBackspace, int(glfw.KeyBackspace))
	io.KeyMap(imgui.KeyEnter, int(glfw.KeyEnter))
	io.KeyMap(imgui.KeyEscape, int(glfw.KeyEscape))

	return &imGui{
		context:   context,
		io:        io,
		frameTime: float32(glfw.GetTime()),
		vao:       vao,
		vbo:       vbo,
		ebo:       ebo,
		atlas:     atlas,
		sampler:   sampler,
		shader:    shader,
		programs:  programs,
	}, nil
}

func (gui *imGui) NewFrame(win *glfw.Window) {
	dispWidth, dispHeight := win.GetSize()
	gui.io.SetDisplaySize(imgui.Vec2{X: float32(dispWidth), Y: float32(dispHeight)})

	time := float32(glfw.GetTime())
	gui.io.SetDeltaTime(max(time-gui.frameTime, 1e-4))
	gui.frameTime = time

	imgui.NewFrame()
}

// WantsInput reports whether the mouse is over a gui window.
func (gui *imGui) WantsInput() bool {
	return gui.io.WantCaptureMouse()
}

func (gui *imGui) Draw(win *glfw.Window) {
	dispWidth, dispHeight := win.GetSize()
	fbWidth, fbHeight := win.GetFramebufferSize()
	if dispWidth == 0 || dispHeight == 0 {
		imgui.Render()
		return
	}
	libgl.State.Viewport(0, 0, fbWidth, fbHeight)
	ortho := mgl32.Ortho2D(0, float32(dispWidth), float32(dispHeight), 0)

	gui.vao.Bind()
	gui.shader.Bind()
	gui.shader.Get(gl.VERTEX_SHADER).SetUniform("u_projection_mat", ortho)

	libgl.State.SetEnabled(libgl.Blend, libgl.ScissorTest)
	libgl.State.BlendEquation(gl.FUNC_ADD)
	libgl.State.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gui.sampler.Bind(0)

	imgui.Render()
	drawData := imgui.RenderedDrawData()
	drawData.ScaleClipRects(imgui.Vec2{
		X: float32(fbWidth) / float32(dispWidth),
		Y: float32(fbHeight) / float32(dispHeight),
	})

	var indexType uint32
	indexSize := imgui.IndexBufferLayout()
	switch indexSize {
	case 1:
		indexType = gl.UNSIGNED_BYTE
	case 2:
		indexType = gl.UNSIGNED_SHORT
	case 4:
		indexType = gl.UNSIGNED_INT
	}

	for _, list := range drawData.CommandLists() {
		vertexBuffer, vertexBufferSize := list.VertexBuffer()
		gui.vbo.Grow(vertexBufferSize)
		gui.vbo.Write(0, unsafe.Slice((*byte)(vertexBuffer), vertexBufferSize))

		indexBuffer, indexBufferSize := list.IndexBuffer()
		gui.ebo.Grow(indexBufferSize)
		gui.ebo.Write(0, unsafe.Slice((*byte)(indexBuffer), indexBufferSize))

		for _, cmd := range list.Commands() {
			if cmd.HasUserCallback() {
				cmd.CallUserCallback(list)
				continue
			}
			libgl.State.BindTextureUnit(0, uint32(cmd.TextureID()))
			clipRect := cmd.ClipRect()
			x, y := int(clipRect.X), max(fbHeight-int(clipRect.W), 0)
			libgl.State.Scissor(x, y, int(clipRect.Z-clipRect.X), int(clipRect.W-clipRect.Y))
			gl.DrawElementsBaseVertexWithOffset(gl.TRIANGLES, int32(cmd.ElementCount()), indexType, uintptr(cmd.IndexOffset()*indexSize), int32(cmd.VertexOffset()))
		}
	}

	libgl.State.Disable(libgl.ScissorTest)
	libgl.State.Disable(libgl.Blend)
}

func (gui *imGui) Delete() {
	deleters := []libutil.Deleter{gui.shader, gui.vao, gui.vbo, gui.ebo, gui.atlas, gui.sampler}
	for _, p := range gui.programs {
		deleters = append(deleters, p)
	}
	libutil.DeleteAll(deleters)
	gui.context.Destroy()
}
