package main

import (
	_ "embed"
	"fmt"
	"iblbake/ibl"
	"iblbake/libgl"
	"iblbake/libutil"
	"log/slog"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/inkyblackness/imgui-go/v4"
)

//go:embed shaders/view.vert
var viewVertSrc string

//go:embed shaders/view.frag
var viewFragSrc string

type tonemapArgs struct {
	gamma    float64
	scale    float64
	reinhard bool
}

// viewer shows decoded artifacts in a window. Each artifact is uploaded as a
// 2D texture with the faces stacked vertically.
type viewer struct {
	window    *glfw.Window
	gui       *imGui
	artifacts []*ibl.Artifact
	textures  []libgl.UnboundTexture
	shader    libgl.UnboundShaderPipeline
	programs  []libgl.ShaderProgram
	emptyVao  libgl.UnboundVertexArray
	sampler   libgl.UnboundSampler

	selected  int
	face      int32
	exposure  float32
	gamma     float32
	reinhard  bool
	showAlpha bool
}

// openViewerWindow creates a visible window with a current GL context.
func openViewerWindow() (*glfw.Window, error) {
	window, err := libgl.CreateContext(libgl.ContextConfig{
		Width:   1280,
		Height:  800,
		Title:   "iblbake",
		Visible: true,
		Debug:   cargs.verbose,
	})
	if err != nil {
		return nil, err
	}
	if cargs.verbose {
		libgl.EnableDebugOutput(slog.Default())
	}
	glfw.SwapInterval(1)
	return window, nil
}

func newViewer(window *glfw.Window, artifacts []*ibl.Artifact, tm tonemapArgs) (_ *viewer, err error) {
	if len(artifacts) == 0 {
		return nil, fmt.Errorf("nothing to view")
	}

	v := &viewer{
		window:    window,
		artifacts: artifacts,
		exposure:  float32(tm.scale),
		gamma:     float32(tm.gamma),
		reinhard:  tm.reinhard,
	}
	defer func() {
		if err != nil {
			v.Delete()
		}
	}()

	v.shader, v.programs, err = compilePipeline(viewVertSrc, viewFragSrc)
	if err != nil {
		return nil, err
	}

	for _, a := range artifacts {
		img, err := ibl.DecodeArtifact(a)
		if err != nil {
			return nil, err
		}
		tex := libgl.NewTexture(gl.TEXTURE_2D)
		tex.SetDebugLabel(a.Name)
		tex.Allocate(1, gl.RGBA32F, img.Width, img.Height, 0)
		tex.Load(0, img.Width, img.Height, gl.RGBA, img.Pix)
		v.textures = append(v.textures, tex)
	}

	v.emptyVao = libgl.NewVertexArray()
	v.sampler = libgl.NewSampler()
	v.sampler.FilterMode(gl.NEAREST, gl.NEAREST)
	v.sampler.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE, 0)

	v.gui, err = newImGui(window)
	if err != nil {
		return nil, err
	}

	return v, nil
}

// Run draws until the window is closed.
func (v *viewer) Run() error {
	for !v.window.ShouldClose() {
		glfw.PollEvents()
		v.gui.NewFrame(v.window)
		v.drawPanel()

		libgl.State.BindDrawFramebuffer(0)
		libgl.State.SetEnabled()
		fbWidth, fbHeight := v.window.GetFramebufferSize()
		libgl.State.Viewport(0, 0, fbWidth, fbHeight)
		libgl.State.ClearColor(0.1, 0.1, 0.1, 1.0)
		gl.Clear(gl.COLOR_BUFFER_BIT)

		v.drawArtifact(fbWidth, fbHeight)
		v.gui.Draw(v.window)

		if err := libgl.Error(); err != nil {
			return err
		}
		v.window.SwapBuffers()
	}
	return nil
}

func (v *viewer) drawPanel() {
	a := v.artifacts[v.selected]

	imgui.Begin("Artifacts")
	if imgui.BeginCombo("Artifact", a.Name) {
		for i, other := range v.artifacts {
			if imgui.SelectableV(other.Name, i == v.selected, 0, imgui.Vec2{}) {
				v.selected = i
			}
		}
		imgui.EndCombo()
	}
	a = v.artifacts[v.selected]

	if a.Kind == ibl.TargetCube {
		imgui.SliderInt("Face", &v.face, 0, int32(a.Faces()-1))
		imgui.Text(ibl.ExportFaceOrder[v.face].String())
	} else {
		v.face = 0
	}
	imgui.Text(fmt.Sprintf("%dx%d, mip %d", a.Size, a.Size, a.Level))

	imgui.SliderFloat("Exposure", &v.exposure, 0.0, 16.0)
	imgui.SliderFloat("Gamma", &v.gamma, 1.0, 3.0)
	imgui.Checkbox("Reinhard", &v.reinhard)
	imgui.Checkbox("Alpha", &v.showAlpha)
	imgui.End()
}

func (v *viewer) drawArtifact(fbWidth, fbHeight int) {
	a := v.artifacts[v.selected]

	// largest centered square
	size := min(fbWidth, fbHeight)
	libgl.State.Viewport((fbWidth-size)/2, (fbHeight-size)/2, size, size)

	v.shader.Bind()
	frag := v.shader.Get(gl.FRAGMENT_SHADER)
	frag.SetUniform("u_face", v.face)
	frag.SetUniform("u_face_count", a.Faces())
	frag.SetUniform("u_exposure", v.exposure)
	frag.SetUniform("u_gamma", max(v.gamma, 0.1))
	frag.SetUniform("u_reinhard", v.reinhard)
	frag.SetUniform("u_alpha", v.showAlpha)

	v.textures[v.selected].Bind(0)
	v.sampler.Bind(0)
	v.emptyVao.Bind()
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
}

func (v *viewer) Delete() {
	deleters := []libutil.Deleter{}
	if v.gui != nil {
		v.gui.Delete()
	}
	if v.shader != nil {
		deleters = append(deleters, v.shader)
	}
	for _, p := range v.programs {
		deleters = append(deleters, p)
	}
	for _, t := range v.textures {
		deleters = append(deleters, t)
	}
	if v.emptyVao != nil {
		deleters = append(deleters, v.emptyVao)
	}
	if v.sampler != nil {
		deleters = append(deleters, v.sampler)
	}
	libutil.DeleteAll(deleters)
	libgl.State.Forget()
}

// viewArtifacts opens a window and blocks until it is closed.
func viewArtifacts(artifacts []*ibl.Artifact, tm tonemapArgs) error {
	window, err := openViewerWindow()
	if err != nil {
		return err
	}
	defer glfw.Terminate()
	defer window.Destroy()

	v, err := newViewer(window, artifacts, tm)
	if err != nil {
		return err
	}
	defer v.Delete()

	return v.Run()
}
