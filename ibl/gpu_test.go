//go:build gpu

package ibl_test

import (
	"fmt"
	"iblbake/ibl"
	"iblbake/libgl"
	"iblbake/libio"
	"math"
	"os"
	"runtime"
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// OpenGL calls must happen on the main thread, tests run on other goroutines.
var mainfunc = make(chan func())

var glContextErr error

func init() {
	runtime.LockOSThread()
}

func TestMain(m *testing.M) {
	window, err := libgl.CreateContext(libgl.ContextConfig{Title: "ibl test"})
	if err != nil {
		glContextErr = err
	}

	done := make(chan int)
	go func() {
		done <- m.Run()
	}()

	for {
		select {
		case f := <-mainfunc:
			f()
		case code := <-done:
			if window != nil {
				window.Destroy()
				glfw.Terminate()
			}
			os.Exit(code)
		}
	}
}

func onMain(f func()) {
	done := make(chan struct{})
	mainfunc <- func() {
		f()
		close(done)
	}
	<-done
}

// gradientImage varies smoothly with the elevation, so filtering differences stay small.
func gradientImage(width, height int) *libio.FloatImage {
	pix := make([]float32, width*height*4)
	for y := 0; y < height; y++ {
		v := float32(y) / float32(height-1)
		for x := 0; x < width; x++ {
			i := (y*width + x) * 4
			pix[i+0] = v
			pix[i+1] = 1.0 - v
			pix[i+2] = 0.5
			pix[i+3] = 1.0
		}
	}
	return libio.NewFloatImage(pix, 4, width, height)
}

func meanAbsoluteError(a, b *ibl.Artifact) (float64, error) {
	ia, err := ibl.DecodeArtifact(a)
	if err != nil {
		return 0, err
	}
	ib, err := ibl.DecodeArtifact(b)
	if err != nil {
		return 0, err
	}
	if len(ia.Pix) != len(ib.Pix) {
		return 0, fmt.Errorf("%s has %d values, %s has %d", a.Name, len(ia.Pix), b.Name, len(ib.Pix))
	}
	var sum float64
	for i := range ia.Pix {
		sum += math.Abs(float64(ia.Pix[i] - ib.Pix[i]))
	}
	return sum / float64(len(ia.Pix)), nil
}

func compareWithSoftware(t *testing.T, gpu []*ibl.Artifact, tolerance float64) {
	t.Helper()
	reference, err := ibl.Run(ibl.NewSoftwareBackend(), gradientImage(32, 16), tinyConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(gpu) != len(reference) {
		t.Fatalf("should produce %d artifacts but produced %d\n", len(reference), len(gpu))
	}
	for i := range reference {
		if gpu[i].Name != reference[i].Name {
			t.Errorf("artifact %d should be %s but is %s\n", i, reference[i].Name, gpu[i].Name)
			continue
		}
		mae, err := meanAbsoluteError(gpu[i], reference[i])
		if err != nil {
			t.Error(err)
			continue
		}
		if mae > tolerance {
			t.Errorf("%s should match the software backend within %v but differs by %v\n", gpu[i].Name, tolerance, mae)
		}
	}
}

func TestGlBackendMatchesSoftware(t *testing.T) {
	if glContextErr != nil {
		t.Skipf("no opengl context: %v", glContextErr)
	}

	var artifacts []*ibl.Artifact
	var err error
	onMain(func() {
		var backend *ibl.GlBackend
		backend, err = ibl.NewGlBackend()
		if err != nil {
			return
		}
		defer backend.Release()
		artifacts, err = ibl.Run(backend, gradientImage(32, 16), tinyConfig())
	})
	if err != nil {
		t.Fatal(err)
	}

	compareWithSoftware(t, artifacts, 0.02)
}

func TestGlBackendMultisampledEnvironment(t *testing.T) {
	if glContextErr != nil {
		t.Skipf("no opengl context: %v", glContextErr)
	}

	conf := tinyConfig()
	conf.EnvironmentSamples = 4
	conf.Selection = ibl.GenerateIrradiance

	var artifacts []*ibl.Artifact
	var err error
	onMain(func() {
		var backend *ibl.GlBackend
		backend, err = ibl.NewGlBackend()
		if err != nil {
			return
		}
		defer backend.Release()
		artifacts, err = ibl.Run(backend, constantImage(32, 16, 1.0), conf)
	})
	if err != nil {
		t.Fatal(err)
	}

	irradiance, err := ibl.DecodeArtifact(artifacts[0])
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range irradiance.Pix {
		if !approxEqual(v, 1.0, 1e-3) {
			t.Fatalf("irradiance of a resolved constant environment should be 1 but value %d is %v\n", i, v)
		}
	}
}

func TestClBackendMatchesSoftware(t *testing.T) {
	backend, err := ibl.NewClBackend(ibl.DeviceTypeGPU)
	if err != nil {
		t.Skipf("no opencl device: %v", err)
	}
	defer backend.Release()

	artifacts, err := ibl.Run(backend, gradientImage(32, 16), tinyConfig())
	if err != nil {
		t.Fatal(err)
	}

	// same math, only the floating point evaluation differs
	compareWithSoftware(t, artifacts, 0.001)
}
