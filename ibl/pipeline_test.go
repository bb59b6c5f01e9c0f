package ibl_test

import (
	"errors"
	"iblbake/ibl"
	"iblbake/libio"
	"testing"
)

func TestDrawCount(t *testing.T) {
	cases := []struct {
		selection ibl.GenerationSelection
		draws     int
	}{
		// environment 6, irradiance 6, prefilter 6*4, lut 1
		{ibl.GenerateAll, 6 + 6 + 24 + 1},
		{ibl.GenerateBrdfLut, 6 + 1},
		{ibl.GenerateIrradiance, 6 + 6},
		{ibl.GeneratePrefilter, 6 + 24},
	}

	for _, c := range cases {
		conf := tinyConfig()
		conf.Selection = c.selection
		p := newSoftwarePipeline(t, conf)
		if err := p.Bake(constantImage(4, 2, 1)); err != nil {
			t.Fatal(err)
		}
		if is := p.DrawCount(); is != c.draws {
			t.Errorf("selection %v should issue %d draws but issued %d\n", c.selection, c.draws, is)
		}
		if is := p.State(); is != ibl.StateDone {
			t.Errorf("selection %v should end in state done but is %v\n", c.selection, is)
		}
	}
}

func TestDefaultPrefilterDrawCount(t *testing.T) {
	conf := fastConfig()
	conf.Selection = ibl.GeneratePrefilter
	conf.PrefilterSamples = 1
	p := newSoftwarePipeline(t, conf)
	if err := p.Bake(constantImage(4, 2, 1)); err != nil {
		t.Fatal(err)
	}
	if is := p.DrawCount() - 6; is != 54 {
		t.Errorf("prefilter stage should issue 54 draws but issued %d\n", is)
	}
}

func TestPipelineStateOrder(t *testing.T) {
	p := newSoftwarePipeline(t, tinyConfig())

	if is := p.State(); is != ibl.StateUninitialized {
		t.Errorf("new pipeline should be uninitialized but is %v\n", is)
	}
	if _, err := p.Readback(); !errors.Is(err, ibl.ErrState) {
		t.Errorf("readback before baking should fail with ErrState but got %v\n", err)
	}

	if err := p.Bake(constantImage(4, 2, 1)); err != nil {
		t.Fatal(err)
	}
	if err := p.Bake(constantImage(4, 2, 1)); !errors.Is(err, ibl.ErrState) {
		t.Errorf("baking twice should fail with ErrState but got %v\n", err)
	}
	if _, err := p.Readback(); err != nil {
		t.Errorf("readback after baking should succeed but got %v\n", err)
	}
}

func TestStageStatesAreSequential(t *testing.T) {
	stages := ibl.Stages(ibl.DefaultBakeConfig())
	prev := ibl.StateUninitialized
	for _, stage := range stages {
		if stage.Completes <= prev {
			t.Errorf("stage %v completes %v, which is not after %v\n", stage.ID, stage.Completes, prev)
		}
		prev = stage.Completes
	}
	if prev >= ibl.StateDone {
		t.Errorf("the last stage should not complete the pipeline\n")
	}
}

func TestBakeRejectsInvalidImages(t *testing.T) {
	images := map[string]*libio.FloatImage{
		"nil":       nil,
		"zero size": libio.NewFloatImage(nil, 4, 0, 0),
		"short":     libio.NewFloatImage(make([]float32, 7), 4, 2, 1),
	}

	for name, img := range images {
		p := newSoftwarePipeline(t, tinyConfig())
		if err := p.Bake(img); !errors.Is(err, ibl.ErrInput) {
			t.Errorf("%s image should fail with ErrInput but got %v\n", name, err)
		}
		if is := p.DrawCount(); is != 0 {
			t.Errorf("%s image should not issue draws but issued %d\n", name, is)
		}
	}

	if _, err := ibl.Run(ibl.NewSoftwareBackend(), nil, tinyConfig()); !errors.Is(err, ibl.ErrInput) {
		t.Errorf("run without an image should fail with ErrInput but got %v\n", err)
	}
}

type failingBackend struct {
	*ibl.SoftwareBackend
	failAt int
	draws  int
}

func (b *failingBackend) Draw(call ibl.DrawCall) error {
	b.draws++
	if b.draws == b.failAt {
		return ibl.ErrResource
	}
	return b.SoftwareBackend.Draw(call)
}

func TestDrawFailureAbortsBake(t *testing.T) {
	backend := &failingBackend{SoftwareBackend: ibl.NewSoftwareBackend(), failAt: 9}
	p, err := ibl.NewBakePipeline(backend, tinyConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Release()

	if err := p.Bake(constantImage(4, 2, 1)); !errors.Is(err, ibl.ErrResource) {
		t.Errorf("failing draw should abort with ErrResource but got %v\n", err)
	}
	if is := p.State(); is != ibl.StateFailed {
		t.Errorf("pipeline should be failed but is %v\n", is)
	}
	if backend.draws != 9 {
		t.Errorf("no draws should be issued after the failure, but %d were\n", backend.draws-9)
	}
	if _, err := p.Readback(); !errors.Is(err, ibl.ErrState) {
		t.Errorf("readback of a failed bake should fail with ErrState but got %v\n", err)
	}
}

func TestAllocationFailureIsFatal(t *testing.T) {
	conf := tinyConfig()
	conf.EnvironmentSamples = 0
	if _, err := ibl.NewBakePipeline(ibl.NewSoftwareBackend(), conf); err == nil {
		t.Errorf("invalid configuration should not create a pipeline\n")
	}
}
