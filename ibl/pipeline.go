package ibl

import (
	"errors"
	"fmt"
	"iblbake/libio"

	"github.com/go-gl/mathgl/mgl32"
)

type PipelineState int

const (
	StateUninitialized PipelineState = iota
	StateEnvironmentBaked
	StateIrradianceBaked
	StatePrefilterBaked
	StateLutBaked
	StateDone
	// StateFailed is entered when a bake was aborted.
	StateFailed
)

func (s PipelineState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateEnvironmentBaked:
		return "environment baked"
	case StateIrradianceBaked:
		return "irradiance baked"
	case StatePrefilterBaked:
		return "prefilter baked"
	case StateLutBaked:
		return "lut baked"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("PipelineState(%d)", int(s))
}

// BakePipeline owns the render targets of every stage and runs the stages once, in order.
type BakePipeline struct {
	backend   Backend
	conf      BakeConfig
	basis     *CubeBasis
	resources *ResourceManager
	stages    []StageDesc
	targets   map[StageID]*BakeTarget
	baked     map[StageID]bool
	source    Target
	state     PipelineState
	draws     int
}

// NewBakePipeline validates conf and allocates the targets of all selected stages.
func NewBakePipeline(backend Backend, conf BakeConfig) (p *BakePipeline, err error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	p = &BakePipeline{
		backend:   backend,
		conf:      conf,
		basis:     NewCubeBasis(),
		resources: NewResourceManager(backend),
		stages:    Stages(conf),
		targets:   map[StageID]*BakeTarget{},
		baked:     map[StageID]bool{},
	}
	defer func() {
		if err != nil {
			p.resources.Release()
		}
	}()

	for _, stage := range p.stages {
		target, err := p.resources.Allocate(stage)
		if err != nil {
			return nil, err
		}
		p.targets[stage.ID] = target
	}

	Logger().Info("pipeline created", "backend", backend.Name(), "stages", len(p.stages), "resources", p.resources.Count())
	return p, nil
}

func (p *BakePipeline) State() PipelineState {
	return p.state
}

// DrawCount returns the number of draws issued so far.
func (p *BakePipeline) DrawCount() int {
	return p.draws
}

func (p *BakePipeline) Stages() []StageDesc {
	return p.stages
}

func (p *BakePipeline) Backend() Backend {
	return p.backend
}

// Target returns the render target of a stage, if the stage is part of the pipeline.
func (p *BakePipeline) Target(id StageID) (*BakeTarget, bool) {
	t, ok := p.targets[id]
	return t, ok
}

// Bake uploads img and runs every stage. img is expected top to bottom, like decoded
// images are; it is not modified. A pipeline can only bake once.
func (p *BakePipeline) Bake(img *libio.FloatImage) (err error) {
	if p.state != StateUninitialized {
		return fmt.Errorf("%w: cannot bake in state %v", ErrState, p.state)
	}
	if err := validateImage(img); err != nil {
		return err
	}

	defer func() {
		if err != nil {
			p.state = StateFailed
		}
	}()

	// textures have their origin in the bottom left
	flipped := libio.NewFloatImage(append([]float32(nil), img.Pix...), img.Channels, img.Width, img.Height)
	flipped.FlipVertical()

	p.source, err = p.resources.Upload(flipped)
	if err != nil {
		return fmt.Errorf("%w: upload: %w", ErrResource, err)
	}

	for _, stage := range p.stages {
		Logger().Info("stage started", "stage", stage.Name())
		if err := p.runStage(stage); err != nil {
			return fmt.Errorf("stage %s: %w", stage.Name(), err)
		}
		Logger().Info("stage finished", "stage", stage.Name(), "draws", p.draws)
	}

	p.state = StateDone
	return nil
}

func (p *BakePipeline) sourceOf(stage StageDesc) (Target, error) {
	switch stage.Source {
	case StageNone:
		return nil, nil
	case StageInput:
		return p.source, nil
	}
	if !p.baked[stage.Source] {
		return nil, fmt.Errorf("%w: source %s is not baked", ErrState, stage.Source)
	}
	return p.targets[stage.Source].Color, nil
}

// runStage draws every rendered (level, face) of a stage.
func (p *BakePipeline) runStage(stage StageDesc) error {
	for _, dep := range stage.DependsOn {
		if !p.baked[dep] {
			return fmt.Errorf("%w: dependency %s is not baked", ErrState, dep)
		}
	}

	source, err := p.sourceOf(stage)
	if err != nil {
		return err
	}

	target := p.targets[stage.ID]
	schedule, err := NewMipSchedule(stage.Size)
	if err != nil {
		return err
	}

	for level := 0; level < stage.RenderLevels; level++ {
		var roughness float32
		if stage.RoughnessPerLevel {
			roughness, err = schedule.Roughness(level)
			if err != nil {
				return err
			}
		}

		for f := 0; f < stage.Kind.Faces(); f++ {
			face := CubeMapFace(f)
			call := DrawCall{
				Kernel:     stage.Kernel,
				Geometry:   stage.Geometry,
				View:       mgl32.Ident4(),
				Projection: mgl32.Ident4(),
				Source:     source,
				Roughness:  roughness,
				Samples:    stage.KernelSamples,
				Filtered:   stage.Filtered,
			}
			if stage.Kind == TargetCube {
				call.View = p.basis.View(face)
				call.Projection = p.basis.Projection()
			}
			if err := p.draw(target.Pass(level, face), call); err != nil {
				return fmt.Errorf("(%v, %d): %w", face, level, err)
			}
		}
		Logger().Debug("level done", "stage", stage.Name(), "level", level, "size", schedule.Resolution(level), "roughness", roughness)
	}

	if stage.GenerateMipmaps {
		if err := p.backend.GenerateMipmaps(target.Color); err != nil {
			return fmt.Errorf("%w: mipmaps: %w", ErrResource, err)
		}
	}

	p.baked[stage.ID] = true
	p.state = stage.Completes
	return nil
}

func (p *BakePipeline) draw(pass Pass, call DrawCall) error {
	if err := p.backend.BeginPass(pass); err != nil {
		return err
	}
	if err := p.backend.Draw(call); err != nil {
		return errors.Join(err, p.backend.EndPass())
	}
	if err := p.backend.EndPass(); err != nil {
		return err
	}
	p.draws++
	return nil
}

// Release deletes every resource of the pipeline. The backend itself is not released.
func (p *BakePipeline) Release() {
	p.resources.Release()
	p.targets = map[StageID]*BakeTarget{}
}

// Run bakes img with a new pipeline and reads back the selected artifacts.
// The image is validated before any resource is allocated.
func Run(backend Backend, img *libio.FloatImage, conf BakeConfig) ([]*Artifact, error) {
	if err := validateImage(img); err != nil {
		return nil, err
	}

	p, err := NewBakePipeline(backend, conf)
	if err != nil {
		return nil, err
	}
	defer p.Release()

	if err := p.Bake(img); err != nil {
		return nil, err
	}
	return p.Readback()
}

func validateImage(img *libio.FloatImage) error {
	if img == nil {
		return fmt.Errorf("%w: no image", ErrInput)
	}
	if err := img.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInput, err)
	}
	if img.Channels > 4 {
		return fmt.Errorf("%w: image has %d channels", ErrInput, img.Channels)
	}
	return nil
}
