package ibl

import (
	"fmt"
	"iblbake/libio"
	"iblbake/libutil"
)

// BakeTarget is the color target of a stage together with its depth buffers
// and one pass per rendered (level, face).
type BakeTarget struct {
	Stage StageDesc
	Color Target
	// Depths holds one depth buffer per rendered level, shared by all faces of the level.
	Depths []DepthBuffer
	passes [][]Pass
}

// Pass returns the pass of the given level and face.
func (t *BakeTarget) Pass(level int, face CubeMapFace) Pass {
	return t.passes[level][face]
}

func (t *BakeTarget) PassCount() int {
	n := 0
	for _, level := range t.passes {
		n += len(level)
	}
	return n
}

// ResourceManager allocates the render targets of the stages and owns
// every resource it created until Release.
type ResourceManager struct {
	backend   Backend
	resources []libutil.Deleter
}

func NewResourceManager(backend Backend) *ResourceManager {
	return &ResourceManager{backend: backend}
}

func (rm *ResourceManager) track(d libutil.Deleter) {
	rm.resources = append(rm.resources, d)
}

// Allocate creates the color target, depth buffers and passes of a stage.
// Resources created before a failure stay tracked and are freed by Release.
func (rm *ResourceManager) Allocate(stage StageDesc) (*BakeTarget, error) {
	if stage.RenderLevels < 1 || stage.RenderLevels > stage.Levels {
		return nil, fmt.Errorf("%w: stage %s renders %d of %d levels", ErrResource, stage.Name(), stage.RenderLevels, stage.Levels)
	}

	color, err := rm.backend.CreateTarget(stage.Target())
	if err != nil {
		return nil, fmt.Errorf("%w: color target of stage %s: %w", ErrResource, stage.Name(), err)
	}
	rm.track(color)

	target := &BakeTarget{
		Stage:  stage,
		Color:  color,
		Depths: make([]DepthBuffer, stage.RenderLevels),
		passes: make([][]Pass, stage.RenderLevels),
	}

	faces := stage.Kind.Faces()
	for level := 0; level < stage.RenderLevels; level++ {
		w, h := color.Desc().LevelSize(level)
		depth, err := rm.backend.CreateDepth(w, h, stage.Samples)
		if err != nil {
			return nil, fmt.Errorf("%w: depth buffer %d of stage %s: %w", ErrResource, level, stage.Name(), err)
		}
		rm.track(depth)
		target.Depths[level] = depth

		target.passes[level] = make([]Pass, faces)
		for f := 0; f < faces; f++ {
			pass, err := rm.backend.CreatePass(color, CubeMapFace(f), level, depth)
			if err != nil {
				return nil, fmt.Errorf("%w: pass (%v, %d) of stage %s: %w", ErrResource, CubeMapFace(f), level, stage.Name(), err)
			}
			rm.track(pass)
			target.passes[level][f] = pass
		}
	}

	Logger().Debug("stage resources allocated", "stage", stage.Name(), "size", stage.Size, "levels", stage.Levels, "passes", target.PassCount())
	return target, nil
}

// Upload creates a tracked texture from img, which must be ordered bottom to top.
func (rm *ResourceManager) Upload(img *libio.FloatImage) (Target, error) {
	tex, err := rm.backend.CreateTexture(img)
	if err != nil {
		return nil, err
	}
	rm.track(tex)
	return tex, nil
}

// Release deletes every tracked resource in reverse creation order.
func (rm *ResourceManager) Release() {
	for i := len(rm.resources) - 1; i >= 0; i-- {
		rm.resources[i].Delete()
	}
	rm.resources = nil
}

// Count returns the number of live resources.
func (rm *ResourceManager) Count() int {
	return len(rm.resources)
}
