package ibl

import (
	"fmt"

	"golang.org/x/exp/slices"
)

type StageID int

const (
	StageEnvironment StageID = iota
	StageIrradiance
	StagePrefilter
	StageBrdfLut
)

// Pseudo stages used as draw sources.
const (
	// StageInput is the uploaded source image.
	StageInput StageID = -1 - iota
	// StageNone means the kernel samples nothing.
	StageNone
)

func (id StageID) String() string {
	switch id {
	case StageEnvironment:
		return "environment"
	case StageIrradiance:
		return "irradiance"
	case StagePrefilter:
		return "prefilter"
	case StageBrdfLut:
		return "brdf_lut"
	case StageInput:
		return "input"
	case StageNone:
		return "none"
	}
	return fmt.Sprintf("StageID(%d)", int(id))
}

// StageDesc is one row of the stage table.
type StageDesc struct {
	ID     StageID
	Kind   TargetKind
	Size   int
	Levels int
	// RenderLevels is the number of levels drawn, starting at 0.
	// The remaining levels are filled by mipmap generation.
	RenderLevels int
	Samples      int
	Format       PixelFormat
	Kernel       Kernel
	Geometry     Geometry
	Source       StageID
	DependsOn    []StageID
	// Selection is the flag that enables the stage, 0 means it always runs.
	Selection       GenerationSelection
	GenerateMipmaps bool
	// RoughnessPerLevel sets the roughness of each rendered level from the mip schedule.
	RoughnessPerLevel bool
	KernelSamples     int
	Filtered          bool
	// Completes is the pipeline state after the stage ran.
	Completes PipelineState
	// Export is the artifact base name, empty if the stage is never exported.
	Export string
}

func (stage StageDesc) Name() string {
	return stage.ID.String()
}

func (stage StageDesc) Target() TargetDesc {
	return TargetDesc{
		Label:   stage.Name(),
		Kind:    stage.Kind,
		Width:   stage.Size,
		Height:  stage.Size,
		Levels:  stage.Levels,
		Samples: stage.Samples,
		Format:  stage.Format,
	}
}

// Stages builds the stage table in execution order. Stages not selected
// by conf.Selection are left out, the environment stage is always present.
func Stages(conf BakeConfig) []StageDesc {
	all := []StageDesc{
		{
			ID:              StageEnvironment,
			Kind:            TargetCube,
			Size:            conf.EnvironmentSize,
			Levels:          MipCount(conf.EnvironmentSize),
			RenderLevels:    1,
			Samples:         conf.EnvironmentSamples,
			Format:          RGBA16F,
			Kernel:          KernelEquirectangular,
			Geometry:        GeometryUnitCube,
			Source:          StageInput,
			GenerateMipmaps: true,
			Completes:       StateEnvironmentBaked,
		},
		{
			ID:            StageIrradiance,
			Kind:          TargetCube,
			Size:          conf.IrradianceSize,
			Levels:        1,
			RenderLevels:  1,
			Samples:       1,
			Format:        RGBA16F,
			Kernel:        KernelIrradiance,
			Geometry:      GeometryUnitCube,
			Source:        StageEnvironment,
			DependsOn:     []StageID{StageEnvironment},
			Selection:     GenerateIrradiance,
			KernelSamples: conf.IrradianceQuality,
			Completes:     StateIrradianceBaked,
			Export:        "irradiance",
		},
		{
			ID:                StagePrefilter,
			Kind:              TargetCube,
			Size:              conf.PrefilterSize,
			Levels:            MipCount(conf.PrefilterSize),
			RenderLevels:      MipCount(conf.PrefilterSize),
			Samples:           1,
			Format:            RGBA16F,
			Kernel:            KernelPrefilter,
			Geometry:          GeometryUnitCube,
			Source:            StageEnvironment,
			DependsOn:         []StageID{StageEnvironment},
			Selection:         GeneratePrefilter,
			RoughnessPerLevel: true,
			KernelSamples:     conf.PrefilterSamples,
			Filtered:          conf.FilteredSampling,
			Completes:         StatePrefilterBaked,
			Export:            "prefilter_mm",
		},
		{
			ID:            StageBrdfLut,
			Kind:          Target2D,
			Size:          conf.BrdfLutSize,
			Levels:        1,
			RenderLevels:  1,
			Samples:       1,
			Format:        RGBA16F,
			Kernel:        KernelBrdfLut,
			Geometry:      GeometryFullscreenTriangle,
			Source:        StageNone,
			Selection:     GenerateBrdfLut,
			KernelSamples: conf.BrdfLutSamples,
			Completes:     StateLutBaked,
			Export:        "brdf_lut",
		},
	}

	return slices.DeleteFunc(all, func(stage StageDesc) bool {
		return !conf.Selection.Has(stage.Selection)
	})
}

// ArtifactName returns the file base name of the given exported level.
func (stage StageDesc) ArtifactName(level int) string {
	if stage.RenderLevels > 1 {
		return fmt.Sprintf("%s_%d", stage.Export, level)
	}
	return stage.Export
}
