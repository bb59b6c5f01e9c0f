package ibl

import (
	"fmt"
)

type BakeConfig struct {
	// EnvironmentSize is the edge length of the intermediate environment cube map.
	EnvironmentSize int
	IrradianceSize  int
	PrefilterSize   int
	BrdfLutSize     int
	// IrradianceQuality is the number of rings used for the hemisphere integration.
	IrradianceQuality int
	PrefilterSamples  int
	BrdfLutSamples    int
	// EnvironmentSamples > 1 enables multisampling of the environment stage.
	EnvironmentSamples int
	// FilteredSampling samples the environment mip chain based on the sample density
	// in the prefilter stage, which removes most of the fireflies of bright sources.
	FilteredSampling bool
	Selection        GenerationSelection
}

func DefaultBakeConfig() BakeConfig {
	return BakeConfig{
		EnvironmentSize:    512,
		IrradianceSize:     64,
		PrefilterSize:      256,
		BrdfLutSize:        512,
		IrradianceQuality:  32,
		PrefilterSamples:   1024,
		BrdfLutSamples:     1024,
		EnvironmentSamples: 1,
		FilteredSampling:   true,
		Selection:          GenerateAll,
	}
}

func (conf BakeConfig) Validate() error {
	sizes := []struct {
		name string
		size int
	}{
		{"environment", conf.EnvironmentSize},
		{"irradiance", conf.IrradianceSize},
		{"prefilter", conf.PrefilterSize},
		{"brdf lut", conf.BrdfLutSize},
	}
	for _, s := range sizes {
		if !IsPowerOfTwo(s.size) {
			return fmt.Errorf("%w: %s size %d is not a power of two", ErrInput, s.name, s.size)
		}
	}
	if conf.PrefilterSize < 2 {
		return fmt.Errorf("%w: prefilter size must be at least 2 to have a roughness range", ErrSchedule)
	}
	if conf.IrradianceQuality < 0 {
		return fmt.Errorf("%w: irradiance quality %d is negative", ErrInput, conf.IrradianceQuality)
	}
	if conf.PrefilterSamples <= 0 || conf.BrdfLutSamples <= 0 || conf.EnvironmentSamples <= 0 {
		return fmt.Errorf("%w: sample counts must be positive", ErrInput)
	}
	if conf.Selection&GenerateAll == 0 {
		return fmt.Errorf("%w: nothing selected for generation", ErrInput)
	}
	return nil
}
