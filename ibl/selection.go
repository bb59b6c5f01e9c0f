package ibl

import (
	"fmt"
	"strings"
)

// GenerationSelection selects the exported artifacts.
// The environment cube map is always baked, but never exported.
type GenerationSelection uint8

const (
	GenerateBrdfLut GenerationSelection = 1 << iota
	GenerateIrradiance
	GeneratePrefilter

	GenerateAll = GenerateBrdfLut | GenerateIrradiance | GeneratePrefilter
)

var selectionNames = []struct {
	name string
	flag GenerationSelection
}{
	{"brdf", GenerateBrdfLut},
	{"irradiance", GenerateIrradiance},
	{"prefilter", GeneratePrefilter},
}

// ParseSelection parses a comma separated list of brdf, irradiance, prefilter or all.
func ParseSelection(s string) (GenerationSelection, error) {
	var sel GenerationSelection
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if part == "all" {
			sel |= GenerateAll
			continue
		}
		found := false
		for _, n := range selectionNames {
			if n.name == part {
				sel |= n.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: unknown generation target %q, expected one of brdf, irradiance, prefilter, all", ErrInput, part)
		}
	}
	if sel == 0 {
		return 0, fmt.Errorf("%w: empty generation selection", ErrInput)
	}
	return sel, nil
}

func (sel GenerationSelection) Has(flag GenerationSelection) bool {
	return sel&flag == flag
}

func (sel GenerationSelection) String() string {
	if sel == GenerateAll {
		return "all"
	}
	names := []string{}
	for _, n := range selectionNames {
		if sel.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, ",")
}
