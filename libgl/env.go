package libgl

import (
	"strings"

	"github.com/go-gl/gl/v4.5-core/gl"
)

// Env describes the driver of the current context. Set by Init.
var Env *Environment

type Environment struct {
	Vendor   string
	Renderer string
	Version  string
	// https://community.intel.com/t5/Graphics/glNamedFramebufferTextureLayer-rejects-cubemaps-of-any-kind/td-p/1167643
	UseIntelCubemapDsaFix bool
	Features              Features
}

type Features struct {
	MaxTextureSize int32
	MaxSamples     int32
}

const (
	VendorIntel   = "intel"
	VendorNvidia  = "nvidia"
	VendorAmd     = "ati"
	VendorUnknown = "unknown"
)

// Init must be called once after gl.Init with the context current.
func Init() {
	Env = GetEnv()
	State = NewStateManager()
}

func GetEnv() *Environment {
	vendor := strings.ToLower(gl.GoStr(gl.GetString(gl.VENDOR)))
	if strings.Contains(vendor, "intel") {
		vendor = VendorIntel
	} else if strings.Contains(vendor, "nvidia") {
		vendor = VendorNvidia
	} else if strings.Contains(vendor, "ati ") || strings.Contains(vendor, "amd") {
		vendor = VendorAmd
	} else {
		vendor = VendorUnknown
	}

	features := Features{}
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &features.MaxTextureSize)
	gl.GetIntegerv(gl.MAX_SAMPLES, &features.MaxSamples)

	return &Environment{
		Vendor:                vendor,
		Renderer:              gl.GoStr(gl.GetString(gl.RENDERER)),
		Version:               gl.GoStr(gl.GetString(gl.VERSION)),
		UseIntelCubemapDsaFix: vendor == VendorIntel,
		Features:              features,
	}
}
