package ibl

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Metadata describes a baked set of artifacts.
type Metadata struct {
	// Name is the base name of the source image.
	Name string
	// Path is the output directory.
	Path              string
	IrradianceSize    int
	PrefilterSize     int
	PrefilterMipCount int
	BrdfLutSize       int
}

func NewMetadata(name, path string, conf BakeConfig) Metadata {
	return Metadata{
		Name:              name,
		Path:              path,
		IrradianceSize:    conf.IrradianceSize,
		PrefilterSize:     conf.PrefilterSize,
		PrefilterMipCount: MipCount(conf.PrefilterSize),
		BrdfLutSize:       conf.BrdfLutSize,
	}
}

// EncodeMetadata writes meta as a lua chunk returning a table.
func EncodeMetadata(w io.Writer, meta Metadata) error {
	_, err := fmt.Fprintf(w, "return {\n"+
		"    name = %s,\n"+
		"    path = %s,\n"+
		"    irradiance_size = %d,\n"+
		"    prefilter_size = %d,\n"+
		"    prefilter_mip_count = %d,\n"+
		"    brdf_lut_size = %d,\n"+
		"}\n",
		luaString(meta.Name), luaString(meta.Path),
		meta.IrradianceSize, meta.PrefilterSize, meta.PrefilterMipCount, meta.BrdfLutSize)
	return err
}

// luaString quotes s as a lua string literal. Valid utf8 passes through,
// control characters and invalid bytes use three digit decimal escapes
// which every lua version reads.
func luaString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); {
		r, n := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == utf8.RuneError && n <= 1:
			fmt.Fprintf(&sb, "\\%03d", s[i])
		case r == '"' || r == '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&sb, "\\%03d", r)
		default:
			sb.WriteString(s[i : i+n])
		}
		i += n
	}
	sb.WriteByte('"')
	return sb.String()
}
