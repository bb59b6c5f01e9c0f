package ibl

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"iblbake/libio"
)

// Artifact is an exported texture level encoded as little endian float16 RGBA.
// Cube faces are stored in ExportFaceOrder, rows top to bottom.
type Artifact struct {
	Name  string
	Stage StageID
	Kind  TargetKind
	// Size is the edge length of the stored level.
	Size  int
	Level int
	Data  []byte
}

func (a *Artifact) Faces() int {
	return a.Kind.Faces()
}

// ExpectedBytes returns faces * size * size * 4 channels * 2 bytes.
func (a *Artifact) ExpectedBytes() int {
	return a.Faces() * a.Size * a.Size * 4 * 2
}

func (a *Artifact) FileName() string {
	return a.Name + ".bin"
}

// Readback reads every exported level of the baked stages back from the backend.
func (p *BakePipeline) Readback() ([]*Artifact, error) {
	if p.state != StateDone {
		return nil, fmt.Errorf("%w: cannot read back in state %v", ErrState, p.state)
	}

	var artifacts []*Artifact
	for _, stage := range p.stages {
		if stage.Export == "" {
			continue
		}
		target, ok := p.targets[stage.ID]
		if !ok {
			return nil, fmt.Errorf("%w: stage %s was released", ErrState, stage.Name())
		}
		for level := 0; level < stage.RenderLevels; level++ {
			a, err := ReadbackArtifact(p.backend, target.Color, level, stage.ArtifactName(level))
			if err != nil {
				return nil, fmt.Errorf("stage %s: %w", stage.Name(), err)
			}
			a.Stage = stage.ID
			artifacts = append(artifacts, a)
		}
	}
	return artifacts, nil
}

// ReadbackArtifact reads one level of target, flips it to top to bottom,
// orders the faces for export and encodes the texels as float16.
func ReadbackArtifact(backend Backend, target Target, level int, name string) (*Artifact, error) {
	desc := target.Desc()
	w, h := desc.LevelSize(level)
	if w != h {
		return nil, fmt.Errorf("%w: %q is not square", ErrResource, desc.Label)
	}

	faceLen := w * h * 4
	order := []CubeMapFace{CubeMapPositiveX}
	if desc.Kind == TargetCube {
		order = ExportFaceOrder[:]
	}

	pix := make([]float32, len(order)*faceLen)
	for i, face := range order {
		dst := pix[i*faceLen : (i+1)*faceLen]
		if err := backend.ReadbackPixels(target, face, level, dst); err != nil {
			return nil, fmt.Errorf("%w: readback of (%v, %d): %w", ErrResource, face, level, err)
		}
		libio.FlipVertical(dst, w*4, h)
	}

	half := make([]uint16, len(pix))
	libio.EncodeFloat16(half, pix)

	buf := bytes.NewBuffer(make([]byte, 0, len(half)*2))
	bw := &libio.BinaryWriter{Dst: buf, Order: binary.LittleEndian}
	if !bw.WriteUInt16s(half) {
		return nil, bw.Err
	}

	Logger().Debug("artifact read back", "name", name, "size", w, "level", level, "bytes", buf.Len())
	return &Artifact{
		Name:  name,
		Kind:  desc.Kind,
		Size:  w,
		Level: level,
		Data:  buf.Bytes(),
	}, nil
}

// DecodeArtifact converts an artifact back to float32 RGBA. The faces are stacked
// vertically in export order, rows top to bottom.
func DecodeArtifact(a *Artifact) (*libio.FloatImage, error) {
	if len(a.Data) != a.ExpectedBytes() {
		return nil, fmt.Errorf("%w: artifact %s has %d bytes, expected %d", ErrInput, a.Name, len(a.Data), a.ExpectedBytes())
	}

	br := &libio.BinaryReader{Src: bytes.NewReader(a.Data), Order: binary.LittleEndian}
	half := make([]uint16, len(a.Data)/2)
	if !br.ReadUInt16s(half) {
		return nil, br.Err
	}

	pix := make([]float32, len(half))
	libio.DecodeFloat16(pix, half)
	return libio.NewFloatImage(pix, 4, a.Size, a.Size*a.Faces()), nil
}
