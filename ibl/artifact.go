package ibl

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pierrec/lz4/v4"
)

const (
	MetadataFileName = "meta.lua"
	lz4Suffix        = ".lz4"
)

type writeOptions struct {
	compress bool
	level    lz4.CompressionLevel
	meta     *Metadata
}

type WriteOption func(opts *writeOptions)

// OptCompress wraps every artifact in an lz4 frame and appends .lz4 to its file name.
// level 0 is the fastest, 9 the strongest. A negative level disables compression.
func OptCompress(level int) WriteOption {
	levels := []lz4.CompressionLevel{lz4.Fast, lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4, lz4.Level5, lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9}
	if level < 0 {
		return nil
	}

	if level >= len(levels) {
		level = len(levels) - 1
	}

	return func(opts *writeOptions) {
		opts.compress = true
		opts.level = levels[level]
	}
}

// OptMetadata also writes meta.lua.
func OptMetadata(meta Metadata) WriteOption {
	return func(opts *writeOptions) {
		opts.meta = &meta
	}
}

// ValidateOutputDir checks that dir exists and is a directory. It is not created.
func ValidateOutputDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: output directory: %w", ErrFilesystem, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: output path %q is not a directory", ErrFilesystem, dir)
	}
	return nil
}

type encodedFile struct {
	name string
	data []byte
}

// WriteArtifacts writes the artifacts and optional metadata into dir and returns
// the written paths. Everything is encoded before the first file is created;
// when a write fails the files written so far are removed again.
func WriteArtifacts(dir string, artifacts []*Artifact, options ...WriteOption) (paths []string, err error) {
	opts := writeOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}

	if err := ValidateOutputDir(dir); err != nil {
		return nil, err
	}

	files := make([]encodedFile, 0, len(artifacts)+1)
	for _, a := range artifacts {
		if len(a.Data) != a.ExpectedBytes() {
			return nil, fmt.Errorf("%w: artifact %s has %d bytes, expected %d", ErrResource, a.Name, len(a.Data), a.ExpectedBytes())
		}
		file := encodedFile{name: a.FileName(), data: a.Data}
		if opts.compress {
			file.name += lz4Suffix
			file.data, err = compressLz4(a.Data, opts.level)
			if err != nil {
				return nil, fmt.Errorf("compress %s: %w", a.Name, err)
			}
		}
		files = append(files, file)
	}

	if opts.meta != nil {
		buf := new(bytes.Buffer)
		if err := EncodeMetadata(buf, *opts.meta); err != nil {
			return nil, err
		}
		files = append(files, encodedFile{name: MetadataFileName, data: buf.Bytes()})
	}

	defer func() {
		if err != nil {
			for _, path := range paths {
				if rmErr := os.Remove(path); rmErr != nil {
					Logger().Warn("could not remove partial output", "path", path, "error", rmErr)
				}
			}
			paths = nil
		}
	}()

	for _, file := range files {
		path := filepath.Join(dir, file.name)
		if err := os.WriteFile(path, file.data, 0666); err != nil {
			// the file may exist partially
			if info, statErr := os.Lstat(path); statErr == nil && info.Mode().IsRegular() {
				paths = append(paths, path)
			}
			return paths, fmt.Errorf("%w: %w", ErrFilesystem, err)
		}
		paths = append(paths, path)
		Logger().Debug("artifact written", "path", path, "bytes", len(file.data))
	}
	return paths, nil
}

func compressLz4(data []byte, level lz4.CompressionLevel) ([]byte, error) {
	buf := new(bytes.Buffer)
	lzw := lz4.NewWriter(buf)
	if err := lzw.Apply(lz4.CompressionLevelOption(level)); err != nil {
		return nil, err
	}
	if _, err := lzw.Write(data); err != nil {
		return nil, err
	}
	if err := lzw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadArtifact reads an artifact file written by WriteArtifacts.
// Kind and size are derived from the file name and length.
func ReadArtifact(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFilesystem, err)
	}
	defer f.Close()

	name := filepath.Base(path)
	var r io.Reader = f
	if strings.HasSuffix(name, lz4Suffix) {
		name = strings.TrimSuffix(name, lz4Suffix)
		r = lz4.NewReader(f)
	}
	name, ok := strings.CutSuffix(name, ".bin")
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an artifact", ErrInput, path)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFilesystem, path, err)
	}

	a := &Artifact{Name: name, Kind: TargetCube, Stage: StageIrradiance, Data: data}
	switch {
	case name == "brdf_lut":
		a.Kind = Target2D
		a.Stage = StageBrdfLut
	case strings.HasPrefix(name, "prefilter_mm_"):
		a.Stage = StagePrefilter
		suffix := strings.TrimPrefix(name, "prefilter_mm_")
		level, err := strconv.Atoi(suffix)
		if err != nil || strconv.Itoa(level) != suffix || level < 0 {
			return nil, fmt.Errorf("%w: %q has no mip level", ErrInput, name)
		}
		a.Level = level
	case name != "irradiance":
		return nil, fmt.Errorf("%w: unknown artifact %q", ErrInput, name)
	}

	texels := len(data) / 8 / a.Faces()
	size := 1
	for size*size < texels {
		size *= 2
	}
	if size*size != texels || texels*8*a.Faces() != len(data) {
		return nil, fmt.Errorf("%w: artifact %q has an invalid length of %d bytes", ErrInput, name, len(data))
	}
	a.Size = size
	return a, nil
}

// ListArtifacts returns the artifact files in dir, sorted by name.
func ListArtifacts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFilesystem, err)
	}
	var paths []string
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), lz4Suffix)
		if e.IsDir() || !strings.HasSuffix(name, ".bin") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no artifacts in %q", ErrInput, dir)
	}
	return paths, nil
}
