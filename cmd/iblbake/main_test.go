package main

import (
	"errors"
	"flag"
	"iblbake/ibl"
	goimg "image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeInputPng(t *testing.T, dir string) string {
	t.Helper()
	img := goimg.NewRGBA(goimg.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 32), uint8(y * 64), 128, 255})
		}
	}
	p := filepath.Join(dir, "studio.png")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return p
}

func tinyBakeArgs(out string) bakeArgs {
	conf := ibl.DefaultBakeConfig()
	conf.EnvironmentSize = 8
	conf.IrradianceSize = 4
	conf.PrefilterSize = 8
	conf.BrdfLutSize = 4
	conf.IrradianceQuality = 1
	conf.PrefilterSamples = 4
	conf.BrdfLutSamples = 4
	return bakeArgs{
		commonArgs: commonArgs{out: out, quiet: true, supress: true},
		impl:       implSw,
		generate:   selection(ibl.GenerateAll),
		meta:       true,
		tonemap:    tonemapArgs{gamma: 2.2, scale: 1.0},
		conf:       conf,
	}
}

func TestImplFlag(t *testing.T) {
	var i impl
	for _, name := range []string{"opengl", "OpenCL", " software "} {
		if err := i.Set(name); err != nil {
			t.Errorf("%q should be a valid implementation but is not: %v\n", name, err)
		}
	}
	if i != implSw {
		t.Errorf("implementation should be %q but is %q\n", implSw, i)
	}
	if err := i.Set("vulkan"); err == nil {
		t.Errorf("vulkan should not be a valid implementation\n")
	}
}

func TestSelectionFlag(t *testing.T) {
	var sel selection
	if err := sel.Set("brdf,prefilter"); err != nil {
		t.Fatal(err)
	}
	if ibl.GenerationSelection(sel) != ibl.GenerateBrdfLut|ibl.GeneratePrefilter {
		t.Errorf("selection should be brdf and prefilter but is %v\n", sel.String())
	}
	if err := sel.Set("specular"); !errors.Is(err, ibl.ErrInput) {
		t.Errorf("unknown selection should be an input error but is %v\n", err)
	}
}

func TestFindCommand(t *testing.T) {
	commands = []*command{createBakeCommand(), createPreviewCommand()}
	t.Cleanup(func() { commands = nil })

	if c := findCommand("BAKE"); c == nil || c.Name != "bake" {
		t.Errorf("bake command should be found case insensitively\n")
	}
	if c := findCommand("convert"); c != nil {
		t.Errorf("convert should not be a command but is %q\n", c.Name)
	}
}

func TestBakeFlagsMapOntoConfig(t *testing.T) {
	args := defaultBakeArgs()
	flags := flag.NewFlagSet("bake", flag.ContinueOnError)
	registerBakeFlags(flags, &args)

	err := flags.Parse([]string{"-g", "irradiance", "-impl", "software", "-env-size", "128", "-prefilter-samples", "64", "-filtered=false", "-c", "3", "input.hdr"})
	if err != nil {
		t.Fatal(err)
	}
	if flags.Arg(0) != "input.hdr" {
		t.Errorf("input should be input.hdr but is %q\n", flags.Arg(0))
	}

	conf := args.config()
	if conf.Selection != ibl.GenerateIrradiance {
		t.Errorf("selection should be irradiance but is %v\n", conf.Selection)
	}
	if conf.EnvironmentSize != 128 || conf.PrefilterSamples != 64 || conf.FilteredSampling {
		t.Errorf("config should have env size 128, 64 prefilter samples and no filtering but is %+v\n", conf)
	}
	if conf.IrradianceSize != 64 {
		t.Errorf("irradiance size should keep the default 64 but is %d\n", conf.IrradianceSize)
	}
	if args.impl != implSw || args.compress != 3 {
		t.Errorf("impl should be software with compression 3 but is %s with %d\n", args.impl, args.compress)
	}
}

func TestBakeFlagsRejectInvalidSelection(t *testing.T) {
	args := defaultBakeArgs()
	flags := flag.NewFlagSet("bake", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	registerBakeFlags(flags, &args)

	if err := flags.Parse([]string{"-generate", "diffuse"}); err == nil {
		t.Errorf("parsing an invalid selection should fail\n")
	}
}

func TestRunBakeWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	if err := os.Mkdir(out, 0777); err != nil {
		t.Fatal(err)
	}
	input := writeInputPng(t, dir)

	args := tinyBakeArgs(out)
	args.png = true
	cargs = &args.commonArgs

	if err := runBake(args, input); err != nil {
		t.Fatal(err)
	}

	sizes := map[string]int64{
		"brdf_lut.bin":       4 * 4 * 8,
		"irradiance.bin":     6 * 4 * 4 * 8,
		"prefilter_mm_0.bin": 6 * 8 * 8 * 8,
		"prefilter_mm_1.bin": 6 * 4 * 4 * 8,
		"prefilter_mm_2.bin": 6 * 2 * 2 * 8,
		"prefilter_mm_3.bin": 6 * 1 * 1 * 8,
	}
	for name, size := range sizes {
		info, err := os.Stat(filepath.Join(out, name))
		if err != nil {
			t.Errorf("%s should exist but does not: %v\n", name, err)
			continue
		}
		if info.Size() != size {
			t.Errorf("%s should have %d bytes but has %d\n", name, size, info.Size())
		}
		pngName := strings.TrimSuffix(name, ".bin") + ".png"
		if _, err := os.Stat(filepath.Join(out, pngName)); err != nil {
			t.Errorf("%s should exist but does not: %v\n", pngName, err)
		}
	}

	meta, err := os.ReadFile(filepath.Join(out, ibl.MetadataFileName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(meta), `name = "studio"`) {
		t.Errorf("meta.lua should name the input studio but is:\n%s\n", meta)
	}
	if !strings.Contains(string(meta), "prefilter_mip_count = 4") {
		t.Errorf("meta.lua should have 4 prefilter mips but is:\n%s\n", meta)
	}
}

func TestRunBakeCompressedWithoutMeta(t *testing.T) {
	dir := t.TempDir()
	input := writeInputPng(t, dir)
	out := t.TempDir()

	args := tinyBakeArgs(out)
	args.generate = selection(ibl.GenerateBrdfLut)
	args.meta = false
	args.compress = 10
	cargs = &args.commonArgs

	if err := runBake(args, input); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "brdf_lut.bin.lz4" {
		names := []string{}
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("output should only contain brdf_lut.bin.lz4 but contains %v\n", names)
	}

	a, err := ibl.ReadArtifact(filepath.Join(out, "brdf_lut.bin.lz4"))
	if err != nil {
		t.Fatal(err)
	}
	if a.Size != 4 || a.Kind != ibl.Target2D {
		t.Errorf("artifact should be a 4x4 2D texture but is %dx%d %v\n", a.Size, a.Size, a.Kind)
	}
}

func TestRunBakeRejectsMissingInput(t *testing.T) {
	out := t.TempDir()
	args := tinyBakeArgs(out)
	cargs = &args.commonArgs

	err := runBake(args, filepath.Join(out, "missing.hdr"))
	if !errors.Is(err, ibl.ErrInput) {
		t.Errorf("missing input should be an input error but is %v\n", err)
	}

	entries, _ := os.ReadDir(out)
	if len(entries) != 0 {
		t.Errorf("nothing should be written but %d files are\n", len(entries))
	}
}

func TestPreviewInputFiles(t *testing.T) {
	dir := t.TempDir()
	input := writeInputPng(t, dir)
	out := t.TempDir()

	args := tinyBakeArgs(out)
	args.generate = selection(ibl.GenerateIrradiance | ibl.GenerateBrdfLut)
	cargs = &args.commonArgs
	if err := runBake(args, input); err != nil {
		t.Fatal(err)
	}

	files, err := previewInputFiles([]string{out})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Errorf("directory should contain 2 artifacts but has %v\n", files)
	}

	files, err = previewInputFiles([]string{filepath.Join(out, "irr*")})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "irradiance.bin" {
		t.Errorf("glob should match irradiance.bin but matches %v\n", files)
	}

	if _, err := previewInputFiles([]string{filepath.Join(out, "*.exr")}); !errors.Is(err, ibl.ErrInput) {
		t.Errorf("no matches should be an input error but is %v\n", err)
	}
}

func TestWriteArtifactPngOrientation(t *testing.T) {
	out := t.TempDir()
	cargs = &commonArgs{out: out, quiet: true, supress: true}

	// white top row, black bottom row
	pix := []uint16{}
	white, black := uint16(0x3c00), uint16(0x0000)
	for _, v := range []uint16{white, white, black, black} {
		pix = append(pix, v, v, v, 0x3c00)
	}
	data := make([]byte, 0, len(pix)*2)
	for _, v := range pix {
		data = append(data, byte(v), byte(v>>8))
	}
	a := &ibl.Artifact{Name: "lut", Kind: ibl.Target2D, Size: 2, Data: data}

	p, err := writeArtifactPng(a, out, tonemapArgs{gamma: 1, scale: 1})
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}

	top, _, _, _ := img.At(0, 0).RGBA()
	bottom, _, _, _ := img.At(0, 1).RGBA()
	if top != 0xffff || bottom != 0 {
		t.Errorf("top row should be white and bottom row black but are %d and %d\n", top, bottom)
	}
}
