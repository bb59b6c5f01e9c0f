package main

import (
	"flag"
	"fmt"
	"iblbake/ibl"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

type previewArgs struct {
	commonArgs
	tonemap     tonemapArgs
	interactive bool
}

func createPreviewCommand() *command {

	args := previewArgs{
		tonemap: tonemapArgs{
			gamma:    2.2,
			scale:    1.0,
			reinhard: false,
		},
	}

	flags := flag.NewFlagSet("preview", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)

	flags.Float64Var(&args.tonemap.gamma, "gamma", args.tonemap.gamma, "gamma correction value")
	flags.Float64Var(&args.tonemap.scale, "scale", args.tonemap.scale, "brightness scale factor")
	flags.BoolVar(&args.tonemap.reinhard, "reinhard", args.tonemap.reinhard, "apply reinhard tonemapping")
	flags.BoolVar(&args.interactive, "interactive", args.interactive, "show the artifacts in a window instead of writing png files")

	return &command{
		Name: "preview",
		Help: "render baked artifacts to png or show them in a window",
		Run: func(self *command) {
			if self.Flags.NArg() < 1 {
				printCommandUsage(self, " artifact-dir-or-file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			files, err := previewInputFiles(self.Flags.Args())
			harderr(err)
			runPreview(args, files)
		},
		Flags: flags,
	}
}

// previewInputFiles expands directories to the artifacts they contain
// and everything else as a glob.
func previewInputFiles(args []string) ([]string, error) {
	files := []string{}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			paths, err := ibl.ListArtifacts(arg)
			if err != nil {
				return nil, err
			}
			files = append(files, paths...)
			continue
		}
		files = append(files, gatherInputFiles([]string{arg})...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no input files", ibl.ErrInput)
	}
	return files, nil
}

func runPreview(args previewArgs, inputFiles []string) {
	artifacts := []*ibl.Artifact{}
	for _, p := range inputFiles {
		a, err := ibl.ReadArtifact(p)
		if softerr(err) {
			continue
		}
		artifacts = append(artifacts, a)
	}

	if args.interactive {
		harderr(viewArtifacts(artifacts, args.tonemap))
		return
	}

	success := 0
	start := time.Now()
	for i, a := range artifacts {
		infof("Processing artifact %d/%d %q ...\n", i+1, len(artifacts), a.Name)
		p, err := writeArtifactPng(a, cargs.out, args.tonemap)
		if softerr(err) {
			continue
		}
		infof("Wrote %q\n", filepath.ToSlash(filepath.Clean(p)))
		success++
	}
	took := float32(time.Since(start).Milliseconds()) / 1000
	infof("Converted %d/%d files in %.3f seconds\n", success, len(inputFiles), took)
}

// writeArtifactPng writes a tonemapped png of the artifact into dir.
// Cube map faces are stacked vertically in export order.
func writeArtifactPng(a *ibl.Artifact, dir string, tm tonemapArgs) (string, error) {
	fimg, err := ibl.DecodeArtifact(a)
	if err != nil {
		return "", err
	}

	if tm.reinhard {
		for i := 0; i < fimg.Count(); i++ {
			fimg.Pix[i*4+0] = fimg.Pix[i*4+0] / (1 + fimg.Pix[i*4+0])
			fimg.Pix[i*4+1] = fimg.Pix[i*4+1] / (1 + fimg.Pix[i*4+1])
			fimg.Pix[i*4+2] = fimg.Pix[i*4+2] / (1 + fimg.Pix[i*4+2])
		}
	}
	// back to bottom up rows, ToRGBA flips them again
	fimg.FlipVertical()
	rgba := fimg.ToIntImage(float32(tm.gamma), float32(tm.scale)).ToRGBA()

	outFilename := filepath.Join(dir, a.Name+".png")
	outFile, err := os.OpenFile(outFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ibl.ErrFilesystem, err)
	}
	defer close(outFile)

	if err := png.Encode(outFile, rgba); err != nil {
		return "", err
	}
	return outFilename, nil
}
