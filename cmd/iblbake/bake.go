package main

import (
	"flag"
	"fmt"
	"iblbake/ibl"
	"iblbake/libgl"
	"iblbake/libio"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
)

type bakeArgs struct {
	commonArgs
	impl        impl
	generate    selection
	meta        bool
	compress    int
	png         bool
	interactive bool
	tonemap     tonemapArgs
	conf        ibl.BakeConfig
}

func defaultBakeArgs() bakeArgs {
	conf := ibl.DefaultBakeConfig()
	return bakeArgs{
		impl:     implGl,
		generate: selection(conf.Selection),
		meta:     true,
		compress: 0,
		tonemap: tonemapArgs{
			gamma: 2.2,
			scale: 1.0,
		},
		conf: conf,
	}
}

func registerBakeFlags(flags *flag.FlagSet, args *bakeArgs) {
	registerCommonFlags(flags, &args.commonArgs)

	flags.Var(&args.impl, "impl", "the baking implementation; opengl, opencl or software")
	flags.Var(&args.generate, "generate", "comma separated artifacts to generate; brdf, irradiance, prefilter or all")
	flags.Var(&args.generate, "g", "shorthand for generate")
	flags.BoolVar(&args.meta, "meta", args.meta, "write meta.lua next to the artifacts")
	flags.IntVar(&args.compress, "compress", args.compress, "the lz4 compression level from 0 (none) to 10 (high)")
	flags.IntVar(&args.compress, "c", args.compress, "shorthand for compress")
	flags.BoolVar(&args.png, "png", args.png, "also write a tonemapped png of every artifact")
	flags.BoolVar(&args.interactive, "interactive", args.interactive, "show the artifacts in a window after baking")
	flags.Float64Var(&args.tonemap.gamma, "gamma", args.tonemap.gamma, "gamma correction value of png and window output")
	flags.Float64Var(&args.tonemap.scale, "scale", args.tonemap.scale, "brightness scale factor of png and window output")
	flags.BoolVar(&args.tonemap.reinhard, "reinhard", args.tonemap.reinhard, "apply reinhard tonemapping to png and window output")

	flags.IntVar(&args.conf.EnvironmentSize, "env-size", args.conf.EnvironmentSize, "the face size of the intermediate environment cube map")
	flags.IntVar(&args.conf.IrradianceSize, "irradiance-size", args.conf.IrradianceSize, "the face size of the irradiance cube map")
	flags.IntVar(&args.conf.PrefilterSize, "prefilter-size", args.conf.PrefilterSize, "the base face size of the prefilter cube map")
	flags.IntVar(&args.conf.BrdfLutSize, "brdf-size", args.conf.BrdfLutSize, "the size of the brdf lookup texture")
	flags.IntVar(&args.conf.IrradianceQuality, "irradiance-quality", args.conf.IrradianceQuality, "the number of rings integrated per irradiance texel")
	flags.IntVar(&args.conf.PrefilterSamples, "prefilter-samples", args.conf.PrefilterSamples, "the number of importance samples per prefilter texel")
	flags.IntVar(&args.conf.BrdfLutSamples, "brdf-samples", args.conf.BrdfLutSamples, "the number of importance samples per brdf lut texel")
	flags.IntVar(&args.conf.EnvironmentSamples, "env-samples", args.conf.EnvironmentSamples, "the number of samples per environment texel")
	flags.BoolVar(&args.conf.FilteredSampling, "filtered", args.conf.FilteredSampling, "sample the environment mip chain in the prefilter stage")
}

func createBakeCommand() *command {
	args := defaultBakeArgs()
	flags := flag.NewFlagSet("bake", flag.ExitOnError)
	registerBakeFlags(flags, &args)

	return &command{
		Name: "bake",
		Help: "bake irradiance, prefilter and brdf lut artifacts from an equirectangular image",
		Run: func(self *command) {
			if self.Flags.NArg() != 1 || args.compress < 0 || args.compress > 10 {
				printCommandUsage(self, " input-file")
			}
			setCommonArgs(&args.commonArgs)

			harderr(runBake(args, self.Flags.Arg(0)))
		},
		Flags: flags,
	}
}

// config returns the bake config with the selection applied.
func (args bakeArgs) config() ibl.BakeConfig {
	conf := args.conf
	conf.Selection = ibl.GenerationSelection(args.generate)
	return conf
}

// writeOptions maps the flags onto artifact write options.
// Compression level 1 to 10 maps onto lz4 levels 0 to 9.
func (args bakeArgs) writeOptions(input string) []ibl.WriteOption {
	opts := []ibl.WriteOption{}
	if args.compress > 0 {
		opts = append(opts, ibl.OptCompress(args.compress-1))
	}
	if args.meta {
		opts = append(opts, ibl.OptMetadata(ibl.NewMetadata(baseName(input), cargs.out, args.config())))
	}
	return opts
}

func runBake(args bakeArgs, input string) error {
	conf := args.config()
	if err := conf.Validate(); err != nil {
		return err
	}

	infof("Loading %q ...\n", filepath.ToSlash(filepath.Clean(input)))
	img, err := loadImage(input)
	if err != nil {
		return err
	}

	backend, release, err := createBackend(args.impl)
	if err != nil {
		return err
	}

	infof("Baking %dx%d image using %s ...\n", img.Width, img.Height, backend.Name())
	start := time.Now()
	artifacts, err := ibl.Run(backend, img, conf)
	release()
	if err != nil {
		return err
	}
	infof("Baked %d artifacts in %.3f seconds\n", len(artifacts), float32(time.Since(start).Milliseconds())/1000)

	paths, err := ibl.WriteArtifacts(cargs.out, artifacts, args.writeOptions(input)...)
	if err != nil {
		return err
	}
	for _, p := range paths {
		infof("Wrote %q\n", filepath.ToSlash(filepath.Clean(p)))
	}

	if args.png {
		for _, a := range artifacts {
			p, err := writeArtifactPng(a, cargs.out, args.tonemap)
			if softerr(err) {
				continue
			}
			infof("Wrote %q\n", filepath.ToSlash(filepath.Clean(p)))
		}
	}

	if args.interactive {
		return viewArtifacts(artifacts, args.tonemap)
	}
	return nil
}

func loadImage(p string) (*libio.FloatImage, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ibl.ErrInput, err)
	}
	defer close(f)

	img, err := libio.LoadImage(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %q: %w", ibl.ErrInput, p, err)
	}
	return img, nil
}

// createBackend creates the requested backend, falling back to software when
// it is not available. release frees the backend and its context.
func createBackend(name impl) (backend ibl.Backend, release func(), err error) {
	if name == implSw {
		backend, err = ibl.NewBackend(string(implSw))
		return backend, func() { backend.Release() }, err
	}

	var window *glfw.Window
	if name == implGl {
		window, err = libgl.CreateContext(libgl.ContextConfig{
			Width:   1,
			Height:  1,
			Title:   "iblbake",
			Visible: false,
			Debug:   cargs.verbose,
		})
		if err == nil && cargs.verbose {
			libgl.EnableDebugOutput(slog.Default())
		}
	}
	if err == nil {
		backend, err = ibl.NewBackend(string(name))
	}
	if err == nil {
		return backend, func() {
			backend.Release()
			if window != nil {
				window.Destroy()
				glfw.Terminate()
			}
		}, nil
	}

	if window != nil {
		window.Destroy()
		glfw.Terminate()
	}
	softerr(fmt.Errorf("%s is not available, falling back to software: %w", name, err))
	backend, err = ibl.NewBackend(string(implSw))
	return backend, func() { backend.Release() }, err
}
