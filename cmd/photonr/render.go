package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/pprof"
	"time"

	"photonr/camera"
	"photonr/rendercache"
	"photonr/rendermetrics"
	"photonr/sampleimage"
	"photonr/scenefile"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	sceneFile   string
	outputFile  string
	cameraOpts  = camera.DefaultOptions()
	dumpInfo    bool
	workers     int
	seed        int64
	samplesFile string
	resume      bool
	cacheDir    string
	cpuprofile  string
	memprofile  string
)

var cmdRender = &cobra.Command{
	Use:   "render",
	Short: "Render a scene to a PNG",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cpuprofile != "" {
			f, err := os.Create(cpuprofile)
			if err != nil {
				return fmt.Errorf("while creating CPU profile: %w", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("while starting CPU profile: %w", err)
			}
			defer pprof.StopCPUProfile()
		}

		stopMonitoring, err := startMonitoring()
		defer stopMonitoring()
		if err != nil {
			return err
		}

		if err := doRender(cmd.Context()); err != nil {
			glog.Errorf("Render failed: %v", err)
			return err
		}

		if memprofile != "" {
			f, err := os.Create(memprofile)
			if err != nil {
				return fmt.Errorf("while creating memory profile: %w", err)
			}
			defer f.Close()
			if err := pprof.WriteHeapProfile(f); err != nil {
				return fmt.Errorf("while writing memory profile: %w", err)
			}
		}
		return nil
	},
}

func init() {
	flags := cmdRender.Flags()
	flags.StringVar(&sceneFile, "scene", "./scene.json", "JSON scene description")
	flags.StringVar(&outputFile, "output", "./image.png", "Output PNG path or gs://bucket/object URL")
	flags.IntVarP(&cameraOpts.SamplesPerPixel, "samples-per-pixel", "s", cameraOpts.SamplesPerPixel, "Samples traced through each pixel")
	flags.Float64VarP(&cameraOpts.AspectRatio, "aspect-ratio", "a", cameraOpts.AspectRatio, "Image width divided by height")
	flags.IntVarP(&cameraOpts.ImageWidth, "width", "w", cameraOpts.ImageWidth, "Image width in pixels")
	flags.IntVarP(&cameraOpts.MaxDepth, "max-depth", "d", cameraOpts.MaxDepth, "Maximum number of bounces to follow")
	flags.BoolVar(&dumpInfo, "dump-info", false, "Print the derived camera parameters")
	flags.IntVar(&workers, "workers", 0, "Rows rendered concurrently (0 means one per CPU)")
	flags.Int64Var(&seed, "seed", 0, "Random seed (0 means time based)")
	flags.StringVar(&samplesFile, "samples-file", "", "Accumulation file to save raw samples to")
	flags.BoolVar(&resume, "resume", false, "Re-open the samples file and add samples up to --samples-per-pixel")
	flags.StringVar(&cacheDir, "cache-dir", "", "Directory of a render cache; only consulted with an explicit --seed")
	flags.StringVar(&cpuprofile, "cpu-profile", "", "write cpu profile to `file`")
	flags.StringVar(&memprofile, "mem-profile", "", "write memory profile to `file`")
}

func doRender(ctx context.Context) error {
	start := time.Now()

	ctx, span := otel.Tracer("photonr").Start(ctx, "render", trace.WithAttributes(
		attribute.String("scene", sceneFile),
		attribute.String("output", outputFile),
	))
	defer span.End()

	cam, err := camera.New(cameraOpts)
	if err != nil {
		return fmt.Errorf("while configuring camera: %w", err)
	}
	if dumpInfo {
		cam.DumpInfo(os.Stdout)
	}

	f, sceneBytes, err := scenefile.Load(sceneFile)
	if err != nil {
		return err
	}
	sc, err := f.Build()
	if err != nil {
		return fmt.Errorf("while building scene: %w", err)
	}
	glog.Infof("Loaded %d shapes and %d materials from %q", len(sc.Elements), len(sc.Materials), sceneFile)

	ctx = rendermetrics.WithScene(ctx, filepath.Base(sceneFile))

	renderSeed := seed
	if renderSeed == 0 {
		renderSeed = time.Now().UnixNano()
	}

	// Only a fresh render with a chosen seed is reproducible.
	var cache *rendercache.Cache
	var cacheKey []byte
	if cacheDir != "" {
		switch {
		case seed == 0:
			glog.Infof("Not using the render cache without an explicit --seed")
		case samplesFile != "":
			glog.Infof("Not using the render cache with --samples-file")
		default:
			cache, err = rendercache.Open(cacheDir)
			if err != nil {
				return err
			}
			defer cache.Close()
			cacheKey = rendercache.Key(sceneBytes, cameraOpts, seed)

			pixels, ok, err := cache.Get(cacheKey)
			if err != nil {
				return err
			}
			if ok {
				glog.Infof("Render cache hit for %q", sceneFile)
				if err := writeOutput(ctx, outputFile, cam.ImageWidth, cam.ImageHeight, pixels); err != nil {
					return err
				}
				fmt.Printf("Done in %v (cached)\n", time.Since(start))
				return nil
			}
		}
	}

	img, err := loadSampleImage(cam)
	if err != nil {
		return err
	}

	progress := newStderrProgressReporter()
	if err := cam.Accumulate(ctx, sc, img, camera.RenderOptions{
		Workers:  workers,
		Seed:     renderSeed,
		Progress: progress.Report,
	}); err != nil {
		return err
	}

	if samplesFile != "" {
		if err := sampleimage.WriteToFile(img, samplesFile); err != nil {
			return fmt.Errorf("while writing samples file: %w", err)
		}
	}

	pixels := cam.ToneMap(ctx, img)

	if cache != nil {
		if err := cache.Put(cacheKey, pixels); err != nil {
			glog.Warningf("Failed to fill render cache: %v", err)
		}
	}

	if err := writeOutput(ctx, outputFile, cam.ImageWidth, cam.ImageHeight, pixels); err != nil {
		return err
	}

	fmt.Printf("Done in %v\n", time.Since(start))
	return nil
}

// loadSampleImage returns the accumulation image to render into: the saved one
// when resuming, otherwise an empty one.
func loadSampleImage(cam *camera.Camera) (*sampleimage.SampleImage, error) {
	if resume {
		if samplesFile == "" {
			return nil, fmt.Errorf("--resume needs --samples-file")
		}
		img, err := sampleimage.ReadFromFile(samplesFile)
		if err != nil {
			return nil, fmt.Errorf("resumption requested, but encountered error loading existing file: %w", err)
		}
		if img.RowSize != cam.ImageHeight || img.ColSize != cam.ImageWidth {
			return nil, fmt.Errorf("resumption requested, but the existing samples are %dx%d (want %dx%d)", img.ColSize, img.RowSize, cam.ImageWidth, cam.ImageHeight)
		}
		glog.Infof("Resuming from %d samples", img.TotalSamples())
		return img, nil
	}

	// Don't blow away hours of render time.
	if samplesFile != "" {
		if _, err := os.Stat(samplesFile); err == nil {
			return nil, fmt.Errorf("resumption not requested, but samples file %q exists", samplesFile)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("while checking samples file: %w", err)
		}
	}

	return sampleimage.New(cam.ImageHeight, cam.ImageWidth), nil
}
