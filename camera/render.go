package camera

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"photonr/rendermetrics"
	"photonr/sampleimage"
	"photonr/scene"

	"github.com/golang/glog"
	"go.opencensus.io/stats"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

type ProgressFunction func(done, total int)

type RenderOptions struct {
	// Workers is the number of rows rendered concurrently.  Defaults to the
	// number of CPUs.
	Workers int

	// Seed determines every random choice made during the render.  Two
	// renders of the same scene with the same seed produce identical images.
	Seed int64

	// Progress, if set, is called after each row completes with the number of
	// finished rows.  Calls are serialized.
	Progress ProgressFunction
}

// rowSeed gives every row its own random stream.  Mixing in the samples already
// recorded keeps a resumed render from replaying the streams of the first pass.
// Each input goes through a full splitmix64 round, so nearby seeds and rows
// don't share streams.
func rowSeed(seed int64, existingSamples, row int) int64 {
	h := splitmix64(uint64(seed))
	h = splitmix64(h ^ uint64(existingSamples))
	h = splitmix64(h ^ uint64(row))
	return int64(h)
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// Render traces SamplesPerPixel samples through every pixel and returns the
// tone-mapped image as 3*ImageWidth*ImageHeight bytes of row-major RGB.
func (c *Camera) Render(ctx context.Context, sc *scene.Scene, opts RenderOptions) ([]byte, error) {
	img := sampleimage.New(c.ImageHeight, c.ImageWidth)
	if err := c.Accumulate(ctx, sc, img, opts); err != nil {
		return nil, err
	}
	return c.ToneMap(ctx, img), nil
}

// ToneMap converts accumulated radiance into RGB8 pixels, reporting pixels with
// non-finite radiance rather than failing.
func (c *Camera) ToneMap(ctx context.Context, img *sampleimage.SampleImage) []byte {
	out, bad := img.ToRGB8()
	if len(bad) != 0 {
		glog.Warningf("%d pixels had non-finite radiance", len(bad))
		stats.Record(ctx, rendermetrics.NonFinitePixels.M(int64(len(bad))))
	}
	return out
}

// Accumulate tops up every pixel of img to SamplesPerPixel samples.  Pixels
// that already have enough samples are left alone, so an image loaded from an
// earlier, shorter render can be refined in place.
//
// Rows are independent units of work handed to a fixed pool of workers.  Each
// row is rendered into a private buffer with its own random stream and pasted
// back by row index.
func (c *Camera) Accumulate(ctx context.Context, sc *scene.Scene, img *sampleimage.SampleImage, opts RenderOptions) error {
	tracer := otel.Tracer("photonr/camera")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Camera.Accumulate", trace.WithAttributes(
		attribute.Int("image.width", c.ImageWidth),
		attribute.Int("image.height", c.ImageHeight),
		attribute.Int("samples_per_pixel", c.SamplesPerPixel),
		attribute.Int("max_depth", c.MaxDepth),
	))
	defer span.End()

	if err := c.checkImage(img); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if err := sc.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("while validating scene: %w", err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	existingSamples := img.TotalSamples()

	glog.Infof("Rendering %dx%d, %d samples per pixel, max depth %d, %d workers", c.ImageWidth, c.ImageHeight, c.SamplesPerPixel, c.MaxDepth, workers)
	start := time.Now()

	// mu guards img and rowsDone.
	var mu sync.Mutex
	rowsDone := 0

	rows := make(chan int)
	var g errgroup.Group

	g.Go(func() error {
		defer close(rows)
		for r := 0; r < c.ImageHeight; r++ {
			rows <- r
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for r := range rows {
				mu.Lock()
				rowImg := img.Cut(r, r+1, 0, c.ImageWidth)
				mu.Unlock()

				rng := rand.New(rand.NewSource(rowSeed(opts.Seed, existingSamples, r)))
				traced := c.renderRow(sc, rowImg, r, rng)
				glog.V(1).Infof("Row %d: traced %d samples", r, traced)

				mu.Lock()
				img.Paste(rowImg, r, 0)
				rowsDone++
				if opts.Progress != nil {
					opts.Progress(rowsDone, c.ImageHeight)
				}
				mu.Unlock()

				stats.Record(ctx, rendermetrics.RowsRendered.M(1), rendermetrics.SamplesTraced.M(int64(traced)))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("while rendering rows: %w", err)
	}

	elapsed := time.Since(start)
	glog.Infof("Done in %v", elapsed)
	stats.Record(ctx, rendermetrics.RenderLatencySec.M(elapsed.Seconds()))
	return nil
}

// renderRow adds the missing samples to every pixel of a one-row image holding
// row curRow, returning how many samples it traced.
func (c *Camera) renderRow(sc *scene.Scene, rowImg *sampleimage.SampleImage, curRow int, rng *rand.Rand) int {
	traced := 0
	for cc := 0; cc < c.ImageWidth; cc++ {
		samplesToAdd := c.SamplesPerPixel - rowImg.SampleCount(0, cc)
		for cs := 0; cs < samplesToAdd; cs++ {
			curQuery := c.ImageToRay(curRow, cc, rng)
			rowImg.RecordSample(0, cc, sc.RayColor(rng, curQuery, c.MaxDepth))
			traced++
		}
	}
	return traced
}

func (c *Camera) checkImage(img *sampleimage.SampleImage) error {
	if img.RowSize != c.ImageHeight {
		return fmt.Errorf("sample image has %d rows, camera wants %d", img.RowSize, c.ImageHeight)
	}
	if img.ColSize != c.ImageWidth {
		return fmt.Errorf("sample image has %d columns, camera wants %d", img.ColSize, c.ImageWidth)
	}
	return nil
}
