package camera

import (
	"fmt"
	"io"
	"math"
	"math/rand"

	"photonr/ray"
	"photonr/vmath/vec3"
)

type Options struct {
	AspectRatio     float64
	ImageWidth      int
	SamplesPerPixel int
	MaxDepth        int
}

func DefaultOptions() Options {
	return Options{
		AspectRatio:     16.0 / 9.0,
		ImageWidth:      400,
		SamplesPerPixel: 10,
		MaxDepth:        10,
	}
}

// Camera is a pinhole at the origin looking down -z, with the image plane one
// unit away.  All fields are derived once by New and never change, so a Camera
// is safe to share between render workers.
type Camera struct {
	Options

	ImageHeight int

	Center      vec3.T
	PixelDeltaU vec3.T
	PixelDeltaV vec3.T

	// Pixel00 is the center of the top-left pixel.
	Pixel00 vec3.T
}

// ImageHeight derives the image height from the width and aspect ratio.  It is
// never less than one.
func ImageHeight(aspectRatio float64, imageWidth int) int {
	h := int(math.Round(float64(imageWidth) / aspectRatio))
	if h < 1 {
		h = 1
	}
	return h
}

func New(opts Options) (*Camera, error) {
	if math.IsNaN(opts.AspectRatio) || math.IsInf(opts.AspectRatio, 0) || opts.AspectRatio <= 0 {
		return nil, fmt.Errorf("aspect ratio must be a positive number, got %v", opts.AspectRatio)
	}
	if opts.ImageWidth < 1 {
		return nil, fmt.Errorf("image width must be at least 1, got %d", opts.ImageWidth)
	}
	if opts.SamplesPerPixel < 1 {
		return nil, fmt.Errorf("samples per pixel must be at least 1, got %d", opts.SamplesPerPixel)
	}
	if opts.MaxDepth < 0 {
		return nil, fmt.Errorf("max depth must not be negative, got %d", opts.MaxDepth)
	}

	c := &Camera{
		Options:     opts,
		ImageHeight: ImageHeight(opts.AspectRatio, opts.ImageWidth),
	}

	width := float64(c.ImageWidth)
	height := float64(c.ImageHeight)

	const focalLength = 1.0
	const viewportHeight = 2.0
	viewportWidth := viewportHeight * (width / height)

	// Vectors across the top edge and down the left edge of the viewport.
	viewportU := vec3.T{viewportWidth, 0, 0}
	viewportV := vec3.T{0, -viewportHeight, 0}

	c.PixelDeltaU = vec3.DivVS(viewportU, width)
	c.PixelDeltaV = vec3.DivVS(viewportV, height)

	upperLeft := vec3.SubVV(c.Center, vec3.T{0, 0, focalLength})
	upperLeft = vec3.SubVV(upperLeft, vec3.DivVS(viewportU, 2))
	upperLeft = vec3.SubVV(upperLeft, vec3.DivVS(viewportV, 2))
	c.Pixel00 = vec3.AddVV(upperLeft, vec3.MulVS(vec3.AddVV(c.PixelDeltaU, c.PixelDeltaV), 0.5))

	return c, nil
}

// ImageToRay builds a ray from the camera center through a point jittered
// uniformly within the footprint of pixel (curRow, curCol).
func (c *Camera) ImageToRay(curRow, curCol int, rng *rand.Rand) ray.Ray {
	dx := rng.Float64() - 0.5
	dy := rng.Float64() - 0.5

	target := vec3.AddVV(c.Pixel00, vec3.MulVS(c.PixelDeltaU, float64(curCol)+dx))
	target = vec3.AddVV(target, vec3.MulVS(c.PixelDeltaV, float64(curRow)+dy))

	return ray.Ray{
		Point: c.Center,
		Slope: vec3.SubVV(target, c.Center),
	}
}

// BufferSize is the length of the RGB8 buffer Render produces.
func (c *Camera) BufferSize() int {
	return 3 * c.ImageWidth * c.ImageHeight
}

func (c *Camera) DumpInfo(w io.Writer) {
	fmt.Fprintf(w, "image width: %d\n", c.ImageWidth)
	fmt.Fprintf(w, "image height: %d\n", c.ImageHeight)
	fmt.Fprintf(w, "aspect ratio: %v\n", c.AspectRatio)
	fmt.Fprintf(w, "samples per pixel: %d\n", c.SamplesPerPixel)
	fmt.Fprintf(w, "max depth: %d\n", c.MaxDepth)
	fmt.Fprintf(w, "center: %v\n", c.Center)
	fmt.Fprintf(w, "pixel00: %v\n", c.Pixel00)
	fmt.Fprintf(w, "pixel delta u: %v\n", c.PixelDeltaU)
	fmt.Fprintf(w, "pixel delta v: %v\n", c.PixelDeltaV)
}
