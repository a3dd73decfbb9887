package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	googleopt "google.golang.org/api/option"
)

// encodePNG writes row-major RGB8 pixels as an opaque PNG.
func encodePNG(w io.Writer, width, height int, pixels []byte) error {
	if len(pixels) != 3*width*height {
		return fmt.Errorf("got %d bytes of pixels, want %d", len(pixels), 3*width*height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		img.Pix[4*i+0] = pixels[3*i+0]
		img.Pix[4*i+1] = pixels[3*i+1]
		img.Pix[4*i+2] = pixels[3*i+2]
		img.Pix[4*i+3] = 255
	}

	return png.Encode(w, img)
}

// parseGCSURL splits gs://bucket/object.  ok is false for anything that isn't
// a gs:// URL.
func parseGCSURL(dest string) (bucket, object string, ok bool, err error) {
	rest := strings.TrimPrefix(dest, "gs://")
	if rest == dest {
		return "", "", false, nil
	}

	slash := strings.Index(rest, "/")
	if slash <= 0 || slash == len(rest)-1 {
		return "", "", true, fmt.Errorf("GCS URL %q must look like gs://bucket/object", dest)
	}
	return rest[:slash], rest[slash+1:], true, nil
}

// writeOutput encodes pixels as a PNG to a local path or a gs:// URL.
func writeOutput(ctx context.Context, dest string, width, height int, pixels []byte) error {
	bucket, object, isGCS, err := parseGCSURL(dest)
	if err != nil {
		return err
	}

	if isGCS {
		gcs, err := storage.NewClient(ctx, googleopt.WithGRPCConnectionPool(1))
		if err != nil {
			return fmt.Errorf("while creating GCS client: %w", err)
		}
		defer gcs.Close()

		return uploadPNG(ctx, func(ctx context.Context) io.WriteCloser {
			w := gcs.Bucket(bucket).Object(object).NewWriter(ctx)
			w.ContentType = "image/png"
			return w
		}, width, height, pixels)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("while opening output file: %w", err)
	}
	if err := encodePNG(out, width, height, pixels); err != nil {
		out.Close()
		return fmt.Errorf("while encoding PNG: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("while closing output file: %w", err)
	}
	return nil
}

// uploadPNG streams an encoded PNG into an object writer.  Closing a storage
// writer commits the object, so a failed encode cancels the writer's context
// instead, which discards the partial upload.
func uploadPNG(ctx context.Context, newWriter func(context.Context) io.WriteCloser, width, height int, pixels []byte) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := newWriter(ctx)
	if err := encodePNG(w, width, height, pixels); err != nil {
		cancel()
		w.Close()
		return fmt.Errorf("while encoding PNG: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("while uploading PNG: %w", err)
	}
	return nil
}
