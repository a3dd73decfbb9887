package main

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestParseGCSURL(t *testing.T) {
	testCases := []struct {
		in         string
		wantBucket string
		wantObject string
		wantOK     bool
		wantErr    bool
	}{
		{in: "./image.png"},
		{in: "/tmp/gs://x"},
		{in: "gs://renders/scenes/a.png", wantBucket: "renders", wantObject: "scenes/a.png", wantOK: true},
		{in: "gs://renders/a.png", wantBucket: "renders", wantObject: "a.png", wantOK: true},
		{in: "gs://renders", wantOK: true, wantErr: true},
		{in: "gs://renders/", wantOK: true, wantErr: true},
		{in: "gs:///a.png", wantOK: true, wantErr: true},
	}

	for _, tc := range testCases {
		bucket, object, ok, err := parseGCSURL(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("parseGCSURL(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if ok != tc.wantOK || bucket != tc.wantBucket || object != tc.wantObject {
			t.Errorf("parseGCSURL(%q) = (%q, %q, %v), want (%q, %q, %v)", tc.in, bucket, object, ok, tc.wantBucket, tc.wantObject, tc.wantOK)
		}
	}
}

func TestEncodePNG(t *testing.T) {
	pixels := []byte{
		255, 0, 0, 0, 255, 0, 0, 0, 255,
		1, 2, 3, 4, 5, 6, 7, 8, 9,
	}

	buf := &bytes.Buffer{}
	if err := encodePNG(buf, 3, 2, pixels); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	img, err := png.Decode(buf)
	if err != nil {
		t.Fatalf("Unexpected error decoding: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Fatalf("Got bounds %v, want 3x2", b)
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			i := 3 * (y*3 + x)
			want := color.NRGBA{pixels[i], pixels[i+1], pixels[i+2], 255}
			got := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if got != want {
				t.Errorf("Pixel (%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}

	if err := encodePNG(&bytes.Buffer{}, 3, 3, pixels); err == nil {
		t.Errorf("Expected an error for a short pixel buffer")
	}
}

func TestWriteOutputLocal(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.png")
	if err := writeOutput(context.Background(), dest, 1, 1, []byte{10, 20, 30}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	f, err := os.Open(dest)
	if err != nil {
		t.Fatalf("Unexpected error opening output: %v", err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("Output is not a PNG: %v", err)
	}
}

// fakeObjectWriter records whether its context was cancelled before Close,
// which is when a storage writer decides between committing and discarding.
type fakeObjectWriter struct {
	ctx       context.Context
	buf       bytes.Buffer
	closed    bool
	committed bool
}

func (w *fakeObjectWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *fakeObjectWriter) Close() error {
	w.closed = true
	if err := w.ctx.Err(); err != nil {
		return err
	}
	w.committed = true
	return nil
}

func TestUploadPNG(t *testing.T) {
	testCases := []struct {
		name          string
		pixels        []byte
		wantErr       bool
		wantCommitted bool
	}{
		{"good pixels", []byte{10, 20, 30, 40, 50, 60}, false, true},
		{"short pixels", []byte{10, 20, 30}, true, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var w *fakeObjectWriter
			newWriter := func(ctx context.Context) io.WriteCloser {
				w = &fakeObjectWriter{ctx: ctx}
				return w
			}

			err := uploadPNG(context.Background(), newWriter, 2, 1, tc.pixels)
			if (err != nil) != tc.wantErr {
				t.Fatalf("uploadPNG err = %v, wantErr %v", err, tc.wantErr)
			}
			if !w.closed {
				t.Errorf("Writer was never closed")
			}
			if w.committed != tc.wantCommitted {
				t.Errorf("Got committed %v, want %v", w.committed, tc.wantCommitted)
			}
			if tc.wantCommitted {
				if _, err := png.Decode(&w.buf); err != nil {
					t.Errorf("Uploaded object is not a PNG: %v", err)
				}
			}
		})
	}
}
