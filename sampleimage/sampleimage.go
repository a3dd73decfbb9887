// Package sampleimage accumulates radiance samples per pixel and turns them into
// display-ready RGB8 pixels.
package sampleimage

import (
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"photonr/vmath/vec3"

	"github.com/golang/glog"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const dataLayoutVersion = 1

// maxPixels bounds the dimensions Read accepts from a header, so a corrupt file
// fails cleanly instead of attempting a huge allocation.
const maxPixels = 1 << 26

// SampleImage holds running linear RGB sums and sample counts for every pixel,
// in row-major order.
type SampleImage struct {
	RowSize, ColSize int
	RadianceSums     []float64
	SampleCounts     []uint32
}

func New(rowSize, colSize int) *SampleImage {
	s := &SampleImage{}
	s.Resize(rowSize, colSize)
	return s
}

func (s *SampleImage) Resize(rowSize, colSize int) {
	s.RowSize = rowSize
	s.ColSize = colSize

	s.RadianceSums = make([]float64, 3*rowSize*colSize)
	s.SampleCounts = make([]uint32, rowSize*colSize)
}

func (s *SampleImage) RecordSample(r, c int, radiance vec3.Color) {
	idx := r*s.ColSize + c
	s.RadianceSums[3*idx+0] += radiance[0]
	s.RadianceSums[3*idx+1] += radiance[1]
	s.RadianceSums[3*idx+2] += radiance[2]
	s.SampleCounts[idx]++
}

func (s *SampleImage) SampleCount(r, c int) int {
	return int(s.SampleCounts[r*s.ColSize+c])
}

// TotalSamples is the number of samples recorded over the whole image.
func (s *SampleImage) TotalSamples() int {
	total := 0
	for _, n := range s.SampleCounts {
		total += int(n)
	}
	return total
}

// Mean is the average radiance recorded for a pixel.  A pixel with no samples
// averages to NaN.
func (s *SampleImage) Mean(r, c int) vec3.Color {
	idx := r*s.ColSize + c
	sum := vec3.Color{s.RadianceSums[3*idx+0], s.RadianceSums[3*idx+1], s.RadianceSums[3*idx+2]}
	return vec3.DivVS(sum, float64(s.SampleCounts[idx]))
}

func (s *SampleImage) Cut(rowSrc, rowLim, colSrc, colLim int) *SampleImage {
	dst := New(rowLim-rowSrc, colLim-colSrc)

	dstIndex := 0
	for r := rowSrc; r < rowLim; r++ {
		for c := colSrc; c < colLim; c++ {
			srcIndex := r*s.ColSize + c

			copy(dst.RadianceSums[3*dstIndex:3*dstIndex+3], s.RadianceSums[3*srcIndex:3*srcIndex+3])
			dst.SampleCounts[dstIndex] = s.SampleCounts[srcIndex]

			dstIndex++
		}
	}

	return dst
}

func (s *SampleImage) Paste(src *SampleImage, rowSrc, colSrc int) {
	rowLim := rowSrc + src.RowSize
	colLim := colSrc + src.ColSize

	for r := rowSrc; r < rowLim; r++ {
		for c := colSrc; c < colLim; c++ {
			dstIndex := r*s.ColSize + c
			srcIndex := (r-rowSrc)*src.ColSize + (c - colSrc)

			copy(s.RadianceSums[3*dstIndex:3*dstIndex+3], src.RadianceSums[3*srcIndex:3*srcIndex+3])
			s.SampleCounts[dstIndex] = src.SampleCounts[srcIndex]
		}
	}
}

// LinearToGamma approximates display gamma 2.2 with 2.0.
func LinearToGamma(linear float64) float64 {
	return math.Sqrt(linear)
}

// Quantize maps a gamma-encoded channel in [0, 1] to a byte by scaling with
// 255.999 and truncating.  Nothing is clamped beforehand; out of range values
// saturate and NaN maps to 0.
func Quantize(v float64) uint8 {
	scaled := v * 255.999
	switch {
	case math.IsNaN(scaled) || scaled <= 0:
		return 0
	case scaled >= 255:
		return 255
	}
	return uint8(scaled)
}

// NonFinitePixel describes a pixel whose mean radiance is NaN or infinite.
type NonFinitePixel struct {
	Row, Col int
	Mean     vec3.Color
}

// ToRGB8 tone maps the image into 3*RowSize*ColSize bytes of row-major RGB.
//
// Pixels with non-finite means are still written, and are returned so callers
// can report them.  Each one is only logged at V(1).
func (s *SampleImage) ToRGB8() ([]byte, []NonFinitePixel) {
	out := make([]byte, 0, 3*s.RowSize*s.ColSize)
	var bad []NonFinitePixel

	for r := 0; r < s.RowSize; r++ {
		for c := 0; c < s.ColSize; c++ {
			mean := s.Mean(r, c)
			if !mean.IsFinite() {
				glog.V(1).Infof("Non-finite radiance at pixel col=%d row=%d: %v", c, r, mean)
				bad = append(bad, NonFinitePixel{Row: r, Col: c, Mean: mean})
			}

			out = append(out,
				Quantize(LinearToGamma(mean[0])),
				Quantize(LinearToGamma(mean[1])),
				Quantize(LinearToGamma(mean[2])),
			)
		}
	}

	return out, bad
}

// Header describes a serialized SampleImage.
func (s *SampleImage) Header() (*structpb.Struct, error) {
	hdr, err := structpb.NewStruct(map[string]interface{}{
		"row_size":            s.RowSize,
		"col_size":            s.ColSize,
		"data_layout_version": dataLayoutVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("while building header: %w", err)
	}
	return hdr, nil
}

func headerInt(hdr *structpb.Struct, key string) (int, error) {
	v, ok := hdr.GetFields()[key]
	if !ok {
		return 0, fmt.Errorf("header is missing %q", key)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("header field %q is not a number", key)
	}
	if n.NumberValue < 0 || n.NumberValue > 1<<53 || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, fmt.Errorf("header field %q has bad value %v", key, n.NumberValue)
	}
	return int(n.NumberValue), nil
}

func readHeader(in io.Reader) (*structpb.Struct, error) {
	var headerLength uint64
	if err := binary.Read(in, binary.LittleEndian, &headerLength); err != nil {
		return nil, fmt.Errorf("while reading header length: %w", err)
	}
	if headerLength > 1<<20 {
		return nil, fmt.Errorf("header length %d is implausibly large", headerLength)
	}

	headerBytes := make([]byte, int(headerLength))
	if _, err := io.ReadFull(in, headerBytes); err != nil {
		return nil, fmt.Errorf("while reading header bytes: %w", err)
	}

	hdr := &structpb.Struct{}
	if err := proto.Unmarshal(headerBytes, hdr); err != nil {
		return nil, fmt.Errorf("while unmarshaling header: %w", err)
	}
	return hdr, nil
}

// ReadHeaderText returns the header of a serialized SampleImage in protobuf
// text format.
func ReadHeaderText(in io.Reader) (string, error) {
	hdr, err := readHeader(in)
	if err != nil {
		return "", err
	}
	return prototext.Format(hdr), nil
}

func Read(in io.Reader) (*SampleImage, error) {
	hdr, err := readHeader(in)
	if err != nil {
		return nil, err
	}

	version, err := headerInt(hdr, "data_layout_version")
	if err != nil {
		return nil, err
	}
	if version != dataLayoutVersion {
		return nil, fmt.Errorf("bad data layout version: %v", version)
	}

	rowSize, err := headerInt(hdr, "row_size")
	if err != nil {
		return nil, err
	}
	colSize, err := headerInt(hdr, "col_size")
	if err != nil {
		return nil, err
	}
	if rowSize > maxPixels || colSize > maxPixels || rowSize*colSize > maxPixels {
		return nil, fmt.Errorf("image size %dx%d is implausibly large", colSize, rowSize)
	}

	im := New(rowSize, colSize)

	zipReader, err := zlib.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("while opening zip reader: %w", err)
	}
	defer zipReader.Close()

	if err := binary.Read(zipReader, binary.LittleEndian, im.RadianceSums); err != nil {
		return nil, fmt.Errorf("while reading radiance sums: %w", err)
	}

	if err := binary.Read(zipReader, binary.LittleEndian, im.SampleCounts); err != nil {
		return nil, fmt.Errorf("while reading sample counts: %w", err)
	}

	return im, nil
}

func ReadFromFile(name string) (*SampleImage, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("while opening file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

func Write(im *SampleImage, w io.Writer) error {
	hdr, err := im.Header()
	if err != nil {
		return err
	}

	hdrBytes, err := proto.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("while marshaling header: %w", err)
	}

	headerLengthBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(headerLengthBytes, uint64(len(hdrBytes)))
	if _, err := w.Write(headerLengthBytes); err != nil {
		return fmt.Errorf("while writing header length: %w", err)
	}

	if _, err := w.Write(hdrBytes); err != nil {
		return fmt.Errorf("while writing header: %w", err)
	}

	zipWriter := zlib.NewWriter(w)

	if err := binary.Write(zipWriter, binary.LittleEndian, im.RadianceSums); err != nil {
		return fmt.Errorf("while writing radiance sums: %w", err)
	}

	if err := binary.Write(zipWriter, binary.LittleEndian, im.SampleCounts); err != nil {
		return fmt.Errorf("while writing sample counts: %w", err)
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("while closing zip writer: %w", err)
	}

	return nil
}

func WriteToFile(im *SampleImage, name string) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("while creating file: %w", err)
	}

	if err := Write(im, f); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("while closing file: %w", err)
	}
	return nil
}
