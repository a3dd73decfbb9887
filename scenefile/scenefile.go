// Package scenefile loads JSON scene descriptions and builds them into a
// renderable scene.
package scenefile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"photonr/geometry"
	"photonr/material"
	"photonr/scene"
	"photonr/vmath/vec3"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/xerrors"
)

// ErrUnknownMaterial is wrapped by errors for shapes that name a material the
// file does not define.
var ErrUnknownMaterial = xerrors.New("unknown material")

// Error is a problem with the contents of a scene file.
type Error struct {
	// Field locates the offending value, like `shapes[2].sphere.radius`.
	Field   string
	Message string

	inner error
	frame xerrors.Frame
}

func NewError(field, message string, inner error) *Error {
	return &Error{
		Field:   field,
		Message: message,
		inner:   inner,
		frame:   xerrors.Caller(1),
	}
}

func (e *Error) Error() string {
	if e.inner == nil {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Field, e.Message, e.inner)
}

func (e *Error) Format(f fmt.State, c rune) { // implements fmt.Formatter
	xerrors.FormatError(e, f, c)
}

func (e *Error) FormatError(p xerrors.Printer) error { // implements xerrors.Formatter
	p.Print(fmt.Sprintf("%s: %s", e.Field, e.Message))
	if p.Detail() {
		e.frame.Format(p)
	}
	return e.inner
}

func (e *Error) Unwrap() error {
	return e.inner
}

// File mirrors the JSON document.  Materials and shapes are externally tagged:
// each entry is an object with a single key naming its kind.
type File struct {
	Materials map[string]MaterialEntry `json:"materials"`
	Shapes    []ShapeEntry             `json:"shapes"`
}

type MaterialEntry struct {
	Lambertian *LambertianEntry `json:"lambertian,omitempty"`
	Metal      *MetalEntry      `json:"metal,omitempty"`
}

type LambertianEntry struct {
	Albedo []float64 `json:"albedo"`
}

type MetalEntry struct {
	Albedo []float64 `json:"albedo"`
	Fuzz   float64   `json:"fuzz"`
}

type ShapeEntry struct {
	Sphere *SphereEntry `json:"sphere,omitempty"`
}

type SphereEntry struct {
	Center   []float64 `json:"center"`
	Radius   float64   `json:"radius"`
	Material string    `json:"material"`
}

// Decode parses a scene document.  Input that starts with a UTF-8 or UTF-16
// byte order mark is transcoded to UTF-8 first; anything else is read as
// UTF-8.
func Decode(r io.Reader) (*File, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	text, err := io.ReadAll(transform.NewReader(r, dec))
	if err != nil {
		return nil, xerrors.Errorf("while decoding scene text: %w", err)
	}

	f := &File{}
	if err := json.Unmarshal(text, f); err != nil {
		return nil, xerrors.Errorf("while parsing scene json: %w", err)
	}
	return f, nil
}

// Load reads a scene file from disk.  The raw bytes are returned alongside the
// parsed file so callers can fingerprint exactly what they rendered.
func Load(path string) (*File, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, xerrors.Errorf("while reading scene file: %w", err)
	}
	f, err := Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, xerrors.Errorf("while loading %q: %w", path, err)
	}
	return f, raw, nil
}

// Build resolves material names and constructs the scene, one element per
// shape in file order.
func (f *File) Build() (*scene.Scene, error) {
	sc := &scene.Scene{}

	// Map iteration order is random; sort so material indices are stable.
	names := make([]string, 0, len(f.Materials))
	for name := range f.Materials {
		names = append(names, name)
	}
	sort.Strings(names)

	materialIndex := map[string]int{}
	for _, name := range names {
		m, err := f.Materials[name].build(fmt.Sprintf("materials[%q]", name))
		if err != nil {
			return nil, err
		}
		materialIndex[name] = sc.AddMaterial(m)
	}

	for i, s := range f.Shapes {
		field := fmt.Sprintf("shapes[%d]", i)
		if s.Sphere == nil {
			return nil, NewError(field, "shape must be a sphere", nil)
		}
		field += ".sphere"

		center, err := toVec(field+".center", s.Sphere.Center)
		if err != nil {
			return nil, err
		}
		if !(s.Sphere.Radius > 0) {
			return nil, NewError(field+".radius", fmt.Sprintf("radius must be positive, got %v", s.Sphere.Radius), nil)
		}
		idx, ok := materialIndex[s.Sphere.Material]
		if !ok {
			return nil, NewError(field+".material", fmt.Sprintf("material %q is not defined", s.Sphere.Material), ErrUnknownMaterial)
		}

		sc.AddSphere(&geometry.Sphere{Center: center, Radius: s.Sphere.Radius}, idx)
	}

	return sc, nil
}

func (e MaterialEntry) build(field string) (material.Material, error) {
	switch {
	case e.Lambertian != nil && e.Metal != nil:
		return material.Material{}, NewError(field, "material must have exactly one kind", nil)
	case e.Lambertian != nil:
		albedo, err := toVec(field+".lambertian.albedo", e.Lambertian.Albedo)
		if err != nil {
			return material.Material{}, err
		}
		return material.NewLambertian(albedo), nil
	case e.Metal != nil:
		albedo, err := toVec(field+".metal.albedo", e.Metal.Albedo)
		if err != nil {
			return material.Material{}, err
		}
		return material.NewMetal(albedo, e.Metal.Fuzz), nil
	default:
		return material.Material{}, NewError(field, "material must be one of lambertian, metal", nil)
	}
}

func toVec(field string, v []float64) (vec3.T, error) {
	if len(v) != 3 {
		return vec3.T{}, NewError(field, fmt.Sprintf("want 3 components, got %d", len(v)), nil)
	}
	return vec3.T{v[0], v[1], v[2]}, nil
}
