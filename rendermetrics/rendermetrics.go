// Package rendermetrics defines the OpenCensus measures recorded while
// rendering.
package rendermetrics

import (
	"context"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	RowsRendered     = stats.Int64("photonr/rows_rendered", "Image rows that finished rendering", stats.UnitDimensionless)
	SamplesTraced    = stats.Int64("photonr/samples_traced", "Camera rays traced through the scene", stats.UnitDimensionless)
	NonFinitePixels  = stats.Int64("photonr/nonfinite_pixels", "Pixels whose mean radiance was NaN or infinite", stats.UnitDimensionless)
	RenderLatencySec = stats.Float64("photonr/render_latency", "Wall-clock time for a render pass", stats.UnitSeconds)

	// KeyScene tags measurements with the scene being rendered.
	KeyScene = tag.MustNewKey("scene")
)

var Views = []*view.View{
	{
		Name:        "photonr/rows_rendered",
		Description: "Counter of image rows that finished rendering",
		TagKeys:     []tag.Key{KeyScene},
		Measure:     RowsRendered,
		Aggregation: view.Sum(),
	},
	{
		Name:        "photonr/samples_traced",
		Description: "Counter of camera rays traced",
		TagKeys:     []tag.Key{KeyScene},
		Measure:     SamplesTraced,
		Aggregation: view.Sum(),
	},
	{
		Name:        "photonr/nonfinite_pixels",
		Description: "Counter of pixels with non-finite radiance",
		TagKeys:     []tag.Key{KeyScene},
		Measure:     NonFinitePixels,
		Aggregation: view.Sum(),
	},
	{
		Name:        "photonr/render_latency",
		Description: "Distribution of render pass durations",
		TagKeys:     []tag.Key{KeyScene},
		Measure:     RenderLatencySec,
		Aggregation: view.Distribution(0.1, 0.5, 1, 5, 10, 30, 60, 300, 900, 3600),
	},
}

func RegisterViews() error {
	return view.Register(Views...)
}

func UnregisterViews() {
	view.Unregister(Views...)
}

// WithScene returns a context whose measurements are tagged with the scene
// name.
func WithScene(ctx context.Context, scene string) context.Context {
	tagged, err := tag.New(ctx, tag.Upsert(KeyScene, scene))
	if err != nil {
		return ctx
	}
	return tagged
}
