package kohonen

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"image"
	"testing"
	"time"

	"github.com/hupe1980/kohonen/blobstore"
	"github.com/hupe1980/kohonen/notify"
	"github.com/hupe1980/kohonen/resource"
	"github.com/hupe1980/kohonen/som"
	"github.com/hupe1980/kohonen/store"
	"github.com/hupe1980/kohonen/testutil"
	"github.com/hupe1980/kohonen/training"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// glyphPNGs returns images whose cropped matrices have 4, 6 and 5 columns.
func glyphPNGs() map[string][]byte {
	return map[string][]byte{
		"four": testutil.EncodePNG(testutil.Glyph(128, 128, image.Rect(10, 10, 14, 50))),
		"six":  testutil.EncodePNG(testutil.Glyph(128, 128, image.Rect(30, 5, 36, 20), image.Rect(30, 40, 32, 41))),
		"five": testutil.EncodePNG(testutil.Glyph(128, 128, image.Rect(60, 60, 65, 61))),
	}
}

func newService(t *testing.T, opts ...Option) (*Service, *blobstore.MemoryStore) {
	t.Helper()
	bs := blobstore.NewMemoryStore()
	opts = append([]Option{WithSOMOptions(som.WithSeed(42))}, opts...)
	svc := New(bs, opts...)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, bs
}

func uploadGlyphs(t *testing.T, svc *Service) {
	t.Helper()
	pngs := glyphPNGs()
	for _, name := range []string{"four", "six", "five"} {
		_, err := svc.UploadImage(context.Background(), name, pngs[name])
		require.NoError(t, err)
	}
}

func TestUploadImage(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	data := glyphPNGs()["four"]
	img, err := svc.UploadImage(ctx, "four", data)
	require.NoError(t, err)
	assert.Equal(t, "four", img.Name)
	assert.Equal(t, "png", img.Format)
	assert.Equal(t, int64(len(data)), img.Size)

	got, err := svc.Image(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, img.ID, got.ID)

	raw, err := svc.ImageData(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, data, raw)

	t.Run("RejectsUndecodable", func(t *testing.T) {
		_, err := svc.UploadImage(ctx, "junk.png", []byte("not an image"))
		var ve *VectorizationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, -1, ve.Index)
		assert.Equal(t, "junk.png", ve.Name)

		imgs, err := svc.Images(ctx)
		require.NoError(t, err)
		assert.Len(t, imgs, 1)
	})

	t.Run("MissingImage", func(t *testing.T) {
		_, err := svc.Image(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = svc.ImageData(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestProcessImages(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	uploadGlyphs(t, svc)

	vs, err := svc.ProcessImages(ctx)
	require.NoError(t, err)
	require.Len(t, vs, 3)

	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = v.ImageName
		assert.Len(t, v.Values, 6)
		maxValue := 0.0
		for _, x := range v.Values {
			assert.GreaterOrEqual(t, x, 0.0)
			assert.LessOrEqual(t, x, 1.0)
			maxValue = max(maxValue, x)
		}
		assert.Equal(t, 1.0, maxValue)
	}
	assert.Equal(t, []string{"four", "six", "five"}, names)

	// Narrower glyphs are right-padded with zero columns.
	assert.Equal(t, []float64{1, 1, 1, 1, 0, 0}, vs[0].Values)
	assert.Equal(t, []float64{1, 1, 1, 1, 1, 0}, vs[2].Values)

	stored, err := svc.Vectors(ctx)
	require.NoError(t, err)
	assert.Equal(t, vs, stored)

	t.Run("Idempotent", func(t *testing.T) {
		again, err := svc.ProcessImages(ctx)
		require.NoError(t, err)
		require.Len(t, again, 3)
		for i := range again {
			assert.Equal(t, vs[i].Values, again[i].Values)
		}
	})
}

func TestProcessImagesEmpty(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.ProcessImages(context.Background())
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = svc.Vectors(context.Background())
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestProcessImagesFailureKeepsVectors(t *testing.T) {
	ctx := context.Background()
	svc, bs := newService(t)
	uploadGlyphs(t, svc)

	before, err := svc.ProcessImages(ctx)
	require.NoError(t, err)

	imgs, err := svc.Images(ctx)
	require.NoError(t, err)
	require.NoError(t, bs.Put(ctx, fmt.Sprintf("images/data/%010d", imgs[1].ID), []byte("garbage")))

	_, err = svc.ProcessImages(ctx)
	var ve *VectorizationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 1, ve.Index)
	assert.Equal(t, "six", ve.Name)

	after, err := svc.Vectors(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDeleteImageCascades(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	uploadGlyphs(t, svc)

	_, err := svc.ProcessImages(ctx)
	require.NoError(t, err)

	imgs, err := svc.Images(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteImage(ctx, imgs[0].ID))

	vs, err := svc.Vectors(ctx)
	require.NoError(t, err)
	require.Len(t, vs, 2)
	for _, v := range vs {
		assert.NotEqual(t, imgs[0].ID, v.ImageID)
	}

	_, err = svc.ImageData(ctx, imgs[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.DeleteImage(ctx, imgs[0].ID), ErrNotFound)
}

func TestExportVectors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	var buf bytes.Buffer
	assert.ErrorIs(t, svc.ExportVectors(ctx, &buf), ErrEmptyDataset)

	uploadGlyphs(t, svc)
	_, err := svc.ProcessImages(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.ExportVectors(ctx, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Image", "X1", "X2", "X3", "X4", "X5", "X6"}, records[0])
	assert.Equal(t, "five", records[1][0])
	assert.Equal(t, "four", records[2][0])
	assert.Equal(t, "six", records[3][0])
}

func TestConfigs(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	cfg, err := svc.CreateConfig(ctx, Config{Neurons: 16, CompetitionType: "soft", Iterations: 10})
	require.NoError(t, err)
	assert.False(t, cfg.CreatedAt.IsZero())

	got, err := svc.Config(ctx, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	cfg.Iterations = 20
	updated, err := svc.UpdateConfig(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, 20, updated.Iterations)

	cfgs, err := svc.Configs(ctx)
	require.NoError(t, err)
	assert.Len(t, cfgs, 1)

	require.NoError(t, svc.DeleteConfig(ctx, cfg.ID))
	_, err = svc.Config(ctx, cfg.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.DeleteConfig(ctx, cfg.ID), ErrNotFound)

	t.Run("Invalid", func(t *testing.T) {
		tests := []Config{
			{Neurons: 3, Iterations: 10},
			{Neurons: -2, Iterations: 10},
			{Neurons: 4, Iterations: 0},
			{Neurons: 4, Iterations: 10, CompetitionType: "fuzzy"},
		}
		for _, tc := range tests {
			_, err := svc.CreateConfig(ctx, tc)
			assert.ErrorIs(t, err, ErrInvalidConfiguration, "%+v", tc)
		}

		_, err := svc.UpdateConfig(ctx, Config{ID: cfg.ID, Neurons: 5, Iterations: 1})
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})
}

func TestTrain(t *testing.T) {
	ctx := context.Background()
	broker := notify.NewBroker[training.Event]()
	metrics := &BasicMetricsCollector{}
	svc, _ := newService(t,
		WithSink(broker),
		WithConvergenceThreshold(-1),
		WithMetricsCollector(metrics),
	)
	uploadGlyphs(t, svc)
	_, err := svc.ProcessImages(ctx)
	require.NoError(t, err)

	cfg, err := svc.CreateConfig(ctx, Config{Iterations: 5})
	require.NoError(t, err)

	sub, err := broker.Subscribe(training.DefaultTopic, 16)
	require.NoError(t, err)

	res, err := svc.Train(ctx, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, training.Completed, res.State)
	assert.Equal(t, 5, res.Iterations)

	// max(0, 2*6) = 12 neurons, truncated to a 3x3 grid.
	require.Len(t, res.Weights, 3)
	for _, row := range res.Weights {
		require.Len(t, row, 3)
		for _, w := range row {
			assert.Len(t, w, 6)
		}
	}

	sub.Close()
	var events []training.Event
	for ev := range sub.C() {
		events = append(events, ev)
	}
	require.Len(t, events, 6)
	for i, ev := range events[:5] {
		assert.Equal(t, training.EventProgress, ev.Type)
		assert.Equal(t, i, ev.Progress.Iteration)
		assert.Equal(t, res.RunID, ev.RunID)
	}
	assert.Equal(t, training.EventFinal, events[5].Type)
	assert.Equal(t, res.Weights, events[5].Final.Weights)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.VectorizeCount)
	assert.Equal(t, int64(3), stats.VectorizedImages)
	assert.Equal(t, int64(5), stats.IterationCount)
	assert.Equal(t, int64(1), stats.TrainingCount)
	assert.Zero(t, stats.TrainingErrors)
	assert.InDelta(t, res.DM, stats.LastDM, 1e-12)
}

func TestTrainConverges(t *testing.T) {
	ctx := context.Background()
	broker := notify.NewBroker[training.Event]()
	svc, _ := newService(t, WithSink(broker))

	data := glyphPNGs()["six"]
	for _, name := range []string{"a", "b", "c"} {
		_, err := svc.UploadImage(ctx, name, data)
		require.NoError(t, err)
	}
	_, err := svc.ProcessImages(ctx)
	require.NoError(t, err)

	cfg, err := svc.CreateConfig(ctx, Config{Neurons: 16, CompetitionType: "hard", Iterations: 100})
	require.NoError(t, err)

	sub, err := broker.Subscribe(training.DefaultTopic, 128)
	require.NoError(t, err)

	res, err := svc.Train(ctx, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, training.Converged, res.State)
	assert.Less(t, res.Iterations, 100)
	assert.LessOrEqual(t, res.DM, training.DefaultConvergenceThreshold)

	sub.Close()
	counts := map[training.EventType]int{}
	for ev := range sub.C() {
		counts[ev.Type]++
	}
	assert.Equal(t, res.Iterations, counts[training.EventProgress])
	assert.Equal(t, 1, counts[training.EventStopped])
	assert.Equal(t, 1, counts[training.EventFinal])
}

func TestTrainErrors(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}
	svc, _ := newService(t, WithMetricsCollector(metrics))

	t.Run("MissingConfig", func(t *testing.T) {
		_, err := svc.Train(ctx, 999)
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	cfg, err := svc.CreateConfig(ctx, Config{Iterations: 3})
	require.NoError(t, err)

	t.Run("NoVectors", func(t *testing.T) {
		_, err := svc.Train(ctx, cfg.ID)
		assert.ErrorIs(t, err, ErrEmptyDataset)
	})

	uploadGlyphs(t, svc)
	_, err = svc.ProcessImages(ctx)
	require.NoError(t, err)

	t.Run("Cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := svc.Train(cctx, cfg.ID)
		assert.ErrorIs(t, err, context.Canceled)
		// Missing config, no vectors and cancellation.
		assert.Equal(t, int64(3), metrics.GetStats().TrainingErrors)
	})
}

func TestTrainDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	st := store.New(bs)

	_, err := st.Vectors().ReplaceVectors(ctx, []Vector{
		{ImageID: 1, ImageName: "a", Values: []float64{1, 0}},
		{ImageID: 2, ImageName: "b", Values: []float64{1, 0, 1}},
	})
	require.NoError(t, err)

	svc := New(bs)
	defer svc.Close()

	cfg, err := svc.CreateConfig(ctx, Config{Iterations: 3})
	require.NoError(t, err)

	_, err = svc.Train(ctx, cfg.ID)
	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 2, dm.Expected)
	assert.Equal(t, 3, dm.Actual)
}

func TestStartTraining(t *testing.T) {
	ctx := context.Background()
	broker := notify.NewBroker[training.Event]()
	svc, _ := newService(t,
		WithSink(broker),
		WithConvergenceThreshold(-1),
		WithResourceController(resource.NewController(resource.Config{MaxConcurrentRuns: 1})),
	)
	uploadGlyphs(t, svc)
	_, err := svc.ProcessImages(ctx)
	require.NoError(t, err)

	cfg, err := svc.CreateConfig(ctx, Config{Iterations: 4})
	require.NoError(t, err)

	sub, err := broker.Subscribe(training.DefaultTopic, 64)
	require.NoError(t, err)

	first, err := svc.StartTraining(ctx, cfg.ID)
	require.NoError(t, err)
	second, err := svc.StartTraining(ctx, cfg.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	for _, run := range []*Run{first, second} {
		res, err := run.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, run.ID, res.RunID)
		assert.Equal(t, training.Completed, res.State)
		assert.Equal(t, cfg.ID, run.ConfigID)

		select {
		case <-run.Done():
		default:
			t.Fatal("run not done after Wait")
		}
	}

	sub.Close()
	perRun := map[string]int{}
	for ev := range sub.C() {
		perRun[ev.RunID]++
	}
	assert.Equal(t, map[string]int{first.ID: 5, second.ID: 5}, perRun)

	t.Run("MissingConfig", func(t *testing.T) {
		_, err := svc.StartTraining(ctx, 999)
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, WithConvergenceThreshold(-1))
	uploadGlyphs(t, svc)
	_, err := svc.ProcessImages(ctx)
	require.NoError(t, err)

	cfg, err := svc.CreateConfig(ctx, Config{Iterations: 3})
	require.NoError(t, err)

	run, err := svc.StartTraining(ctx, cfg.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Close())
	select {
	case <-run.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Close returned before the run finished")
	}

	_, err = svc.Train(ctx, cfg.ID)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = svc.StartTraining(ctx, cfg.ID)
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, svc.Close())
}

func TestTranslateError(t *testing.T) {
	assert.Nil(t, translateError(nil))

	other := errors.New("boom")
	assert.Equal(t, other, translateError(other))

	assert.ErrorIs(t, translateError(store.ErrNotFound), ErrNotFound)
	assert.ErrorIs(t, translateError(blobstore.ErrNotFound), ErrNotFound)
	assert.ErrorIs(t, translateError(som.ErrEmptyDataset), ErrEmptyDataset)
	assert.ErrorIs(t, translateError(som.ErrInvalidNeuronCount), ErrInvalidConfiguration)
	assert.ErrorIs(t, translateError(som.ErrUnknownNeighborhood), ErrInvalidConfiguration)

	var dm *ErrDimensionMismatch
	require.ErrorAs(t, translateError(&som.ErrDimensionMismatch{Expected: 4, Actual: 5}), &dm)
	assert.Equal(t, 4, dm.Expected)
}

func TestIOLimitAppliesToImageReadsAndExport(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()

	svc := New(bs)
	defer svc.Close()
	pngs := glyphPNGs()
	_, err := svc.UploadImage(ctx, "four", pngs["four"])
	require.NoError(t, err)
	before, err := svc.ProcessImages(ctx)
	require.NoError(t, err)

	// One byte per second: any image or CSV outruns a short deadline.
	limited := New(bs, WithResourceController(resource.NewController(resource.Config{IOLimitBytesPerSec: 1})))
	defer limited.Close()

	t.Run("Process", func(t *testing.T) {
		cctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
		defer cancel()

		_, err := limited.ProcessImages(cctx)
		var ve *VectorizationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "four", ve.Name)

		after, err := limited.Vectors(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("Export", func(t *testing.T) {
		cctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
		defer cancel()

		var buf bytes.Buffer
		assert.Error(t, limited.ExportVectors(cctx, &buf))

		buf.Reset()
		require.NoError(t, svc.ExportVectors(ctx, &buf))
		assert.NotEmpty(t, buf.String())
	})
}
