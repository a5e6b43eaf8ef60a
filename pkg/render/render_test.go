package render

import (
	"context"
	stderrors "errors"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/xsheet/pkg/document"
	"github.com/matzehuels/xsheet/pkg/errors"
	"github.com/matzehuels/xsheet/pkg/plan"
)

func testPlan(t *testing.T, layers ...*document.Layer) (*document.Document, *plan.Plan) {
	t.Helper()
	doc := &document.Document{
		Name:     "Shot",
		Width:    4,
		Height:   4,
		Clip:     document.FrameRange{Start: 0, End: 11},
		Playback: document.FrameRange{Start: 0, End: 11},
		Layers:   layers,
	}
	if err := doc.Link(); err != nil {
		t.Fatal(err)
	}
	opts := plan.DefaultOptions()
	opts.Filter.IncludeStatic = true
	p, err := plan.Build(doc, opts)
	if err != nil {
		t.Fatal(err)
	}
	return doc, p
}

type fakeRenderer struct {
	concurrent bool
	failAt     int
	delay      time.Duration

	calls   atomic.Int32
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (f *fakeRenderer) Concurrent() bool { return f.concurrent }

func (f *fakeRenderer) Render(ctx context.Context, job Job) (image.Image, error) {
	n := f.calls.Add(1)
	cur := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		prev := f.maxSeen.Load()
		if cur <= prev || f.maxSeen.CompareAndSwap(prev, cur) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.failAt > 0 && int(n) == f.failAt {
		return nil, stderrors.New("boom")
	}
	return image.NewNRGBA(image.Rect(0, 0, 1, 1)), nil
}

type memSink struct {
	mu    sync.Mutex
	paths []string
}

func (s *memSink) Write(path string, _ image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, path)
	return nil
}

func TestTasks(t *testing.T) {
	doc, p := testPlan(t,
		document.NewPaint("Line", 0, 4, 8),
		document.NewPaint("BG"),
	)
	tasks := Tasks(doc, p, "/out/Shot")

	var frames []int
	var paths []string
	for _, task := range tasks {
		frames = append(frames, task.Job.Frame)
		paths = append(paths, filepath.ToSlash(task.Path))
	}
	if !slices.Equal(frames, []int{0, 4, 8, 0}) {
		t.Errorf("frames = %v", frames)
	}
	want := []string{
		"/out/Shot/Line/Line_0001.png",
		"/out/Shot/Line/Line_0002.png",
		"/out/Shot/Line/Line_0003.png",
		"/out/Shot/BG.png",
	}
	if !slices.Equal(paths, want) {
		t.Errorf("paths = %v, want %v", paths, want)
	}
	if tasks[1].Job.Cel.Number != 2 {
		t.Errorf("second task cel = %+v", tasks[1].Job.Cel)
	}
}

func TestExecuteSequentialFailFast(t *testing.T) {
	doc, p := testPlan(t, document.NewPaint("Line", 0, 2, 4, 6))
	r := &fakeRenderer{failAt: 2}
	sink := &memSink{}

	err := Execute(context.Background(), r, sink, Tasks(doc, p, "out"), ExecOptions{Workers: 8})
	if !errors.Is(err, errors.ErrCodeRenderFailure) {
		t.Fatalf("Execute() error = %v, want RENDER_FAILURE", err)
	}
	if got := r.calls.Load(); got != 2 {
		t.Errorf("renders = %d, want 2 (stop at first failure)", got)
	}
	if len(sink.paths) != 1 {
		t.Errorf("written = %d, want 1", len(sink.paths))
	}
}

func TestExecuteConcurrent(t *testing.T) {
	doc, p := testPlan(t, document.NewPaint("A", 0, 1, 2, 3, 4, 5, 6, 7), document.NewPaint("B", 0, 3, 6, 9))
	r := &fakeRenderer{concurrent: true, delay: 5 * time.Millisecond}
	sink := &memSink{}
	tasks := Tasks(doc, p, "out")

	var done atomic.Int32
	err := Execute(context.Background(), r, sink, tasks, ExecOptions{
		Workers: 3,
		OnDone:  func(Task, time.Duration) { done.Add(1) },
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(sink.paths) != len(tasks) || int(done.Load()) != len(tasks) {
		t.Errorf("written = %d, done = %d, want %d", len(sink.paths), done.Load(), len(tasks))
	}
	if m := r.maxSeen.Load(); m > 3 {
		t.Errorf("max parallel renders = %d, want <= 3", m)
	}
}

func TestExecuteNonConcurrentRendererRunsSerially(t *testing.T) {
	doc, p := testPlan(t, document.NewPaint("A", 0, 1, 2, 3))
	r := &fakeRenderer{delay: time.Millisecond}
	if err := Execute(context.Background(), r, &memSink{}, Tasks(doc, p, "out"), ExecOptions{Workers: 4}); err != nil {
		t.Fatal(err)
	}
	if m := r.maxSeen.Load(); m != 1 {
		t.Errorf("max parallel renders = %d, want 1", m)
	}
}

func TestExecuteCanceled(t *testing.T) {
	doc, p := testPlan(t, document.NewPaint("A", 0, 1, 2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		r := &fakeRenderer{concurrent: true}
		err := Execute(ctx, r, &memSink{}, Tasks(doc, p, "out"), ExecOptions{Workers: workers})
		if !errors.Is(err, errors.ErrCodeCanceled) {
			t.Errorf("workers=%d: error = %v, want CANCELED", workers, err)
		}
		if r.calls.Load() != 0 {
			t.Errorf("workers=%d: rendered after cancel", workers)
		}
	}
}

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	if err := imaging.Save(imaging.New(4, 4, c), path); err != nil {
		t.Fatal(err)
	}
}

func TestCelRenderer(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "red.png"), color.NRGBA{255, 0, 0, 255})
	writePNG(t, filepath.Join(dir, "blue.png"), color.NRGBA{0, 0, 255, 255})

	top := &document.Layer{Name: "Top", Kind: document.KindPaint, Visible: true, Opacity: 1,
		Track: &document.Track{Keyframes: []document.Keyframe{
			{Frame: 0, Source: "red.png"},
			{Frame: 4, Blank: true},
		}}}
	bottom := &document.Layer{Name: "Bottom", Kind: document.KindPaint, Visible: true, Source: "blue.png"}
	doc := &document.Document{Width: 4, Height: 4, BaseDir: dir}

	r := NewCelRenderer()
	tests := []struct {
		frame int
		want  color.NRGBA
	}{
		{0, color.NRGBA{255, 0, 0, 255}},
		{5, color.NRGBA{0, 0, 255, 255}},
	}
	for _, tt := range tests {
		img, err := r.Render(context.Background(), Job{Document: doc, Layers: []*document.Layer{top, bottom}, Frame: tt.frame})
		if err != nil {
			t.Fatalf("Render(%d) error = %v", tt.frame, err)
		}
		got := color.NRGBAModel.Convert(img.At(1, 1)).(color.NRGBA)
		if got != tt.want {
			t.Errorf("frame %d pixel = %v, want %v", tt.frame, got, tt.want)
		}
	}
}

func TestCelRendererMissingSource(t *testing.T) {
	l := &document.Layer{Name: "L", Kind: document.KindPaint, Visible: true, Source: "missing.png"}
	doc := &document.Document{Width: 2, Height: 2, BaseDir: t.TempDir()}
	if _, err := NewCelRenderer().Render(context.Background(), Job{Document: doc, Layers: []*document.Layer{l}}); err == nil {
		t.Error("Render() should fail for a missing source")
	}
}

func TestFileSink(t *testing.T) {
	dir := t.TempDir()
	img := imaging.New(3, 2, color.NRGBA{10, 20, 30, 255})
	sink := NewFileSink()

	for _, name := range []string{"a.png", "a.jpg", "a.bmp", "a.tif", "a.gif"} {
		path := filepath.Join(dir, name)
		if err := sink.Write(path, img); err != nil {
			t.Fatalf("Write(%s) error = %v", name, err)
		}
		got, err := imaging.Open(path)
		if err != nil {
			t.Fatalf("reopen %s: %v", name, err)
		}
		if got.Bounds().Dx() != 3 || got.Bounds().Dy() != 2 {
			t.Errorf("%s bounds = %v", name, got.Bounds())
		}
	}
	if err := sink.Write(filepath.Join(dir, "a.tga"), img); err == nil {
		t.Error("Write(tga) should fail")
	}
}

func TestPNGLevel(t *testing.T) {
	tests := map[int]png.CompressionLevel{
		0: png.NoCompression,
		1: png.BestSpeed,
		6: png.DefaultCompression,
		9: png.BestCompression,
	}
	for in, want := range tests {
		if got := PNGLevel(in); got != want {
			t.Errorf("PNGLevel(%d) = %v, want %v", in, got, want)
		}
	}
}

func TestCommandRendererArgs(t *testing.T) {
	doc, p := testPlan(t, document.NewGroup("Char", document.NewPaint("Line", 0, 4), document.NewPaint("Fill")))
	tasks := Tasks(doc, p, "out")

	r := &CommandRenderer{Command: "paint-export --layers {layers} --frame={frame} --unit {unit} -o -"}
	got := r.Args(tasks[1].Job)
	want := []string{"paint-export", "--layers", "Char/Line,Char/Fill", "--frame=4", "--unit", "Char", "-o", "-"}
	if !slices.Equal(got, want) {
		t.Errorf("Args() = %v, want %v", got, want)
	}
	if r.Concurrent() {
		t.Error("command renderer should be serial by default")
	}

	missing := &CommandRenderer{Command: "xsheet-no-such-renderer {frame}"}
	if _, err := missing.Render(context.Background(), tasks[0].Job); err == nil {
		t.Error("Render() should fail for a missing program")
	}
}
