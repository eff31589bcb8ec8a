package sampler

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"go-capture-guide/internal/device"
	apperrors "go-capture-guide/internal/errors"
	"go-capture-guide/internal/strategy"
	"go-capture-guide/pkg/models"
	"go-capture-guide/pkg/validation"
)

// splitFrame is dark on the left half and bright on the right half
func splitFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			l := uint8(20)
			if x >= w/2 {
				l = 220
			}
			img.SetRGBA(x, y, color.RGBA{l, l, uint8(x), 255})
		}
	}
	return img
}

func newSampler(t *testing.T, mode models.CaptureMode, frame image.Image, interval time.Duration, publish PublishFunc) (*Sampler, *device.Memory) {
	t.Helper()
	s, err := strategy.ForMode(mode, validation.DefaultThresholds())
	if err != nil {
		t.Fatal(err)
	}
	mem := device.NewMemory(frame)
	stream, err := mem.Open(context.Background(), s.Constraints(1920, 1080))
	if err != nil {
		t.Fatal(err)
	}
	return New(stream, s, Options{AnalysisInterval: interval}, publish), mem
}

func TestSampler_StartRequiresDimensions(t *testing.T) {
	smp, mem := newSampler(t, models.ModePortrait, nil, 0, nil)

	err := smp.Start(context.Background(), nil)
	if !apperrors.IsType(err, apperrors.ErrorTypeUnsupported) {
		t.Fatalf("Expected unsupported error, got %v", err)
	}
	if smp.State() != Idle {
		t.Errorf("Expected Idle, got %s", smp.State())
	}

	smp.Stop()
	if mem.Held() {
		t.Error("Expected Stop to release the stream")
	}
}

func TestSampler_Throttle(t *testing.T) {
	var published []Evaluation
	smp, _ := newSampler(t, models.ModePortrait, splitFrame(40, 30), 0, func(e Evaluation) {
		published = append(published, e)
	})
	if err := smp.Start(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	defer smp.Stop()

	base := time.Unix(1000, 0)
	for ms := 0; ms <= 2000; ms += 16 {
		smp.Tick(base.Add(time.Duration(ms) * time.Millisecond))
	}

	// 16 ms ticks line up with the 250 ms window at 0, 256, 512, ... 1792
	if len(published) != 8 {
		t.Errorf("Expected 8 analyses, got %d", len(published))
	}
	for i := 1; i < len(published); i++ {
		if gap := published[i].At.Sub(published[i-1].At); gap < DefaultAnalysisInterval {
			t.Errorf("Analyses %d and %d only %v apart", i-1, i, gap)
		}
		if published[i].Sequence != published[i-1].Sequence+1 {
			t.Errorf("Expected consecutive sequences, got %d then %d", published[i-1].Sequence, published[i].Sequence)
		}
	}
}

func TestSampler_ThrottleProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("analyses are spaced by the interval and never starved", prop.ForAll(
		func(gaps []int) bool {
			var times []time.Time
			smp, _ := newSampler(t, models.ModeDocument, splitFrame(20, 20), 0, func(e Evaluation) {
				times = append(times, e.At)
			})
			if err := smp.Start(context.Background(), nil); err != nil {
				return false
			}
			defer smp.Stop()

			now := time.Unix(0, 0)
			for _, g := range gaps {
				now = now.Add(time.Duration(g) * time.Millisecond)
				analyzed := smp.Tick(now)
				if len(times) > 1 && times[len(times)-1].Sub(times[len(times)-2]) < DefaultAnalysisInterval {
					return false
				}
				if !analyzed && len(times) > 0 && now.Sub(times[len(times)-1]) >= DefaultAnalysisInterval {
					return false
				}
			}
			return len(gaps) == 0 || len(times) > 0
		},
		gen.SliceOf(gen.IntRange(1, 400)),
	))

	properties.TestingRun(t)
}

func TestSampler_MirrorsPortraitFrames(t *testing.T) {
	src := splitFrame(40, 30)

	testCases := []struct {
		mode       models.CaptureMode
		wantMirror bool
	}{
		{models.ModePortrait, true},
		{models.ModeDocument, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.mode), func(t *testing.T) {
			smp, _ := newSampler(t, tc.mode, src, 0, nil)
			if err := smp.Start(context.Background(), nil); err != nil {
				t.Fatal(err)
			}
			defer smp.Stop()

			if !smp.Tick(time.Now()) {
				t.Fatal("Expected first tick to analyze")
			}
			eval, ok := smp.LastEvaluated()
			if !ok {
				t.Fatal("Expected an evaluation")
			}

			for _, x := range []int{0, 7, 39} {
				want := src.RGBAAt(x, 5)
				if tc.wantMirror {
					want = src.RGBAAt(39-x, 5)
				}
				if got := eval.Frame.RGBAAt(x, 5); got != want {
					t.Errorf("Pixel %d: expected %v, got %v", x, want, got)
				}
			}
		})
	}
}

func TestSampler_FrameErrorSkipsTick(t *testing.T) {
	var calls int
	smp, mem := newSampler(t, models.ModePortrait, splitFrame(10, 10), 0, func(Evaluation) { calls++ })
	if err := smp.Start(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	defer smp.Stop()

	mem.FailFrames(errors.New("sensor glitch"))
	if smp.Tick(time.Now()) {
		t.Error("Expected tick to be skipped")
	}
	if _, ok := smp.LastEvaluated(); ok || calls != 0 {
		t.Error("Expected no verdict from a failed frame read")
	}
}

func TestSampler_StopJoinsLoop(t *testing.T) {
	var mu sync.Mutex
	var count int
	smp, mem := newSampler(t, models.ModePortrait, splitFrame(16, 16), time.Millisecond, func(Evaluation) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	if err := smp.Start(context.Background(), ticker.C); err != nil {
		t.Fatal(err)
	}
	if smp.State() != Running {
		t.Fatalf("Expected Running, got %s", smp.State())
	}

	deadline := time.Now().Add(2 * time.Second)
	for smp.Analyses() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if smp.Analyses() < 3 {
		t.Fatal("Expected the loop to analyze frames")
	}

	if err := smp.Stop(); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	stopped := count
	mu.Unlock()

	time.Sleep(20 * time.Millisecond)
	if smp.Tick(time.Now().Add(time.Hour)) {
		t.Error("Expected no tick after Stop")
	}

	mu.Lock()
	defer mu.Unlock()
	if count != stopped {
		t.Errorf("Expected no verdicts after Stop, got %d more", count-stopped)
	}
	if err := smp.Stop(); err != nil {
		t.Errorf("Expected second Stop to be a no-op, got %v", err)
	}
	if mem.Releases() != 1 {
		t.Errorf("Expected one release, got %d", mem.Releases())
	}
	if err := smp.Start(context.Background(), nil); err == nil {
		t.Error("Expected a stopped sampler to refuse restarting")
	}
}

func TestSampler_ClosedRefreshEndsLoop(t *testing.T) {
	smp, _ := newSampler(t, models.ModeDocument, splitFrame(8, 8), 0, nil)
	refresh := make(chan time.Time)
	if err := smp.Start(context.Background(), refresh); err != nil {
		t.Fatal(err)
	}
	close(refresh)

	done := make(chan struct{})
	go func() {
		smp.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}
