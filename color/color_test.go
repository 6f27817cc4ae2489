package color

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

const tolerance = 1e-9

func randomFrame(rnd *rand.Rand, n int) Frame {
	f := NewFrame(n)
	for i := range f {
		f[i] = Led{rnd.Float64(), rnd.Float64(), rnd.Float64()}
	}
	return f
}

func assertFramesClose(t *testing.T, want, got Frame) {
	t.Helper()
	assert.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i].Red, got[i].Red, tolerance, "led %d red", i)
		assert.InDelta(t, want[i].Green, got[i].Green, tolerance, "led %d green", i)
		assert.InDelta(t, want[i].Blue, got[i].Blue, tolerance, "led %d blue", i)
	}
}

func TestLed_IsEmpty(t *testing.T) {
	assert.True(t, Led{}.IsEmpty())
	assert.False(t, Led{Red: 0.1}.IsEmpty())
}

func TestLed_Max(t *testing.T) {
	led1 := Led{Red: 0.1, Green: 0.2, Blue: 0.3}
	led2 := Led{Red: 0.05, Green: 0.25, Blue: 0.15}
	assert.Equal(t, Led{Red: 0.1, Green: 0.25, Blue: 0.3}, led1.Max(led2))
}

func TestFrame_ClipScaleAdd(t *testing.T) {
	f := Frame{{Red: -1, Green: 0.5, Blue: 2}, {Red: 0.2, Green: 0.2, Blue: 0.2}}
	f.Clip()
	assert.Equal(t, Led{Red: 0, Green: 0.5, Blue: 1}, f[0])

	f.Scale(0.5)
	assert.Equal(t, Led{Red: 0, Green: 0.25, Blue: 0.5}, f[0])

	f.Add(Frame{Gray(0.1)})
	assert.InDelta(t, 0.1, f[0].Red, tolerance)
	assert.InDelta(t, 0.1, f[1].Red, tolerance, "led beyond the shorter frame is untouched")
}

func TestFrame_Copy(t *testing.T) {
	f := Frame{Gray(0.5)}
	c := f.Copy()
	c[0] = Gray(1)
	assert.Equal(t, Gray(0.5), f[0])
}

func TestHsvRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewPCG(3, 4))
	f := randomFrame(rnd, 200)
	assertFramesClose(t, f, HsvToRgb(RgbToHsv(f)))
}

func TestHsvPrimaries(t *testing.T) {
	assertFramesClose(t,
		Frame{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {0, 0, 0}},
		HsvToRgb([]HSV{{0, 1, 1}, {1.0 / 3, 1, 1}, {2.0 / 3, 1, 1}, {0.5, 1, 0}}))
}

func TestHueIsCyclic(t *testing.T) {
	base := HSV{H: 0.25, S: 0.8, V: 0.6}.ToRgb()
	assertFramesClose(t, Frame{base}, Frame{HSV{H: 1.25, S: 0.8, V: 0.6}.ToRgb()})
	assertFramesClose(t, Frame{base}, Frame{HSV{H: -0.75, S: 0.8, V: 0.6}.ToRgb()})
	assertFramesClose(t, Frame{{1, 0, 0}}, Frame{HSV{H: 1, S: 1, V: 1}.ToRgb()})
}

func TestRgbToHsvRanges(t *testing.T) {
	rnd := rand.New(rand.NewPCG(5, 6))
	for _, c := range RgbToHsv(randomFrame(rnd, 100)) {
		assert.GreaterOrEqual(t, c.H, 0.0)
		assert.Less(t, c.H, 1.0)
		assert.GreaterOrEqual(t, c.S, 0.0)
		assert.LessOrEqual(t, c.S, 1.0)
	}
}

func TestGammaOneIsIdentity(t *testing.T) {
	rnd := rand.New(rand.NewPCG(8, 9))
	f := randomFrame(rnd, 200)
	assertFramesClose(t, f, GammaCorrect(f, 1))
}

func TestGammaDarkensGray(t *testing.T) {
	got := GammaCorrect(Frame{Gray(0.5)}, 2)
	assertFramesClose(t, Frame{Gray(0.25)}, got)
}
