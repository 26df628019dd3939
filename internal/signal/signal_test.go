package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/simcheck/internal/simerr"
)

func TestRamp(t *testing.T) {
	tests := []struct {
		name string
		t    float64
		want float64
	}{
		{"before start", 4, 0},
		{"rising", 14, 2},
		{"at start", 10, 0},
		{"holds after finish", 24, 4},
		{"at finish", 18, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Ramp(tt.t, .5, 10, 18))
		})
	}
}

func TestRamp_NoFinishNeverSaturates(t *testing.T) {
	assert.Equal(t, 45.0, Ramp(100, .5, 10, NoFinish))
	assert.Equal(t, 495.0, Ramp(1000, .5, 10, NoFinish))
}

func TestStep(t *testing.T) {
	assert.Equal(t, 0.0, Step(5, 1, 10))
	assert.Equal(t, 1.0, Step(10, 1, 10), "step activates at the step time")
	assert.Equal(t, 1.0, Step(15, 1, 10))
	assert.Equal(t, -3.0, Step(15, -3, 10))
}

func TestPulse(t *testing.T) {
	tests := []struct {
		t    float64
		want float64
	}{
		{0, 0},
		{1, 1},
		{2, 1},
		{4, 0},
		{5, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Pulse(tt.t, 1, 3), "t=%v", tt.t)
	}
}

func TestPulse_NonPositiveDurationNeverFires(t *testing.T) {
	for _, ts := range []float64{0, 1, 2, 5} {
		assert.Equal(t, 0.0, Pulse(ts, 1, 0))
		assert.Equal(t, 0.0, Pulse(ts, 1, -2))
	}
}

func TestPulseHeight(t *testing.T) {
	assert.Equal(t, 7.5, PulseHeight(2, 1, 3, 7.5))
	assert.Equal(t, 0.0, PulseHeight(4, 1, 3, 7.5))
}

func TestPulseTrain(t *testing.T) {
	tests := []struct {
		name string
		t    float64
		want float64
	}{
		{"before train starts", 0, 0},
		{"on train start", 1, 1},
		{"within first pulse", 2, 1},
		{"end of first pulse", 4, 0},
		{"between pulses", 5, 0},
		{"start of second pulse", 6, 1},
		{"within second pulse", 7, 1},
		{"after second pulse", 10, 0},
		{"on third pulse", 11, 1},
		{"on train end", 12, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PulseTrain(tt.t, 1, 3, 5, 12)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := PulseTrain(15, 1, 3, 5, 13)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got, "after train")
}

func TestPulseTrain_StopTruncatesLastPulse(t *testing.T) {
	train, err := NewTrain(0, 4, 10, 12)
	require.NoError(t, err)

	assert.Equal(t, 1.0, train.At(10))
	assert.Equal(t, 1.0, train.At(11.9))
	assert.Equal(t, 0.0, train.At(12), "cut at stop, not at the natural end 14")
	assert.Equal(t, 0.0, train.At(13))
}

func TestPulseTrain_NonPositiveInterval(t *testing.T) {
	for _, interval := range []float64{0, -5} {
		_, err := PulseTrain(3, 1, 3, interval, 12)
		require.Error(t, err)
		assert.True(t, simerr.IsConfiguration(err))
	}
}

func TestZeroBeforeStart(t *testing.T) {
	train, err := NewTrain(10, 2, 3, 100)
	require.NoError(t, err)

	for _, ts := range []float64{-100, 0, 5, 9.999} {
		assert.Equal(t, 0.0, Ramp(ts, 2, 10, 20))
		assert.Equal(t, 0.0, Step(ts, 2, 10))
		assert.Equal(t, 0.0, Pulse(ts, 10, 2))
		assert.Equal(t, 0.0, train.At(ts))
	}
}

func TestStimulusTypes(t *testing.T) {
	train, err := NewTrain(1, 3, 5, 12)
	require.NoError(t, err)

	stimuli := []Stimulus{
		RampSignal{Slope: .5, Start: 10, Finish: 18},
		StepSignal{Height: 1, Start: 10},
		PulseSignal{Start: 1, Duration: 3, Height: 1},
		train,
	}
	want := [][]float64{
		{0, 2, 4},
		{0, 1, 1},
		{0, 0, 0},
		{0, 0, 0},
	}
	times := []float64{4, 14, 24}

	for i, s := range stimuli {
		for j, ts := range times {
			assert.Equal(t, want[i][j], s.At(ts), "stimulus %d at t=%v", i, ts)
		}
	}
}

func TestSample_ReadsClock(t *testing.T) {
	clock := NewClock()
	ramp := RampSignal{Slope: .5, Start: 10, Finish: 18}

	expected := map[float64]float64{4: 0, 14: 2, 24: 4}
	for _, ts := range []float64{4, 14, 24} {
		require.NoError(t, clock.Advance(ts))
		assert.Equal(t, expected[ts], Sample(clock, ramp))
	}
}
