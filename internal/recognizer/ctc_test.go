package recognizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgmax(t *testing.T) {
	idx, v := argmax([]float32{0.1, 0.7, 0.2})
	assert.Equal(t, 1, idx)
	assert.InDelta(t, 0.7, v, 1e-6)

	idx, _ = argmax(nil)
	assert.Equal(t, -1, idx)
}

func TestProbOf(t *testing.T) {
	assert.InDelta(t, 0.7, probOf([]float32{0.1, 0.7, 0.2}, 1), 1e-6)
	// Logits go through softmax.
	assert.InDelta(t, 0.5, probOf([]float32{2, 2, -50}, 0), 1e-6)
	assert.Zero(t, probOf([]float32{1}, 3))
}

func TestDecodeGreedy_TimeMajor(t *testing.T) {
	// T=5, C=3: 1 1 blank 2 2 -> [1 2]
	logits := []float32{
		0.1, 0.8, 0.1,
		0.1, 0.9, 0.0,
		0.9, 0.05, 0.05,
		0.0, 0.4, 0.6,
		0.0, 0.0, 1.0,
	}
	idx, probs := decodeGreedy(logits, []int64{1, 5, 3}, false)
	assert.Equal(t, []int{1, 2}, idx)
	require.Len(t, probs, 2)
	assert.InDelta(t, 0.8, probs[0], 1e-6)
	assert.InDelta(t, 0.6, probs[1], 1e-6)
}

func TestDecodeGreedy_RepeatAcrossBlank(t *testing.T) {
	// 1 blank 1 must keep both characters.
	logits := []float32{
		0, 1, 0,
		1, 0, 0,
		0, 1, 0,
	}
	idx, _ := decodeGreedy(logits, []int64{1, 3, 3}, false)
	assert.Equal(t, []int{1, 1}, idx)
}

func TestDecodeGreedy_ClassesFirst(t *testing.T) {
	// C=3 rows of T=2 columns: step0 -> class 2, step1 -> class 1
	logits := []float32{
		0, 0,
		0, 1,
		1, 0,
	}
	shape := []int64{1, 3, 2}
	require.True(t, classesFirst(shape, 3))
	idx, _ := decodeGreedy(logits, shape, true)
	assert.Equal(t, []int{2, 1}, idx)
}

func TestDecodeGreedy_BadShape(t *testing.T) {
	idx, probs := decodeGreedy([]float32{1, 2}, []int64{1, 2}, false)
	assert.Nil(t, idx)
	assert.Nil(t, probs)

	idx, _ = decodeGreedy([]float32{1}, []int64{1, 4, 4}, false)
	assert.Nil(t, idx)
}

func TestClassesFirst(t *testing.T) {
	assert.False(t, classesFirst([]int64{1, 40, 97}, 97))
	assert.True(t, classesFirst([]int64{1, 97, 40}, 97))
	assert.False(t, classesFirst([]int64{1, 97}, 97))
}

func TestMeanConfidence(t *testing.T) {
	assert.Zero(t, meanConfidence(nil))
	assert.InDelta(t, 0.75, meanConfidence([]float64{0.5, 1}), 1e-9)
}
