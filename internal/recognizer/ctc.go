package recognizer

import "math"

// blankIndex is the CTC blank class of PaddleOCR-style models.
const blankIndex = 0

// argmax returns index of max value and the value.
func argmax(v []float32) (int, float32) {
	if len(v) == 0 {
		return -1, 0
	}
	idx, best := 0, v[0]
	for i := 1; i < len(v); i++ {
		if v[i] > best {
			idx, best = i, v[i]
		}
	}
	return idx, best
}

// probOf returns the probability of v[idx]. Outputs that already look like
// a distribution are used as is; logits go through a stable softmax.
func probOf(v []float32, idx int) float64 {
	if idx < 0 || idx >= len(v) {
		return 0
	}
	var sum float64
	isDist := true
	_, m := argmax(v)
	for _, x := range v {
		sum += float64(x)
		if x < 0 || x > 1 {
			isDist = false
		}
	}
	if isDist && sum > 0.99 && sum < 1.01 {
		return float64(v[idx])
	}
	var denom float64
	for _, x := range v {
		denom += math.Exp(float64(x - m))
	}
	return math.Exp(float64(v[idx]-m)) / denom
}

// decodeGreedy decodes the first sequence of a [N, T, C] (or [N, C, T] with
// classesFirst) output. It returns collapsed class indices and the
// probability of each kept step.
func decodeGreedy(logits []float32, shape []int64, classesFirst bool) ([]int, []float64) {
	if len(shape) < 3 || shape[0] <= 0 {
		return nil, nil
	}
	t, c := int(shape[1]), int(shape[2])
	if classesFirst {
		t, c = c, t
	}
	if t <= 0 || c <= 0 || len(logits) < t*c {
		return nil, nil
	}

	indices := make([]int, 0, t)
	probs := make([]float64, 0, t)
	step := make([]float32, c)
	prev := -1
	for i := range t {
		if classesFirst {
			for k := range c {
				step[k] = logits[k*t+i]
			}
		} else {
			copy(step, logits[i*c:(i+1)*c])
		}
		idx, _ := argmax(step)
		if idx != blankIndex && idx != prev {
			indices = append(indices, idx)
			probs = append(probs, probOf(step, idx))
		}
		prev = idx
	}
	return indices, probs
}

// classesFirst guesses the output layout from the number of classes.
func classesFirst(shape []int64, classes int) bool {
	if len(shape) < 3 {
		return false
	}
	return int(shape[2]) != classes && int(shape[1]) == classes
}

// meanConfidence is the average of the per-character probabilities.
func meanConfidence(probs []float64) float64 {
	if len(probs) == 0 {
		return 0
	}
	var s float64
	for _, p := range probs {
		s += p
	}
	return s / float64(len(probs))
}
