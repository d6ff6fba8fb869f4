package evaluation

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// logLossEpsilon clips probabilities away from 0 and 1.
const logLossEpsilon = 1e-15

// Accuracy is the fraction of rows where prob >= threshold matches the label.
func Accuracy(probs, labels []float64, threshold float64) float64 {
	if len(probs) == 0 {
		return math.NaN()
	}
	correct := 0
	for i, p := range probs {
		predicted := 0.0
		if p >= threshold {
			predicted = 1
		}
		if predicted == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(probs))
}

// Brier is the mean squared difference between probability and label.
func Brier(probs, labels []float64) float64 {
	if len(probs) == 0 {
		return math.NaN()
	}
	diff := make([]float64, len(probs))
	floats.SubTo(diff, probs, labels)
	floats.Mul(diff, diff)
	return stat.Mean(diff, nil)
}

// LogLoss is the mean negative log-likelihood of the labels.
func LogLoss(probs, labels []float64) float64 {
	if len(probs) == 0 {
		return math.NaN()
	}
	losses := make([]float64, len(probs))
	for i, p := range probs {
		p = math.Min(1-logLossEpsilon, math.Max(logLossEpsilon, p))
		if labels[i] == 1 {
			losses[i] = -math.Log(p)
		} else {
			losses[i] = -math.Log(1 - p)
		}
	}
	return stat.Mean(losses, nil)
}

// AUC is the area under the ROC curve, computed as the probability that a
// random accepted row scores above a random rejected one (ties count half).
// It is NaN when only one class is present.
func AUC(probs, labels []float64) float64 {
	n := len(probs)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return probs[order[a]] < probs[order[b]] })

	// Average ranks over tied scores.
	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && probs[order[j+1]] == probs[order[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}

	var pos, neg int
	rankSum := 0.0
	for i, y := range labels {
		if y == 1 {
			pos++
			rankSum += ranks[i]
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return math.NaN()
	}
	u := rankSum - float64(pos*(pos+1))/2
	return u / float64(pos*neg)
}
