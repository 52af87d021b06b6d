package ml

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// TrainOptions controla el descenso por gradiente en lote completo.
type TrainOptions struct {
	LearningRate float64
	Epochs       int
	L2           float64
	// Folds para calibrar la temperatura fuera de muestra; <2 calibra sobre el set completo.
	Folds int
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{LearningRate: 0.5, Epochs: 400, L2: 1e-3, Folds: 3}
}

// Classifier es una regresión logística multinomial (softmax) con una
// temperatura de calibración aplicada a los logits.
type Classifier struct {
	Classes     []string    `json:"classes"`
	Weights     [][]float64 `json:"weights"`
	Bias        []float64   `json:"bias"`
	Temperature float64     `json:"temperature"`
}

func (c *Classifier) logits(x []float64) []float64 {
	z := make([]float64, len(c.Classes))
	for k, w := range c.Weights {
		s := c.Bias[k]
		for j, v := range x {
			s += w[j] * v
		}
		z[k] = s
	}
	return z
}

// PredictProba devuelve la distribución calibrada en el orden de Classes.
// x debe venir escalado.
func (c *Classifier) PredictProba(x []float64) []float64 {
	t := c.Temperature
	if t <= 0 {
		t = 1
	}
	return softmax(c.logits(x), t)
}

func softmax(z []float64, temperature float64) []float64 {
	out := make([]float64, len(z))
	if len(z) == 0 {
		return out
	}
	maxZ := math.Inf(-1)
	for _, v := range z {
		if v/temperature > maxZ {
			maxZ = v / temperature
		}
	}
	var sum float64
	for i, v := range z {
		out[i] = math.Exp(v/temperature - maxZ)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// TrainClassifier ajusta el modelo sobre x ya escalado y calibra la temperatura
// con validación cruzada por folds deterministas (fila i va al fold i%Folds).
func TrainClassifier(ctx context.Context, x [][]float64, y []string, opts TrainOptions) (*Classifier, error) {
	if len(x) == 0 {
		return nil, ErrNoSamples
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d rows, %d labels", ErrFeatureMismatch, len(x), len(y))
	}
	if opts.Epochs <= 0 || opts.LearningRate <= 0 {
		opts = DefaultTrainOptions()
	}

	classes := uniqueSorted(y)
	if len(classes) < 2 {
		return nil, fmt.Errorf("%w: need at least two classes", ErrNoSamples)
	}
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	targets := make([]int, len(y))
	for i, label := range y {
		targets[i] = index[label]
	}

	var heldLogits [][]float64
	var heldTargets []int
	if opts.Folds >= 2 && len(x) >= opts.Folds*2 {
		for f := 0; f < opts.Folds; f++ {
			var trainX, testX [][]float64
			var trainY, testY []int
			for i := range x {
				if i%opts.Folds == f {
					testX = append(testX, x[i])
					testY = append(testY, targets[i])
				} else {
					trainX = append(trainX, x[i])
					trainY = append(trainY, targets[i])
				}
			}
			fold, err := fit(ctx, trainX, trainY, classes, opts)
			if err != nil {
				return nil, err
			}
			for i, row := range testX {
				heldLogits = append(heldLogits, fold.logits(row))
				heldTargets = append(heldTargets, testY[i])
			}
		}
	}

	clf, err := fit(ctx, x, targets, classes, opts)
	if err != nil {
		return nil, err
	}
	if heldLogits == nil {
		for _, row := range x {
			heldLogits = append(heldLogits, clf.logits(row))
		}
		heldTargets = targets
	}
	clf.Temperature = FitTemperature(heldLogits, heldTargets)
	return clf, nil
}

func fit(ctx context.Context, x [][]float64, targets []int, classes []string, opts TrainOptions) (*Classifier, error) {
	k := len(classes)
	d := len(x[0])
	clf := &Classifier{
		Classes:     append([]string(nil), classes...),
		Weights:     make([][]float64, k),
		Bias:        make([]float64, k),
		Temperature: 1,
	}
	for i := range clf.Weights {
		clf.Weights[i] = make([]float64, d)
	}

	gradW := make([][]float64, k)
	for i := range gradW {
		gradW[i] = make([]float64, d)
	}
	gradB := make([]float64, k)
	n := float64(len(x))

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for c := range gradW {
			for j := range gradW[c] {
				gradW[c][j] = 0
			}
			gradB[c] = 0
		}
		for i, row := range x {
			p := softmax(clf.logits(row), 1)
			for c := 0; c < k; c++ {
				diff := p[c]
				if c == targets[i] {
					diff -= 1
				}
				if diff == 0 {
					continue
				}
				for j, v := range row {
					gradW[c][j] += diff * v
				}
				gradB[c] += diff
			}
		}
		for c := 0; c < k; c++ {
			for j := range clf.Weights[c] {
				g := gradW[c][j]/n + opts.L2*clf.Weights[c][j]
				clf.Weights[c][j] -= opts.LearningRate * g
			}
			clf.Bias[c] -= opts.LearningRate * gradB[c] / n
		}
	}
	return clf, nil
}

// FitTemperature busca en una grilla fija la temperatura que minimiza la
// log-verosimilitud negativa media. En empate gana la menor.
func FitTemperature(logits [][]float64, targets []int) float64 {
	if len(logits) == 0 {
		return 1
	}
	best, bestNLL := 1.0, math.Inf(1)
	for step := 0; step <= 95; step++ {
		t := 0.25 + float64(step)*0.05
		var nll float64
		for i, z := range logits {
			p := softmax(z, t)[targets[i]]
			nll -= math.Log(math.Max(p, 1e-15))
		}
		nll /= float64(len(logits))
		if nll < bestNLL-1e-12 {
			best, bestNLL = t, nll
		}
	}
	return best
}

func uniqueSorted(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	var out []string
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
