package risk

import (
	"errors"
	"math"
	"math/rand/v2"

	"github.com/rs/zerolog/log"

	"github.com/QTest-hq/riskgen/internal/history"
)

// ErrEmptyHistory means there is no usable history to train on. Callers
// treat it as a warning and skip scoring.
var ErrEmptyHistory = errors.New("no usable feature history")

// Options tunes training
type Options struct {
	Seed         uint64
	TestFraction float64
	Epochs       int
	LearningRate float64
	L2           float64
}

// DefaultOptions returns the training defaults
func DefaultOptions() Options {
	return Options{
		Seed:         42,
		TestFraction: 0.2,
		Epochs:       500,
		LearningRate: 0.5,
		L2:           0.001,
	}
}

// Report summarises holdout performance for the error class
type Report struct {
	TrainSize int     `json:"train_size"`
	Support   int     `json:"support"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
}

// Model is a logistic regression classifier over one-hot features
type Model struct {
	encoder *Encoder
	weights []float64
	bias    float64
	report  Report
}

// Usable filters rows that carry every training feature
func Usable(rows []history.FeatureRow) []history.FeatureRow {
	usable := make([]history.FeatureRow, 0, len(rows))
	for _, row := range rows {
		if row.Method == "" || row.URL == "" || row.StatusCode == nil || row.LatencyMs == nil {
			continue
		}
		usable = append(usable, row)
	}
	return usable
}

// Train fits a model on the usable rows. The same rows and seed always
// produce the same model.
func Train(rows []history.FeatureRow, opts Options) (*Model, error) {
	data := Usable(rows)
	if len(data) == 0 {
		return nil, ErrEmptyHistory
	}
	opts = withDefaults(opts)

	m := &Model{encoder: FitEncoder(data)}
	m.weights = make([]float64, m.encoder.Width())

	train, test := split(data, opts)
	m.fit(train, opts)
	m.report = m.evaluate(test)
	m.report.TrainSize = len(train)

	log.Info().
		Int("train", m.report.TrainSize).
		Int("holdout", m.report.Support).
		Float64("accuracy", m.report.Accuracy).
		Float64("precision", m.report.Precision).
		Float64("recall", m.report.Recall).
		Msg("risk model trained")

	return m, nil
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.TestFraction < 0 || opts.TestFraction >= 1 {
		opts.TestFraction = def.TestFraction
	}
	if opts.Epochs <= 0 {
		opts.Epochs = def.Epochs
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = def.LearningRate
	}
	if opts.L2 < 0 {
		opts.L2 = def.L2
	}
	return opts
}

// split shuffles with the seed and holds out ceil(TestFraction*n) rows,
// always leaving at least one row to train on
func split(rows []history.FeatureRow, opts Options) (train, test []history.FeatureRow) {
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	nTest := int(math.Ceil(opts.TestFraction * float64(len(rows))))
	if nTest >= len(rows) {
		nTest = len(rows) - 1
	}

	for i, idx := range order {
		if i < nTest {
			test = append(test, rows[idx])
		} else {
			train = append(train, rows[idx])
		}
	}
	return train, test
}

// fit runs full-batch gradient descent on the L2-regularised log loss
func (m *Model) fit(rows []history.FeatureRow, opts Options) {
	encoded := make([][]int, len(rows))
	for i, row := range rows {
		encoded[i] = m.encoder.Encode(row)
	}
	n := float64(len(rows))
	grad := make([]float64, len(m.weights))

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		clear(grad)
		var gradBias float64
		for i, row := range rows {
			diff := m.predict(encoded[i]) - label(row)
			for _, col := range encoded[i] {
				grad[col] += diff
			}
			gradBias += diff
		}
		for j := range m.weights {
			m.weights[j] -= opts.LearningRate * (grad[j]/n + opts.L2*m.weights[j])
		}
		m.bias -= opts.LearningRate * gradBias / n
	}
}

func (m *Model) evaluate(rows []history.FeatureRow) Report {
	r := Report{Support: len(rows)}
	if len(rows) == 0 {
		return r
	}

	var correct, truePos, predPos, actualPos int
	for _, row := range rows {
		predicted := m.predict(m.encoder.Encode(row)) >= 0.5
		actual := row.IsError
		if predicted == actual {
			correct++
		}
		if predicted {
			predPos++
		}
		if actual {
			actualPos++
		}
		if predicted && actual {
			truePos++
		}
	}

	r.Accuracy = float64(correct) / float64(len(rows))
	if predPos > 0 {
		r.Precision = float64(truePos) / float64(predPos)
	}
	if actualPos > 0 {
		r.Recall = float64(truePos) / float64(actualPos)
	}
	return r
}

func (m *Model) predict(active []int) float64 {
	z := m.bias
	for _, col := range active {
		z += m.weights[col]
	}
	return sigmoid(z)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func label(row history.FeatureRow) float64 {
	if row.IsError {
		return 1
	}
	return 0
}

// Report returns the holdout evaluation
func (m *Model) Report() Report {
	return m.report
}
