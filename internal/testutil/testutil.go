// Package testutil provides shared test utilities and fixtures.
//
// The fixtures build small experiment result sets with known structure so
// engine, report and storage tests can share them.
package testutil

import (
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/prim/internal/dataset"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

const (
	goldenFraction = 0.6180339887498949
	sqrt2Fraction  = 0.41421356237309515
)

// GridResults returns 100 experiments on a jittered 10x10 grid over
// [0,10]x[0,10]. Attributes are x1 and x2; outcome "y" is 1 when both exceed
// 7 and 0 otherwise, which marks 9 experiments.
func GridResults(t testing.TB) *dataset.Results {
	t.Helper()
	x1 := make([]float64, 0, 100)
	x2 := make([]float64, 0, 100)
	y := make([]float64, 0, 100)
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			k := float64(i*10 + j + 1)
			a := float64(i) + 0.1 + 0.8*math.Mod(k*goldenFraction, 1)
			b := float64(j) + 0.1 + 0.8*math.Mod(k*sqrt2Fraction, 1)
			x1 = append(x1, a)
			x2 = append(x2, b)
			if a > 7 && b > 7 {
				y = append(y, 1)
			} else {
				y = append(y, 0)
			}
		}
	}
	table, err := dataset.NewTableBuilder(100).AddReal("x1", x1).AddReal("x2", x2).Build()
	AssertNoError(t, err)
	return &dataset.Results{Experiments: table, Outcomes: dataset.Outcomes{"y": dataset.Scalar(y)}}
}

// CategoryResults returns perCategory experiments for each of the categories
// A, B and C of attribute "policy". Outcome "y" is 1 exactly for policy A.
func CategoryResults(t testing.TB, perCategory int) *dataset.Results {
	t.Helper()
	n := 3 * perCategory
	labels := make([]string, n)
	y := make([]float64, n)
	for i := range labels {
		labels[i] = []string{"A", "B", "C"}[i%3]
		if labels[i] == "A" {
			y[i] = 1
		}
	}
	table, err := dataset.NewTableBuilder(n).AddCategorical("policy", labels).Build()
	AssertNoError(t, err)
	return &dataset.Results{Experiments: table, Outcomes: dataset.Outcomes{"y": dataset.Scalar(y)}}
}

// LevelResults returns 100 experiments with discrete attribute "level" taking
// each value 0..9 ten times. Outcome "y" is 1 when level is at least 7.
func LevelResults(t testing.TB) *dataset.Results {
	t.Helper()
	levels := make([]int, 100)
	y := make([]float64, 100)
	for i := range levels {
		levels[i] = i / 10
		if levels[i] >= 7 {
			y[i] = 1
		}
	}
	table, err := dataset.NewTableBuilder(100).AddDiscrete("level", levels).Build()
	AssertNoError(t, err)
	return &dataset.Results{Experiments: table, Outcomes: dataset.Outcomes{"y": dataset.Scalar(y)}}
}

// MixedResults returns n pseudo-random experiments with one attribute of
// each kind: real "rate" in [0,1), discrete "level" in 0..5 and categorical
// "policy" in {none, tax, subsidy}. Outcome "y" is 1 for most experiments
// with a high rate and the tax policy, with some label noise.
func MixedResults(t testing.TB, n int, seed int64) *dataset.Results {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	policies := []string{"none", "tax", "subsidy"}

	rate := make([]float64, n)
	level := make([]int, n)
	policy := make([]string, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		rate[i] = rng.Float64()
		level[i] = rng.Intn(6)
		policy[i] = policies[rng.Intn(len(policies))]
		hit := rate[i] > 0.6 && policy[i] == "tax"
		if rng.Float64() < 0.1 {
			hit = !hit
		}
		if hit {
			y[i] = 1
		}
	}
	table, err := dataset.NewTableBuilder(n).
		AddReal("rate", rate).
		AddDiscrete("level", level).
		AddCategorical("policy", policy).
		Build()
	AssertNoError(t, err)
	return &dataset.Results{Experiments: table, Outcomes: dataset.Outcomes{"y": dataset.Scalar(y)}}
}
