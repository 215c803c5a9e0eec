package testutil

import (
	"net/http"
	"testing"
)

func TestAssertStatusCode(t *testing.T) {
	t.Parallel()
	AssertStatusCode(t, http.StatusOK, http.StatusOK)
	AssertStatusCode(t, http.StatusNotFound, http.StatusNotFound)
}

func TestAssertNoError(t *testing.T) {
	t.Parallel()
	AssertNoError(t, nil)
}

func TestNewTestRequest(t *testing.T) {
	t.Parallel()

	req := NewTestRequest("GET", "/boxes")
	if req.Method != "GET" {
		t.Errorf("method = %s, want GET", req.Method)
	}
	if req.URL.Path != "/boxes" {
		t.Errorf("path = %s, want /boxes", req.URL.Path)
	}
}

func TestNewTestRecorder(t *testing.T) {
	t.Parallel()
	if NewTestRecorder() == nil {
		t.Fatal("recorder is nil")
	}
}

func TestGridResults(t *testing.T) {
	t.Parallel()

	res := GridResults(t)
	if res.Experiments.Len() != 100 {
		t.Fatalf("rows = %d, want 100", res.Experiments.Len())
	}
	ones := 0
	for _, v := range res.Outcomes["y"].Values {
		ones += int(v)
	}
	if ones != 9 {
		t.Errorf("cases of interest = %d, want 9", ones)
	}
	x1, err := res.Experiments.Reals("x1")
	AssertNoError(t, err)
	for _, v := range x1 {
		if v < 0 || v > 10 {
			t.Fatalf("x1 value %v outside [0, 10]", v)
		}
	}
}

func TestCategoryResults(t *testing.T) {
	t.Parallel()

	res := CategoryResults(t, 4)
	attr, ok := res.Experiments.Attribute("policy")
	if !ok {
		t.Fatal("policy attribute missing")
	}
	if len(attr.Categories) != 3 {
		t.Errorf("categories = %v, want 3 entries", attr.Categories)
	}
	if res.Experiments.Len() != 12 {
		t.Errorf("rows = %d, want 12", res.Experiments.Len())
	}
}

func TestMixedResultsDeterministic(t *testing.T) {
	t.Parallel()

	a := MixedResults(t, 50, 7)
	b := MixedResults(t, 50, 7)
	ya, yb := a.Outcomes["y"].Values, b.Outcomes["y"].Values
	for i := range ya {
		if ya[i] != yb[i] {
			t.Fatalf("row %d differs between runs with the same seed", i)
		}
	}
	if a.Experiments.NumAttributes() != 3 {
		t.Errorf("attributes = %d, want 3", a.Experiments.NumAttributes())
	}
}

func TestFixturesAcceptTB(t *testing.T) {
	t.Parallel()

	var tb testing.TB = t
	AssertNoError(tb, nil)
	AssertStatusCode(tb, http.StatusOK, http.StatusOK)
	if LevelResults(tb).Experiments.Len() != 100 {
		t.Error("level fixture should have 100 rows")
	}
}

func BenchmarkGridResults(b *testing.B) {
	for i := 0; i < b.N; i++ {
		GridResults(b)
	}
}
