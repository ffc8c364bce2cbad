package corpus

import (
	"math/rand"
	"testing"
)

func TestAddToCorpusDedupesByContent(t *testing.T) {
	c := New(0)
	c.AddToCorpus([]byte("a"), 1, false, nil)
	c.AddToCorpus([]byte("a"), 1, false, nil)
	if c.NumActiveUnits() != 1 {
		t.Fatalf("NumActiveUnits() = %d, want 1", c.NumActiveUnits())
	}
}

func TestEmptyReportsNoUnits(t *testing.T) {
	c := New(0)
	if !c.Empty() {
		t.Fatal("fresh corpus should be empty")
	}
	c.AddToCorpus([]byte("x"), 1, false, nil)
	if c.Empty() {
		t.Fatal("corpus with a unit should not be empty")
	}
}

func TestChooseUnitToMutateReturnsNilWhenEmpty(t *testing.T) {
	c := New(0)
	if got := c.ChooseUnitToMutate(rand.New(rand.NewSource(1))); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestChooseUnitToMutateAlwaysReturnsAKnownUnit(t *testing.T) {
	c := New(0)
	c.AddToCorpus([]byte("a"), 1, false, nil)
	c.AddToCorpus([]byte("bb"), 1, false, nil)
	c.AddToCorpus([]byte("ccc"), 1, false, nil)

	r := rand.New(rand.NewSource(42))
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		u := c.ChooseUnitToMutate(r)
		if u == nil {
			t.Fatal("ChooseUnitToMutate returned nil with a non-empty corpus")
		}
		seen[string(u.Data)] = true
	}
	if len(seen) != 3 {
		t.Fatalf("expected all 3 units to be reachable over 200 draws, saw %d", len(seen))
	}
}

func TestHasUnit(t *testing.T) {
	c := New(0)
	c.AddToCorpus([]byte("present"), 1, false, nil)
	if !c.HasUnit([]byte("present")) {
		t.Fatal("expected HasUnit to find a unit just added")
	}
	if c.HasUnit([]byte("absent")) {
		t.Fatal("expected HasUnit to reject an unknown unit")
	}
}

func TestTryToReplaceOnlyAcceptsStrictlySmallerData(t *testing.T) {
	c := New(0)
	c.AddToCorpus([]byte{0, 0, 0}, 1, false, nil)
	entry := c.ChooseUnitToMutate(rand.New(rand.NewSource(1)))

	if c.TryToReplace(entry, []byte{1, 2, 3}) {
		t.Fatal("expected TryToReplace to reject a same-size candidate")
	}
	if c.TryToReplace(entry, []byte{1, 2, 3, 4}) {
		t.Fatal("expected TryToReplace to reject a larger candidate")
	}
	if !c.TryToReplace(entry, []byte{9}) {
		t.Fatal("expected TryToReplace to accept a strictly smaller candidate")
	}
	if string(entry.Data) != "\x09" {
		t.Fatalf("entry.Data = %v, want replaced with {9}", entry.Data)
	}
}

func TestAddFeatureCountsDistinctFeaturesOnce(t *testing.T) {
	c := New(0)
	c.AddFeature(1, 10, false)
	c.AddFeature(1, 10, false)
	c.AddFeature(2, 10, false)
	if c.NumFeatureUpdates() != 2 {
		t.Fatalf("NumFeatureUpdates() = %d, want 2", c.NumFeatureUpdates())
	}
	if c.NumFeatures() != 2 {
		t.Fatalf("NumFeatures() = %d, want 2", c.NumFeatures())
	}
}
