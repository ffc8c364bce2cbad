package mutate

import "testing"

func TestMutateStaysWithinMaxSize(t *testing.T) {
	d := New(1, nil)
	maxSize := 32
	buf := make([]byte, maxSize)
	copy(buf, "seed")
	size := 4

	for i := 0; i < 200; i++ {
		n := d.Mutate(buf, size, maxSize)
		if n < 0 || n > maxSize {
			t.Fatalf("Mutate returned out-of-bounds size %d (max %d)", n, maxSize)
		}
		size = n
	}
}

func TestDefaultMutateAppliesExactlyOneOperator(t *testing.T) {
	d := New(2, nil)
	buf := make([]byte, 16)
	copy(buf, "abcdefgh")
	before := append([]byte(nil), buf[:8]...)

	n := d.DefaultMutate(buf, 8, 16)
	if n < 0 || n > 16 {
		t.Fatalf("DefaultMutate returned out-of-bounds size %d", n)
	}
	// A single operator changes length by at most one byte, or leaves it
	// unchanged if it edits in place.
	if diff := n - 8; diff > 1 || diff < -1 {
		t.Fatalf("single operator changed length by %d, want at most 1", diff)
	}
	_ = before
}

func TestCrossOverFallsBackWithoutCorpus(t *testing.T) {
	d := New(3, nil)
	buf := make([]byte, 16)
	copy(buf, "seed")
	n := d.crossOver(buf, 4, 16)
	if n < 0 || n > 16 {
		t.Fatalf("crossOver returned out-of-bounds size %d", n)
	}
}

func TestStartSequenceResetsLog(t *testing.T) {
	d := New(4, nil)
	buf := make([]byte, 16)
	copy(buf, "seed")
	d.Mutate(buf, 4, 16)
	if len(d.sequenceLog) == 0 {
		t.Fatal("expected Mutate to record at least one operator")
	}
	d.StartSequence()
	if len(d.sequenceLog) != 0 {
		t.Fatalf("StartSequence should clear the log, got %v", d.sequenceLog)
	}
}
