package fuzz

import "testing"

func zeroCanonical(int) int { return 0 }

func TestNovelDiffFirstSeenIsNovel(t *testing.T) {
	d := NewDedup()
	output := []int{0, 1}
	moduleLen := []int{2, 2}
	mid := []uint64{0, 0, 5, 7}

	novel, _ := d.NovelDiff(output, moduleLen, mid, zeroCanonical)
	if !novel {
		t.Fatal("first diff should be novel")
	}
	if d.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", d.Len())
	}
}

func TestNovelDiffRepeatIsNotNovel(t *testing.T) {
	d := NewDedup()
	output := []int{0, 1}
	moduleLen := []int{2, 2}
	mid := []uint64{0, 0, 5, 7}

	d.NovelDiff(output, moduleLen, mid, zeroCanonical)
	novel, _ := d.NovelDiff(output, moduleLen, mid, zeroCanonical)
	if novel {
		t.Fatal("repeated diff should not be novel")
	}
	if d.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", d.Len())
	}
}

func TestNovelDiffIgnoresNonDivergingModules(t *testing.T) {
	d := NewDedup()
	moduleLen := []int{2, 2}

	// Two runs disagree in the non-diverging target's counters (module 0),
	// but the diverging target (module 1, output != 0) has identical
	// counters in both. Only module 1's counters should feed the
	// fingerprint, so these two must collide.
	mid1 := []uint64{1, 2, 9, 9}
	mid2 := []uint64{99, 100, 9, 9}

	novel1, fp1 := d.NovelDiff([]int{0, 1}, moduleLen, mid1, zeroCanonical)
	novel2, fp2 := d.NovelDiff([]int{0, 1}, moduleLen, mid2, zeroCanonical)

	if !novel1 {
		t.Fatal("first diff should be novel")
	}
	if novel2 {
		t.Fatal("second diff should collide with the first: only module 1 feeds the fingerprint")
	}
	if fp1 != fp2 {
		t.Fatalf("fingerprints differ: %v != %v", fp1, fp2)
	}
}

func TestNovelDiffUsesCanonicalReturnPerTarget(t *testing.T) {
	d := NewDedup()
	moduleLen := []int{2, 2}
	mid := []uint64{1, 2, 9, 9}

	// Target 0's canonical return is 1, not 0: an output of 1 there is
	// normal behavior and must not pull module 0's counters into the
	// fingerprint. Target 1's canonical return is 0, so its output of 9
	// is what's actually diverging.
	canonical := func(j int) int {
		if j == 0 {
			return 1
		}
		return 0
	}

	novel, fp := d.NovelDiff([]int{1, 9}, moduleLen, mid, canonical)
	if !novel {
		t.Fatal("first diff should be novel")
	}

	// A second run where only the non-diverging target's (module 0)
	// counters differ must collide, proving module 0 was excluded.
	mid2 := []uint64{100, 200, 9, 9}
	novel2, fp2 := d.NovelDiff([]int{1, 9}, moduleLen, mid2, canonical)
	if novel2 {
		t.Fatal("second diff should collide: target 0 is at its canonical return and must not feed the fingerprint")
	}
	if fp != fp2 {
		t.Fatalf("fingerprints differ: %v != %v", fp, fp2)
	}
}
