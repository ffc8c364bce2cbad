package coverage

import "testing"

func TestHitSaturates(t *testing.T) {
	tbl := NewTable(4)
	for i := 0; i < 300; i++ {
		tbl.Hit(1)
	}
	if tbl.Counters[1] != 255 {
		t.Fatalf("expected saturation at 255, got %d", tbl.Counters[1])
	}
}

func TestResetClearsCounters(t *testing.T) {
	tbl := NewTable(4)
	tbl.Hit(0)
	tbl.Hit(2)
	tbl.Reset()
	for i, c := range tbl.Counters {
		if c != 0 {
			t.Fatalf("counter %d not cleared: %d", i, c)
		}
	}
}

func TestMarkCoveredOnlyFirstTime(t *testing.T) {
	tbl := NewTable(4)
	if !tbl.MarkCovered(0) {
		t.Fatal("expected first MarkCovered to report firstTime=true")
	}
	if tbl.MarkCovered(0) {
		t.Fatal("expected second MarkCovered to report firstTime=false")
	}
}

func TestActiveTableRoutesHit(t *testing.T) {
	tbl := NewTable(4)
	SetActive(tbl)
	defer SetActive(nil)

	Hit(2)
	if tbl.Counters[2] != 1 {
		t.Fatalf("Hit did not reach the active table: %v", tbl.Counters)
	}
}

func TestHitWithNoActiveTableDoesNotPanic(t *testing.T) {
	SetActive(nil)
	Hit(0) // must not panic
}
