package game

import "testing"

func sweepBeatmap() *Beatmap {
	return &Beatmap{
		ID:       "bm",
		Duration: 60000,
		Notes: []Note{
			{ID: "n1", Direction: DirLeft, TargetTime: 100},
			{ID: "n2", Direction: DirUp, TargetTime: 200},
			{ID: "n3", Direction: DirRight, TargetTime: 5000},
		},
	}
}

func TestLedgerSweep_ForcesTerminalMissOnce(t *testing.T) {
	l := NewLedger(sweepBeatmap())

	// n1 is 350ms past target, n2 only 250ms
	missed := l.Sweep(450)
	if len(missed) != 1 || missed[0] != "n1" {
		t.Fatalf("want [n1], got %v", missed)
	}

	// idempotent: the same sweep again resolves nothing
	if again := l.Sweep(450); len(again) != 0 {
		t.Fatalf("second sweep must be empty, got %v", again)
	}

	if missed = l.Sweep(550); len(missed) != 1 || missed[0] != "n2" {
		t.Fatalf("want [n2] at 550, got %v", missed)
	}
}

func TestLedgerSweep_SkipsResolvedNotes(t *testing.T) {
	l := NewLedger(sweepBeatmap())

	if !l.Resolve("n1", HitPerfect) {
		t.Fatalf("first resolve must succeed")
	}
	if missed := l.Sweep(600); len(missed) != 1 || missed[0] != "n2" {
		t.Fatalf("want only n2 swept, got %v", missed)
	}
}

func TestLedgerResolve_DuplicatesAndUnknownIDs(t *testing.T) {
	l := NewLedger(sweepBeatmap())

	if !l.Resolve("n2", HitGood) {
		t.Fatalf("resolve should succeed")
	}
	if l.Resolve("n2", HitMiss) {
		t.Fatalf("duplicate resolve must be rejected")
	}
	if r, _ := l.Outcome("n2"); r != HitGood {
		t.Fatalf("duplicate must not overwrite, got %v", r)
	}
	if l.Resolve("nope", HitMiss) {
		t.Fatalf("unknown note id must be rejected")
	}
	if !l.Resolved("n2") || l.Resolved("n1") {
		t.Fatalf("resolved flags wrong")
	}
}
