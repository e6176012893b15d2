package game

import "testing"

func TestEvaluateWindows(t *testing.T) {
	cases := []struct {
		name  string
		delta int64
		want  HitResult
	}{
		{"exact", 0, HitPerfect},
		{"early perfect edge", -50, HitPerfect},
		{"late perfect edge", 50, HitPerfect},
		{"early good", -51, HitGood},
		{"late good edge", 100, HitGood},
		{"early good edge", -100, HitGood},
		{"late miss", 101, HitMiss},
		{"early miss edge", -150, HitMiss},
		{"late miss edge", 150, HitMiss},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Evaluate(tc.delta); got != tc.want {
				t.Fatalf("Evaluate(%d): got %v, want %v", tc.delta, got, tc.want)
			}
		})
	}
}

func TestInHitWindow(t *testing.T) {
	cases := []struct {
		delta int64
		want  bool
	}{
		{0, true},
		{150, true},
		{-150, true},
		{151, false},
		{-151, false},
	}
	for _, tc := range cases {
		if got := InHitWindow(tc.delta); got != tc.want {
			t.Fatalf("InHitWindow(%d): got %v, want %v", tc.delta, got, tc.want)
		}
	}
}

func TestClosestNote(t *testing.T) {
	notes := []Note{
		{ID: "n1", Direction: DirLeft, TargetTime: 1000},
		{ID: "n2", Direction: DirLeft, TargetTime: 1120},
		{ID: "n3", Direction: DirUp, TargetTime: 1050},
	}

	t.Run("nearest of same direction wins", func(t *testing.T) {
		idx, delta, ok := ClosestNote(notes, DirLeft, 1090, nil)
		if !ok || notes[idx].ID != "n2" {
			t.Fatalf("want n2, got ok=%v idx=%d", ok, idx)
		}
		if delta != 30 {
			t.Fatalf("want delta 30, got %d", delta)
		}
	})

	t.Run("direction is respected", func(t *testing.T) {
		idx, _, ok := ClosestNote(notes, DirUp, 1050, nil)
		if !ok || notes[idx].ID != "n3" {
			t.Fatalf("want n3, got ok=%v idx=%d", ok, idx)
		}
	})

	t.Run("outside window binds nothing", func(t *testing.T) {
		if _, _, ok := ClosestNote(notes, DirLeft, 700, nil); ok {
			t.Fatalf("expected no candidate 300ms early")
		}
	})

	t.Run("resolved notes are skipped", func(t *testing.T) {
		resolved := func(id string) bool { return id == "n1" }
		idx, _, ok := ClosestNote(notes, DirLeft, 1010, resolved)
		if !ok || notes[idx].ID != "n2" {
			t.Fatalf("want n2 after n1 resolved, got ok=%v idx=%d", ok, idx)
		}
	})

	t.Run("hit notes are skipped", func(t *testing.T) {
		hit := []Note{{ID: "h1", Direction: DirLeft, TargetTime: 1000, IsHit: true}}
		if _, _, ok := ClosestNote(hit, DirLeft, 1000, nil); ok {
			t.Fatalf("expected no candidate among hit notes")
		}
	})
}

func TestBeatmapValidate(t *testing.T) {
	cases := []struct {
		name    string
		bm      Beatmap
		wantErr bool
	}{
		{
			name: "sorted in range",
			bm: Beatmap{Duration: 60000, Notes: []Note{
				{ID: "a", TargetTime: 100}, {ID: "b", TargetTime: 100}, {ID: "c", TargetTime: 59999},
			}},
		},
		{
			name: "unsorted",
			bm: Beatmap{Duration: 60000, Notes: []Note{
				{ID: "a", TargetTime: 500}, {ID: "b", TargetTime: 100},
			}},
			wantErr: true,
		},
		{
			name: "out of range",
			bm: Beatmap{Duration: 60000, Notes: []Note{
				{ID: "a", TargetTime: 60001},
			}},
			wantErr: true,
		},
		{
			name:    "empty",
			bm:      Beatmap{Duration: 60000},
			wantErr: true,
		},
		{
			name:    "bad duration",
			bm:      Beatmap{Notes: []Note{{ID: "a"}}},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.bm.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
		})
	}
}
