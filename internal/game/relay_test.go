package game

import "testing"

func TestResolveRelayPredecessor(t *testing.T) {
	submissions := map[int]string{
		1: "ref-1",
		2: "ref-2",
		3: "ref-3",
		4: "ref-4",
	}
	lookup := func(seat int) (string, bool) {
		ref, ok := submissions[seat]
		return ref, ok
	}

	ref, ok := ResolveRelay(3, 2, 4, lookup)
	if !ok || ref != "ref-2" {
		t.Fatalf("expected ref-2, got %q ok=%v", ref, ok)
	}
}

func TestResolveRelayWrapsToLastSeat(t *testing.T) {
	submissions := map[int]string{4: "ref-4"}
	lookup := func(seat int) (string, bool) {
		ref, ok := submissions[seat]
		return ref, ok
	}

	// Seat 1's predecessor is seat N.
	ref, ok := ResolveRelay(1, 2, 4, lookup)
	if !ok || ref != "ref-4" {
		t.Fatalf("expected ref-4, got %q ok=%v", ref, ok)
	}
}

func TestResolveRelaySkipsMissingSubmissions(t *testing.T) {
	// Seat 4 never submitted; seat 1 falls through 4 to 3.
	submissions := map[int]string{3: "ref-3"}
	lookup := func(seat int) (string, bool) {
		ref, ok := submissions[seat]
		return ref, ok
	}

	ref, ok := ResolveRelay(1, 2, 4, lookup)
	if !ok || ref != "ref-3" {
		t.Fatalf("expected ref-3, got %q ok=%v", ref, ok)
	}
}

func TestResolveRelayNoSubmissionsTerminates(t *testing.T) {
	calls := 0
	lookup := func(int) (string, bool) {
		calls++
		return "", false
	}

	ref, ok := ResolveRelay(2, 3, 4, lookup)
	if ok || ref != "" {
		t.Fatalf("expected no artifact, got %q ok=%v", ref, ok)
	}
	if calls > 4 {
		t.Fatalf("walk visited %d seats, want at most 4", calls)
	}
}

func TestResolveRelayFirstRoundHasNoSource(t *testing.T) {
	lookup := func(int) (string, bool) {
		t.Fatal("lookup must not be called in round 1")
		return "", false
	}

	if _, ok := ResolveRelay(2, 1, 4, lookup); ok {
		t.Fatal("expected no artifact in round 1")
	}
}

func TestResolveRelayOwnSubmissionAsLastResort(t *testing.T) {
	// Only the viewer submitted; the full wrap lands back on their own entry.
	submissions := map[int]string{2: "ref-2"}
	lookup := func(seat int) (string, bool) {
		ref, ok := submissions[seat]
		return ref, ok
	}

	ref, ok := ResolveRelay(2, 3, 4, lookup)
	if !ok || ref != "ref-2" {
		t.Fatalf("expected own ref-2 after full wrap, got %q ok=%v", ref, ok)
	}
}
