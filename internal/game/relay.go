package game

// ResolveRelay computes which prior-round artifact the viewer should
// transform in the current round. The hand-off is circular: walk backward
// from the viewer's seat, wrapping at seat 1 to the highest seat, and take
// the first predecessor who actually submitted in the previous round.
// Players who skipped a round (or seats vacated by a leave/kick) are walked
// past the same way.
//
// submitted reports the previous-round artifact for a seat number, if any.
// The walk inspects at most totalSeats candidates; a full loop without a hit
// means the viewer has no relay and plays the round prompt-only, which is
// also the answer for round 1.
func ResolveRelay(viewerSeat, currentRound, totalSeats int, submitted func(seat int) (string, bool)) (string, bool) {
	if currentRound <= 1 || totalSeats <= 0 {
		return "", false
	}
	seat := viewerSeat
	for i := 0; i < totalSeats; i++ {
		seat--
		if seat <= 0 {
			seat = totalSeats
		}
		if ref, ok := submitted(seat); ok {
			return ref, true
		}
	}
	return "", false
}
