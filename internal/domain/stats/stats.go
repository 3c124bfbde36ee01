// Package stats provides the per-track listening statistics record.
package stats

// Statistics holds the play/skip counters persisted for a single track.
// The JSON field names are the on-disk/in-database wire format shared by
// both the sticker and tag backends; changing them orphans existing data.
type Statistics struct {
	PlayCnt uint32 `json:"play_cnt"` // times the track played to completion
	SkipCnt uint32 `json:"skip_cnt"` // times the track was skipped
}

// Played increments the play counter.
func (s *Statistics) Played() {
	s.PlayCnt++
}

// Skipped increments the skip counter.
func (s *Statistics) Skipped() {
	s.SkipCnt++
}

// IsZero reports whether no listening activity has been recorded yet.
func (s Statistics) IsZero() bool {
	return s.PlayCnt == 0 && s.SkipCnt == 0
}

// Rating derives a single scalar from the counters: the play/skip ratio
// scaled by total listens, so frequently heard tracks outrank rarely heard
// ones with the same ratio. Skips dampen the ratio rather than subtracting
// from the result.
func (s Statistics) Rating() float64 {
	return float64(s.PlayCnt) / float64(1+s.SkipCnt) * float64(s.PlayCnt+s.SkipCnt)
}
