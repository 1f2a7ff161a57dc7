package backfill

import "time"

// Span is a half-open [From, To) slice of a fetch range.
type Span struct {
	From time.Time
	To   time.Time
}

// SplitRange cuts [start, end) into consecutive spans of at most width.
// The last span is clipped to end so the spans cover the range exactly,
// with no overlap and no gap. An empty or inverted range yields nothing.
func SplitRange(start, end time.Time, width time.Duration) []Span {
	if width <= 0 || !start.Before(end) {
		return nil
	}
	var spans []Span
	for cur := start; cur.Before(end); cur = cur.Add(width) {
		to := cur.Add(width)
		if to.After(end) {
			to = end
		}
		spans = append(spans, Span{From: cur, To: to})
	}
	return spans
}
