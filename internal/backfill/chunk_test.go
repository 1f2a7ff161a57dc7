package backfill

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRange(t *testing.T) {
	base := time.Unix(1700000000, 0).UTC()

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		width time.Duration
		want  int
	}{
		{"seven days in three-day chunks", base, base.Add(7 * 24 * time.Hour), 3 * 24 * time.Hour, 3},
		{"exact multiple", base, base.Add(6 * 24 * time.Hour), 3 * 24 * time.Hour, 2},
		{"range shorter than width", base, base.Add(time.Hour), 3 * 24 * time.Hour, 1},
		{"empty range", base, base, time.Hour, 0},
		{"inverted range", base.Add(time.Hour), base, time.Hour, 0},
		{"zero width", base, base.Add(time.Hour), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := SplitRange(tt.start, tt.end, tt.width)
			require.Len(t, spans, tt.want)
			if tt.want == 0 {
				return
			}
			assert.Equal(t, tt.start, spans[0].From)
			assert.Equal(t, tt.end, spans[len(spans)-1].To)
			for i, sp := range spans {
				assert.True(t, sp.From.Before(sp.To), "span %d not forward", i)
				if i > 0 {
					assert.Equal(t, spans[i-1].To, sp.From, "gap before span %d", i)
				}
				assert.LessOrEqual(t, sp.To.Sub(sp.From), tt.width)
			}
		})
	}
}

func TestSplitRangeClipsLastSpan(t *testing.T) {
	base := time.Unix(1700000000, 0).UTC()
	spans := SplitRange(base, base.Add(7*24*time.Hour), 3*24*time.Hour)
	require.Len(t, spans, 3)
	assert.Equal(t, 3*24*time.Hour, spans[0].To.Sub(spans[0].From))
	assert.Equal(t, 24*time.Hour, spans[2].To.Sub(spans[2].From))
}
