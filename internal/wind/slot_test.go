package wind

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuantizeBuckets(t *testing.T) {
	cases := []struct {
		name     string
		instant  time.Time
		interval int
		want     string
	}{
		{"midnight", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), 6, "2024011000"},
		{"early morning rounds down", time.Date(2024, 1, 10, 5, 59, 0, 0, time.UTC), 6, "2024011000"},
		{"bucket boundary", time.Date(2024, 1, 10, 6, 0, 0, 0, time.UTC), 6, "2024011006"},
		{"afternoon", time.Date(2024, 1, 10, 17, 30, 0, 0, time.UTC), 6, "2024011012"},
		{"late evening", time.Date(2024, 1, 10, 23, 59, 59, 0, time.UTC), 6, "2024011018"},
		{"three hour interval", time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC), 3, "2024011009"},
		{"twelve hour interval", time.Date(2024, 1, 10, 13, 0, 0, 0, time.UTC), 12, "2024011012"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Quantize(tc.instant, tc.interval))
		})
	}
}

func TestQuantizeStableWithinBucket(t *testing.T) {
	t1 := time.Date(2024, 1, 10, 6, 1, 0, 0, time.UTC)
	t2 := time.Date(2024, 1, 10, 11, 59, 0, 0, time.UTC)
	assert.Equal(t, Quantize(t1, 6), Quantize(t2, 6))
}

func TestQuantizeNonDecreasing(t *testing.T) {
	start := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)
	prev := Quantize(start, 6)
	for i := 1; i < 48; i++ {
		key := Quantize(start.Add(time.Duration(i)*time.Hour), 6)
		assert.GreaterOrEqual(t, key, prev)
		prev = key
	}
}

func TestQuantizeNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	local := time.Date(2024, 1, 10, 2, 0, 0, 0, loc) // 21:00 UTC the day before
	assert.Equal(t, "2024010918", Quantize(local, 6))
}

func TestValidInterval(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 6, 8, 12, 24} {
		assert.True(t, ValidInterval(n), "interval %d", n)
	}
	for _, n := range []int{0, -6, 5, 7, 9, 48} {
		assert.False(t, ValidInterval(n), "interval %d", n)
	}
}
