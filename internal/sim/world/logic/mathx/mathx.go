package mathx

func FloorDiv(a, b int) int {
	// b > 0
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

func Mod(a, b int) int {
	// b > 0
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func AbsInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func MaxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// SplitMix64 is a deterministic, fast, non-cryptographic RNG stream.
// Used wherever generation must be bit-reproducible across runs.
type SplitMix64 struct {
	state uint64
}

func NewSplitMix64(seed uint64) *SplitMix64 {
	return &SplitMix64{state: seed}
}

func (r *SplitMix64) Next() uint64 {
	r.state += 0x9e3779b97f4a7c15
	z := r.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Range returns a value in [lo, hi] (inclusive). Requires hi >= lo.
func (r *SplitMix64) Range(lo, hi int) int {
	span := uint64(hi-lo) + 1
	return lo + int(r.Next()%span)
}

// Hash01 maps a tile position and seed to [0, 1). FNV-1a over the three
// inputs; the same position always produces the same value.
func Hash01(x, y int, seed int64) float64 {
	h := uint32(2166136261)
	h ^= uint32(int32(x))
	h *= 16777619
	h ^= uint32(int32(y))
	h *= 16777619
	h ^= uint32(int64(seed))
	h *= 16777619
	return float64(h) / float64(1<<32)
}
