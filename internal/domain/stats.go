package domain

import "math"

// RunningStats accumulates per-dimension count, mean, variance, min and max
// over a stream of fixed-width vectors (Welford's algorithm).
type RunningStats struct {
	dims  int
	count int64
	mean  []float64
	m2    []float64
	min   []float64
	max   []float64
}

// NewRunningStats creates an accumulator for vectors of the given width.
func NewRunningStats(dims int) *RunningStats {
	s := &RunningStats{
		dims: dims,
		mean: make([]float64, dims),
		m2:   make([]float64, dims),
		min:  make([]float64, dims),
		max:  make([]float64, dims),
	}
	for i := range s.min {
		s.min[i] = math.Inf(1)
		s.max[i] = math.Inf(-1)
	}
	return s
}

// Count returns the number of observed vectors.
func (s *RunningStats) Count() int64 { return s.count }

// Observe adds one vector. Vectors of the wrong width are ignored.
func (s *RunningStats) Observe(v []float64) {
	if len(v) != s.dims {
		return
	}
	s.count++
	n := float64(s.count)
	for i, x := range v {
		d := x - s.mean[i]
		s.mean[i] += d / n
		s.m2[i] += d * (x - s.mean[i])
		if x < s.min[i] {
			s.min[i] = x
		}
		if x > s.max[i] {
			s.max[i] = x
		}
	}
}

// Merge folds other into s (Chan et al. parallel combination).
func (s *RunningStats) Merge(other *RunningStats) {
	if other == nil || other.count == 0 || other.dims != s.dims {
		return
	}
	if s.count == 0 {
		s.count = other.count
		copy(s.mean, other.mean)
		copy(s.m2, other.m2)
		copy(s.min, other.min)
		copy(s.max, other.max)
		return
	}
	na, nb := float64(s.count), float64(other.count)
	n := na + nb
	for i := 0; i < s.dims; i++ {
		d := other.mean[i] - s.mean[i]
		s.mean[i] += d * nb / n
		s.m2[i] += other.m2[i] + d*d*na*nb/n
		s.min[i] = math.Min(s.min[i], other.min[i])
		s.max[i] = math.Max(s.max[i], other.max[i])
	}
	s.count += other.count
}

// Mean returns the per-dimension mean, zeros when empty.
func (s *RunningStats) Mean() []float64 {
	return append([]float64(nil), s.mean...)
}

// Std returns the per-dimension population standard deviation.
func (s *RunningStats) Std() []float64 {
	out := make([]float64, s.dims)
	if s.count == 0 {
		return out
	}
	for i := range out {
		out[i] = math.Sqrt(s.m2[i] / float64(s.count))
	}
	return out
}

// Min returns the per-dimension minimum, zeros when empty.
func (s *RunningStats) Min() []float64 {
	if s.count == 0 {
		return make([]float64, s.dims)
	}
	return append([]float64(nil), s.min...)
}

// Max returns the per-dimension maximum, zeros when empty.
func (s *RunningStats) Max() []float64 {
	if s.count == 0 {
		return make([]float64, s.dims)
	}
	return append([]float64(nil), s.max...)
}
