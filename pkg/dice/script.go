package dice

// Script is a Source that replays fixed values. IntN returns the next
// scripted int reduced modulo n; Float64 returns the next scripted float.
// An exhausted list falls back to 0.
type Script struct {
	Ints   []int
	Floats []float64
}

var _ Source = (*Script)(nil)

func (s *Script) IntN(n int) int {
	if len(s.Ints) == 0 || n <= 0 {
		return 0
	}
	v := s.Ints[0]
	s.Ints = s.Ints[1:]
	if v < 0 {
		v = -v
	}
	return v % n
}

func (s *Script) Float64() float64 {
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[0]
	s.Floats = s.Floats[1:]
	return v
}

// Roll returns the IntN value that makes Percent yield roll.
func Roll(roll int) int {
	return roll - 1
}
