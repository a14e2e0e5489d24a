package logger

import (
	"strconv"
	"strings"
	"sync"
)

// Debug events pass 1 in 50 unless logging.debug_sample says otherwise.
const (
	defaultSampleNum = 1
	defaultSampleDen = 50
)

// ratioSampler lets num events through out of every den, in order.
// A zero ratio lets everything through.
type ratioSampler struct {
	mu       sync.Mutex
	num, den int
	seen     int
}

func newRatioSampler(num, den int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(num, den)
	return s
}

// Set replaces the ratio and restarts the cycle. Non-positive values turn
// sampling off.
func (s *ratioSampler) Set(num, den int) {
	if num <= 0 || den <= 0 {
		num, den = 0, 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.num, s.den = min(num, den), den
	s.seen = 0
}

// Allow reports whether the next event should be written.
func (s *ratioSampler) Allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.den == 0 {
		return true
	}
	pos := s.seen % s.den
	s.seen = pos + 1
	return pos < s.num
}

// parseSampleRatio reads "n/d", a bare "d" meaning 1/d, or "all"/"0" for no
// sampling. ok is false for anything else.
func parseSampleRatio(raw string) (num, den int, ok bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "all", "off", "0":
		return 0, 0, true
	case "":
		return 0, 0, false
	}
	if n, d, found := strings.Cut(raw, "/"); found {
		num, err1 := strconv.Atoi(strings.TrimSpace(n))
		den, err2 := strconv.Atoi(strings.TrimSpace(d))
		if err1 != nil || err2 != nil || num <= 0 || den <= 0 {
			return 0, 0, false
		}
		return num, den, true
	}
	den, err := strconv.Atoi(raw)
	if err != nil || den < 0 {
		return 0, 0, false
	}
	return 1, den, true
}
