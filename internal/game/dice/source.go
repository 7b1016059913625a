package dice

import (
	"crypto/rand"
	"math/big"
)

// cryptoSource implements Source using crypto/rand.
//
// Invariant: All values produced are uniformly distributed in [0, n) for any n > 0.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
// Panics with "dice: crypto/rand failure: <err>" if crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// sequenceSource replays a fixed sequence of values, wrapping around. It backs
// deterministic rolls in tests and the simulator.
type sequenceSource struct {
	values []int
	pos    int
}

// NewSequenceSource returns a Source that yields values[i] % n in order.
//
// Precondition: values must be non-empty.
func NewSequenceSource(values ...int) Source {
	if len(values) == 0 {
		panic("dice: NewSequenceSource requires at least one value")
	}
	return &sequenceSource{values: values}
}

func (s *sequenceSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return v % n
}
