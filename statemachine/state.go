package statemachine

import (
	"hash/fnv"
	"strings"
)

// MachineState is an immutable snapshot of the base propositions, packed one
// bit per base fact. It is comparable and usable as a map key.
type MachineState struct {
	bits string
	n    int
}

func pack(base []bool) MachineState {
	buf := make([]byte, (len(base)+7)/8)
	for i, v := range base {
		if v {
			buf[i/8] |= 1 << (i % 8)
		}
	}
	return MachineState{bits: string(buf), n: len(base)}
}

// Len is the number of base facts in the snapshot.
func (s MachineState) Len() int { return s.n }

// Has reports whether base fact i is true.
func (s MachineState) Has(i int) bool {
	return s.bits[i/8]&(1<<(i%8)) != 0
}

func (s MachineState) unpack(dst []bool) {
	for i := 0; i < s.n; i++ {
		dst[i] = s.Has(i)
	}
}

func (s MachineState) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(s.bits))
	return h.Sum64()
}

func (s MachineState) String() string {
	var sb strings.Builder
	sb.Grow(s.n)
	for i := 0; i < s.n; i++ {
		if s.Has(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
