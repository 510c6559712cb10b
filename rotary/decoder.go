package rotary

// Decoder turns successive (A, B) samples of a quadrature encoder into
// signed quarter-steps. The zero value assumes both lines were low at
// the previous sample; call Reset to seed it from the real levels.
//
// A jump of two positions means an edge was missed between samples.
// The direction is then guessed from the last emitted delta, which is a
// heuristic: near the encoder's maximum speed it can count the wrong way.
type Decoder struct {
	seq  int // position on the 0..3 ring of the last sample
	last int // last non-zero delta, sign used for double steps
}

// sequence maps the Gray-coded (A, B) pair onto 0,1,2,3 so that one
// physical transition moves exactly one position around the ring.
func sequence(a, b bool) int {
	ai, bi := bit(a), bit(b)
	return (ai ^ bi) | bi<<1
}

func bit(v bool) int {
	if v {
		return 1
	}
	return 0
}

// Reset seeds the decoder with the current pin levels without emitting a step.
func (d *Decoder) Reset(a, b bool) {
	d.seq = sequence(a, b)
	d.last = 0
}

// Sample consumes one (A, B) reading and returns -2, -1, 0, 1 or 2.
func (d *Decoder) Sample(a, b bool) int {
	seq := sequence(a, b)
	if seq == d.seq {
		return 0
	}

	delta := (seq - d.seq + 4) % 4
	switch delta {
	case 3:
		delta = -1
	case 2:
		// A zero last delta counts as forward.
		if d.last < 0 {
			delta = -2
		}
	}

	d.last = delta
	d.seq = seq
	return delta
}
