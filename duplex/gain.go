package duplex

import (
	"math"

	"github.com/jrwynneiii/hackrfduplex/hackrf"
)

// Stages is one allocation of a composite gain across the amplifier chain.
// AMP is either 0 or hackrf.AmpMaxDB.
type Stages struct {
	LNA int
	VGA int
	AMP int
}

func (s Stages) Total() int {
	return s.LNA + s.VGA + s.AMP
}

// MaxGain is the largest composite gain a direction can apply.
func MaxGain(dir Direction) int {
	if dir == RX {
		return hackrf.RxLNAMaxDB + hackrf.RxVGAMaxDB + hackrf.AmpMaxDB
	}
	return hackrf.TxVGAMaxDB + hackrf.AmpMaxDB
}

// AllocateGain splits a composite gain in dB across the stages of a
// direction. Fractions are truncated and the result saturates at MaxGain.
func AllocateGain(dir Direction, requested float64) Stages {
	g := truncDB(requested, MaxGain(dir))
	if g == 0 {
		return Stages{}
	}
	if dir == RX {
		return allocateRx(g)
	}
	return allocateTx(g)
}

const (
	rxHalfSplit = hackrf.RxLNAMaxDB/2 + hackrf.RxVGAMaxDB/2
	txHalfVGA   = hackrf.TxVGAMaxDB / 2
)

func allocateRx(g int) Stages {
	var s Stages
	switch {
	case g <= rxHalfSplit:
		s.VGA = evenThird(g)
		s.LNA = g - s.VGA
	case g <= rxHalfSplit+hackrf.AmpMaxDB:
		s.AMP = hackrf.AmpMaxDB
		s.VGA = evenThird(g - s.AMP)
		s.LNA = g - s.AMP - s.VGA
	default:
		// top tier switches to a proportional split
		s.AMP = hackrf.AmpMaxDB
		s.VGA = clamp(int(float64(g-s.AMP)*float64(hackrf.RxLNAMaxDB)/float64(hackrf.RxVGAMaxDB)), hackrf.RxVGAMaxDB)
		s.LNA = g - s.AMP - s.VGA
	}
	s.LNA = clamp(s.LNA, hackrf.RxLNAMaxDB)
	s.VGA = clamp(s.VGA, hackrf.RxVGAMaxDB)
	return s
}

func allocateTx(g int) Stages {
	var s Stages
	if g <= txHalfVGA {
		s.VGA = g
	} else {
		s.AMP = hackrf.AmpMaxDB
		s.VGA = g - hackrf.AmpMaxDB
	}
	s.VGA = clamp(s.VGA, hackrf.TxVGAMaxDB)
	return s
}

// evenThird is a third of g rounded down to an even number.
func evenThird(g int) int {
	return (g / 3) &^ 1
}

func clamp(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}

// truncDB truncates a dB value to an int in [0, limit]. Bounds are applied
// before the conversion since out-of-range float to int is not defined.
func truncDB(v float64, limit int) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= float64(limit) {
		return limit
	}
	return int(v)
}

// ClipAmp maps any requested AMP value onto the two settings the stage has.
func ClipAmp(value float64) int {
	if value > 0 {
		return hackrf.AmpMaxDB
	}
	return 0
}
