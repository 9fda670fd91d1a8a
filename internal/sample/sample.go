// Package sample generates seeded, scored shot groups for the offline
// renderer and for tests. The render core never scores shots itself.
package sample

import (
	"math"
	"math/rand/v2"

	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/internal/domain/target"
)

// maxScore is the highest ring value; an inner-ten ring still scores 10.
const maxScore = 10

// Options shapes a generated group. Lengths are in millimetres.
type Options struct {
	Shots  int
	AimX   float64
	AimY   float64
	Spread float64 // standard deviation of each axis
	Seed   uint64
	Type   model.SessionType
}

// Group is a scored session ready to render.
type Group struct {
	Session model.Session
	Shots   []model.Shot
}

// Generate draws opts.Shots normally distributed hits around the aim point
// and scores them against p. Equal seeds give equal groups.
func Generate(p *target.Profile, opts Options) Group {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	shots := make([]model.Shot, 0, max(opts.Shots, 0))
	for i := 0; i < opts.Shots; i++ {
		x := opts.AimX + rng.NormFloat64()*opts.Spread
		y := opts.AimY + rng.NormFloat64()*opts.Spread
		shots = append(shots, Score(p, x, y, i))
	}
	xbar, ybar, rbar := Stats(shots)
	return Group{
		Session: model.Session{Type: opts.Type, XBar: xbar, YBar: ybar, RBar: rbar},
		Shots:   shots,
	}
}

// Score rates a hit at (x, y). A ring counts when the edge of the hole
// touches it. The decimal value grows linearly from the ring's outer edge
// towards the next ring, up to ring+0.9.
func Score(p *target.Profile, x, y float64, index int) model.Shot {
	shot := model.Shot{X: x, Y: y, Index: index}
	d := math.Hypot(x, y)
	if d > p.OuterRadius() {
		shot.Miss = true
		return shot
	}

	numbers := p.RingNumbers()
	ring := numbers[0]
	for i := len(numbers) - 1; i >= 0; i-- {
		if r, _ := p.RadiusOf(numbers[i]); d <= r {
			ring = numbers[i]
			break
		}
	}
	score := min(ring, maxScore)

	outer, _ := p.RadiusOf(score)
	inner := 0.0
	if score < maxScore {
		inner, _ = p.RadiusOf(score + 1)
	}
	frac := 0.0
	if outer > inner {
		frac = (outer - d) / (outer - inner)
	}
	decimal := float64(score) + math.Floor(math.Min(math.Max(frac, 0), 0.99)*10)/10

	shot.Score = score
	shot.DecimalScore = decimal
	return shot
}

// Stats returns the centroid and the mean distance from it over the
// shots that hit the card.
func Stats(shots []model.Shot) (xbar, ybar, rbar float64) {
	n := 0
	for _, s := range shots {
		if s.Miss {
			continue
		}
		xbar += s.X
		ybar += s.Y
		n++
	}
	if n == 0 {
		return 0, 0, 0
	}
	xbar /= float64(n)
	ybar /= float64(n)
	for _, s := range shots {
		if !s.Miss {
			rbar += math.Hypot(s.X-xbar, s.Y-ybar)
		}
	}
	return xbar, ybar, rbar / float64(n)
}
