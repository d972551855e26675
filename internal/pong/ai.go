package pong

import (
	"math"
	"math/rand"
	"time"
)

// AIProfile tunes the scripted opponent.
type AIProfile struct {
	// Reaction is the minimum time between target replans.
	Reaction time.Duration
	// ErrorFrac scales the random aiming error as a fraction of paddle length.
	ErrorFrac float64
}

// Dead zone around the target, as a fraction of paddle length, inside which
// the paddle holds still instead of oscillating.
const aiDeadZoneFrac = 0.15

// Chance that a replan doubles the aiming error.
const aiDoubleErrorChance = 0.25

// Opponent is the scripted player. It periodically predicts where the ball
// will cross its paddle's column and moves the paddle toward that point.
type Opponent struct {
	profile   AIProfile
	rng       *rand.Rand
	targetY   float64
	hasTarget bool
	lastPlan  time.Time
	replan    bool
}

// NewOpponent creates an opponent with the given profile.
func NewOpponent(profile AIProfile, rng *rand.Rand) *Opponent {
	return &Opponent{profile: profile, rng: rng, replan: true}
}

// NotifyServe forces a replan on the next update, regardless of reaction time.
func (o *Opponent) NotifyServe() {
	o.replan = true
}

// Update re-plans the target when the reaction time has elapsed (or a serve
// was flagged) and steers the paddle toward the last computed target.
func (o *Opponent) Update(now time.Time, b *Ball, p *Paddle, f Field) {
	if o.replan || now.Sub(o.lastPlan) > o.profile.Reaction {
		if o.plan(b, p, f) {
			o.lastPlan = now
			o.replan = false
			o.hasTarget = true
		}
	}
	if !o.hasTarget {
		p.Vy = 0
		return
	}

	diff := o.targetY - p.Y
	if math.Abs(diff) <= aiDeadZoneFrac*p.Length {
		p.Vy = 0
		return
	}
	if diff > 0 {
		p.Vy = p.Speed
	} else {
		p.Vy = -p.Speed
	}
}

// plan predicts the ball's y at the paddle column and stores it, with a
// difficulty-scaled random error, as the new target. Returns false when the
// ball is stationary or moving away, in which case the old target stands.
func (o *Opponent) plan(b *Ball, p *Paddle, f Field) bool {
	if b.Vel.X == 0 {
		return false
	}
	ticks := (p.X - b.Pos.X) / b.Vel.X
	if ticks <= 0 {
		// Moving away from this paddle.
		return false
	}

	y := reflectY(b.Pos.Y+b.Vel.Y*ticks, b.Radius, f.Height)
	y = ClampF(y, p.MinY(), p.MaxY(f))

	errAmp := o.profile.ErrorFrac * p.Length
	aimErr := (o.rng.Float64()*2 - 1) * errAmp
	if o.rng.Float64() < aiDoubleErrorChance {
		aimErr *= 2
	}

	o.targetY = ClampF(y+aimErr, p.MinY(), p.MaxY(f))
	return true
}

// reflectY folds an unbounded y coordinate into [radius, height-radius] as if
// the ball bounced off the top and bottom walls.
func reflectY(y, radius, height float64) float64 {
	span := height - 2*radius
	if span <= 0 {
		return height / 2
	}
	pos := math.Mod(y-radius, 2*span)
	if pos < 0 {
		pos += 2 * span
	}
	if pos > span {
		pos = 2*span - pos
	}
	return pos + radius
}
