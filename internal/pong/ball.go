package pong

import (
	"math"
	"math/rand"
)

// MaxBounceAngle is the largest angle from horizontal, in radians, a ball may
// travel at after a serve or a paddle reflection.
const MaxBounceAngle = math.Pi / 4

// Ball is the moving ball. Mutated every physics tick and on reset.
type Ball struct {
	Pos    Vec2
	Radius float64
	Vel    Vec2
}

// Step advances the ball by one tick of its current velocity.
func (b *Ball) Step() {
	b.Pos = b.Pos.Add(b.Vel)
}

// Speed returns the current velocity magnitude.
func (b *Ball) Speed() float64 {
	return b.Vel.Length()
}

// Hold places the ball at the field center with zero velocity.
// Used while a match is waiting or counting down.
func (b *Ball) Hold(f Field) {
	b.Pos = f.Center()
	b.Vel = Vec2{}
}

// Reset places the ball at the exact field center and serves it with the
// given speed in a random direction within MaxBounceAngle of horizontal,
// left or right chosen at random.
func (b *Ball) Reset(f Field, speed float64, rng *rand.Rand) {
	b.Pos = f.Center()

	angle := (rng.Float64()*2 - 1) * MaxBounceAngle
	dir := 1.0
	if rng.Intn(2) == 0 {
		dir = -1.0
	}
	b.Vel = Vec2{
		X: dir * speed * math.Cos(angle),
		Y: speed * math.Sin(angle),
	}
}
