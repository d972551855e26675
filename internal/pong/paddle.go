package pong

// Capsule is a paddle's collision shape: a vertical line segment between two
// endpoints plus a rounding radius.
type Capsule struct {
	A      Vec2
	B      Vec2
	Radius float64
}

// Side identifies which edge of the field a paddle defends.
type Side int

const (
	SideLeft Side = iota + 1
	SideRight
)

// Paddle is a player's paddle. X is fixed at construction; Y is the segment
// center and moves with the paddle.
type Paddle struct {
	X      float64
	Y      float64
	Length float64
	Width  float64
	Speed  float64
	Side   Side

	// Vy is the current velocity: -Speed, 0 or +Speed, set by player input.
	Vy float64

	capsule   Capsule
	capsuleY  float64
	capsuleOK bool
}

// NewPaddle creates a paddle centered vertically on the field.
func NewPaddle(f Field, side Side, offset, length, width, speed float64) *Paddle {
	x := offset
	if side == SideRight {
		x = f.Width - offset
	}
	return &Paddle{
		X:      x,
		Y:      f.Height / 2,
		Length: length,
		Width:  width,
		Speed:  speed,
		Side:   side,
	}
}

// Capsule returns the paddle's collision capsule. The value is memoized and
// recomputed only when Y has changed since the last call.
func (p *Paddle) Capsule() Capsule {
	if !p.capsuleOK || p.capsuleY != p.Y {
		half := p.Length / 2
		p.capsule = Capsule{
			A:      Vec2{p.X, p.Y - half},
			B:      Vec2{p.X, p.Y + half},
			Radius: p.Width,
		}
		p.capsuleY = p.Y
		p.capsuleOK = true
	}
	return p.capsule
}

// Step moves the paddle by its current velocity, clamped so the whole
// capsule stays inside the field.
func (p *Paddle) Step(f Field) {
	p.Y = ClampF(p.Y+p.Vy, p.MinY(), p.MaxY(f))
}

// MinY returns the lowest legal center position.
func (p *Paddle) MinY() float64 {
	return p.Length/2 + p.Width
}

// MaxY returns the highest legal center position.
func (p *Paddle) MaxY(f Field) float64 {
	return f.Height - p.Length/2 - p.Width
}
