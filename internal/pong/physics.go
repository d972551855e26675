package pong

import "math"

// GoalEvent reports the result of a wall check.
type GoalEvent int

const (
	// GoalNone means no scoring wall was crossed this tick.
	GoalNone GoalEvent = iota
	// GoalLeft means the ball crossed the left wall (point for the right player).
	GoalLeft
	// GoalRight means the ball crossed the right wall (point for the left player).
	GoalRight
)

// CollideWalls bounces the ball off the top and bottom walls and reports
// whether it crossed a scoring wall. Top/bottom contact reflects the vertical
// velocity and clamps the position back inside the field.
func CollideWalls(b *Ball, f Field) GoalEvent {
	if b.Pos.Y-b.Radius < 0 {
		b.Pos.Y = b.Radius
		b.Vel.Y = -b.Vel.Y
	} else if b.Pos.Y+b.Radius > f.Height {
		b.Pos.Y = f.Height - b.Radius
		b.Vel.Y = -b.Vel.Y
	}

	if b.Pos.X+b.Radius < 0 {
		return GoalLeft
	}
	if b.Pos.X-b.Radius > f.Width {
		return GoalRight
	}
	return GoalNone
}

// BroadPhase is the cheap pre-check for paddle collision: Manhattan distance
// from the ball center to the paddle center against
// ball.Radius + paddle.Width + paddle.Length. May report false positives,
// never false negatives.
func BroadPhase(b *Ball, p *Paddle) bool {
	d := math.Abs(b.Pos.X-p.X) + math.Abs(b.Pos.Y-p.Y)
	return d <= b.Radius+p.Width+p.Length
}

// CollidePaddle runs the precise circle-vs-capsule test and, on contact,
// resolves it: the ball is pushed out along the contact normal by the
// penetration depth and a closing velocity is reflected. The resulting
// trajectory is clamped to MaxBounceAngle from horizontal with its horizontal
// sign forced away from the paddle's side; the speed magnitude carried into
// the collision is preserved. Returns true when a collision was resolved.
func CollidePaddle(b *Ball, p *Paddle) bool {
	if !BroadPhase(b, p) {
		return false
	}

	cap := p.Capsule()
	closest := closestOnSegment(b.Pos, cap.A, cap.B)
	delta := b.Pos.Sub(closest)
	dist := delta.Length()
	reach := b.Radius + cap.Radius
	if dist > reach {
		return false
	}

	normal := delta.Normalize()
	if dist == 0 {
		// Ball center exactly on the segment: fall back to the horizontal
		// normal pointing into the field.
		normal = Vec2{1, 0}
		if p.Side == SideRight {
			normal = Vec2{-1, 0}
		}
	}

	// Push the ball out of the capsule.
	b.Pos = b.Pos.Add(normal.Scale(reach - dist))

	// Only reflect a closing velocity; a separating ball keeps its course.
	if closing := b.Vel.Dot(normal); closing < 0 {
		b.Vel = b.Vel.Sub(normal.Scale(2 * closing))
	}

	clampExitAngle(b, p.Side)
	return true
}

// closestOnSegment projects pt onto the segment [a,b], clamping the projection
// parameter to [0,1].
func closestOnSegment(pt, a, b Vec2) Vec2 {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return a
	}
	t := ClampF(pt.Sub(a).Dot(ab)/lenSq, 0, 1)
	return a.Add(ab.Scale(t))
}

// clampExitAngle limits the post-collision trajectory to MaxBounceAngle from
// horizontal and forces the horizontal direction away from the given side,
// preserving the overall speed magnitude.
func clampExitAngle(b *Ball, side Side) {
	speed := b.Speed()
	if speed == 0 {
		return
	}

	angle := math.Atan2(b.Vel.Y, math.Abs(b.Vel.X))
	angle = ClampF(angle, -MaxBounceAngle, MaxBounceAngle)

	dir := 1.0
	if side == SideRight {
		dir = -1.0
	}
	b.Vel = Vec2{
		X: dir * speed * math.Cos(angle),
		Y: speed * math.Sin(angle),
	}
}
