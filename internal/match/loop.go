package match

import (
	"context"
	"time"

	"github.com/vovakirdan/pong-arena/internal/pong"
	"github.com/vovakirdan/pong-arena/internal/protocol"
)

// Start launches the match loop: a physics ticker and a broadcast ticker
// served by one goroutine, so the two callbacks never overlap within a match.
// Starting a running match is a no-op with a warning; a stopped match cannot
// be restarted.
func (m *Match) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		m.logger.Warn("start ignored: match already running")
		return
	}
	if m.stopped {
		m.mu.Unlock()
		m.logger.Warn("start ignored: match already stopped")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.running = true
	m.ctx = ctx
	m.cancel = cancel
	m.startedAt = time.Now()
	m.mu.Unlock()

	m.logger.Info("match loop started",
		"physics_hz", m.settings.PhysicsHz,
		"broadcast_hz", m.settings.BroadcastHz)
	go m.run(ctx)
}

// Stop halts the loop, marks the match stopped and non-restartable, and fires
// the cleanup callback. Safe to call redundantly.
func (m *Match) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	m.state = StateStopped
	m.running = false
	cancel := m.cancel
	cleanup := m.onCleanup
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.logger.Info("match stopped")
	if cleanup != nil {
		cleanup(m)
	}
}

// StartCountdown moves a waiting match into the countdown sequence: a full
// setup frame per seat, then 3-2-1 at one-second steps, then a fresh serve.
func (m *Match) StartCountdown() {
	m.mu.Lock()
	if m.stopped || m.state != StateWaiting {
		m.mu.Unlock()
		return
	}
	m.state = StateCountdown
	m.countdown = 3
	m.ball.Hold(m.field)
	m.mu.Unlock()

	m.SendSetup(1)
	m.SendSetup(2)
	m.Start()

	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel == nil {
		// Start refused (already stopped); nothing to count down.
		return
	}
	go m.runCountdown()
}

// runCountdown walks 3, 2, 1 with a cancellable one-second wait after each
// step. The wait is the only suspension point; the running flag is re-checked
// after every wait so stopping mid-countdown aborts without going live.
func (m *Match) runCountdown() {
	for i := 3; i >= 1; i-- {
		m.mu.Lock()
		if m.stopped {
			m.mu.Unlock()
			return
		}
		m.countdown = i
		ctx := m.loopContext()
		m.mu.Unlock()

		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return
		}
		if !m.Running() {
			return
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.countdown = 0
	m.state = StateLive
	m.ball.Reset(m.field, m.settings.BallSpeed, m.rng)
	if m.ai != nil {
		m.ai.NotifyServe()
	}
}

// loopContext returns a context cancelled when the loop stops. Callers hold m.mu.
func (m *Match) loopContext() context.Context {
	if m.ctx == nil {
		return context.Background()
	}
	return m.ctx
}

// run serves both tickers until the context is cancelled.
func (m *Match) run(ctx context.Context) {
	physics := time.NewTicker(time.Second / time.Duration(m.settings.PhysicsHz))
	broadcast := time.NewTicker(time.Second / time.Duration(m.settings.BroadcastHz))
	defer physics.Stop()
	defer broadcast.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-physics.C:
			if result, done := m.tick(); done {
				m.finish(result)
				return
			}
		case <-broadcast.C:
			m.broadcast()
		}
	}
}

// tick advances one physics step: AI, paddles, ball movement, collision and
// wall handling, and the end condition. Returns the result when max score is
// reached.
func (m *Match) tick() (Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return Result{}, false
	}
	if m.ai != nil {
		m.ai.Update(time.Now(), &m.ball, m.paddles[1], m.field)
	}
	m.paddles[0].Step(m.field)
	m.paddles[1].Step(m.field)
	if m.state != StateLive {
		return Result{}, false
	}

	m.ball.Step()
	pong.CollidePaddle(&m.ball, m.paddles[0])
	pong.CollidePaddle(&m.ball, m.paddles[1])

	switch pong.CollideWalls(&m.ball, m.field) {
	case pong.GoalLeft:
		m.scores[1]++
	case pong.GoalRight:
		m.scores[0]++
	default:
		return Result{}, false
	}

	if m.scores[0] >= m.settings.MaxScore || m.scores[1] >= m.settings.MaxScore {
		return m.resultLocked(), true
	}

	m.ball.Reset(m.field, m.settings.BallSpeed, m.rng)
	if m.ai != nil {
		m.ai.NotifyServe()
	}
	return Result{}, false
}

// resultLocked builds the final result. Callers hold m.mu.
func (m *Match) resultLocked() Result {
	winner, loser := 0, 1
	if m.scores[1] > m.scores[0] {
		winner, loser = 1, 0
	}
	return Result{
		MatchID:     m.id,
		Mode:        m.mode,
		Winner:      m.seats[winner].player,
		Loser:       m.seats[loser].player,
		WinnerScore: m.scores[winner],
		LoserScore:  m.scores[loser],
		Duration:    time.Since(m.startedAt),
	}
}

// finish reports the result (fire-and-forget), fires the finish hook,
// broadcasts the result, and stops the match for good.
func (m *Match) finish(result Result) {
	m.logger.Info("match finished",
		"winner", result.Winner.Name,
		"score", result.WinnerScore, "loser_score", result.LoserScore)

	if m.reporter != nil {
		go func() {
			if err := m.reporter.SaveMatchResult(result); err != nil {
				m.logger.Warn("result not persisted", "error", err)
			}
		}()
	}

	// The finish hook runs before clients see the result: a bracket must
	// already hold the winner when the operator reacts to the frame.
	if m.onFinish != nil {
		m.onFinish(result)
	}

	frame := protocol.GameResult{
		Type: protocol.TypeGameResult,
		Mode: m.mode.String(),
		Data: protocol.ResultData{
			Winner:      result.Winner.Name,
			Loser:       result.Loser.Name,
			WinnerScore: result.WinnerScore,
			LoserScore:  result.LoserScore,
		},
	}
	m.sendAll(frame)
	m.Stop()
}

// broadcast serializes the current state to every bound connection.
func (m *Match) broadcast() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	frame := protocol.GameState{Type: protocol.TypeGameState, Data: m.gameDataLocked(false)}
	m.mu.Unlock()
	m.sendAll(frame)
}

// sendAll pushes a frame to every seat with a live connection.
func (m *Match) sendAll(frame any) {
	m.mu.Lock()
	clients := [2]Client{m.seats[0].client, m.seats[1].client}
	m.mu.Unlock()

	seen := map[Client]bool{}
	for _, c := range clients {
		if c == nil || seen[c] {
			continue
		}
		seen[c] = true
		if err := c.Send(frame); err != nil {
			m.logger.Debug("frame dropped", "error", err)
		}
	}
}
