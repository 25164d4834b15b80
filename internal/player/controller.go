// Package player wraps an external media engine with a bounded-retry
// reconnection state machine. Failures reported by the engine trigger
// automatic stop-and-replay attempts; anything the user did on purpose
// never does.
package player

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tvlink/tvlink/internal/models"
)

// Engine is the external media-decoding engine driven by the controller.
type Engine interface {
	Load(address string) error
	Play()
	Pause()
	Stop()
	SetVolume(volume float64)
	Stats() models.StreamStats
}

// EngineState is a state-change notification emitted by the media engine.
type EngineState int

const (
	EngineBuffering EngineState = iota
	EnginePlaying
	EngineError
	EngineEnded
	EngineStopped
	EngineTimeAdvanced
)

// Status is the controller's externally visible playback state.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusBuffering    Status = "buffering"
	StatusPlaying      Status = "playing"
	StatusReconnecting Status = "reconnecting"
	StatusStopped      Status = "stopped"
)

// DefaultMaxRetries is the number of automatic reconnection attempts before
// the controller gives up.
const DefaultMaxRetries = 5

// DefaultRetryDelay is the pause before a reconnection attempt replays the
// stream.
const DefaultRetryDelay = 1500 * time.Millisecond

// scheduleFunc schedules fn after d and returns a cancel function. Replaced
// in tests to fire retries deterministically.
type scheduleFunc func(d time.Duration, fn func()) (cancel func())

func realSchedule(d time.Duration, fn func()) func() {
	timer := time.AfterFunc(d, fn)
	return func() { timer.Stop() }
}

// Options configures a Controller.
type Options struct {
	MaxRetries int
	RetryDelay time.Duration
	Logger     *slog.Logger
}

// Controller drives one Engine and keeps its stream alive across transient
// failures.
type Controller struct {
	mu sync.Mutex

	engine     Engine
	log        *slog.Logger
	maxRetries int
	retryDelay time.Duration
	schedule   scheduleFunc

	status      Status
	address     string
	retries     int
	userPaused  bool
	cancelRetry func()
	lastErr     error
}

// NewController creates a controller around the given engine.
func NewController(engine Engine, opts Options) *Controller {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Controller{
		engine:     engine,
		log:        opts.Logger,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		schedule:   realSchedule,
		status:     StatusIdle,
	}
}

// Setup loads a new stream address and starts playback. Retry history and
// the user-paused flag are cleared: a new stream starts with a clean slate.
func (c *Controller) Setup(address string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelPendingLocked()
	if err := c.engine.Load(address); err != nil {
		c.status = StatusStopped
		c.lastErr = err
		return err
	}
	c.engine.Play()

	c.address = address
	c.status = StatusBuffering
	c.retries = 0
	c.userPaused = false
	c.lastErr = nil
	c.log.Info("playback started", "address", address)
	return nil
}

// HandleEngineState feeds one engine notification through the state machine.
func (c *Controller) HandleEngineState(state EngineState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch state {
	case EnginePlaying, EngineTimeAdvanced:
		// A full recovery clears prior failure history.
		c.status = StatusPlaying
		c.retries = 0
		c.lastErr = nil
	case EngineBuffering:
		if c.status == StatusPlaying {
			c.status = StatusBuffering
		}
	case EngineError, EngineEnded, EngineStopped:
		c.handleFailureLocked()
	}
}

// handleFailureLocked decides between a reconnection attempt and giving up.
// Caller holds the mutex.
func (c *Controller) handleFailureLocked() {
	if c.status != StatusPlaying && c.status != StatusBuffering {
		return
	}

	if c.userPaused {
		c.status = StatusStopped
		return
	}
	if c.retries >= c.maxRetries {
		c.status = StatusStopped
		c.lastErr = models.ErrPlaybackExhausted
		c.log.Warn("playback failed", "retries", c.retries, "error", c.lastErr)
		return
	}

	c.retries++
	c.status = StatusReconnecting
	c.log.Info("stream lost, scheduling retry", "attempt", c.retries, "max", c.maxRetries)

	// Only one deferred retry may be outstanding.
	c.cancelPendingLocked()
	c.cancelRetry = c.schedule(c.retryDelay, c.fireRetry)
}

// fireRetry runs when the retry delay elapses. The user-paused flag is
// re-checked here: a stop issued during the delay window wins.
func (c *Controller) fireRetry() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelRetry = nil
	if c.userPaused || c.status != StatusReconnecting {
		return
	}

	c.engine.Stop()
	c.engine.Play()
	c.status = StatusBuffering
	c.log.Debug("retry fired", "attempt", c.retries)
}

// UserPlay resumes playback at the user's request, clearing retry history.
func (c *Controller) UserPlay() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.userPaused = false
	c.retries = 0
	c.lastErr = nil
	c.status = StatusBuffering
	c.engine.Play()
}

// UserPause pauses playback at the user's request. No automatic retry may
// fire afterwards.
func (c *Controller) UserPause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.userPaused = true
	c.status = StatusStopped
	c.cancelPendingLocked()
	c.engine.Pause()
}

// UserStop stops playback at the user's request. No automatic retry may
// fire afterwards.
func (c *Controller) UserStop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.userPaused = true
	c.status = StatusStopped
	c.cancelPendingLocked()
	c.engine.Stop()
}

// SetVolume forwards a volume change to the engine. The value is clamped to
// [0, 1].
func (c *Controller) SetVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	c.engine.SetVolume(volume)
}

// Stats returns the engine's current statistics snapshot.
func (c *Controller) Stats() models.StreamStats {
	return c.engine.Stats()
}

// Status returns the controller's current playback state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Err returns the terminal playback error, if any. ErrPlaybackExhausted
// means automatic retries ran out and only UserPlay or Setup can restart the
// stream.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Retries returns the failure count since the last successful playback.
func (c *Controller) Retries() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retries
}

func (c *Controller) cancelPendingLocked() {
	if c.cancelRetry != nil {
		c.cancelRetry()
		c.cancelRetry = nil
	}
}
