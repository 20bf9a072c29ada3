// Package burn writes a disk image to a block device and reads it back to
// confirm the copy. A Manager runs at most one Session per device, and each
// session ends with exactly one Outcome.
package burn

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"must-burn/internal/device"
)

// State is a point in the session lifecycle.
type State int32

const (
	StateIdle State = iota
	StateValidating
	StateCopying
	StateVerifying
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateCopying:
		return "copying"
	case StateVerifying:
		return "verifying"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Options tune a session. Zero values select the defaults.
type Options struct {
	CopyBufferSize   int
	VerifyBufferSize int
	ProgressInterval time.Duration
	// SkipVerify ends the session after the copy.
	SkipVerify bool
	// VerifyOnly skips validation of mounts and capacity and the copy, and
	// compares an earlier write.
	VerifyOnly bool
}

func (o Options) withDefaults() Options {
	if o.CopyBufferSize <= 0 {
		o.CopyBufferSize = DefaultCopyBufferSize
	}
	if o.VerifyBufferSize <= 0 {
		o.VerifyBufferSize = DefaultVerifyBufferSize
	}
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = DefaultProgressInterval
	}
	return o
}

// Request names what to write where.
type Request struct {
	Source string
	Target string
	Options
}

// Outcome is the single terminal result of a session.
type Outcome struct {
	SessionID     uuid.UUID
	State         State
	Err           error
	Source        ImageSource
	Target        device.Target
	BytesWritten  int64
	BytesVerified int64
	Verified      bool
	Duration      time.Duration
}

// Success reports whether the session completed.
func (o Outcome) Success() bool {
	return o.Err == nil
}

type targetFile interface {
	io.Writer
	Sync() error
	Close() error
}

func openTargetFile(path string) (targetFile, error) {
	raw := device.RawPath(path)
	return os.OpenFile(raw, os.O_WRONLY|device.OpenFlags(raw), 0)
}

func openTargetReader(path string) (io.ReadCloser, error) {
	return os.Open(device.RawPath(path))
}

// Manager starts write sessions and guarantees that at most one is active
// per device.
type Manager struct {
	validator *Validator
	log       zerolog.Logger

	mu     sync.Mutex
	active map[string]*Session

	openTarget func(path string) (targetFile, error)
	openReader func(path string) (io.ReadCloser, error)
}

func NewManager(info device.InfoProvider, log zerolog.Logger) *Manager {
	return &Manager{
		validator:  NewValidator(info, log),
		log:        log,
		active:     make(map[string]*Session),
		openTarget: openTargetFile,
		openReader: openTargetReader,
	}
}

// deviceKey identifies a device regardless of how its path was spelled.
func deviceKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return device.Canonical(path)
}

// Active reports whether a session currently owns the device at path.
func (m *Manager) Active(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.active[deviceKey(path)]
	return ok
}

// Start launches a session on its own goroutine. It fails with KindDeviceBusy
// when another session owns the target.
func (m *Manager) Start(ctx context.Context, req Request) (*Session, error) {
	key := deviceKey(req.Target)

	m.mu.Lock()
	if other, ok := m.active[key]; ok {
		m.mu.Unlock()
		e := newError(KindDeviceBusy, req.Target)
		e.Detail = fmt.Sprintf("session %s is already using this device", other.id)
		return nil, e
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		id:      uuid.New(),
		req:     Request{Source: req.Source, Target: req.Target, Options: req.Options.withDefaults()},
		key:     key,
		m:       m,
		cancel:  cancel,
		samples: make(chan Sample, 1),
		done:    make(chan struct{}),
	}
	s.log = m.log.With().
		Str("session", s.id.String()).
		Str("source", req.Source).
		Str("target", req.Target).
		Logger()
	m.active[key] = s
	m.mu.Unlock()

	go s.run(ctx)
	return s, nil
}

// Run starts a session and waits for its outcome.
func (m *Manager) Run(ctx context.Context, req Request) Outcome {
	s, err := m.Start(ctx, req)
	if err != nil {
		return Outcome{State: StateFailed, Err: err}
	}
	return s.Wait()
}

func (m *Manager) release(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active[s.key] == s {
		delete(m.active, s.key)
	}
}

// Session is one write of one image to one device.
type Session struct {
	id     uuid.UUID
	req    Request
	key    string
	m      *Manager
	log    zerolog.Logger
	cancel context.CancelFunc

	state    atomic.Int32
	written  atomic.Int64
	verified atomic.Int64

	samples chan Sample
	done    chan struct{}
	outcome Outcome
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// BytesWritten is the live copy counter.
func (s *Session) BytesWritten() int64 {
	return s.written.Load()
}

// Samples delivers the most recent progress sample. Older samples are
// dropped when the observer falls behind. The channel is closed when the
// session ends.
func (s *Session) Samples() <-chan Sample {
	return s.samples
}

// Done is closed once the outcome is available.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Cancel asks the session to stop at the next chunk boundary.
func (s *Session) Cancel() {
	s.cancel()
}

// Wait blocks until the session ends and returns its outcome.
func (s *Session) Wait() Outcome {
	<-s.done
	return s.outcome
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
	s.log.Debug().Str("state", st.String()).Msg("Session state changed")
}

func (s *Session) run(ctx context.Context) {
	start := time.Now()
	defer s.cancel()

	out := Outcome{SessionID: s.id}
	err := s.execute(ctx, &out)

	out.Duration = time.Since(start)
	out.BytesWritten = s.written.Load()
	out.BytesVerified = s.verified.Load()
	if err != nil {
		out.State = StateFailed
		out.Err = err
		s.setState(StateFailed)
		s.log.Error().Err(err).
			Str("kind", string(KindOf(err))).
			Int64("written", out.BytesWritten).
			Dur("duration", out.Duration).
			Msg("Write session failed")
	} else {
		out.State = StateCompleted
		s.setState(StateCompleted)
		s.log.Info().
			Int64("written", out.BytesWritten).
			Bool("verified", out.Verified).
			Dur("duration", out.Duration).
			Msg("Write session completed")
	}

	s.outcome = out
	s.m.release(s)
	close(s.samples)
	close(s.done)
}

func (s *Session) execute(ctx context.Context, out *Outcome) error {
	v := s.m.validator
	opts := s.req.Options

	s.setState(StateValidating)
	src, err := v.Source(s.req.Source)
	if err != nil {
		return err
	}
	out.Source = src

	if opts.VerifyOnly {
		if err := v.Present(s.req.Target); err != nil {
			return err
		}
		out.Target = device.Target{Path: s.req.Target}
	} else {
		t, err := v.Target(s.req.Target)
		out.Target = t
		if err != nil {
			return err
		}
		if err := v.Capacity(src, t); err != nil {
			return err
		}

		s.setState(StateCopying)
		if err := s.copy(ctx, src, t); err != nil {
			return err
		}
	}

	if opts.SkipVerify {
		return nil
	}

	s.setState(StateVerifying)
	if err := s.verify(ctx, src, out.Target); err != nil {
		return err
	}
	out.Verified = true
	return nil
}

func (s *Session) copy(ctx context.Context, src ImageSource, t device.Target) error {
	in, err := os.Open(src.Path)
	if err != nil {
		return classifySource(src.Path, err)
	}
	dst, err := s.m.openTarget(t.Path)
	if err != nil {
		in.Close()
		return classifyDevice(t.Path, err)
	}

	s.log.Info().Int64("bytes", src.Size).Int("buffer", s.req.CopyBufferSize).Msg("Writing image")
	tr := &transfer{
		srcPath: src.Path,
		dstPath: t.Path,
		buf:     make([]byte, s.req.CopyBufferSize),
		rep:     NewReporter(PhaseWriting, src.Size, s.req.ProgressInterval, s.samples),
		counter: &s.written,
	}
	_, err = tr.copy(ctx, dst, in)
	return s.closeAll(err, t.Path, in, dst)
}

func (s *Session) verify(ctx context.Context, src ImageSource, t device.Target) error {
	in, err := os.Open(src.Path)
	if err != nil {
		return classifySource(src.Path, err)
	}
	dst, err := s.m.openReader(t.Path)
	if err != nil {
		in.Close()
		return classifyDevice(t.Path, err)
	}

	s.log.Info().Int("buffer", s.req.VerifyBufferSize).Msg("Verifying image")
	tr := &transfer{
		srcPath: src.Path,
		dstPath: t.Path,
		buf:     make([]byte, 2*s.req.VerifyBufferSize),
		rep:     NewReporter(PhaseVerifying, src.Size, s.req.ProgressInterval, s.samples),
		counter: &s.verified,
	}
	_, err = tr.compare(ctx, in, dst)
	return s.closeAll(err, t.Path, in, dst)
}

// closeAll closes every handle. A close failure after an otherwise clean
// pass is an I/O failure on path; after a failed pass it is only logged.
func (s *Session) closeAll(err error, path string, closers ...io.Closer) error {
	var errs *multierror.Error
	for _, c := range closers {
		if cerr := c.Close(); cerr != nil {
			errs = multierror.Append(errs, cerr)
		}
	}
	if errs == nil {
		return err
	}
	if err != nil {
		s.log.Warn().Err(errs).Msg("Failed to close handles")
		return err
	}
	return wrapError(KindIO, path, fmt.Errorf("close: %w", errs.ErrorOrNil()))
}
