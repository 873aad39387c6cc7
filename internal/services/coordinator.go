package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoosight/internal/bus"
	"github.com/yoockh/yoosight/internal/capture"
	"github.com/yoockh/yoosight/internal/localization"
	"github.com/yoockh/yoosight/internal/models"
	"github.com/yoockh/yoosight/internal/storage"
	"github.com/yoockh/yoosight/internal/utils"
)

// PermissionRequester asks the user for consent to mirror the screen. The answer
// arrives later as a permission_result event.
type PermissionRequester interface {
	Request(ctx context.Context, sessionID string) error
}

type CaptureLauncher interface {
	Launch(ctx context.Context, sessionID, grant string) *capture.Task
}

type CoordinatorConfig struct {
	// Language is read once per session when Trigger gets no explicit code.
	Language          func() string
	PermissionTimeout time.Duration
	CaptureTimeout    time.Duration
	AnalysisTimeout   time.Duration
}

type CoordinatorDeps struct {
	Events      bus.Bus
	Permissions PermissionRequester
	Capture     CaptureLauncher
	Analysis    AnalysisService
	Feedback    FeedbackService
	Frames      storage.FrameStore
	Log         *logrus.Logger
}

type ToggleResult struct {
	Interrupted bool
	Session     models.CaptureSession
}

var ErrCoordinatorStopped = errors.New("coordinator stopped")

const frameRemoveTimeout = 5 * time.Second

// Coordinator owns the capture session state machine. All state lives on the goroutine
// running Run; public methods hand work to it and wait.
type Coordinator struct {
	cfg  CoordinatorConfig
	deps CoordinatorDeps
	log  *logrus.Logger

	inbox     chan func()
	stopped   chan struct{}
	started   chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	observers []func(models.Transition)

	wg     sync.WaitGroup
	runCtx context.Context

	// loop-owned
	current        *models.CaptureSession
	entry          localization.Entry
	timer          *time.Timer
	captureTask    *capture.Task
	cancelAnalysis context.CancelFunc
	frameRemoved   bool
}

func NewCoordinator(cfg CoordinatorConfig, deps CoordinatorDeps) *Coordinator {
	if deps.Log == nil {
		deps.Log = logrus.New()
	}
	if cfg.Language == nil {
		cfg.Language = func() string { return localization.DefaultLanguage }
	}
	if cfg.PermissionTimeout <= 0 {
		cfg.PermissionTimeout = 60 * time.Second
	}
	if cfg.CaptureTimeout <= 0 {
		cfg.CaptureTimeout = 10 * time.Second
	}
	if cfg.AnalysisTimeout <= 0 {
		cfg.AnalysisTimeout = 45 * time.Second
	}
	return &Coordinator{
		cfg:     cfg,
		deps:    deps,
		log:     deps.Log,
		inbox:   make(chan func(), 64),
		stopped: make(chan struct{}),
		started: make(chan struct{}),
	}
}

// Observe registers fn for every accepted transition. It must be called before Run and
// fn must not block.
func (c *Coordinator) Observe(fn func(models.Transition)) {
	c.observers = append(c.observers, fn)
}

// Run serializes every state change until ctx is done. It returns after in-flight
// capture, analysis and frame removal have finished.
func (c *Coordinator) Run(ctx context.Context) error {
	const op = "Coordinator.Run"

	events, err := c.deps.Events.Subscribe(ctx)
	if err != nil {
		c.stop()
		return utils.E(utils.CodeUnavailable, op, "failed to subscribe to event bus", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.runCtx = runCtx
	c.startOnce.Do(func() { close(c.started) })
	c.deps.Feedback.OnReady()
	c.log.Info("coordinator ready")

	defer func() {
		c.abandon()
		c.stop()
		cancel()
		c.wg.Wait()
		c.log.Info("coordinator stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-c.inbox:
			fn()
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				c.log.Error("event bus subscription closed, coordinator stopping")
				return utils.E(utils.CodeUnavailable, op, "event bus subscription closed", nil)
			}
			c.handleEvent(ev)
		}
	}
}

func (c *Coordinator) stop() {
	c.stopOnce.Do(func() { close(c.stopped) })
}

// do runs fn on the loop and waits for it. It blocks until Run has started. When ctx
// ends first, fn may still run later and the caller must not read what it writes.
func (c *Coordinator) do(ctx context.Context, fn func()) error {
	select {
	case <-c.started:
	case <-c.stopped:
		return ErrCoordinatorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	done := make(chan struct{})
	select {
	case c.inbox <- func() { fn(); close(done) }:
	case <-c.stopped:
		return ErrCoordinatorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-c.stopped:
		return ErrCoordinatorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func callerErr(op string, err error) error {
	if errors.Is(err, ErrCoordinatorStopped) {
		return utils.E(utils.CodeUnavailable, op, "coordinator not running", err)
	}
	return utils.E(utils.CodeTimeout, op, "request cancelled", err)
}

func (c *Coordinator) post(fn func()) bool {
	select {
	case c.inbox <- fn:
		return true
	case <-c.stopped:
		return false
	}
}

// Trigger starts a session in languageCode, or in the configured language when empty.
// A trigger while a session is in flight fails with CONFLICT.
func (c *Coordinator) Trigger(ctx context.Context, languageCode string) (models.CaptureSession, error) {
	const op = "Coordinator.Trigger"

	var (
		out  models.CaptureSession
		terr error
	)
	err := c.do(ctx, func() { out, terr = c.trigger(languageCode) })
	if err != nil {
		return models.CaptureSession{}, callerErr(op, err)
	}
	return out, terr
}

func (c *Coordinator) OnPermissionResult(sessionID string, granted bool, payload string) {
	c.post(func() { c.handlePermission(sessionID, granted, payload) })
}

func (c *Coordinator) OnPermissionDenied(sessionID string) {
	c.OnPermissionResult(sessionID, false, "")
}

func (c *Coordinator) OnFrameReady(sessionID, framePath string) {
	c.post(func() { c.handleFrameReady(sessionID, framePath) })
}

func (c *Coordinator) OnCaptureFailed(sessionID, code, reason string) {
	c.post(func() { c.handleCaptureFailed(sessionID, code, reason) })
}

func (c *Coordinator) OnAnalysisChunk(sessionID, text string) {
	c.post(func() { c.handleChunk(sessionID, text) })
}

func (c *Coordinator) OnAnalysisComplete(sessionID string) {
	c.post(func() { c.handleAnalysisComplete(sessionID) })
}

func (c *Coordinator) OnAnalysisError(sessionID string, cause error) {
	c.post(func() { c.handleAnalysisError(sessionID, cause) })
}

func (c *Coordinator) Interrupt() bool {
	var interrupted bool
	if err := c.do(context.Background(), func() { interrupted = c.deps.Feedback.Interrupt() }); err != nil {
		return false
	}
	return interrupted
}

// Toggle interrupts speech when it is playing and triggers a new session otherwise.
func (c *Coordinator) Toggle(ctx context.Context, languageCode string) (ToggleResult, error) {
	const op = "Coordinator.Toggle"

	var (
		res  ToggleResult
		terr error
	)
	err := c.do(ctx, func() {
		if c.deps.Feedback.Interrupt() {
			res.Interrupted = true
			if c.current != nil {
				res.Session = *c.current
			}
			return
		}
		res.Session, terr = c.trigger(languageCode)
	})
	if err != nil {
		return ToggleResult{}, callerErr(op, err)
	}
	return res, terr
}

// Status returns the active session, or the last finished one. ok is false before the
// first trigger.
func (c *Coordinator) Status() (s models.CaptureSession, ok bool) {
	err := c.do(context.Background(), func() {
		if c.current != nil {
			s, ok = *c.current, true
		}
	})
	if err != nil {
		return models.CaptureSession{}, false
	}
	return s, ok
}

func (c *Coordinator) handleEvent(ev models.Event) {
	switch ev.Type {
	case models.EventPermissionResult:
		c.handlePermission(ev.SessionID, ev.Granted, ev.Payload)
	case models.EventFrameReady:
		c.handleFrameReady(ev.SessionID, ev.Path)
	case models.EventCaptureFailed:
		c.handleCaptureFailed(ev.SessionID, ev.Code, ev.Reason)
	default:
		c.log.WithField("type", ev.Type).Warn("unknown event ignored")
	}
}

func (c *Coordinator) trigger(languageCode string) (models.CaptureSession, error) {
	const op = "Coordinator.Trigger"

	if c.current != nil && c.current.State.Active() {
		return *c.current, utils.E(utils.CodeConflict, op, "a capture session is already in progress", nil)
	}

	if languageCode == "" {
		languageCode = c.cfg.Language()
	}
	entry, ok := localization.Lookup(languageCode)
	if !ok {
		c.log.WithField("language", languageCode).Warn("unsupported language, using default")
	}

	now := time.Now().UTC()
	c.current = &models.CaptureSession{
		ID:           uuid.NewString(),
		State:        models.StateIdle,
		LanguageCode: entry.Code,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	c.entry = entry
	c.frameRemoved = false
	c.deps.Feedback.SetLanguage(entry)

	c.transition(models.StateAwaitingPermission)
	id := c.current.ID
	c.arm(models.StateAwaitingPermission, c.cfg.PermissionTimeout)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(c.runCtx, c.cfg.PermissionTimeout)
		defer cancel()
		if err := c.deps.Permissions.Request(ctx, id); err != nil {
			c.post(func() {
				if c.isActive(id, models.StateAwaitingPermission) {
					c.fail(utils.CodePermissionDenied, "permission request failed: "+utils.MessageOf(err))
				}
			})
		}
	}()

	c.sessionLog().Info("capture session started")
	return *c.current, nil
}

func (c *Coordinator) handlePermission(sessionID string, granted bool, payload string) {
	if !c.isActive(sessionID, models.StateAwaitingPermission) {
		c.discard("permission_result", sessionID)
		return
	}
	if !granted {
		c.fail(utils.CodePermissionDenied, "screen capture permission denied")
		return
	}

	c.transition(models.StateCapturing)
	c.arm(models.StateCapturing, c.cfg.CaptureTimeout)

	task := c.deps.Capture.Launch(c.runCtx, sessionID, payload)
	c.captureTask = task
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		<-task.Done()
	}()
}

func (c *Coordinator) handleFrameReady(sessionID, framePath string) {
	if !c.isActive(sessionID, models.StateCapturing) {
		c.discard("frame_ready", sessionID)
		if framePath != "" && (c.current == nil || framePath != c.current.FramePath) {
			c.removeFrame(framePath)
		}
		return
	}
	if framePath == "" {
		c.fail(utils.CodeCaptureFailed, "frame reference is empty")
		return
	}

	c.captureTask = nil
	c.current.FramePath = framePath
	c.transition(models.StateFrameReady)
	c.transition(models.StateAnalyzing)
	c.arm(models.StateAnalyzing, c.cfg.AnalysisTimeout)
	c.startAnalysis(sessionID, framePath, c.entry.PromptText)
}

func (c *Coordinator) handleCaptureFailed(sessionID, code, reason string) {
	if !c.isActive(sessionID, models.StateCapturing) {
		c.discard("capture_failed", sessionID)
		return
	}
	c.captureTask = nil
	c.fail(sessionCode(code, utils.CodeCaptureFailed), reason)
}

func (c *Coordinator) handleChunk(sessionID, text string) {
	if !c.isActive(sessionID, models.StateAnalyzing) {
		c.discard("analysis_chunk", sessionID)
		return
	}
	c.current.AccumulatedText += text
	c.current.Chunks++
	c.current.UpdatedAt = time.Now().UTC()
	c.deps.Feedback.OnChunk()
}

func (c *Coordinator) handleAnalysisComplete(sessionID string) {
	if !c.isActive(sessionID, models.StateAnalyzing) {
		c.discard("analysis_complete", sessionID)
		return
	}
	c.cancelAnalysis = nil
	c.releaseFrame()

	if strings.TrimSpace(c.current.AccumulatedText) == "" {
		c.fail(utils.CodeAnalysisFailed, "model returned no description")
		return
	}

	c.disarm()
	c.transition(models.StateSpeaking)
	c.transition(models.StateComplete)
	c.sessionLog().WithFields(logrus.Fields{
		"chunks":      c.current.Chunks,
		"text_length": len(c.current.AccumulatedText),
	}).Info("capture session complete")
}

func (c *Coordinator) handleAnalysisError(sessionID string, cause error) {
	if !c.isActive(sessionID, models.StateAnalyzing) {
		c.discard("analysis_error", sessionID)
		return
	}
	c.cancelAnalysis = nil
	c.fail(utils.CodeAnalysisFailed, utils.MessageOf(cause))
}

func (c *Coordinator) startAnalysis(sessionID, framePath, instruction string) {
	ctx, cancel := context.WithCancel(c.runCtx)
	c.cancelAnalysis = cancel

	stream := c.deps.Analysis.Analyze(ctx, framePath, instruction)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		// events are posted in receipt order; the loop applies them in that order
		for ev := range stream {
			switch ev.Kind {
			case models.AnalysisChunk:
				c.post(func() { c.handleChunk(sessionID, ev.Text) })
			case models.AnalysisComplete:
				c.post(func() { c.handleAnalysisComplete(sessionID) })
			case models.AnalysisError:
				c.post(func() { c.handleAnalysisError(sessionID, ev.Err) })
			}
		}
	}()
}

// fail moves the active session to Failed and tears down everything it holds.
func (c *Coordinator) fail(code utils.Code, reason string) {
	s := c.current
	if s == nil || s.State.Terminal() {
		return
	}
	s.FailureCode = string(code)
	s.FailureReason = reason

	c.disarm()
	if c.captureTask != nil {
		c.captureTask.Cancel()
		c.captureTask = nil
	}
	if c.cancelAnalysis != nil {
		c.cancelAnalysis()
		c.cancelAnalysis = nil
	}
	c.releaseFrame()

	c.transition(models.StateFailed)
	c.sessionLog().WithFields(logrus.Fields{
		"failure_code":   code,
		"failure_reason": reason,
	}).Warn("capture session failed")
}

func (c *Coordinator) abandon() {
	if c.current != nil && c.current.State.Active() {
		c.fail(utils.CodeUnavailable, "coordinator stopped")
	}
}

func (c *Coordinator) transition(to models.SessionState) bool {
	s := c.current
	if s == nil || !models.CanTransition(s.State, to) {
		c.log.WithFields(logrus.Fields{"from": stateOf(s), "to": to}).Error("illegal session transition refused")
		return false
	}

	from := s.State
	now := time.Now().UTC()
	s.State = to
	s.UpdatedAt = now
	if to.Terminal() {
		s.EndedAt = &now
	}

	switch to {
	case models.StateAwaitingPermission:
		c.deps.Feedback.OnEnterAwaitingPermission()
	case models.StateAnalyzing:
		c.deps.Feedback.OnEnterAnalyzing()
	case models.StateSpeaking:
		c.deps.Feedback.OnComplete(s.AccumulatedText)
	case models.StateFailed:
		c.deps.Feedback.OnFailed()
	}

	t := models.Transition{From: from, To: to, Session: *s, At: now}
	for _, fn := range c.observers {
		fn(t)
	}
	c.sessionLog().WithFields(logrus.Fields{"from": from, "to": to}).Debug("session transition")
	return true
}

// arm starts the deadline for state. Expiry fails the session if it is still there.
func (c *Coordinator) arm(state models.SessionState, d time.Duration) {
	c.disarm()
	id := c.current.ID
	c.timer = time.AfterFunc(d, func() {
		c.post(func() {
			if !c.isActive(id, state) {
				return
			}
			c.fail(timeoutCode(state), string(state)+" timed out after "+d.String())
		})
	})
}

func (c *Coordinator) disarm() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Coordinator) releaseFrame() {
	if c.current == nil || c.current.FramePath == "" || c.frameRemoved {
		return
	}
	c.frameRemoved = true
	c.removeFrame(c.current.FramePath)
}

func (c *Coordinator) removeFrame(path string) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), frameRemoveTimeout)
		defer cancel()
		if err := c.deps.Frames.Remove(ctx, path); err != nil {
			c.log.WithError(err).WithField("path", path).Warn("frame removal failed")
		}
	}()
}

func (c *Coordinator) isActive(sessionID string, state models.SessionState) bool {
	return c.current != nil && c.current.ID == sessionID && c.current.State == state
}

func (c *Coordinator) discard(kind, sessionID string) {
	c.log.WithFields(logrus.Fields{
		"event":          kind,
		"session_id":     sessionID,
		"active_session": idOf(c.current),
		"active_state":   stateOf(c.current),
	}).Debug("stale event discarded")
}

func (c *Coordinator) sessionLog() *logrus.Entry {
	return c.log.WithFields(logrus.Fields{
		"session_id": idOf(c.current),
		"language":   c.entry.Code,
	})
}

func timeoutCode(state models.SessionState) utils.Code {
	switch state {
	case models.StateAwaitingPermission:
		return utils.CodePermissionDenied
	case models.StateCapturing:
		return utils.CodeCaptureFailed
	default:
		return utils.CodeAnalysisFailed
	}
}

// sessionCode keeps session-fatal codes and folds anything else into fallback.
func sessionCode(code string, fallback utils.Code) utils.Code {
	switch c := utils.Code(code); c {
	case utils.CodePermissionDenied, utils.CodeResourceAcquisition, utils.CodeCaptureFailed, utils.CodeAnalysisFailed:
		return c
	}
	return fallback
}

func idOf(s *models.CaptureSession) string {
	if s == nil {
		return ""
	}
	return s.ID
}

func stateOf(s *models.CaptureSession) models.SessionState {
	if s == nil {
		return models.StateIdle
	}
	return s.State
}
