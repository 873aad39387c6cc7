package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/yoockh/yoosight/internal/capture"
	"github.com/yoockh/yoosight/internal/models"
	"github.com/yoockh/yoosight/internal/utils"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type fakePermissions struct {
	mu       sync.Mutex
	requests []string
	err      error
}

func (f *fakePermissions) Request(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, sessionID)
	return f.err
}

func (f *fakePermissions) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeLauncher struct {
	mu       sync.Mutex
	launches []string
	grants   []string
	run      func(ctx context.Context, sessionID, grant string)
}

func (f *fakeLauncher) Launch(ctx context.Context, sessionID, grant string) *capture.Task {
	f.mu.Lock()
	f.launches = append(f.launches, sessionID)
	f.grants = append(f.grants, grant)
	run := f.run
	f.mu.Unlock()

	return capture.Go(ctx, func(ctx context.Context) {
		if run != nil {
			run(ctx, sessionID, grant)
		}
	})
}

func (f *fakeLauncher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.launches)
}

// fakeAnalysis runs script for every Analyze call and closes the stream afterwards.
type fakeAnalysis struct {
	mu     sync.Mutex
	calls  []string
	script func(ctx context.Context, out chan<- models.AnalysisEvent)
}

func (f *fakeAnalysis) Analyze(ctx context.Context, framePath, instruction string) <-chan models.AnalysisEvent {
	f.mu.Lock()
	f.calls = append(f.calls, instruction)
	script := f.script
	f.mu.Unlock()

	out := make(chan models.AnalysisEvent)
	go func() {
		defer close(out)
		if script != nil {
			script(ctx, out)
		}
	}()
	return out
}

func (f *fakeAnalysis) instructions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func streamChunks(chunks ...string) func(ctx context.Context, out chan<- models.AnalysisEvent) {
	return func(ctx context.Context, out chan<- models.AnalysisEvent) {
		for _, c := range chunks {
			out <- models.AnalysisEvent{Kind: models.AnalysisChunk, Text: c}
		}
		out <- models.AnalysisEvent{Kind: models.AnalysisComplete}
	}
}

func blockUntilCancelled(ctx context.Context, out chan<- models.AnalysisEvent) {
	<-ctx.Done()
	out <- models.AnalysisEvent{Kind: models.AnalysisError, Err: ctx.Err()}
}

type fakeHaptics struct {
	mu      sync.Mutex
	effects []models.HapticEffect
}

func (f *fakeHaptics) Haptic(ctx context.Context, effect models.HapticEffect) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.effects = append(f.effects, effect)
	return nil
}

func (f *fakeHaptics) snapshot() []models.HapticEffect {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.HapticEffect(nil), f.effects...)
}

func (f *fakeHaptics) count(e models.HapticEffect) int {
	n := 0
	for _, got := range f.snapshot() {
		if got == e {
			n++
		}
	}
	return n
}

type utterance struct {
	Text  string
	Voice string
	Rate  float64
	Flush bool
}

type fakeSpeaker struct {
	mu          sync.Mutex
	spoken      []utterance
	stops       int
	speaking    bool
	unavailable bool
}

func (f *fakeSpeaker) Speak(ctx context.Context, text, voice string, rate float64, flush bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unavailable {
		return utils.E(utils.CodeSpeechUnavailable, "fakeSpeaker.Speak", "engine not ready", nil)
	}
	f.spoken = append(f.spoken, utterance{Text: text, Voice: voice, Rate: rate, Flush: flush})
	return nil
}

func (f *fakeSpeaker) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	f.speaking = false
	return nil
}

func (f *fakeSpeaker) Speaking() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.speaking
}

func (f *fakeSpeaker) setSpeaking(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.speaking = v
}

func (f *fakeSpeaker) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.spoken))
	for i, u := range f.spoken {
		out[i] = u.Text
	}
	return out
}

func (f *fakeSpeaker) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

type fakeLabels struct {
	mu     sync.Mutex
	labels []string
}

func (f *fakeLabels) SetLabel(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.labels = append(f.labels, text)
	return nil
}

// memFrames is an in-memory FrameStore recording removals.
type memFrames struct {
	mu      sync.Mutex
	data    map[string][]byte
	removed []string
	next    int
}

func newMemFrames() *memFrames { return &memFrames{data: map[string][]byte{}} }

func (m *memFrames) Save(ctx context.Context, data []byte, ext string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	p := fmt.Sprintf("/frames/frame_%d.%s", m.next, ext)
	m.data[p] = data
	return p, nil
}

func (m *memFrames) Load(ctx context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[path]
	if !ok {
		return nil, utils.E(utils.CodeNotFound, "memFrames.Load", "frame not found", nil)
	}
	return d, nil
}

func (m *memFrames) Remove(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, path)
	m.removed = append(m.removed, path)
	return nil
}

func (m *memFrames) put(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[path] = data
}

func (m *memFrames) wasRemoved(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.removed {
		if p == path {
			return true
		}
	}
	return false
}

func (m *memFrames) removedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.removed)
}
