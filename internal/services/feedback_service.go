package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoosight/internal/localization"
	"github.com/yoockh/yoosight/internal/models"
	"github.com/yoockh/yoosight/internal/utils"
)

type Haptics interface {
	Haptic(ctx context.Context, effect models.HapticEffect) error
}

// Speaker is a text-to-speech sink. Flush interrupts whatever is playing.
type Speaker interface {
	Speak(ctx context.Context, text, voice string, rate float64, flush bool) error
	Stop(ctx context.Context) error
	Speaking() bool
}

type Labeler interface {
	SetLabel(ctx context.Context, text string) error
}

// FeedbackService turns session transitions into haptic and speech output.
// Every method returns without waiting for the output device.
type FeedbackService interface {
	SetLanguage(entry localization.Entry)
	OnReady()
	OnEnterAwaitingPermission()
	OnEnterAnalyzing()
	OnChunk()
	OnComplete(text string)
	OnFailed()
	// Interrupt stops speech in progress and reports whether anything was playing.
	Interrupt() bool
	Close()
}

const (
	feedbackQueueSize = 16
	feedbackTimeout   = 5 * time.Second
)

type feedbackService struct {
	haptics Haptics
	speaker Speaker
	labels  Labeler
	rate    float64
	log     *logrus.Logger

	mu    sync.Mutex
	entry localization.Entry

	qmu    sync.RWMutex
	closed bool
	queue  chan models.FeedbackEvent
	done   chan struct{}
}

func NewFeedbackService(haptics Haptics, speaker Speaker, labels Labeler, rate float64, log *logrus.Logger) FeedbackService {
	if log == nil {
		log = logrus.New()
	}
	if rate <= 0 {
		rate = 1.0
	}
	entry, _ := localization.Lookup(localization.DefaultLanguage)
	s := &feedbackService{
		haptics: haptics,
		speaker: speaker,
		labels:  labels,
		rate:    rate,
		log:     log,
		entry:   entry,
		queue:   make(chan models.FeedbackEvent, feedbackQueueSize),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *feedbackService) SetLanguage(entry localization.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry = entry
}

func (s *feedbackService) language() localization.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entry
}

func (s *feedbackService) OnReady() {
	s.enqueue(models.FeedbackEvent{Kind: models.FeedbackHaptic, Effect: models.HapticDoubleClick})
	if s.labels != nil {
		ctx, cancel := context.WithTimeout(context.Background(), feedbackTimeout)
		defer cancel()
		if err := s.labels.SetLabel(ctx, s.language().UILabel); err != nil {
			s.log.WithError(err).Debug("label update failed")
		}
	}
}

func (s *feedbackService) OnEnterAwaitingPermission() {
	s.enqueue(models.FeedbackEvent{Kind: models.FeedbackHaptic, Effect: models.HapticTick})
}

func (s *feedbackService) OnEnterAnalyzing() {
	s.say(s.language().ProcessingPhrase)
}

func (s *feedbackService) OnChunk() {
	s.enqueue(models.FeedbackEvent{Kind: models.FeedbackHaptic, Effect: models.HapticTick})
}

func (s *feedbackService) OnComplete(text string) {
	s.enqueue(models.FeedbackEvent{Kind: models.FeedbackHaptic, Effect: models.HapticHeavyClick})
	s.say(text)
}

func (s *feedbackService) OnFailed() {
	s.say(s.language().ErrorPhrase)
}

func (s *feedbackService) say(text string) {
	if text == "" {
		return
	}
	s.enqueue(models.FeedbackEvent{
		Kind:  models.FeedbackSpeech,
		Text:  text,
		Voice: s.language().VoiceID,
		Rate:  s.rate,
		Flush: true,
	})
}

func (s *feedbackService) Interrupt() bool {
	if s.speaker == nil || !s.speaker.Speaking() {
		return false
	}
	s.enqueue(models.FeedbackEvent{Kind: models.FeedbackStopSpeech})
	s.enqueue(models.FeedbackEvent{Kind: models.FeedbackHaptic, Effect: models.HapticDoubleClick})
	return true
}

func (s *feedbackService) Close() {
	s.qmu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.qmu.Unlock()
	<-s.done
}

func (s *feedbackService) enqueue(ev models.FeedbackEvent) {
	s.qmu.RLock()
	defer s.qmu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- ev:
	default:
		s.log.WithField("kind", ev.Kind).Warn("feedback queue full, event dropped")
	}
}

func (s *feedbackService) run() {
	defer close(s.done)
	for ev := range s.queue {
		s.perform(ev)
	}
}

func (s *feedbackService) perform(ev models.FeedbackEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), feedbackTimeout)
	defer cancel()

	var err error
	switch ev.Kind {
	case models.FeedbackHaptic:
		if s.haptics != nil {
			err = s.haptics.Haptic(ctx, ev.Effect)
		}
	case models.FeedbackSpeech:
		if s.speaker == nil {
			err = utils.E(utils.CodeSpeechUnavailable, "FeedbackService.perform", "no speech output configured", nil)
			break
		}
		err = s.speaker.Speak(ctx, ev.Text, ev.Voice, ev.Rate, ev.Flush)
	case models.FeedbackStopSpeech:
		if s.speaker != nil {
			err = s.speaker.Stop(ctx)
		}
	}
	if err == nil {
		return
	}

	entry := s.log.WithError(err).WithField("kind", ev.Kind)
	if utils.IsCode(err, utils.CodeSpeechUnavailable) {
		entry.Warn("speech unavailable, output skipped")
		return
	}
	entry.Error("feedback output failed")
}
