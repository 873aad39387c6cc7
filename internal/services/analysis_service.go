package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoosight/internal/models"
	"github.com/yoockh/yoosight/internal/providers/llm"
	"github.com/yoockh/yoosight/internal/storage"
	"github.com/yoockh/yoosight/internal/utils"
)

type AnalysisService interface {
	// Analyze emits zero or more chunks followed by exactly one Complete or Error, then closes.
	Analyze(ctx context.Context, framePath, instruction string) <-chan models.AnalysisEvent
}

type analysisService struct {
	frames   storage.FrameStore
	provider llm.Provider
	timeout  time.Duration
	log      *logrus.Logger
}

func NewAnalysisService(frames storage.FrameStore, provider llm.Provider, timeout time.Duration, log *logrus.Logger) AnalysisService {
	if log == nil {
		log = logrus.New()
	}
	return &analysisService{frames: frames, provider: provider, timeout: timeout, log: log}
}

func (s *analysisService) Analyze(ctx context.Context, framePath, instruction string) <-chan models.AnalysisEvent {
	out := make(chan models.AnalysisEvent, 16)
	go func() {
		defer close(out)
		if err := s.stream(ctx, framePath, instruction, out); err != nil {
			out <- models.AnalysisEvent{Kind: models.AnalysisError, Err: err}
			return
		}
		out <- models.AnalysisEvent{Kind: models.AnalysisComplete}
	}()
	return out
}

func (s *analysisService) stream(ctx context.Context, framePath, instruction string, out chan<- models.AnalysisEvent) error {
	const op = "AnalysisService.Analyze"

	if framePath == "" || instruction == "" {
		return utils.E(utils.CodeAnalysisFailed, op, "frame_path and instruction are required", nil)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	img, err := s.frames.Load(ctx, framePath)
	if err != nil {
		return utils.E(utils.CodeAnalysisFailed, op, "frame unreadable", err)
	}

	started := time.Now()
	chunks, errs := s.provider.StreamDescribe(ctx, llm.Request{
		Image:       img,
		MIMEType:    "image/jpeg",
		Instruction: instruction,
	})

	n := 0
	for chunks != nil || errs != nil {
		select {
		case c, ok := <-chunks:
			if !ok {
				chunks = nil
				continue
			}
			if c == "" {
				continue
			}
			n++
			select {
			case out <- models.AnalysisEvent{Kind: models.AnalysisChunk, Text: c}:
			case <-ctx.Done():
				return s.ctxErr(op, ctx)
			}
		case e, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if e != nil {
				if ctx.Err() != nil {
					return s.ctxErr(op, ctx)
				}
				return utils.E(utils.CodeAnalysisFailed, op, "model stream failed", e)
			}
		case <-ctx.Done():
			return s.ctxErr(op, ctx)
		}
	}

	s.log.WithFields(logrus.Fields{
		"chunks":      n,
		"duration_ms": time.Since(started).Milliseconds(),
	}).Info("analysis stream finished")
	return nil
}

func (s *analysisService) ctxErr(op string, ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return utils.E(utils.CodeTimeout, op, "analysis timed out", ctx.Err())
	}
	return utils.E(utils.CodeAnalysisFailed, op, "analysis cancelled", ctx.Err())
}
