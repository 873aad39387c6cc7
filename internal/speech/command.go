// Package speech speaks on the host through an external text-to-speech command.
package speech

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoosight/internal/utils"
)

const baseWordsPerMinute = 175

// voice id prefix (ISO 639-2) -> espeak-ng voice
var espeakVoices = map[string]string{
	"pol": "pl",
	"eng": "en-gb",
	"spa": "es",
	"por": "pt",
	"hin": "hi",
	"ben": "bn",
	"ara": "ar",
	"swa": "sw",
	"urd": "ur",
	"vie": "vi",
	"ind": "id",
	"amh": "am",
	"tgl": "tl",
}

// CommandSpeaker runs one espeak-ng compatible process per utterance. A flushing Speak
// kills the current utterance; an appending one waits for it.
type CommandSpeaker struct {
	command string
	log     *logrus.Logger

	mu   sync.Mutex
	cur  *exec.Cmd
	done chan struct{}
}

func NewCommandSpeaker(command string, log *logrus.Logger) *CommandSpeaker {
	if log == nil {
		log = logrus.New()
	}
	return &CommandSpeaker{command: command, log: log}
}

func (s *CommandSpeaker) Speak(ctx context.Context, text, voice string, rate float64, flush bool) error {
	const op = "CommandSpeaker.Speak"

	path, err := exec.LookPath(s.command)
	if err != nil {
		return utils.E(utils.CodeSpeechUnavailable, op, "speech command not found", err)
	}

	if flush {
		s.kill()
	} else if err := s.wait(ctx); err != nil {
		return err
	}

	cmd := exec.Command(path, Args(text, voice, rate)...)
	done := make(chan struct{})

	s.mu.Lock()
	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		return utils.E(utils.CodeSpeechUnavailable, op, "speech command failed to start", err)
	}
	s.cur, s.done = cmd, done
	s.mu.Unlock()

	go func() {
		err := cmd.Wait()
		s.mu.Lock()
		if s.cur == cmd {
			s.cur, s.done = nil, nil
		}
		s.mu.Unlock()
		close(done)
		if err != nil {
			s.log.WithError(err).Debug("utterance ended")
		}
	}()
	return nil
}

func (s *CommandSpeaker) Stop(ctx context.Context) error {
	s.kill()
	return nil
}

func (s *CommandSpeaker) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur != nil
}

func (s *CommandSpeaker) kill() {
	s.mu.Lock()
	cmd, done := s.cur, s.done
	s.mu.Unlock()
	if cmd == nil {
		return
	}
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	<-done
}

func (s *CommandSpeaker) wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Args builds the espeak-ng argument list for one utterance.
func Args(text, voice string, rate float64) []string {
	if rate <= 0 {
		rate = 1
	}
	args := []string{"-s", strconv.Itoa(int(baseWordsPerMinute * rate))}
	if v := espeakVoice(voice); v != "" {
		args = append(args, "-v", v)
	}
	return append(args, "--", text)
}

func espeakVoice(voiceID string) string {
	prefix, _, _ := strings.Cut(strings.ToLower(voiceID), "_")
	return espeakVoices[prefix]
}
