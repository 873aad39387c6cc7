package config

import (
	"strings"
	"testing"
	"time"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	s, err := Loader{Lookup: lookupFrom(map[string]string{
		"GEMINI_API_KEY":      "secret",
		"FRAME_DIR":           "/tmp/frames",
		"CAPTURE_SOURCE_FILE": "/tmp/screen.png",
	})}.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if s.Language != "EN" {
		t.Errorf("language = %q", s.Language)
	}
	if s.SpeechRate != 1.0 {
		t.Errorf("speech rate = %v", s.SpeechRate)
	}
	if s.FrameMaxEdge != 1920 {
		t.Errorf("max edge = %d", s.FrameMaxEdge)
	}
	if s.Model != "gemini-2.5-flash" || s.Temperature != 0.9 {
		t.Errorf("model = %q temp = %v", s.Model, s.Temperature)
	}
	if s.CaptureTimeout != 10*time.Second || s.AnalysisTimeout != 45*time.Second {
		t.Errorf("timeouts = %s / %s", s.CaptureTimeout, s.AnalysisTimeout)
	}
	if s.EventBus != EventBusMemory || s.PermissionMode != PermissionModeOverlay {
		t.Errorf("bus = %q permission = %q", s.EventBus, s.PermissionMode)
	}
}

func TestLoadOverrides(t *testing.T) {
	s, err := Loader{Lookup: lookupFrom(map[string]string{
		"GEMINI_API_KEY":        "secret",
		"YOOSIGHT_LANGUAGE":     " pl ",
		"YOOSIGHT_AUTO_CONFIRM": "true",
		"YOOSIGHT_TTS_SPEED":    "1.5",
		"CAPTURE_TIMEOUT":       "2500",
		"ANALYSIS_TIMEOUT":      "1m",
		"EVENT_BUS":             "REDIS",
		"REDIS_URL":             "redis://localhost:6379/0",
		"PERMISSION_MODE":       "auto",
		"CAPTURE_SOURCE_FILE":   "/tmp/screen.png",
	})}.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.Language != "PL" || !s.AutoConfirm || s.SpeechRate != 1.5 {
		t.Fatalf("unexpected settings: %+v", s)
	}
	if s.CaptureTimeout != 2500*time.Millisecond || s.AnalysisTimeout != time.Minute {
		t.Fatalf("unexpected timeouts: %s %s", s.CaptureTimeout, s.AnalysisTimeout)
	}
	if s.EventBus != EventBusRedis || s.RedisURL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected bus config: %q %q", s.EventBus, s.RedisURL)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	const src = "/tmp/screen.png"
	cases := map[string]map[string]string{
		"no credentials":    {"CAPTURE_SOURCE_FILE": src},
		"no capture source": {"GEMINI_API_KEY": "k"},
		"bad speed":         {"GEMINI_API_KEY": "k", "CAPTURE_SOURCE_FILE": src, "YOOSIGHT_TTS_SPEED": "fast"},
		"zero speed":        {"GEMINI_API_KEY": "k", "CAPTURE_SOURCE_FILE": src, "YOOSIGHT_TTS_SPEED": "0"},
		"redis no addr":     {"GEMINI_API_KEY": "k", "CAPTURE_SOURCE_FILE": src, "EVENT_BUS": "redis"},
		"bad quality":       {"GEMINI_API_KEY": "k", "CAPTURE_SOURCE_FILE": src, "FRAME_JPEG_QUALITY": "101"},
		"bad mode":          {"GEMINI_API_KEY": "k", "CAPTURE_SOURCE_FILE": src, "PERMISSION_MODE": "maybe"},
	}
	for name, env := range cases {
		if _, err := (Loader{Lookup: lookupFrom(env)}).Load(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLogFieldsRedactsAPIKey(t *testing.T) {
	s := Settings{APIKey: "super-secret-key"}
	for k, v := range s.LogFields() {
		if str, ok := v.(string); ok && strings.Contains(str, "super-secret") {
			t.Fatalf("field %s leaks the api key", k)
		}
	}
	if s.LogFields()["api_key_set"] != true {
		t.Fatalf("expected api_key_set=true")
	}
}
