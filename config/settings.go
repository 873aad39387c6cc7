package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoosight/internal/localization"
)

const (
	PermissionModeAuto    = "auto"
	PermissionModeOverlay = "overlay"

	SpeechOutputOverlay = "overlay"
	SpeechOutputLocal   = "local"

	EventBusMemory = "memory"
	EventBusRedis  = "redis"
)

// Settings is the runtime configuration, read once at process start.
type Settings struct {
	Language    string
	APIKey      string
	AutoConfirm bool
	SpeechRate  float64

	Model       string
	Temperature float32

	VertexProjectID string
	VertexLocation  string

	FrameDir          string
	FrameMaxEdge      int
	FrameJPEGQuality  int
	CaptureSourceFile string

	PermissionMode    string
	PermissionTimeout time.Duration
	CaptureTimeout    time.Duration
	AnalysisTimeout   time.Duration

	SpeechOutput string
	TTSCommand   string

	EventBus     string
	RedisURL     string
	EventChannel string

	MongoURI    string
	MongoDB     string
	PostgresURI string

	FrameArchiveBucket string
	OverlayJWTSecret   string
	ConsentMarker      string

	Port     string
	LogLevel string
}

// Loader reads Settings from the environment. Tests override Lookup.
type Loader struct {
	Lookup func(string) (string, bool)
}

func Load() (Settings, error) {
	return Loader{}.Load()
}

func (l Loader) Load() (Settings, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}

	s := Settings{
		Language:          localization.DefaultLanguage,
		SpeechRate:        1.0,
		Model:             "gemini-2.5-flash",
		Temperature:       0.9,
		VertexLocation:    "us-central1",
		FrameMaxEdge:      1920,
		FrameJPEGQuality:  90,
		PermissionMode:    PermissionModeOverlay,
		PermissionTimeout: 60 * time.Second,
		CaptureTimeout:    10 * time.Second,
		AnalysisTimeout:   45 * time.Second,
		SpeechOutput:      SpeechOutputOverlay,
		TTSCommand:        "espeak-ng",
		EventBus:          EventBusMemory,
		EventChannel:      "yoosight:events",
		MongoDB:           "yoosight",
		ConsentMarker:     "Yoosight?",
		Port:              "8080",
	}

	l.str("YOOSIGHT_LANGUAGE", &s.Language)
	l.str("GEMINI_API_KEY", &s.APIKey)
	l.str("GEMINI_MODEL", &s.Model)
	l.str("VERTEX_PROJECT_ID", &s.VertexProjectID)
	l.str("VERTEX_LOCATION", &s.VertexLocation)
	l.str("FRAME_DIR", &s.FrameDir)
	l.str("CAPTURE_SOURCE_FILE", &s.CaptureSourceFile)
	l.str("PERMISSION_MODE", &s.PermissionMode)
	l.str("SPEECH_OUTPUT", &s.SpeechOutput)
	l.str("TTS_COMMAND", &s.TTSCommand)
	l.str("EVENT_BUS", &s.EventBus)
	l.str("EVENT_CHANNEL", &s.EventChannel)
	l.str("MONGO_URI", &s.MongoURI)
	l.str("MONGO_DB", &s.MongoDB)
	l.str("POSTGRES_URI", &s.PostgresURI)
	l.str("FRAME_ARCHIVE_BUCKET", &s.FrameArchiveBucket)
	l.str("OVERLAY_JWT_SECRET", &s.OverlayJWTSecret)
	l.str("CONSENT_MARKER", &s.ConsentMarker)
	l.str("PORT", &s.Port)
	l.str("LOG_LEVEL", &s.LogLevel)

	for _, k := range []string{"REDIS_ADDR", "REDIS_URI", "REDIS_URL"} {
		if s.RedisURL != "" {
			break
		}
		l.str(k, &s.RedisURL)
	}

	var errs []error
	errs = append(errs,
		l.boolean("YOOSIGHT_AUTO_CONFIRM", &s.AutoConfirm),
		l.float("YOOSIGHT_TTS_SPEED", &s.SpeechRate),
		l.integer("FRAME_MAX_EDGE", &s.FrameMaxEdge),
		l.integer("FRAME_JPEG_QUALITY", &s.FrameJPEGQuality),
		l.duration("PERMISSION_TIMEOUT", &s.PermissionTimeout),
		l.duration("CAPTURE_TIMEOUT", &s.CaptureTimeout),
		l.duration("ANALYSIS_TIMEOUT", &s.AnalysisTimeout),
	)
	temp := float64(s.Temperature)
	errs = append(errs, l.float("GEMINI_TEMPERATURE", &temp))
	s.Temperature = float32(temp)

	if err := errors.Join(errs...); err != nil {
		return Settings{}, err
	}

	if s.FrameDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		s.FrameDir = filepath.Join(base, "yoosight", "frames")
	}

	s.Language = localization.Normalize(s.Language)
	s.PermissionMode = strings.ToLower(s.PermissionMode)
	s.SpeechOutput = strings.ToLower(s.SpeechOutput)
	s.EventBus = strings.ToLower(s.EventBus)

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks value ranges and cross-field requirements.
func (s Settings) Validate() error {
	var errs []error
	if s.APIKey == "" && s.VertexProjectID == "" {
		errs = append(errs, errors.New("config: GEMINI_API_KEY or VERTEX_PROJECT_ID must be set"))
	}
	if s.CaptureSourceFile == "" {
		errs = append(errs, errors.New("config: CAPTURE_SOURCE_FILE must be set, it is the only screen source"))
	}
	if s.SpeechRate <= 0 || s.SpeechRate > 4 {
		errs = append(errs, fmt.Errorf("config: YOOSIGHT_TTS_SPEED must be in (0, 4], got %v", s.SpeechRate))
	}
	if s.FrameMaxEdge < 64 {
		errs = append(errs, fmt.Errorf("config: FRAME_MAX_EDGE must be >= 64, got %d", s.FrameMaxEdge))
	}
	if s.FrameJPEGQuality < 1 || s.FrameJPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("config: FRAME_JPEG_QUALITY must be 1-100, got %d", s.FrameJPEGQuality))
	}
	if s.PermissionMode != PermissionModeAuto && s.PermissionMode != PermissionModeOverlay {
		errs = append(errs, fmt.Errorf("config: PERMISSION_MODE must be auto or overlay, got %q", s.PermissionMode))
	}
	if s.SpeechOutput != SpeechOutputOverlay && s.SpeechOutput != SpeechOutputLocal {
		errs = append(errs, fmt.Errorf("config: SPEECH_OUTPUT must be overlay or local, got %q", s.SpeechOutput))
	}
	switch s.EventBus {
	case EventBusMemory:
	case EventBusRedis:
		if s.RedisURL == "" {
			errs = append(errs, errors.New("config: EVENT_BUS=redis requires REDIS_ADDR (or REDIS_URI/REDIS_URL)"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: EVENT_BUS must be memory or redis, got %q", s.EventBus))
	}
	for name, d := range map[string]time.Duration{
		"PERMISSION_TIMEOUT": s.PermissionTimeout,
		"CAPTURE_TIMEOUT":    s.CaptureTimeout,
		"ANALYSIS_TIMEOUT":   s.AnalysisTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("config: %s must be positive, got %s", name, d))
		}
	}
	return errors.Join(errs...)
}

// LogFields is safe to log: the API key and secrets are reduced to presence flags.
func (s Settings) LogFields() logrus.Fields {
	return logrus.Fields{
		"language":        s.Language,
		"api_key_set":     s.APIKey != "",
		"vertex_project":  s.VertexProjectID,
		"model":           s.Model,
		"auto_confirm":    s.AutoConfirm,
		"speech_rate":     s.SpeechRate,
		"speech_output":   s.SpeechOutput,
		"permission_mode": s.PermissionMode,
		"event_bus":       s.EventBus,
		"frame_dir":       s.FrameDir,
		"capture_source":  s.CaptureSourceFile,
		"mongo":           s.MongoURI != "",
		"postgres":        s.PostgresURI != "",
		"archive_bucket":  s.FrameArchiveBucket,
		"overlay_auth":    s.OverlayJWTSecret != "",
	}
}

func (l Loader) str(key string, target *string) {
	if v, ok := l.Lookup(key); ok && strings.TrimSpace(v) != "" {
		*target = strings.TrimSpace(v)
	}
}

func (l Loader) boolean(key string, target *bool) error {
	v, ok := l.Lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*target = b
	return nil
}

func (l Loader) float(key string, target *float64) error {
	v, ok := l.Lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*target = f
	return nil
}

func (l Loader) integer(key string, target *int) error {
	v, ok := l.Lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*target = n
	return nil
}

// duration accepts Go duration strings or a bare number of milliseconds.
func (l Loader) duration(key string, target *time.Duration) error {
	v, ok := l.Lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	v = strings.TrimSpace(v)
	if ms, err := strconv.Atoi(v); err == nil {
		*target = time.Duration(ms) * time.Millisecond
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*target = d
	return nil
}
