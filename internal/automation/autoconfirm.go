// Package automation reacts to foreign UI on the device, such as the OS capture consent dialog.
package automation

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

// SystemUIPackage owns the OS capture consent dialog.
const SystemUIPackage = "com.android.systemui"

// Offsets of the consent dialog's accept button from the bottom-right screen corner.
const (
	acceptOffsetX = 200
	acceptOffsetY = 120
)

// WindowState is a window change reported by an overlay client.
type WindowState struct {
	Package      string
	Texts        []string
	ScreenWidth  int
	ScreenHeight int
}

type Tapper interface {
	Tap(ctx context.Context, x, y int) error
}

// AutoConfirm accepts the capture consent dialog on the user's behalf when enabled.
type AutoConfirm struct {
	enabled bool
	marker  string
	tapper  Tapper
	log     *logrus.Logger
}

func NewAutoConfirm(enabled bool, marker string, tapper Tapper, log *logrus.Logger) *AutoConfirm {
	if log == nil {
		log = logrus.New()
	}
	return &AutoConfirm{enabled: enabled, marker: marker, tapper: tapper, log: log}
}

// OnWindowState taps the accept button when ws is the consent dialog. It reports whether
// a tap was sent.
func (a *AutoConfirm) OnWindowState(ctx context.Context, ws WindowState) (bool, error) {
	if !a.enabled || a.marker == "" || ws.Package != SystemUIPackage {
		return false, nil
	}
	if !containsMarker(ws.Texts, a.marker) {
		return false, nil
	}
	if ws.ScreenWidth <= acceptOffsetX || ws.ScreenHeight <= acceptOffsetY {
		a.log.WithFields(logrus.Fields{
			"screen_width":  ws.ScreenWidth,
			"screen_height": ws.ScreenHeight,
		}).Warn("consent dialog seen but screen size unknown")
		return false, nil
	}

	x := ws.ScreenWidth - acceptOffsetX
	y := ws.ScreenHeight - acceptOffsetY
	if err := a.tapper.Tap(ctx, x, y); err != nil {
		return false, err
	}
	a.log.WithFields(logrus.Fields{"x": x, "y": y}).Info("capture consent auto-confirmed")
	return true, nil
}

func containsMarker(texts []string, marker string) bool {
	m := strings.ToLower(marker)
	for _, t := range texts {
		if strings.Contains(strings.ToLower(t), m) {
			return true
		}
	}
	return false
}
