// Package permission obtains the user's consent to mirror the screen.
package permission

import (
	"context"

	"github.com/google/uuid"

	"github.com/yoockh/yoosight/internal/bus"
	"github.com/yoockh/yoosight/internal/models"
	"github.com/yoockh/yoosight/internal/utils"
)

// AutoGrant grants every request at once. It serves desktops, where mirroring needs no
// consent dialog.
type AutoGrant struct {
	events bus.Bus
}

func NewAutoGrant(events bus.Bus) *AutoGrant {
	return &AutoGrant{events: events}
}

func (a *AutoGrant) Request(ctx context.Context, sessionID string) error {
	const op = "AutoGrant.Request"

	grant := "auto:" + uuid.NewString()
	if err := a.events.Publish(ctx, models.PermissionResult(sessionID, true, grant)); err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to publish grant", err)
	}
	return nil
}

type Prompter interface {
	RequestPermission(ctx context.Context, sessionID string) error
}

// Overlay delegates consent to the connected overlay clients, which answer with a
// permission_result message.
type Overlay struct {
	prompter Prompter
}

func NewOverlay(p Prompter) *Overlay {
	return &Overlay{prompter: p}
}

func (o *Overlay) Request(ctx context.Context, sessionID string) error {
	const op = "Overlay.Request"

	if err := o.prompter.RequestPermission(ctx, sessionID); err != nil {
		return utils.E(utils.CodePermissionDenied, op, "consent prompt unavailable", err)
	}
	return nil
}
