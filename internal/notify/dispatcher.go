package notify

import (
	"context"
	"log/slog"
)

// TokenSource resolves the registered push endpoints of a user.
type TokenSource interface {
	TokensForUser(ctx context.Context, userID string) ([]string, error)
}

// Dispatcher sends a notification to every registered endpoint of a user.
// Delivery is best effort: a user without endpoints is a silent no-op and
// transport failures are logged, never returned.
type Dispatcher struct {
	tokens TokenSource
	push   *ExpoClient
	log    *slog.Logger
}

func NewDispatcher(tokens TokenSource, push *ExpoClient, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		tokens: tokens,
		push:   push,
		log:    log,
	}
}

func (d *Dispatcher) Send(ctx context.Context, userID, title, body string) {
	if d == nil || d.push == nil {
		return
	}

	tokens, err := d.tokens.TokensForUser(ctx, userID)
	if err != nil {
		d.log.Warn("notify: token lookup failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return
	}
	if len(tokens) == 0 {
		return
	}

	if err := d.push.SendPush(ctx, tokens, title, body); err != nil {
		d.log.Warn("notify: push send failed",
			slog.String("user_id", userID),
			slog.Int("tokens", len(tokens)),
			slog.String("error", err.Error()),
		)
		return
	}

	d.log.Info("notify: push sent",
		slog.String("user_id", userID),
		slog.Int("tokens", len(tokens)),
	)
}
