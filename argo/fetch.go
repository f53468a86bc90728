package argo

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Fetch retrieves grades, homework and announcements for the session in one
// pass. The full-year dashboard is fetched once and shared by every domain
// that can use it; the domains are otherwise independent, so all strategies
// of one domain missing never blocks the others.
//
// The only error Fetch returns is ErrSessionExpired. Anything else — a
// school whose backend serves none of the known shapes, timeouts on every
// strategy — yields empty collections, matching how the portal itself
// silently serves empty data.
func (c *Client) Fetch(ctx context.Context, s Session) (*Snapshot, error) {
	dash, err := c.dashboard(ctx, s, schoolYearStart(time.Now()))
	if err != nil {
		if errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrSessionIncomplete) {
			return nil, err
		}
		// The per-domain strategies have their own fallbacks; carry on
		// without the shared payload.
		c.logger.Debug("dashboard fetch failed", zap.Error(err))
		dash = nil
	}

	snap := &Snapshot{}

	if snap.Grades, err = c.grades(ctx, s, dash); err != nil {
		return nil, err
	}
	if snap.Homework, err = c.homework(ctx, s, dash); err != nil {
		return nil, err
	}
	if snap.Announcements, err = c.announcements(ctx, s, dash); err != nil {
		return nil, err
	}

	c.logger.Info("fetched records",
		zap.String("school", s.SchoolCode()),
		zap.Int("grades", len(snap.Grades)),
		zap.Int("homework", len(snap.Homework)),
		zap.Int("announcements", len(snap.Announcements)),
	)
	return snap, nil
}
