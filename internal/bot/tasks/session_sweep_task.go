package tasks

import (
	"context"
)

// newSessionSweepTask drops setup sessions nobody answered within the
// configured TTL, so abandoned prompts do not capture a later message.
func newSessionSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "setup_session_sweep")

	return func(ctx context.Context) error {
		ttl := deps.Config.Setup.SessionTTL
		removed := deps.Setup.Expire(ttl)
		if removed > 0 {
			log.InfoContext(ctx, "Expired abandoned setup sessions", "removed", removed, "ttl", ttl, "remaining", deps.Setup.Active())
		} else {
			log.DebugContext(ctx, "No setup sessions expired", "remaining", deps.Setup.Active())
		}
		return nil
	}
}
