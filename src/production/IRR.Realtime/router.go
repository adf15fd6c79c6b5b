package realtime

import (
	logger "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Logger"
	irrmodels "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Models"
)

// BroadcastRouter delivers typed messages to every session currently in a
// group. Delivery is best-effort to whoever is connected at the instant of
// the call: there is no buffering or replay for late joiners.
type BroadcastRouter struct {
	registry *SessionRegistry
	logger   *logger.Logger
}

func NewBroadcastRouter(registry *SessionRegistry, log *logger.Logger) *BroadcastRouter {
	return &BroadcastRouter{
		registry: registry,
		logger:   log.WithComponent("router"),
	}
}

// Publish enqueues msg for every current member of group and returns the
// number of successful deliveries. A session whose queue is full or already
// closed is skipped; partial failure is logged, never raised. Publishing to
// an empty group is a no-op.
func (r *BroadcastRouter) Publish(group string, msg irrmodels.Message) int {
	members := r.registry.MembersOf(group)
	if len(members) == 0 {
		return 0
	}

	delivered := 0
	for _, s := range members {
		if s.Enqueue(msg) {
			delivered++
			messagesDelivered.WithLabelValues(msg.Kind.String()).Inc()
		} else {
			messagesDropped.WithLabelValues(msg.Kind.String()).Inc()
			r.logger.Logger.Warn().
				Str("group", group).
				Str("session_id", s.ID).
				Str("kind", msg.Kind.String()).
				Msg("dropped message for slow or closed session")
		}
	}

	if delivered < len(members) {
		r.logger.Logger.Warn().
			Str("group", group).
			Int("delivered", delivered).
			Int("members", len(members)).
			Msg("partial broadcast delivery")
	}

	return delivered
}
