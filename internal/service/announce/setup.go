package announce

import (
	"github.com/oggyb/crushconnect/internal/app"
	"github.com/oggyb/crushconnect/internal/publisher"
)

// Setup builds the queue and scheduler from config.Scheduler. Both share the
// same prime slots so enqueue and reschedule agree on the next slot.
func Setup(appCtx *app.AppContext, pub publisher.ChannelPublisher, notifier publisher.AdminNotifier) (*Queue, *Scheduler, error) {
	cfg := appCtx.Config.Scheduler
	slots, err := ParseSlots(cfg.PrimeSlots, cfg.Timezone)
	if err != nil {
		return nil, nil, err
	}
	renderer, err := NewRenderer(nil)
	if err != nil {
		return nil, nil, err
	}
	return NewQueue(appCtx, slots, notifier), NewScheduler(appCtx, slots, renderer, pub, notifier), nil
}
