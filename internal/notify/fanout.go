package notify

import (
	. "ringbook/internal/common"
	"ringbook/internal/engine"
)

// Fanout hands every notification to each notifier in turn.
type Fanout []engine.Notifier

func (f Fanout) Notify(n Notification) {
	for _, notifier := range f {
		notifier.Notify(n)
	}
}
