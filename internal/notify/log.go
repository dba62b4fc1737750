package notify

import (
	. "ringbook/internal/common"

	"github.com/rs/zerolog"
)

// Log writes each notification as a structured log line.
type Log struct {
	logger zerolog.Logger
}

func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(n Notification) {
	l.logger.Info().
		Int64("id", n.ID).
		Str("side", n.Side.String()).
		Str("type", n.Type.String()).
		Int64("executed", n.Executed).
		Int64("unexecuted", n.Unexecuted).
		Float64("avg_price", n.AvgPrice).
		Str("outcome", n.Outcome().String()).
		Msg("order terminal")
}
