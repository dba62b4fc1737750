package common

import (
	"fmt"
	"time"
)

// Outcome classifies an order once it has reached a terminal state.
type Outcome int

const (
	Unfilled Outcome = iota
	PartiallyFilled
	Filled
)

func (o Outcome) String() string {
	switch o {
	case Unfilled:
		return "unfilled"
	case PartiallyFilled:
		return "partially_filled"
	case Filled:
		return "filled"
	}
	return "unknown"
}

// Notification is the terminal report for a single order. It is emitted
// exactly once per order: when a limit order is fully executed, or after the
// single matching attempt of a market order.
type Notification struct {
	ID         int64
	Side       Side
	Type       OrderType
	Executed   int64
	Unexecuted int64
	AvgPrice   float64
	At         time.Time
}

// Outcome derives the fill classification from the execution quantities.
func (n Notification) Outcome() Outcome {
	switch {
	case n.Unexecuted == 0 && n.Executed > 0:
		return Filled
	case n.Executed > 0:
		return PartiallyFilled
	}
	return Unfilled
}

func (n Notification) String() string {
	return fmt.Sprintf(
		`ID:         %d
Side:       %v
Type:       %v
Executed:   %d
Unexecuted: %d
AvgPrice:   %f
Outcome:    %v
At:         %v`,
		n.ID,
		n.Side,
		n.Type,
		n.Executed,
		n.Unexecuted,
		n.AvgPrice,
		n.Outcome(),
		n.At.Format(time.RFC3339Nano),
	)
}
