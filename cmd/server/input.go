package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	. "ringbook/internal/common"
)

var ErrBadOrderLine = errors.New("bad order line")

// orderLine is one parsed line of input:
//
//	<id> <buy|sell> <limit|market> <quantity> [price]
//
// Price is required for limit orders and ignored for market orders.
type orderLine struct {
	id        int64
	side      Side
	orderType OrderType
	quantity  int64
	price     float64
}

func parseOrderLine(line string) (orderLine, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 || len(fields) > 5 {
		return orderLine{}, fmt.Errorf("%w: want 4 or 5 fields, got %d", ErrBadOrderLine, len(fields))
	}

	var (
		o   orderLine
		err error
	)
	if o.id, err = strconv.ParseInt(fields[0], 10, 64); err != nil {
		return orderLine{}, fmt.Errorf("%w: id: %w", ErrBadOrderLine, err)
	}

	switch strings.ToLower(fields[1]) {
	case "buy":
		o.side = Buy
	case "sell":
		o.side = Sell
	default:
		return orderLine{}, fmt.Errorf("%w: side %q", ErrBadOrderLine, fields[1])
	}

	switch strings.ToLower(fields[2]) {
	case "limit":
		o.orderType = LimitOrder
	case "market":
		o.orderType = MarketOrder
	default:
		return orderLine{}, fmt.Errorf("%w: type %q", ErrBadOrderLine, fields[2])
	}

	if o.quantity, err = strconv.ParseInt(fields[3], 10, 64); err != nil {
		return orderLine{}, fmt.Errorf("%w: quantity: %w", ErrBadOrderLine, err)
	}

	if len(fields) == 5 {
		if o.price, err = strconv.ParseFloat(fields[4], 64); err != nil {
			return orderLine{}, fmt.Errorf("%w: price: %w", ErrBadOrderLine, err)
		}
		if math.IsNaN(o.price) || math.IsInf(o.price, 0) {
			return orderLine{}, fmt.Errorf("%w: price %q is not finite", ErrBadOrderLine, fields[4])
		}
	} else if o.orderType == LimitOrder {
		return orderLine{}, fmt.Errorf("%w: limit order without price", ErrBadOrderLine)
	}
	return o, nil
}

// readOrders calls fn for every order line in r. Blank lines and lines
// starting with '#' are skipped. Lines that do not parse are passed to bad
// and skipped. It stops at the first error from fn.
func readOrders(r io.Reader, fn func(orderLine) error, bad func(lineNo int, err error)) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		o, err := parseOrderLine(line)
		if err != nil {
			bad(lineNo, err)
			continue
		}
		if err := fn(o); err != nil {
			return err
		}
	}
	return scanner.Err()
}
