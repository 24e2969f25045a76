package client

import (
	"strconv"

	"ibtws/message"
	"ibtws/transport"
)

// dispatch is the routing loop, one goroutine per connection. It owns
// the read side: every inbound frame is classified here and handed to
// the pending call, subscription, or sink that claims it. When the
// transport channel closes it drains both registries exactly once, so
// every caller gets a terminal signal.
func (c *Client) dispatch(conn *transport.Conn, gen uint64, done chan struct{}) {
	defer close(done)
	for m := range conn.Recv() {
		c.route(m)
	}
	cause := ErrClosed
	if err := conn.Err(); err != nil {
		cause = err
	}
	c.pending.failAll(cause)
	c.subs.closeAll(cause)
	c.logger.Debug("dispatcher drained", "generation", gen, "cause", cause)
}

// route classifies one frame. Connection-level tags first, then frames
// keyed by request id against the pending table and the subscription
// table in that order, then the reserved global streams. What nobody
// claims goes to the sink when it could matter, or is dropped with a
// debug log when it is stream residue (late ticks after a cancel).
func (c *Client) route(m *message.Incoming) {
	switch m.Tag {
	case message.InNextValidID:
		if ev, err := message.Decode(m); err == nil {
			if nv, ok := ev.(message.NextValidID); ok {
				c.ids.Seed(nv.OrderID)
			}
		}
		c.pending.deliver(keyNextOrderID, m)
		c.markReady(true, false)

	case message.InManagedAccts:
		if ev, err := message.Decode(m); err == nil {
			if ma, ok := ev.(message.ManagedAccounts); ok {
				c.setAccounts(ma.Accounts)
			}
		}
		c.pending.deliver(keyManagedAccounts, m)
		c.markReady(false, true)

	case message.InCurrentTime:
		// Unclaimed readings are keepalive probe replies, not news.
		if !c.pending.deliver(keyCurrentTime, m) {
			c.logger.Debug("unsolicited current time")
		}

	case message.InErrMsg:
		c.routeError(m)

	case message.InOpenOrder:
		// One frame, two audiences: an open orders query accumulates
		// it, and the order's tracker streams it.
		claimed := c.pending.deliver(keyOpenOrders, m)
		if id, ok := m.RequestID(); ok {
			if sub, live := c.subs.lookup(id); live {
				c.deliverSub(sub, m)
				claimed = true
			}
		}
		if !claimed {
			c.sinkFrame(m)
		}

	case message.InOpenOrderEnd:
		if !c.pending.deliver(keyOpenOrders, m) {
			c.sinkFrame(m)
		}

	case message.InCompletedOrder, message.InCompletedOrdersEnd:
		if !c.pending.deliver(keyCompletedOrders, m) {
			c.sinkFrame(m)
		}

	case message.InMktDepthExchanges:
		if !c.pending.deliver(keyDepthExchanges, m) {
			c.sinkFrame(m)
		}

	case message.InAcctValue, message.InPortfolioValue, message.InAcctUpdateTime, message.InAcctDownloadEnd:
		if sub, ok := c.subs.lookup(keyAccountUpdates); ok {
			c.deliverSub(sub, m)
			return
		}
		c.logger.Debug("account update without subscriber", "tag", m.Tag)

	case message.InPositionData, message.InPositionEnd:
		if sub, ok := c.subs.lookup(keyPositions); ok {
			c.deliverSub(sub, m)
			return
		}
		c.logger.Debug("position update without subscriber", "tag", m.Tag)

	case message.InExecutionData:
		// Keyed by request id for queries; live fills are pushed with
		// id -1 and route by the order id that follows.
		if id, ok := m.RequestID(); ok && c.pending.deliver(id, m) {
			return
		}
		if len(m.Fields) > 1 {
			if orderID, err := strconv.ParseInt(m.Fields[1], 10, 64); err == nil {
				if sub, ok := c.subs.lookup(orderID); ok {
					c.deliverSub(sub, m)
					return
				}
			}
		}
		c.sinkFrame(m)

	case message.InCommissionReport:
		// Keyed by execution id, which no registry tracks.
		c.sinkFrame(m)

	default:
		if id, ok := m.RequestID(); ok {
			if c.pending.deliver(id, m) {
				return
			}
			if sub, live := c.subs.lookup(id); live {
				c.deliverSub(sub, m)
				return
			}
			c.logger.Debug("frame for untracked id", "tag", m.Tag, "request_id", id)
			return
		}
		c.sinkFrame(m)
	}
}

// routeError hands a server error frame to its owner. Errors tied to a
// pending call fail it; errors tied to a subscription flow into the
// stream as events, leaving the consumer to decide whether the code is
// fatal. Everything else, including errors for ids nobody tracks,
// surfaces on the sink.
func (c *Client) routeError(m *message.Incoming) {
	ev, err := message.Decode(m)
	if err != nil {
		c.logger.Warn("malformed error frame", "err", err)
		return
	}
	serr, ok := ev.(*message.ServerError)
	if !ok {
		c.sink(ev, nil)
		return
	}
	if serr.RequestID > 0 {
		if c.pending.fail(serr.RequestID, serr) {
			return
		}
		if sub, live := c.subs.lookup(serr.RequestID); live {
			sub.deliver(serr)
			return
		}
		c.logger.Debug("error for untracked id",
			"request_id", serr.RequestID,
			"code", serr.Code)
	}
	c.sink(serr, serr)
}

// deliverSub decodes a frame and streams it to sub. Malformed frames
// are logged and dropped; frames that decode to nothing (price ticks
// flagged absent) are silently skipped.
func (c *Client) deliverSub(sub *Subscription, m *message.Incoming) {
	ev, err := message.Decode(m)
	if err != nil {
		c.logger.Warn("dropping malformed frame", "tag", m.Tag, "err", err)
		return
	}
	if ev == nil {
		return
	}
	sub.deliver(ev)
}

// sinkFrame decodes a frame and offers it to the global sink.
func (c *Client) sinkFrame(m *message.Incoming) {
	ev, err := message.Decode(m)
	if err != nil {
		c.logger.Warn("dropping malformed frame", "tag", m.Tag, "err", err)
		return
	}
	if ev == nil {
		return
	}
	c.sink(ev, nil)
}
