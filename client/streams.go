package client

import (
	"context"

	"github.com/pkg/errors"

	"ibtws/message"
)

// subscribe registers a stream under key, sends the opening request,
// and returns the live handle. A send failure unregisters immediately.
func (c *Client) subscribe(ctx context.Context, key any, id int64, req, cancelMsg *message.Outgoing) (*Subscription, error) {
	send, err := c.handler()
	if err != nil {
		return nil, err
	}
	sub := &Subscription{
		c:         c,
		key:       key,
		id:        id,
		cancelMsg: cancelMsg,
		events:    make(chan message.Event, c.opts.subBuffer),
		gen:       c.gen.Load(),
	}
	if !c.subs.add(key, sub) {
		return nil, errors.Errorf("subscription %v already active", key)
	}
	if err := send(ctx, req); err != nil {
		c.subs.remove(key)
		return nil, err
	}
	return sub, nil
}

// MarketData opens a level 1 tick stream: TickPrice, TickSize,
// TickGeneric, TickString, plus the TickReqParams and MarketDataType
// announcements that precede the first tick.
func (c *Client) MarketData(ctx context.Context, contract message.Contract, genericTicks []int, regulatory bool) (*Subscription, error) {
	id := c.ids.Next()
	req := message.ReqMarketData(id, contract, genericTicks, false, regulatory)
	return c.subscribe(ctx, id, id, req, message.CancelMarketData(id))
}

// SetMarketDataType selects the feed class served to subsequent
// MarketData streams.
func (c *Client) SetMarketDataType(ctx context.Context, class message.MarketDataClass) error {
	send, err := c.handler()
	if err != nil {
		return err
	}
	return send(ctx, message.ReqMarketDataType(class))
}

// RealTimeBars opens a 5 second bar stream.
func (c *Client) RealTimeBars(ctx context.Context, contract message.Contract, what string, rthOnly bool) (*Subscription, error) {
	id := c.ids.Next()
	req := message.ReqRealTimeBars(id, contract, what, rthOnly)
	return c.subscribe(ctx, id, id, req, message.CancelRealTimeBars(id))
}

// TickByTick opens a raw tick stream of the given kind, optionally
// backfilled with up to numTicks historical ticks.
func (c *Client) TickByTick(ctx context.Context, contract message.Contract, kind string, numTicks int64, ignoreSize bool) (*Subscription, error) {
	id := c.ids.Next()
	req := message.ReqTickByTick(id, contract, kind, numTicks, ignoreSize)
	return c.subscribe(ctx, id, id, req, message.CancelTickByTick(id))
}

// MarketDepth opens an order book stream with up to rows levels.
func (c *Client) MarketDepth(ctx context.Context, contract message.Contract, rows int64) (*Subscription, error) {
	id := c.ids.Next()
	req := message.ReqMarketDepth(id, contract, rows)
	return c.subscribe(ctx, id, id, req, message.CancelMarketDepth(id))
}

// HistoricalBarsUpdating loads bars over span ending now and keeps the
// stream open: the initial HistoricalBars event is followed by a
// HistoricalBarUpdate whenever the head bar changes.
func (c *Client) HistoricalBarsUpdating(ctx context.Context, contract message.Contract, barSize string, span message.Span, rthOnly bool, what string) (*Subscription, error) {
	id := c.ids.Next()
	req := message.ReqHistoricalData(id, contract, "", barSize, span, rthOnly, what, true)
	return c.subscribe(ctx, id, id, req, message.CancelHistoricalData(id))
}

// AccountSummary opens a summary row stream for an account group,
// "All" for every account. AccountSummaryEnd marks the end of the
// first batch; rows keep flowing as values change.
func (c *Client) AccountSummary(ctx context.Context, group string, tags []string) (*Subscription, error) {
	id := c.ids.Next()
	req := message.ReqAccountSummary(id, group, tags)
	return c.subscribe(ctx, id, id, req, message.CancelAccountSummary(id))
}

// PnL opens a daily P&L stream for an account.
func (c *Client) PnL(ctx context.Context, account string) (*Subscription, error) {
	id := c.ids.Next()
	req := message.ReqPnL(id, account)
	return c.subscribe(ctx, id, id, req, message.CancelPnL(id))
}

// PnLSingle opens a P&L stream for one position.
func (c *Client) PnLSingle(ctx context.Context, account string, contractID int64) (*Subscription, error) {
	id := c.ids.Next()
	req := message.ReqPnLSingle(id, account, contractID)
	return c.subscribe(ctx, id, id, req, message.CancelPnLSingle(id))
}

// AccountUpdates opens the account value and portfolio feed for one
// account: AccountValue, PortfolioValue, AccountUpdateTime, then
// AccountDownloadEnd once the initial state is through. One feed per
// client; the frames carry no request id.
func (c *Client) AccountUpdates(ctx context.Context, account string) (*Subscription, error) {
	req := message.ReqAccountUpdates(true, account)
	return c.subscribe(ctx, keyAccountUpdates, 0, req, message.ReqAccountUpdates(false, account))
}

// Positions opens the position feed across all accounts: PositionData
// rows, PositionEnd once the initial snapshot is through. One feed per
// client.
func (c *Client) Positions(ctx context.Context) (*Subscription, error) {
	return c.subscribe(ctx, keyPositions, 0, message.ReqPositions(), message.CancelPositions())
}
