package client

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"ibtws/message"
)

// anyFrame settles a call on its first reply frame.
func anyFrame(*message.Incoming) bool { return true }

// onTag settles a call when the frame with the given tag arrives;
// earlier frames accumulate.
func onTag(tag message.In) func(*message.Incoming) bool {
	return func(m *message.Incoming) bool { return m.Tag == tag }
}

// historicalTicksDone settles a tick query on the chunk carrying the
// done flag. A chunk that fails to decode settles immediately; the
// assembly step then reports the decode error.
func historicalTicksDone(m *message.Incoming) bool {
	ev, err := message.Decode(m)
	if err != nil {
		return true
	}
	switch t := ev.(type) {
	case message.HistoricalTicksMidpoint:
		return t.Done
	case message.HistoricalTicksBidAsk:
		return t.Done
	case message.HistoricalTicksLast:
		return t.Done
	}
	return true
}

// request registers a pending call under key, sends msg, and blocks
// until the reply settles it. A send failure withdraws the call
// immediately instead of leaving it to time out.
func (c *Client) request(ctx context.Context, key any, terminal func(*message.Incoming) bool, msg *message.Outgoing) ([]*message.Incoming, error) {
	send, err := c.handler()
	if err != nil {
		return nil, err
	}
	call, ok := c.pending.register(key, c.gen.Load(), terminal)
	if !ok {
		return nil, errors.Errorf("request %v already in flight", key)
	}
	if err := send(ctx, msg); err != nil {
		c.pending.abandon(call)
		return nil, err
	}
	return c.await(ctx, call)
}

// decodeAs decodes a reply frame into the expected event type.
func decodeAs[T message.Event](m *message.Incoming) (T, error) {
	var zero T
	ev, err := message.Decode(m)
	if err != nil {
		return zero, err
	}
	t, ok := ev.(T)
	if !ok {
		return zero, errors.Errorf("unexpected reply %T for tag %d", ev, m.Tag)
	}
	return t, nil
}

// CurrentTime asks for the gateway's wall clock.
func (c *Client) CurrentTime(ctx context.Context) (time.Time, error) {
	msgs, err := c.request(ctx, keyCurrentTime, anyFrame, message.ReqCurrentTime())
	if err != nil {
		return time.Time{}, err
	}
	ev, err := decodeAs[message.CurrentTime](msgs[0])
	if err != nil {
		return time.Time{}, err
	}
	return ev.Time, nil
}

// ManagedAccounts asks for the account list. The list from the connect
// handshake is available without a round trip via Accounts.
func (c *Client) ManagedAccounts(ctx context.Context) ([]string, error) {
	msgs, err := c.request(ctx, keyManagedAccounts, anyFrame, message.ReqManagedAccounts())
	if err != nil {
		return nil, err
	}
	ev, err := decodeAs[message.ManagedAccounts](msgs[0])
	if err != nil {
		return nil, err
	}
	return ev.Accounts, nil
}

// NextOrderID asks the gateway for the next order id it will accept
// and reseeds the local allocator with it. Diagnostic: PlaceOrder
// allocates locally without a round trip.
func (c *Client) NextOrderID(ctx context.Context) (int64, error) {
	msgs, err := c.request(ctx, keyNextOrderID, anyFrame, message.ReqIDs())
	if err != nil {
		return 0, err
	}
	ev, err := decodeAs[message.NextValidID](msgs[0])
	if err != nil {
		return 0, err
	}
	return ev.OrderID, nil
}

// UserInfo asks for the white-branding id of the logged-in user.
func (c *Client) UserInfo(ctx context.Context) (string, error) {
	id := c.ids.Next()
	msgs, err := c.request(ctx, id, anyFrame, message.ReqUserInfo(id))
	if err != nil {
		return "", err
	}
	ev, err := decodeAs[message.UserInfo](msgs[0])
	if err != nil {
		return "", err
	}
	return ev.WhiteBrandingID, nil
}

// Snapshot takes a one-time market data reading: the tick events that
// arrive before the snapshot-end marker, in arrival order.
func (c *Client) Snapshot(ctx context.Context, contract message.Contract, genericTicks []int, regulatory bool) ([]message.Event, error) {
	id := c.ids.Next()
	req := message.ReqMarketData(id, contract, genericTicks, true, regulatory)
	msgs, err := c.request(ctx, id, onTag(message.InTickSnapshotEnd), req)
	if err != nil {
		return nil, err
	}
	events := make([]message.Event, 0, len(msgs))
	for _, m := range msgs {
		if m.Tag == message.InTickSnapshotEnd {
			continue
		}
		ev, err := message.Decode(m)
		if err != nil {
			return nil, err
		}
		if ev == nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// HistoricalBars loads bars over span ending at endDateTime, formatted
// "20060102-15:04:05" UTC or blank for now.
func (c *Client) HistoricalBars(ctx context.Context, contract message.Contract, endDateTime, barSize string, span message.Span, rthOnly bool, what string) (message.HistoricalBars, error) {
	id := c.ids.Next()
	req := message.ReqHistoricalData(id, contract, endDateTime, barSize, span, rthOnly, what, false)
	msgs, err := c.request(ctx, id, anyFrame, req)
	if err != nil {
		return message.HistoricalBars{}, err
	}
	return decodeAs[message.HistoricalBars](msgs[0])
}

// HeadTimestamp reports the earliest data point available for the
// contract and data type.
func (c *Client) HeadTimestamp(ctx context.Context, contract message.Contract, what string, rthOnly bool) (time.Time, error) {
	id := c.ids.Next()
	msgs, err := c.request(ctx, id, anyFrame, message.ReqHeadTimestamp(id, contract, what, rthOnly))
	if err != nil {
		return time.Time{}, err
	}
	ev, err := decodeAs[message.HeadTimestamp](msgs[0])
	if err != nil {
		return time.Time{}, err
	}
	return ev.Time, nil
}

// Histogram loads the traded price distribution over period.
func (c *Client) Histogram(ctx context.Context, contract message.Contract, rthOnly bool, period message.HistogramSpan) ([]message.HistogramEntry, error) {
	id := c.ids.Next()
	msgs, err := c.request(ctx, id, anyFrame, message.ReqHistogramData(id, contract, rthOnly, period))
	if err != nil {
		return nil, err
	}
	ev, err := decodeAs[message.HistogramData](msgs[0])
	if err != nil {
		return nil, err
	}
	return ev.Entries, nil
}

// HistoricalTicksMidpoint loads up to count midpoint ticks between
// startTime and endTime (one of the two set, "20060102-15:04:05" UTC),
// concatenating chunks until the gateway flags the answer complete.
func (c *Client) HistoricalTicksMidpoint(ctx context.Context, contract message.Contract, startTime, endTime string, count int64, rthOnly bool) ([]message.MidpointTick, error) {
	req := func(id int64) *message.Outgoing {
		return message.ReqHistoricalTicks(id, contract, startTime, endTime, count, message.ShowMidpoint, rthOnly)
	}
	msgs, err := c.historicalTicks(ctx, req)
	if err != nil {
		return nil, err
	}
	var ticks []message.MidpointTick
	for _, m := range msgs {
		chunk, err := decodeAs[message.HistoricalTicksMidpoint](m)
		if err != nil {
			return nil, err
		}
		ticks = append(ticks, chunk.Ticks...)
	}
	return ticks, nil
}

// HistoricalTicksBidAsk loads historical quote ticks.
func (c *Client) HistoricalTicksBidAsk(ctx context.Context, contract message.Contract, startTime, endTime string, count int64, rthOnly bool) ([]message.BidAskTick, error) {
	req := func(id int64) *message.Outgoing {
		return message.ReqHistoricalTicks(id, contract, startTime, endTime, count, message.ShowBidAsk, rthOnly)
	}
	msgs, err := c.historicalTicks(ctx, req)
	if err != nil {
		return nil, err
	}
	var ticks []message.BidAskTick
	for _, m := range msgs {
		chunk, err := decodeAs[message.HistoricalTicksBidAsk](m)
		if err != nil {
			return nil, err
		}
		ticks = append(ticks, chunk.Ticks...)
	}
	return ticks, nil
}

// HistoricalTicksTrades loads historical trade ticks.
func (c *Client) HistoricalTicksTrades(ctx context.Context, contract message.Contract, startTime, endTime string, count int64, rthOnly bool) ([]message.LastTick, error) {
	req := func(id int64) *message.Outgoing {
		return message.ReqHistoricalTicks(id, contract, startTime, endTime, count, message.ShowTrades, rthOnly)
	}
	msgs, err := c.historicalTicks(ctx, req)
	if err != nil {
		return nil, err
	}
	var ticks []message.LastTick
	for _, m := range msgs {
		chunk, err := decodeAs[message.HistoricalTicksLast](m)
		if err != nil {
			return nil, err
		}
		ticks = append(ticks, chunk.Ticks...)
	}
	return ticks, nil
}

func (c *Client) historicalTicks(ctx context.Context, req func(id int64) *message.Outgoing) ([]*message.Incoming, error) {
	id := c.ids.Next()
	return c.request(ctx, id, historicalTicksDone, req(id))
}

// ContractDetails resolves the full contract records behind a contract
// id.
func (c *Client) ContractDetails(ctx context.Context, contractID int64) ([]message.ContractDetails, error) {
	id := c.ids.Next()
	msgs, err := c.request(ctx, id, onTag(message.InContractDataEnd), message.ReqContractData(id, contractID))
	if err != nil {
		return nil, err
	}
	details := make([]message.ContractDetails, 0, len(msgs)-1)
	for _, m := range msgs {
		if m.Tag != message.InContractData {
			continue
		}
		ev, err := decodeAs[message.ContractData](m)
		if err != nil {
			return nil, err
		}
		details = append(details, ev.Details)
	}
	return details, nil
}

// Executions loads execution reports matching the filter.
func (c *Client) Executions(ctx context.Context, filter message.ExecutionFilter) ([]message.ExecutionData, error) {
	id := c.ids.Next()
	msgs, err := c.request(ctx, id, onTag(message.InExecutionDataEnd), message.ReqExecutions(id, filter))
	if err != nil {
		return nil, err
	}
	execs := make([]message.ExecutionData, 0, len(msgs)-1)
	for _, m := range msgs {
		if m.Tag != message.InExecutionData {
			continue
		}
		ev, err := decodeAs[message.ExecutionData](m)
		if err != nil {
			return nil, err
		}
		execs = append(execs, ev)
	}
	return execs, nil
}

// OpenOrders lists the working orders placed by this client.
func (c *Client) OpenOrders(ctx context.Context) ([]message.OpenOrder, error) {
	return c.openOrders(ctx, message.ReqOpenOrders())
}

// AllOpenOrders lists working orders across all clients.
func (c *Client) AllOpenOrders(ctx context.Context) ([]message.OpenOrder, error) {
	return c.openOrders(ctx, message.ReqAllOpenOrders())
}

func (c *Client) openOrders(ctx context.Context, req *message.Outgoing) ([]message.OpenOrder, error) {
	msgs, err := c.request(ctx, keyOpenOrders, onTag(message.InOpenOrderEnd), req)
	if err != nil {
		return nil, err
	}
	orders := make([]message.OpenOrder, 0, len(msgs)-1)
	for _, m := range msgs {
		if m.Tag != message.InOpenOrder {
			continue
		}
		ev, err := decodeAs[message.OpenOrder](m)
		if err != nil {
			return nil, err
		}
		orders = append(orders, ev)
	}
	return orders, nil
}

// CompletedOrders lists filled and cancelled orders, optionally only
// those placed over the API.
func (c *Client) CompletedOrders(ctx context.Context, apiOnly bool) ([]message.CompletedOrder, error) {
	msgs, err := c.request(ctx, keyCompletedOrders, onTag(message.InCompletedOrdersEnd), message.ReqCompletedOrders(apiOnly))
	if err != nil {
		return nil, err
	}
	orders := make([]message.CompletedOrder, 0, len(msgs)-1)
	for _, m := range msgs {
		if m.Tag != message.InCompletedOrder {
			continue
		}
		ev, err := decodeAs[message.CompletedOrder](m)
		if err != nil {
			return nil, err
		}
		orders = append(orders, ev)
	}
	return orders, nil
}

// SmartComponents resolves the exchange map behind a BBO exchange code
// announced by TickReqParams.
func (c *Client) SmartComponents(ctx context.Context, bboExchange string) ([]message.SmartComponent, error) {
	id := c.ids.Next()
	msgs, err := c.request(ctx, id, anyFrame, message.ReqSmartComponents(id, bboExchange))
	if err != nil {
		return nil, err
	}
	ev, err := decodeAs[message.SmartComponents](msgs[0])
	if err != nil {
		return nil, err
	}
	return ev.Components, nil
}

// DepthExchanges lists the venues serving depth data.
func (c *Client) DepthExchanges(ctx context.Context) ([]message.DepthMktDataDescription, error) {
	msgs, err := c.request(ctx, keyDepthExchanges, anyFrame, message.ReqMktDepthExchanges())
	if err != nil {
		return nil, err
	}
	ev, err := decodeAs[message.MktDepthExchanges](msgs[0])
	if err != nil {
		return nil, err
	}
	return ev.Descriptions, nil
}
