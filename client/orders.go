package client

import (
	"context"

	"github.com/pkg/errors"

	"ibtws/message"
)

// OrderTracker streams the gateway's reports for one placed order:
// OrderStatus transitions, the OpenOrder echo, and ExecutionData for
// its fills.
type OrderTracker struct {
	*Subscription
	orderID int64
}

// OrderID returns the id the order was placed under.
func (t *OrderTracker) OrderID() int64 { return t.orderID }

// PlaceOrder validates and submits the order under a freshly allocated
// order id. The returned tracker streams the order's lifecycle; its
// Cancel only stops tracking. Withdrawing the order itself is
// CancelOrder.
func (c *Client) PlaceOrder(ctx context.Context, contract message.Contract, order message.Order) (*OrderTracker, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	send, err := c.handler()
	if err != nil {
		return nil, err
	}
	id := c.ids.Next()
	sub := &Subscription{
		c:      c,
		key:    id,
		id:     id,
		events: make(chan message.Event, c.opts.subBuffer),
		gen:    c.gen.Load(),
	}
	if !c.subs.add(id, sub) {
		return nil, errors.Errorf("order id %d already tracked", id)
	}
	if err := send(ctx, message.PlaceOrder(id, contract, order)); err != nil {
		c.subs.remove(id)
		return nil, err
	}
	return &OrderTracker{Subscription: sub, orderID: id}, nil
}

// CancelOrder asks the gateway to withdraw a working order. The
// outcome arrives on the order's tracker as a Cancelled status.
func (c *Client) CancelOrder(ctx context.Context, orderID int64) error {
	send, err := c.handler()
	if err != nil {
		return err
	}
	return send(ctx, message.CancelOrder(orderID))
}

// GlobalCancel withdraws every working order across all clients of
// this gateway.
func (c *Client) GlobalCancel(ctx context.Context) error {
	send, err := c.handler()
	if err != nil {
		return err
	}
	return send(ctx, message.ReqGlobalCancel())
}

// AutoOpenOrders binds orders placed manually in the terminal to this
// client, so they surface as OpenOrder frames. Honored for client id 0
// only.
func (c *Client) AutoOpenOrders(ctx context.Context, autoBind bool) error {
	send, err := c.handler()
	if err != nil {
		return err
	}
	return send(ctx, message.ReqAutoOpenOrders(autoBind))
}
