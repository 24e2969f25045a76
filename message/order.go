package message

import (
	"github.com/pkg/errors"
)

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Time-in-force values accepted by the gateway.
const (
	TIFDay               = "DAY"
	TIFGoodTillCancel    = "GTC"
	TIFImmediateOrCancel = "IOC"
	TIFFillOrKill        = "FOK"
	TIFDayTillCancel     = "DTC"
)

// Order types understood by the standard order payload. Exotic types
// (pegged, volatility, scale) need fields this client does not surface.
const (
	OrderTypeMarket    = "MKT"
	OrderTypeLimit     = "LMT"
	OrderTypeStop      = "STP"
	OrderTypeStopLimit = "STP LMT"
)

// Order describes an executable order. The zero value is not submittable;
// use the constructors or fill in at least Action, Quantity and OrderType.
// Fields left at their zero value encode as the gateway's defaults.
type Order struct {
	Action    Side
	Quantity  float64
	OrderType string

	// LimitPrice applies to LMT and STP LMT orders, AuxPrice holds the
	// stop price for STP orders. Zero encodes as unset.
	LimitPrice float64
	AuxPrice   float64

	// TIF defaults to DAY when empty.
	TIF      string
	OCAGroup string
	OCAType  int
	Account  string
	OrderRef string

	// Transmit must be true for the gateway to route the order; the
	// constructors set it. False parks the order in TWS.
	Transmit bool

	ParentID      int64
	BlockOrder    bool
	SweepToFill   bool
	DisplaySize   int64
	TriggerMethod int
	OutsideRTH    bool
	Hidden        bool

	DiscretionaryAmount float64
	GoodAfterTime       string
	GoodTillDate        string
	ModelCode           string
	Rule80A             string
	AllOrNone           bool
	MinQty              int64
	PercentOffset       float64
	TrailStopPrice      float64
	TrailingPercent     float64

	WhatIf           bool
	Solicited        bool
	RandomizeSize    bool
	RandomizePrice   bool
	CashQuantity     float64
	AutoCancelParent bool
}

// MarketOrder returns a DAY market order ready to transmit.
func MarketOrder(action Side, quantity float64) Order {
	return Order{
		Action:    action,
		Quantity:  quantity,
		OrderType: OrderTypeMarket,
		TIF:       TIFDay,
		Transmit:  true,
	}
}

// LimitOrder returns a DAY limit order ready to transmit.
func LimitOrder(action Side, quantity, limit float64) Order {
	return Order{
		Action:     action,
		Quantity:   quantity,
		OrderType:  OrderTypeLimit,
		LimitPrice: limit,
		TIF:        TIFDay,
		Transmit:   true,
	}
}

// StopOrder returns a DAY stop order; stop is carried in AuxPrice.
func StopOrder(action Side, quantity, stop float64) Order {
	return Order{
		Action:    action,
		Quantity:  quantity,
		OrderType: OrderTypeStop,
		AuxPrice:  stop,
		TIF:       TIFDay,
		Transmit:  true,
	}
}

// Validate reports whether the order carries enough to be submitted.
func (o Order) Validate() error {
	switch o.Action {
	case Buy, Sell:
	default:
		return errors.Errorf("order action %q: want BUY or SELL", o.Action)
	}
	if o.Quantity <= 0 {
		return errors.Errorf("order quantity %v: must be positive", o.Quantity)
	}
	switch o.OrderType {
	case "":
		return errors.New("order type is empty")
	case OrderTypeLimit:
		if o.LimitPrice == 0 {
			return errors.New("LMT order without a limit price")
		}
	case OrderTypeStop:
		if o.AuxPrice == 0 {
			return errors.New("STP order without a stop price")
		}
	case OrderTypeStopLimit:
		if o.LimitPrice == 0 || o.AuxPrice == 0 {
			return errors.New("STP LMT order needs both limit and stop prices")
		}
	}
	return nil
}

// encodeTo appends the standard order payload: action followed by the
// fixed executable field sequence. Sections this client does not surface
// (combo legs, FA allocation, BOX/volatility/scale/hedge/algo parameters,
// adjusted stops, MiFID roles) encode as their unset defaults.
func (o Order) encodeTo(m *Outgoing) {
	tif := o.TIF
	if tif == "" {
		tif = TIFDay
	}
	m.String(string(o.Action)).
		Float(o.Quantity).
		String(o.OrderType).
		FloatOrBlank(o.LimitPrice).
		FloatOrBlank(o.AuxPrice).
		String(tif).
		String(o.OCAGroup).
		String(o.Account).
		Blank(). // institutional open/close
		Int(0).  // origin: customer
		String(o.OrderRef).
		Bool(o.Transmit).
		Int(o.ParentID).
		Bool(o.BlockOrder).
		Bool(o.SweepToFill).
		Int(o.DisplaySize).
		Int(int64(o.TriggerMethod)).
		Bool(o.OutsideRTH).
		Bool(o.Hidden).
		// combo legs are omitted entirely for non-BAG contracts
		Blank(). // deprecated shares allocation
		Float(o.DiscretionaryAmount).
		String(o.GoodAfterTime).
		String(o.GoodTillDate).
		BlankN(3). // FA group, method, percentage
		String(o.ModelCode).
		Int(0).  // short sale slot
		Blank(). // designated location
		Int(-1). // exempt code
		Int(int64(o.OCAType)).
		String(o.Rule80A).
		Blank(). // settling firm
		Bool(o.AllOrNone).
		IntOrBlank(o.MinQty).
		FloatOrBlank(o.PercentOffset).
		Bool(false). // eTradeOnly, retired upstream
		Bool(false). // firmQuoteOnly, retired upstream
		Blank().     // NBBO price cap, retired upstream
		Int(0).      // auction strategy
		BlankN(5).   // BOX starting/reference/delta, volatility stock range
		Bool(false). // override percentage constraints
		BlankN(2).   // volatility, volatility type
		BlankN(2).   // delta neutral order type, aux price
		// delta neutral order parameters follow only when the type is set
		Bool(false). // continuous update
		Blank().     // reference price type
		FloatOrBlank(o.TrailStopPrice).
		FloatOrBlank(o.TrailingPercent).
		BlankN(3). // scale initial/subsequent level size, price increment
		// scale order parameters follow only when the increment is set
		Blank().   // scale table
		BlankN(2). // active start, stop time
		Blank().   // hedge type, parameter follows only when set
		Bool(false). // opt out of SMART routing
		BlankN(2).   // clearing account, intent
		Bool(false). // not held
		Bool(false). // no delta neutral contract
		Blank().     // algo strategy, parameters follow only when set
		Blank().     // algo id
		Bool(o.WhatIf).
		Blank(). // misc options
		Bool(o.Solicited).
		Bool(o.RandomizeSize).
		Bool(o.RandomizePrice).
		// pegged-to-benchmark parameters follow only for PEG BENCH
		Int(0).    // condition count
		Blank().   // adjusted order type
		BlankN(5). // trigger price, limit offset, adjusted stop/stop limit/trailing amount
		Int(0).    // adjusted trailing unit: amount
		Blank().   // ext operator
		BlankN(2). // soft dollar tier name, value
		FloatOrBlank(o.CashQuantity).
		BlankN(4).   // MiFID II decision maker/algo, execution trader/algo
		Bool(false). // don't use auto price for hedge
		Bool(false). // OMS container
		Bool(false). // discretionary up to limit price
		Blank().     // price management algorithm unset
		BlankN(2).   // duration, post to ATS
		Bool(o.AutoCancelParent).
		BlankN(2) // advanced error override, manual order time
	// peg-to-mid parameters follow only on IBKRATS routes
}
