package message

import (
	"strconv"
	"strings"
)

// Bar sizes accepted by HistoricalData and understood by the gateway.
const (
	Bar1Sec   = "1 secs"
	Bar5Secs  = "5 secs"
	Bar10Secs = "10 secs"
	Bar15Secs = "15 secs"
	Bar30Secs = "30 secs"
	Bar1Min   = "1 min"
	Bar2Mins  = "2 mins"
	Bar3Mins  = "3 mins"
	Bar5Mins  = "5 mins"
	Bar10Mins = "10 mins"
	Bar15Mins = "15 mins"
	Bar20Mins = "20 mins"
	Bar30Mins = "30 mins"
	Bar1Hour  = "1 hour"
	Bar2Hours = "2 hours"
	Bar3Hours = "3 hours"
	Bar4Hours = "4 hours"
	Bar8Hours = "8 hours"
	Bar1Day   = "1 day"
	Bar1Week  = "1 week"
	Bar1Month = "1 month"
)

// What-to-show values for historical and real-time bar queries.
const (
	ShowTrades               = "TRADES"
	ShowMidpoint             = "MIDPOINT"
	ShowBid                  = "BID"
	ShowAsk                  = "ASK"
	ShowBidAsk               = "BID_ASK"
	ShowHistoricalVolatility = "HISTORICAL_VOLATILITY"
	ShowOptionImpliedVol     = "OPTION_IMPLIED_VOLATILITY"
)

// Tick-by-tick subscription kinds.
const (
	TickByTickLast    = "Last"
	TickByTickAllLast = "AllLast"
	TickByTickQuotes  = "BidAsk"
	TickByTickMid     = "MidPoint"
)

// Generic tick codes for ReqMarketData's additional tick list.
const (
	GenericTickOptionVolume       = 100
	GenericTickOptionOpenInterest = 101
	GenericTickHistoricalVol      = 104
	GenericTickAvgOptionVolume    = 105
	GenericTickOptionImpliedVol   = 106
	GenericTickIndexFuturePremium = 162
	GenericTickMiscStats          = 165
	GenericTickMarkPrice          = 221
	GenericTickAuctionValues      = 225
	GenericTickRTVolume           = 233
	GenericTickShortable          = 236
	GenericTickInventory          = 256
	GenericTickFundamentalRatios  = 258
	GenericTickRTHistoricalVol    = 411
	GenericTickDividends          = 456
)

// Span is a lookback window for historical queries, e.g. "3 D".
type Span string

func SpanSeconds(n int) Span { return Span(strconv.Itoa(n) + " S") }
func SpanDays(n int) Span    { return Span(strconv.Itoa(n) + " D") }
func SpanWeeks(n int) Span   { return Span(strconv.Itoa(n) + " W") }
func SpanMonths(n int) Span  { return Span(strconv.Itoa(n) + " M") }
func SpanYears(n int) Span   { return Span(strconv.Itoa(n) + " Y") }

// HistogramSpan is a lookback period for histogram queries, e.g. "3 days".
type HistogramSpan string

func HistogramSeconds(n int) HistogramSpan { return HistogramSpan(strconv.Itoa(n) + " seconds") }
func HistogramDays(n int) HistogramSpan    { return HistogramSpan(strconv.Itoa(n) + " days") }
func HistogramWeeks(n int) HistogramSpan   { return HistogramSpan(strconv.Itoa(n) + " weeks") }
func HistogramMonths(n int) HistogramSpan  { return HistogramSpan(strconv.Itoa(n) + " months") }
func HistogramYears(n int) HistogramSpan   { return HistogramSpan(strconv.Itoa(n) + " years") }

// Common account summary tags. Any tag name the gateway knows is accepted;
// these cover the standard account window rows.
const (
	TagAccountType         = "AccountType"
	TagNetLiquidation      = "NetLiquidation"
	TagTotalCashValue      = "TotalCashValue"
	TagSettledCash         = "SettledCash"
	TagAccruedCash         = "AccruedCash"
	TagBuyingPower         = "BuyingPower"
	TagEquityWithLoanValue = "EquityWithLoanValue"
	TagGrossPositionValue  = "GrossPositionValue"
	TagInitMarginReq       = "InitMarginReq"
	TagMaintMarginReq      = "MaintMarginReq"
	TagAvailableFunds      = "AvailableFunds"
	TagExcessLiquidity     = "ExcessLiquidity"
	TagCushion             = "Cushion"
	TagDayTradesRemaining  = "DayTradesRemaining"
	TagLeverage            = "Leverage"
)

// ExecutionFilter narrows a ReqExecutions query. Zero-valued fields
// match everything.
type ExecutionFilter struct {
	ClientID     int64
	Account      string
	Symbol       string
	SecurityType string
	Exchange     string
	Side         string
}

// StartAPI announces the client after the handshake. The trailing blank
// is the optional-capabilities field.
func StartAPI(clientID int64) *Outgoing {
	return NewOutgoing(OutStartAPI).Version(2).Int(clientID).Blank()
}

// ReqCurrentTime asks for the gateway's wall clock.
func ReqCurrentTime() *Outgoing {
	return NewOutgoing(OutReqCurrentTime).Version(1)
}

// ReqManagedAccounts asks for the accessible account list.
func ReqManagedAccounts() *Outgoing {
	return NewOutgoing(OutReqManagedAccts).Version(1)
}

// ReqIDs asks the gateway to re-announce the next valid order id. The count
// field is vestigial; the answer is always a single id.
func ReqIDs() *Outgoing {
	return NewOutgoing(OutReqIDs).Version(1).Int(1)
}

// ReqUserInfo asks for the white-branding id of the logged-in user.
func ReqUserInfo(reqID int64) *Outgoing {
	return NewOutgoing(OutReqUserInfo).Int(reqID)
}

// ReqMarketData opens a level 1 tick stream, or a snapshot when snapshot
// is set. genericTicks selects additional tick codes beyond the default
// price and size set.
func ReqMarketData(reqID int64, c Contract, genericTicks []int, snapshot, regulatory bool) *Outgoing {
	m := NewOutgoing(OutReqMktData).Version(11).Int(reqID)
	c.encodeTo(m)
	return m.Bool(false). // no delta neutral contract
				String(joinInts(genericTicks)).
				Bool(snapshot).
				Bool(regulatory).
				Blank() // market data options
}

// CancelMarketData tears down a ReqMarketData stream.
func CancelMarketData(reqID int64) *Outgoing {
	return NewOutgoing(OutCancelMktData).Version(2).Int(reqID)
}

// ReqMarketDataType selects the feed class for subsequent ReqMarketData
// calls.
func ReqMarketDataType(class MarketDataClass) *Outgoing {
	return NewOutgoing(OutReqMarketDataType).Version(1).Int(int64(class))
}

// ReqRealTimeBars opens a 5 second bar stream. Only the 5 second size is
// served.
func ReqRealTimeBars(reqID int64, c Contract, what string, rthOnly bool) *Outgoing {
	m := NewOutgoing(OutReqRealTimeBars).Version(3).Int(reqID)
	c.encodeTo(m)
	return m.Int(5).
		String(what).
		Bool(rthOnly).
		Blank() // real time bar options
}

// CancelRealTimeBars tears down a ReqRealTimeBars stream.
func CancelRealTimeBars(reqID int64) *Outgoing {
	return NewOutgoing(OutCancelRealTimeBars).Version(1).Int(reqID)
}

// ReqTickByTick opens a tick-by-tick stream of the given kind.
// numTicks requests a backfill of historical ticks before the live feed,
// zero for live only.
func ReqTickByTick(reqID int64, c Contract, kind string, numTicks int64, ignoreSize bool) *Outgoing {
	m := NewOutgoing(OutReqTickByTickData).Int(reqID)
	c.encodeTo(m)
	return m.String(kind).Int(numTicks).Bool(ignoreSize)
}

// CancelTickByTick tears down a ReqTickByTick stream.
func CancelTickByTick(reqID int64) *Outgoing {
	return NewOutgoing(OutCancelTickByTickData).Int(reqID)
}

// ReqMarketDepth opens an order book stream with up to rows levels,
// aggregated across SMART components.
func ReqMarketDepth(reqID int64, c Contract, rows int64) *Outgoing {
	m := NewOutgoing(OutReqMktDepth).Version(5).Int(reqID)
	c.encodeTo(m)
	return m.Int(rows).
		Bool(true). // SMART depth
		Blank()     // market depth options
}

// CancelMarketDepth tears down a ReqMarketDepth stream.
func CancelMarketDepth(reqID int64) *Outgoing {
	return NewOutgoing(OutCancelMktDepth).Version(1).Int(reqID)
}

// ReqMktDepthExchanges asks for the venues serving depth data.
func ReqMktDepthExchanges() *Outgoing {
	return NewOutgoing(OutReqMktDepthExchanges)
}

// ReqSmartComponents resolves the exchange map behind a BBO exchange
// code announced by TickReqParams.
func ReqSmartComponents(reqID int64, bboExchange string) *Outgoing {
	return NewOutgoing(OutReqSmartComponents).Int(reqID).String(bboExchange)
}

// ReqHistoricalData asks for bars over span ending at endDateTime,
// formatted "20060102-15:04:05" UTC, or blank for now. With keepUpToDate
// the end time must be blank and the gateway streams updates after the
// initial load.
func ReqHistoricalData(reqID int64, c Contract, endDateTime string, barSize string, span Span, rthOnly bool, what string, keepUpToDate bool) *Outgoing {
	m := NewOutgoing(OutReqHistoricalData).Int(reqID)
	c.encodeToWithExpired(m)
	return m.String(endDateTime).
		String(barSize).
		String(string(span)).
		Bool(rthOnly).
		String(what).
		Int(1). // date format: yyyymmdd
		Bool(keepUpToDate).
		Blank() // chart options
}

// CancelHistoricalData stops a pending or updating ReqHistoricalData.
func CancelHistoricalData(reqID int64) *Outgoing {
	return NewOutgoing(OutCancelHistoricalData).Version(1).Int(reqID)
}

// ReqHeadTimestamp asks for the earliest data point available for the
// contract and data type.
func ReqHeadTimestamp(reqID int64, c Contract, what string, rthOnly bool) *Outgoing {
	m := NewOutgoing(OutReqHeadTimestamp).Int(reqID)
	c.encodeTo(m)
	return m.Blank(). // include expired unset
				Bool(rthOnly).
				String(what).
				Int(1) // date format: yyyymmdd
}

// CancelHeadTimestamp withdraws a pending ReqHeadTimestamp.
func CancelHeadTimestamp(reqID int64) *Outgoing {
	return NewOutgoing(OutCancelHeadTimestamp).Int(reqID)
}

// ReqHistogramData asks for the traded price distribution over period.
func ReqHistogramData(reqID int64, c Contract, rthOnly bool, period HistogramSpan) *Outgoing {
	m := NewOutgoing(OutReqHistogramData).Int(reqID)
	c.encodeTo(m)
	return m.Blank(). // include expired unset
				Bool(rthOnly).
				String(string(period))
}

// CancelHistogramData withdraws a pending ReqHistogramData.
func CancelHistogramData(reqID int64) *Outgoing {
	return NewOutgoing(OutCancelHistogramData).Int(reqID)
}

// ReqHistoricalTicks asks for up to numTicks raw ticks starting at
// startTime or ending at endTime, formatted "20060102-15:04:05" UTC.
// Exactly one of the two should be set.
func ReqHistoricalTicks(reqID int64, c Contract, startTime, endTime string, numTicks int64, what string, rthOnly bool) *Outgoing {
	m := NewOutgoing(OutReqHistoricalTicks).Int(reqID)
	c.encodeTo(m)
	return m.Blank(). // include expired unset
				String(startTime).
				String(endTime).
				Int(numTicks).
				String(what).
				Bool(rthOnly).
				Blank(). // ignore size unset
				Blank()  // misc options
}

// ReqContractData asks for the full contract details behind a contract
// id. The trailing blanks are the by-attribute search fields this client
// does not use.
func ReqContractData(reqID, contractID int64) *Outgoing {
	return NewOutgoing(OutReqContractData).Version(8).Int(reqID).Int(contractID).BlankN(15)
}

// ReqExecutions asks for execution reports matching the filter.
func ReqExecutions(reqID int64, f ExecutionFilter) *Outgoing {
	return NewOutgoing(OutReqExecutions).Version(3).Int(reqID).
		Int(f.ClientID).
		String(f.Account).
		Blank(). // time filter unused
		String(f.Symbol).
		String(f.SecurityType).
		String(f.Exchange).
		String(f.Side)
}

// PlaceOrder submits or modifies the order under orderID. The blank pair
// is the security id type and value.
func PlaceOrder(orderID int64, c Contract, o Order) *Outgoing {
	m := NewOutgoing(OutPlaceOrder).Int(orderID)
	c.encodeTo(m)
	m.BlankN(2)
	o.encodeTo(m)
	return m
}

// CancelOrder withdraws a working order. The trailing blank is the
// manual order cancel time.
func CancelOrder(orderID int64) *Outgoing {
	return NewOutgoing(OutCancelOrder).Version(1).Int(orderID).Blank()
}

// ReqGlobalCancel withdraws every working order across all clients.
func ReqGlobalCancel() *Outgoing {
	return NewOutgoing(OutReqGlobalCancel).Version(1)
}

// ReqOpenOrders asks for the working orders placed by this client.
func ReqOpenOrders() *Outgoing {
	return NewOutgoing(OutReqOpenOrders).Version(1)
}

// ReqAllOpenOrders asks for the working orders across all clients.
func ReqAllOpenOrders() *Outgoing {
	return NewOutgoing(OutReqAllOpenOrders).Version(1)
}

// ReqAutoOpenOrders binds newly created manual orders to this client.
// Only honored for client id 0.
func ReqAutoOpenOrders(autoBind bool) *Outgoing {
	return NewOutgoing(OutReqAutoOpenOrders).Version(1).Bool(autoBind)
}

// ReqCompletedOrders asks for filled and cancelled orders, optionally
// restricted to those placed over the API.
func ReqCompletedOrders(apiOnly bool) *Outgoing {
	return NewOutgoing(OutReqCompletedOrders).Bool(apiOnly)
}

// ReqAccountUpdates subscribes to (or with subscribe false, drops) the
// account value and portfolio feed for one account.
func ReqAccountUpdates(subscribe bool, account string) *Outgoing {
	return NewOutgoing(OutReqAcctData).Version(2).Bool(subscribe).String(account)
}

// ReqPositions subscribes to position updates across all accounts.
func ReqPositions() *Outgoing {
	return NewOutgoing(OutReqPositions).Version(1)
}

// CancelPositions drops the position subscription.
func CancelPositions() *Outgoing {
	return NewOutgoing(OutCancelPositions).Version(1)
}

// ReqPnL subscribes to daily P&L updates for an account. The trailing
// blank is the model code.
func ReqPnL(reqID int64, account string) *Outgoing {
	return NewOutgoing(OutReqPnL).Int(reqID).String(account).Blank()
}

// CancelPnL drops a ReqPnL subscription.
func CancelPnL(reqID int64) *Outgoing {
	return NewOutgoing(OutCancelPnL).Int(reqID)
}

// ReqPnLSingle subscribes to P&L updates for a single position.
func ReqPnLSingle(reqID int64, account string, contractID int64) *Outgoing {
	return NewOutgoing(OutReqPnLSingle).Int(reqID).String(account).Blank().Int(contractID)
}

// CancelPnLSingle drops a ReqPnLSingle subscription.
func CancelPnLSingle(reqID int64) *Outgoing {
	return NewOutgoing(OutCancelPnLSingle).Int(reqID)
}

// ReqAccountSummary subscribes to summary rows for an account group,
// "All" for every account.
func ReqAccountSummary(reqID int64, group string, tags []string) *Outgoing {
	return NewOutgoing(OutReqAccountSummary).Version(1).Int(reqID).
		String(group).
		String(strings.Join(tags, ","))
}

// CancelAccountSummary drops a ReqAccountSummary subscription.
func CancelAccountSummary(reqID int64) *Outgoing {
	return NewOutgoing(OutCancelAccountSummary).Version(1).Int(reqID)
}

func joinInts(ns []int) string {
	if len(ns) == 0 {
		return ""
	}
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
