package message

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"ibtws/codec"
)

// Event is one decoded inbound update. Tag reports the wire tag the
// event came from, so consumers can switch without reflection.
type Event interface {
	Tag() In
}

// Raw wraps a message with no typed decoding: an unknown tag, or a
// shape the client does not surface. Fields are still split and usable.
type Raw struct {
	Kind   In
	Fields []string
}

func (r Raw) Tag() In { return r.Kind }

// ServerError is an application-level error frame from the gateway.
// RequestID is the request or order the error refers to, or a value
// <= 0 for connection-scoped notices.
type ServerError struct {
	RequestID int64
	Code      int64
	Message   string
	Reject    string // advanced order reject, JSON when present
}

func (e *ServerError) Tag() In { return InErrMsg }

func (e *ServerError) Error() string {
	if e.RequestID > 0 {
		return fmt.Sprintf("server error %d for request %d: %s", e.Code, e.RequestID, e.Message)
	}
	return fmt.Sprintf("server error %d: %s", e.Code, e.Message)
}

// CurrentTime carries the gateway's clock reading.
type CurrentTime struct {
	Time time.Time
}

func (CurrentTime) Tag() In { return InCurrentTime }

// ManagedAccounts lists the account numbers the session controls.
type ManagedAccounts struct {
	Accounts []string
}

func (ManagedAccounts) Tag() In { return InManagedAccts }

// NextValidID carries the first order id the gateway will accept.
type NextValidID struct {
	OrderID int64
}

func (NextValidID) Tag() In { return InNextValidID }

// UserInfo carries the white-branding id of the logged-in user.
type UserInfo struct {
	RequestID       int64
	WhiteBrandingID string
}

func (UserInfo) Tag() In { return InUserInfo }

// TickType identifies what a market data tick measures.
type TickType int64

// Common tick types. The catalog is far larger; unlisted values pass
// through untouched.
const (
	TickBidSize  TickType = 0
	TickBid      TickType = 1
	TickAsk      TickType = 2
	TickAskSize  TickType = 3
	TickLast     TickType = 4
	TickLastSize TickType = 5
	TickHigh     TickType = 6
	TickLow      TickType = 7
	TickVolume   TickType = 8
	TickClose    TickType = 9
	TickOpen     TickType = 14
)

// TickAttrib unpacks the attribute bit mask carried by price ticks.
type TickAttrib struct {
	CanAutoExecute bool
	PastLimit      bool
	PreOpen        bool
}

func tickAttrib(mask int64) TickAttrib {
	return TickAttrib{
		CanAutoExecute: mask&1 != 0,
		PastLimit:      mask&2 != 0,
		PreOpen:        mask&4 != 0,
	}
}

// TickPrice is a price update for a market data subscription. Size is
// the size at that price when the feed pairs them, zero otherwise.
type TickPrice struct {
	RequestID int64
	Type      TickType
	Price     float64
	Size      float64
	Attrib    TickAttrib
}

func (TickPrice) Tag() In { return InTickPrice }

// TickSize is a size-only update.
type TickSize struct {
	RequestID int64
	Type      TickType
	Size      float64
}

func (TickSize) Tag() In { return InTickSize }

// TickGeneric is a numeric tick outside the price/size families.
type TickGeneric struct {
	RequestID int64
	Type      TickType
	Value     float64
}

func (TickGeneric) Tag() In { return InTickGeneric }

// TickString is a text tick (timestamps, realtime volume strings).
type TickString struct {
	RequestID int64
	Type      TickType
	Value     string
}

func (TickString) Tag() In { return InTickString }

// TickSnapshotEnd marks the end of a snapshot market data request.
type TickSnapshotEnd struct {
	RequestID int64
}

func (TickSnapshotEnd) Tag() In { return InTickSnapshotEnd }

// MarketDataClass is the feed variant ticks are served from.
type MarketDataClass int64

const (
	MarketDataLive          MarketDataClass = 1
	MarketDataFrozen        MarketDataClass = 2
	MarketDataDelayed       MarketDataClass = 3
	MarketDataDelayedFrozen MarketDataClass = 4
)

// MarketDataType announces the feed class for subsequent ticks on a
// market data subscription.
type MarketDataType struct {
	RequestID int64
	Class     MarketDataClass
}

func (MarketDataType) Tag() In { return InMarketDataType }

// TickReqParams carries per-subscription feed metadata sent once after
// a market data request.
type TickReqParams struct {
	RequestID           int64
	MinTick             float64
	BBOExchange         string
	SnapshotPermissions int64
}

func (TickReqParams) Tag() In { return InTickReqParams }

// Bar is one aggregated price bar. WAP and Count are zero for bar types
// that do not carry them.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	WAP    float64
	Count  int64
}

// RealTimeBar is one five-second bar on a real time bars subscription.
type RealTimeBar struct {
	RequestID int64
	Bar       Bar
}

func (RealTimeBar) Tag() In { return InRealTimeBars }

// HistoricalBars is the complete answer to a historical bars request;
// every bar arrives in this single frame.
type HistoricalBars struct {
	RequestID int64
	StartDate string
	EndDate   string
	Bars      []Bar
}

func (HistoricalBars) Tag() In { return InHistoricalData }

// HistoricalBarUpdate is a refreshed trailing bar on a keep-up-to-date
// historical bars request.
type HistoricalBarUpdate struct {
	RequestID int64
	Bar       Bar
}

func (HistoricalBarUpdate) Tag() In { return InHistoricalDataUpdate }

// HeadTimestamp is the earliest data point available for an instrument.
type HeadTimestamp struct {
	RequestID int64
	Time      time.Time
}

func (HeadTimestamp) Tag() In { return InHeadTimestamp }

// HistogramEntry is one price level of a histogram answer.
type HistogramEntry struct {
	Price float64
	Size  float64
}

// HistogramData is the complete answer to a histogram request.
type HistogramData struct {
	RequestID int64
	Entries   []HistogramEntry
}

func (HistogramData) Tag() In { return InHistogramData }

// MidpointTick is one historical midpoint observation.
type MidpointTick struct {
	Time  time.Time
	Price float64
	Size  float64
}

// BidAskTick is one historical bid/ask observation.
type BidAskTick struct {
	Time        time.Time
	BidPrice    float64
	AskPrice    float64
	BidSize     float64
	AskSize     float64
	BidPastLow  bool
	AskPastHigh bool
}

// LastTick is one historical trade observation.
type LastTick struct {
	Time              time.Time
	Price             float64
	Size              float64
	Exchange          string
	SpecialConditions string
	PastLimit         bool
	Unreported        bool
}

// HistoricalTicksMidpoint is one chunk of a historical midpoint ticks
// answer; Done marks the final chunk.
type HistoricalTicksMidpoint struct {
	RequestID int64
	Ticks     []MidpointTick
	Done      bool
}

func (HistoricalTicksMidpoint) Tag() In { return InHistoricalTicks }

// HistoricalTicksBidAsk is one chunk of a historical bid/ask ticks answer.
type HistoricalTicksBidAsk struct {
	RequestID int64
	Ticks     []BidAskTick
	Done      bool
}

func (HistoricalTicksBidAsk) Tag() In { return InHistoricalTicksBidAsk }

// HistoricalTicksLast is one chunk of a historical trades answer.
type HistoricalTicksLast struct {
	RequestID int64
	Ticks     []LastTick
	Done      bool
}

func (HistoricalTicksLast) Tag() In { return InHistoricalTicksLast }

// TickByTickTrade is one live trade on a tick-by-tick subscription.
type TickByTickTrade struct {
	RequestID         int64
	Time              time.Time
	Price             float64
	Size              float64
	Exchange          string
	SpecialConditions string
	PastLimit         bool
	Unreported        bool
}

func (TickByTickTrade) Tag() In { return InTickByTick }

// TickByTickBidAsk is one live quote on a tick-by-tick subscription.
type TickByTickBidAsk struct {
	RequestID   int64
	Time        time.Time
	BidPrice    float64
	AskPrice    float64
	BidSize     float64
	AskSize     float64
	BidPastLow  bool
	AskPastHigh bool
}

func (TickByTickBidAsk) Tag() In { return InTickByTick }

// TickByTickMidpoint is one live midpoint on a tick-by-tick subscription.
type TickByTickMidpoint struct {
	RequestID int64
	Time      time.Time
	Price     float64
}

func (TickByTickMidpoint) Tag() In { return InTickByTick }

// Depth operations and sides.
const (
	DepthInsert int64 = 0
	DepthUpdate int64 = 1
	DepthDelete int64 = 2

	DepthSideAsk int64 = 0
	DepthSideBid int64 = 1
)

// MarketDepthUpdate is one change to the aggregated depth book.
type MarketDepthUpdate struct {
	RequestID int64
	Position  int64
	Operation int64
	Side      int64
	Price     float64
	Size      float64
}

func (MarketDepthUpdate) Tag() In { return InMarketDepth }

// MarketDepthL2Update is one change to the market-maker depth book.
type MarketDepthL2Update struct {
	RequestID    int64
	Position     int64
	MarketMaker  string
	Operation    int64
	Side         int64
	Price        float64
	Size         float64
	IsSmartDepth bool
}

func (MarketDepthL2Update) Tag() In { return InMarketDepthL2 }

// DepthMktDataDescription describes one exchange offering depth data.
type DepthMktDataDescription struct {
	Exchange        string
	SecurityType    string
	ListingExchange string
	ServiceDataType string
	AggGroup        int64
}

// MktDepthExchanges lists every exchange depth data can be requested from.
type MktDepthExchanges struct {
	Descriptions []DepthMktDataDescription
}

func (MktDepthExchanges) Tag() In { return InMktDepthExchanges }

// SmartComponent maps one exchange to its single-letter code in SMART
// routing tick strings.
type SmartComponent struct {
	BitNumber int64
	Exchange  string
	Letter    string
}

// SmartComponents is the answer to a smart components request.
type SmartComponents struct {
	RequestID  int64
	Components []SmartComponent
}

func (SmartComponents) Tag() In { return InSmartComponents }

// ContractData carries one instrument matching a contract details request.
type ContractData struct {
	RequestID int64
	Details   ContractDetails
}

func (ContractData) Tag() In { return InContractData }

// ContractDataEnd marks the end of a contract details answer.
type ContractDataEnd struct {
	RequestID int64
}

func (ContractDataEnd) Tag() In { return InContractDataEnd }

// OrderStatus is the gateway's order state snapshot for one order.
type OrderStatus struct {
	OrderID          int64
	Status           string
	Filled           float64
	Remaining        float64
	AverageFillPrice float64
	PermID           int64
	ParentID         int64
	LastFillPrice    float64
	ClientID         int64
	WhyHeld          string
	MarketCapPrice   float64
}

func (OrderStatus) Tag() In { return InOrderStatus }

// OpenOrder echoes a working order's definition. Only the leading
// fields are decoded; the shape carries over a hundred.
type OpenOrder struct {
	OrderID    int64
	Contract   Contract
	Action     string
	Quantity   float64
	OrderType  string
	LimitPrice float64
	AuxPrice   float64
	TIF        string
	Account    string
	ClientID   int64
	PermID     int64
	ParentID   int64
}

func (OpenOrder) Tag() In { return InOpenOrder }

// OpenOrderEnd marks the end of an open orders answer.
type OpenOrderEnd struct{}

func (OpenOrderEnd) Tag() In { return InOpenOrderEnd }

// Execution is one fill report.
type Execution struct {
	ExecID        string
	Time          string
	Account       string
	Exchange      string
	Side          string
	Shares        float64
	Price         float64
	PermID        int64
	ClientID      int64
	Liquidation   int64
	CumQty        float64
	AveragePrice  float64
	OrderRef      string
	EVRule        string
	EVMultiplier  float64
	ModelCode     string
	LastLiquidity int64
}

// ExecutionData reports one execution, solicited by an executions
// request (RequestID set) or pushed for a live order (RequestID -1).
type ExecutionData struct {
	RequestID int64
	OrderID   int64
	Contract  Contract
	Execution Execution
}

func (ExecutionData) Tag() In { return InExecutionData }

// ExecutionDataEnd marks the end of an executions answer.
type ExecutionDataEnd struct {
	RequestID int64
}

func (ExecutionDataEnd) Tag() In { return InExecutionDataEnd }

// CommissionReport carries the commission charged for one execution.
type CommissionReport struct {
	ExecID              string
	Commission          float64
	Currency            string
	RealizedPnL         float64
	Yield               float64
	YieldRedemptionDate int64
}

func (CommissionReport) Tag() In { return InCommissionReport }

// AccountValue is one account attribute on an account updates
// subscription.
type AccountValue struct {
	Key      string
	Value    string
	Currency string
	Account  string
}

func (AccountValue) Tag() In { return InAcctValue }

// PortfolioValue is one portfolio line on an account updates
// subscription.
type PortfolioValue struct {
	Contract      Contract
	Position      float64
	MarketPrice   float64
	MarketValue   float64
	AverageCost   float64
	UnrealizedPnL float64
	RealizedPnL   float64
	Account       string
}

func (PortfolioValue) Tag() In { return InPortfolioValue }

// AccountUpdateTime stamps the most recent account update batch, HH:MM.
type AccountUpdateTime struct {
	Time string
}

func (AccountUpdateTime) Tag() In { return InAcctUpdateTime }

// AccountDownloadEnd marks the end of the initial account updates batch.
type AccountDownloadEnd struct {
	Account string
}

func (AccountDownloadEnd) Tag() In { return InAcctDownloadEnd }

// AccountSummary is one tag/value pair on an account summary
// subscription.
type AccountSummary struct {
	RequestID int64
	Account   string
	Key       string
	Value     string
	Currency  string
}

func (AccountSummary) Tag() In { return InAccountSummary }

// AccountSummaryEnd marks the end of the initial account summary batch.
type AccountSummaryEnd struct {
	RequestID int64
}

func (AccountSummaryEnd) Tag() In { return InAccountSummaryEnd }

// PositionData is one position on a positions subscription.
type PositionData struct {
	Account     string
	Contract    Contract
	Position    float64
	AverageCost float64
}

func (PositionData) Tag() In { return InPositionData }

// PositionEnd marks the end of the initial positions batch.
type PositionEnd struct{}

func (PositionEnd) Tag() In { return InPositionEnd }

// PnL is a profit-and-loss update for a whole account subscription.
type PnL struct {
	RequestID  int64
	Daily      float64
	Unrealized float64
	Realized   float64
}

func (PnL) Tag() In { return InPnL }

// PnLSingle is a profit-and-loss update for one position.
type PnLSingle struct {
	RequestID  int64
	Position   float64
	Daily      float64
	Unrealized float64
	Realized   float64
	Value      float64
}

func (PnLSingle) Tag() In { return InPnLSingle }

// CompletedOrder is one finished order from a completed orders request.
// Like OpenOrder, only the leading fields are decoded.
type CompletedOrder struct {
	Contract   Contract
	Action     string
	Quantity   float64
	OrderType  string
	LimitPrice float64
	AuxPrice   float64
	TIF        string
	Account    string
	PermID     int64
}

func (CompletedOrder) Tag() In { return InCompletedOrder }

// CompletedOrdersEnd marks the end of a completed orders answer.
type CompletedOrdersEnd struct{}

func (CompletedOrdersEnd) Tag() In { return InCompletedOrdersEnd }

// Decode interprets an inbound message as a typed event. Shapes without
// typed decoding come back as Raw. A nil event with nil error means the
// message carried nothing deliverable (price ticks flagged as absent).
func Decode(m *Incoming) (Event, error) {
	r := m.Reader()
	var ev Event
	switch m.Tag {
	case InErrMsg:
		r.Skip(1)
		ev = &ServerError{
			RequestID: r.Int(),
			Code:      r.Int(),
			Message:   r.String(),
			Reject:    r.String(),
		}
	case InCurrentTime:
		r.Skip(1)
		ev = CurrentTime{Time: r.UnixTime()}
	case InManagedAccts:
		r.Skip(1)
		ev = ManagedAccounts{Accounts: splitList(r.String())}
	case InNextValidID:
		r.Skip(1)
		ev = NextValidID{OrderID: r.Int()}
	case InUserInfo:
		ev = UserInfo{RequestID: r.Int(), WhiteBrandingID: r.String()}
	case InTickPrice:
		r.Skip(1)
		t := TickPrice{RequestID: r.Int(), Type: TickType(r.Int()), Price: r.Float(), Size: r.Float()}
		t.Attrib = tickAttrib(r.Int())
		// price -1 and price 0 at size 0 both mean "no data"
		if t.Price == -1 || (t.Price == 0 && t.Size == 0) {
			return nil, r.Err()
		}
		ev = t
	case InTickSize:
		r.Skip(1)
		ev = TickSize{RequestID: r.Int(), Type: TickType(r.Int()), Size: r.Float()}
	case InTickGeneric:
		r.Skip(1)
		ev = TickGeneric{RequestID: r.Int(), Type: TickType(r.Int()), Value: r.Float()}
	case InTickString:
		r.Skip(1)
		ev = TickString{RequestID: r.Int(), Type: TickType(r.Int()), Value: r.String()}
	case InTickSnapshotEnd:
		r.Skip(1)
		ev = TickSnapshotEnd{RequestID: r.Int()}
	case InMarketDataType:
		r.Skip(1)
		ev = MarketDataType{RequestID: r.Int(), Class: MarketDataClass(r.Int())}
	case InTickReqParams:
		ev = TickReqParams{
			RequestID:           r.Int(),
			MinTick:             r.Float(),
			BBOExchange:         r.String(),
			SnapshotPermissions: r.Int(),
		}
	case InRealTimeBars:
		r.Skip(1)
		ev = RealTimeBar{RequestID: r.Int(), Bar: Bar{
			Time:   r.UnixTime(),
			Open:   r.Float(),
			High:   r.Float(),
			Low:    r.Float(),
			Close:  r.Float(),
			Volume: r.Float(),
			WAP:    r.Float(),
			Count:  r.Int(),
		}}
	case InHistoricalData:
		ev = decodeHistoricalBars(r)
	case InHistoricalDataUpdate:
		u := HistoricalBarUpdate{RequestID: r.Int()}
		u.Bar.Count = r.Int()
		u.Bar.Time = parseBarTime(r.String())
		u.Bar.Open = r.Float()
		u.Bar.High = r.Float()
		u.Bar.Low = r.Float()
		u.Bar.Close = r.Float()
		u.Bar.WAP = r.Float()
		u.Bar.Volume = r.Float()
		ev = u
	case InHeadTimestamp:
		ev = HeadTimestamp{RequestID: r.Int(), Time: parseHeadTime(r.String())}
	case InHistogramData:
		h := HistogramData{RequestID: r.Int()}
		n := int(r.Int())
		for i := 0; i < n && r.Err() == nil; i++ {
			h.Entries = append(h.Entries, HistogramEntry{Price: r.Float(), Size: r.Float()})
		}
		ev = h
	case InHistoricalTicks:
		t := HistoricalTicksMidpoint{RequestID: r.Int()}
		n := int(r.Int())
		for i := 0; i < n && r.Err() == nil; i++ {
			tick := MidpointTick{Time: r.UnixTime()}
			r.Skip(1)
			tick.Price = r.Float()
			tick.Size = r.Float()
			t.Ticks = append(t.Ticks, tick)
		}
		t.Done = r.Bool()
		ev = t
	case InHistoricalTicksBidAsk:
		t := HistoricalTicksBidAsk{RequestID: r.Int()}
		n := int(r.Int())
		for i := 0; i < n && r.Err() == nil; i++ {
			tick := BidAskTick{Time: r.UnixTime()}
			mask := r.Int()
			tick.AskPastHigh = mask&1 != 0
			tick.BidPastLow = mask&2 != 0
			tick.BidPrice = r.Float()
			tick.AskPrice = r.Float()
			tick.BidSize = r.Float()
			tick.AskSize = r.Float()
			t.Ticks = append(t.Ticks, tick)
		}
		t.Done = r.Bool()
		ev = t
	case InHistoricalTicksLast:
		t := HistoricalTicksLast{RequestID: r.Int()}
		n := int(r.Int())
		for i := 0; i < n && r.Err() == nil; i++ {
			tick := LastTick{Time: r.UnixTime()}
			mask := r.Int()
			tick.PastLimit = mask&1 != 0
			tick.Unreported = mask&2 != 0
			tick.Price = r.Float()
			tick.Size = r.Float()
			tick.Exchange = r.String()
			tick.SpecialConditions = r.String()
			t.Ticks = append(t.Ticks, tick)
		}
		t.Done = r.Bool()
		ev = t
	case InTickByTick:
		return decodeTickByTick(r)
	case InMarketDepth:
		ev = MarketDepthUpdate{
			RequestID: r.Int(),
			Position:  r.Int(),
			Operation: r.Int(),
			Side:      r.Int(),
			Price:     r.Float(),
			Size:      r.Float(),
		}
	case InMarketDepthL2:
		r.Skip(1)
		ev = MarketDepthL2Update{
			RequestID:    r.Int(),
			Position:     r.Int(),
			MarketMaker:  r.String(),
			Operation:    r.Int(),
			Side:         r.Int(),
			Price:        r.Float(),
			Size:         r.Float(),
			IsSmartDepth: r.Bool(),
		}
	case InMktDepthExchanges:
		var e MktDepthExchanges
		n := int(r.Int())
		for i := 0; i < n && r.Err() == nil; i++ {
			e.Descriptions = append(e.Descriptions, DepthMktDataDescription{
				Exchange:        r.String(),
				SecurityType:    r.String(),
				ListingExchange: r.String(),
				ServiceDataType: r.String(),
				AggGroup:        r.Int(),
			})
		}
		ev = e
	case InSmartComponents:
		s := SmartComponents{RequestID: r.Int()}
		n := int(r.Int())
		for i := 0; i < n && r.Err() == nil; i++ {
			s.Components = append(s.Components, SmartComponent{
				BitNumber: r.Int(),
				Exchange:  r.String(),
				Letter:    r.String(),
			})
		}
		ev = s
	case InContractData:
		ev = decodeContractData(r)
	case InContractDataEnd:
		r.Skip(1)
		ev = ContractDataEnd{RequestID: r.Int()}
	case InOrderStatus:
		ev = OrderStatus{
			OrderID:          r.Int(),
			Status:           r.String(),
			Filled:           r.Float(),
			Remaining:        r.Float(),
			AverageFillPrice: r.Float(),
			PermID:           r.Int(),
			ParentID:         r.Int(),
			LastFillPrice:    r.Float(),
			ClientID:         r.Int(),
			WhyHeld:          r.String(),
			MarketCapPrice:   r.Float(),
		}
	case InOpenOrder:
		o := OpenOrder{OrderID: r.Int(), Contract: readContractBlock(r, false)}
		o.Action = r.String()
		o.Quantity = r.Float()
		o.OrderType = r.String()
		o.LimitPrice = r.Float()
		o.AuxPrice = r.Float()
		o.TIF = r.String()
		r.Skip(1) // oca group
		o.Account = r.String()
		r.Skip(3) // open/close, origin, order ref
		o.ClientID = r.Int()
		o.PermID = r.Int()
		r.Skip(32)
		o.ParentID = r.Int()
		ev = o
	case InOpenOrderEnd:
		ev = OpenOrderEnd{}
	case InExecutionData:
		e := ExecutionData{RequestID: r.Int(), OrderID: r.Int(), Contract: readContractBlock(r, false)}
		e.Execution = Execution{
			ExecID:        r.String(),
			Time:          r.String(),
			Account:       r.String(),
			Exchange:      r.String(),
			Side:          r.String(),
			Shares:        r.Float(),
			Price:         r.Float(),
			PermID:        r.Int(),
			ClientID:      r.Int(),
			Liquidation:   r.Int(),
			CumQty:        r.Float(),
			AveragePrice:  r.Float(),
			OrderRef:      r.String(),
			EVRule:        r.String(),
			EVMultiplier:  r.Float(),
			ModelCode:     r.String(),
			LastLiquidity: r.Int(),
		}
		ev = e
	case InExecutionDataEnd:
		r.Skip(1)
		ev = ExecutionDataEnd{RequestID: r.Int()}
	case InCommissionReport:
		r.Skip(1)
		ev = CommissionReport{
			ExecID:              r.String(),
			Commission:          r.Float(),
			Currency:            r.String(),
			RealizedPnL:         r.Float(),
			Yield:               r.Float(),
			YieldRedemptionDate: r.Int(),
		}
	case InAcctValue:
		r.Skip(1)
		ev = AccountValue{Key: r.String(), Value: r.String(), Currency: r.String(), Account: r.String()}
	case InPortfolioValue:
		r.Skip(1)
		ev = PortfolioValue{
			Contract:      readContractBlock(r, true),
			Position:      r.Float(),
			MarketPrice:   r.Float(),
			MarketValue:   r.Float(),
			AverageCost:   r.Float(),
			UnrealizedPnL: r.Float(),
			RealizedPnL:   r.Float(),
			Account:       r.String(),
		}
	case InAcctUpdateTime:
		r.Skip(1)
		ev = AccountUpdateTime{Time: r.String()}
	case InAcctDownloadEnd:
		r.Skip(1)
		ev = AccountDownloadEnd{Account: r.String()}
	case InAccountSummary:
		r.Skip(1)
		ev = AccountSummary{
			RequestID: r.Int(),
			Account:   r.String(),
			Key:       r.String(),
			Value:     r.String(),
			Currency:  r.String(),
		}
	case InAccountSummaryEnd:
		r.Skip(1)
		ev = AccountSummaryEnd{RequestID: r.Int()}
	case InPositionData:
		r.Skip(1)
		ev = PositionData{
			Account:     r.String(),
			Contract:    readContractBlock(r, false),
			Position:    r.Float(),
			AverageCost: r.Float(),
		}
	case InPositionEnd:
		ev = PositionEnd{}
	case InPnL:
		ev = PnL{RequestID: r.Int(), Daily: r.Float(), Unrealized: r.Float(), Realized: r.Float()}
	case InPnLSingle:
		ev = PnLSingle{
			RequestID:  r.Int(),
			Position:   r.Float(),
			Daily:      r.Float(),
			Unrealized: r.Float(),
			Realized:   r.Float(),
			Value:      r.Float(),
		}
	case InCompletedOrder:
		o := CompletedOrder{Contract: readContractBlock(r, false)}
		o.Action = r.String()
		o.Quantity = r.Float()
		o.OrderType = r.String()
		o.LimitPrice = r.Float()
		o.AuxPrice = r.Float()
		o.TIF = r.String()
		r.Skip(1) // oca group
		o.Account = r.String()
		r.Skip(3) // open/close, origin, order ref
		o.PermID = r.Int()
		ev = o
	case InCompletedOrdersEnd:
		ev = CompletedOrdersEnd{}
	default:
		return Raw{Kind: m.Tag, Fields: m.Fields}, nil
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return ev, nil
}

func decodeHistoricalBars(r *codec.Reader) HistoricalBars {
	h := HistoricalBars{RequestID: r.Int(), StartDate: r.String(), EndDate: r.String()}
	n := int(r.Int())
	for i := 0; i < n && r.Err() == nil; i++ {
		h.Bars = append(h.Bars, Bar{
			Time:   parseBarTime(r.String()),
			Open:   r.Float(),
			High:   r.Float(),
			Low:    r.Float(),
			Close:  r.Float(),
			Volume: r.Float(),
			WAP:    r.Float(),
			Count:  r.Int(),
		})
	}
	return h
}

func decodeTickByTick(r *codec.Reader) (Event, error) {
	id := r.Int()
	kind := r.Int()
	at := r.UnixTime()
	var ev Event
	switch kind {
	case 1, 2: // last, all last
		t := TickByTickTrade{RequestID: id, Time: at, Price: r.Float(), Size: r.Float()}
		mask := r.Int()
		t.PastLimit = mask&1 != 0
		t.Unreported = mask&2 != 0
		t.Exchange = r.String()
		t.SpecialConditions = r.String()
		ev = t
	case 3:
		t := TickByTickBidAsk{
			RequestID: id,
			Time:      at,
			BidPrice:  r.Float(),
			AskPrice:  r.Float(),
			BidSize:   r.Float(),
			AskSize:   r.Float(),
		}
		mask := r.Int()
		t.BidPastLow = mask&1 != 0
		t.AskPastHigh = mask&2 != 0
		ev = t
	case 4:
		ev = TickByTickMidpoint{RequestID: id, Time: at, Price: r.Float()}
	default:
		return nil, errors.Errorf("tick-by-tick kind %d", kind)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return ev, nil
}

func decodeContractData(r *codec.Reader) ContractData {
	d := ContractData{RequestID: r.Int()}
	c := &d.Details.Contract
	c.Symbol = r.String()
	c.SecurityType = r.String()
	c.LastTradeDateOrContractMonth = r.String()
	c.Strike = r.Float()
	c.Right = r.String()
	c.Exchange = r.String()
	c.Currency = r.String()
	c.LocalSymbol = r.String()
	d.Details.MarketName = r.String()
	c.TradingClass = r.String()
	c.ContractID = r.Int()
	d.Details.MinTick = r.Float()
	c.Multiplier = r.String()
	d.Details.OrderTypes = splitList(r.String())
	d.Details.ValidExchanges = splitList(r.String())
	d.Details.PriceMagnifier = r.Int()
	d.Details.UnderContractID = r.Int()
	d.Details.LongName = r.String()
	c.PrimaryExchange = r.String()
	d.Details.ContractMonth = r.String()
	d.Details.Industry = r.String()
	d.Details.Category = r.String()
	d.Details.Subcategory = r.String()
	d.Details.TimeZoneID = r.String()
	d.Details.TradingHours = r.String()
	d.Details.LiquidHours = r.String()
	d.Details.EVRule = r.String()
	d.Details.EVMultiplier = r.Float()
	n := int(r.Int())
	if n > 0 {
		d.Details.SecurityIDs = make(map[string]string, n)
		for i := 0; i < n && r.Err() == nil; i++ {
			k := r.String()
			d.Details.SecurityIDs[k] = r.String()
		}
	}
	d.Details.AggGroup = r.Int()
	d.Details.UnderSymbol = r.String()
	d.Details.UnderSecurityType = r.String()
	d.Details.MarketRuleIDs = r.String()
	d.Details.RealExpirationDate = r.String()
	d.Details.StockType = r.String()
	d.Details.MinSize = r.Float()
	d.Details.SizeIncrement = r.Float()
	d.Details.SuggestedSizeIncrement = r.Float()
	return d
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// parseBarTime reads the datetime of a historical bar, date-only for
// daily and larger bar sizes.
func parseBarTime(s string) time.Time {
	s = strings.Join(strings.Fields(s), " ")
	if t, err := time.Parse("20060102 15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse("20060102", s); err == nil {
		return t
	}
	return time.Time{}
}

// parseHeadTime reads a head timestamp, sent as unix seconds or a
// formatted datetime depending on the requested format.
func parseHeadTime(s string) time.Time {
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0)
	}
	if t, err := time.Parse("20060102-15:04:05", s); err == nil {
		return t
	}
	return parseBarTime(s)
}
