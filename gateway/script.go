package gateway

import (
	"strings"
	"sync"
	"time"

	"ibtws/codec"
	"ibtws/message"
)

// Handler answers one scripted request on a session.
type Handler func(s *Session, req *message.Request)

// Script maps request tags to handlers. Entries may be replaced while the
// gateway serves, so tests can override one tag at a time.
type Script struct {
	mu       sync.RWMutex
	handlers map[message.Out]Handler
}

// NewScript returns an empty script; every request logs as unscripted.
func NewScript() *Script {
	return &Script{handlers: make(map[message.Out]Handler)}
}

// On installs or replaces the handler for a tag.
func (sc *Script) On(tag message.Out, h Handler) *Script {
	sc.mu.Lock()
	sc.handlers[tag] = h
	sc.mu.Unlock()
	return sc
}

func (sc *Script) dispatch(s *Session, req *message.Request) {
	sc.mu.RLock()
	h := sc.handlers[req.Tag]
	sc.mu.RUnlock()
	if h == nil {
		s.logger.Debug("unscripted request", "tag", req.Tag)
		return
	}
	h(s, req)
}

// frame starts a reply with the given inbound tag.
func frame(tag message.In) *codec.Writer {
	w := &codec.Writer{}
	return w.Int(int64(tag))
}

// DefaultScript wires the default handlers: time and account queries,
// market data ticks, bars, depth, contract details, executions, positions,
// account summary, P&L, and a submit-then-fill order lifecycle. Cancels
// are deliberately unscripted; the simulator only sends in response, so
// there is nothing to stop.
func DefaultScript() *Script {
	sc := NewScript()

	sc.On(message.OutReqCurrentTime, func(s *Session, req *message.Request) {
		s.Send(frame(message.InCurrentTime).Int(1).Int(time.Now().Unix()))
	})

	sc.On(message.OutReqManagedAccts, func(s *Session, req *message.Request) {
		s.Send(frame(message.InManagedAccts).Int(1).String(strings.Join(s.gw.accounts, ",")))
	})

	sc.On(message.OutReqIDs, func(s *Session, req *message.Request) {
		s.Send(frame(message.InNextValidID).Int(1).Int(s.gw.nextOrderID.Load()))
	})

	sc.On(message.OutReqUserInfo, func(s *Session, req *message.Request) {
		id := req.Reader().Int()
		s.Send(frame(message.InUserInfo).Int(id).String("IBKR"))
	})

	sc.On(message.OutReqMktData, func(s *Session, req *message.Request) {
		r := req.Reader()
		r.Skip(1) // version
		id := r.Int()
		snapshot := len(req.Fields) > 16 && req.Fields[16] == "1"

		s.Send(frame(message.InTickReqParams).Int(id).Float(0.01).String("9c0001").Int(3))
		s.Send(frame(message.InMarketDataType).Int(1).Int(id).Int(1))
		s.Send(frame(message.InTickPrice).Int(6).Int(id).Int(1).Float(265.5).Float(100).Int(1))
		s.Send(frame(message.InTickSize).Int(6).Int(id).Int(0).Float(100))
		s.Send(frame(message.InTickPrice).Int(6).Int(id).Int(2).Float(265.65).Float(200).Int(1))
		s.Send(frame(message.InTickSize).Int(6).Int(id).Int(3).Float(200))
		if snapshot {
			s.Send(frame(message.InTickSnapshotEnd).Int(1).Int(id))
		}
	})

	sc.On(message.OutReqRealTimeBars, func(s *Session, req *message.Request) {
		r := req.Reader()
		r.Skip(1) // version
		id := r.Int()
		s.Send(frame(message.InRealTimeBars).Int(3).Int(id).
			Int(time.Now().Unix()).
			Float(265.5).Float(265.8).Float(265.4).Float(265.7).
			Float(1250).Float(265.6).Int(48))
	})

	sc.On(message.OutReqTickByTickData, func(s *Session, req *message.Request) {
		id := req.Reader().Int()
		kind := message.TickByTickLast
		if len(req.Fields) > 13 {
			kind = req.Fields[13]
		}
		now := time.Now().Unix()
		switch kind {
		case message.TickByTickQuotes:
			s.Send(frame(message.InTickByTick).Int(id).Int(3).Int(now).
				Float(265.5).Float(265.65).Float(100).Float(200).Int(0))
		case message.TickByTickMid:
			s.Send(frame(message.InTickByTick).Int(id).Int(4).Int(now).Float(265.57))
		case message.TickByTickAllLast:
			s.Send(frame(message.InTickByTick).Int(id).Int(2).Int(now).
				Float(265.6).Float(50).Int(0).String("NASDAQ").Blank())
		default:
			s.Send(frame(message.InTickByTick).Int(id).Int(1).Int(now).
				Float(265.6).Float(50).Int(0).String("NASDAQ").Blank())
		}
	})

	sc.On(message.OutReqMktDepth, func(s *Session, req *message.Request) {
		r := req.Reader()
		r.Skip(1) // version
		id := r.Int()
		s.Send(frame(message.InMarketDepth).Int(id).Int(0).Int(0).Int(0).Float(265.65).Float(200))
		s.Send(frame(message.InMarketDepth).Int(id).Int(0).Int(0).Int(1).Float(265.5).Float(100))
	})

	sc.On(message.OutReqHistoricalData, func(s *Session, req *message.Request) {
		id := req.Reader().Int()
		keepUpToDate := len(req.Fields) > 20 && req.Fields[20] == "1"
		s.Send(frame(message.InHistoricalData).Int(id).
			String("20240102 14:30:00").String("20240102 21:00:00").Int(2).
			String("20240102 14:30:00").Float(265).Float(265.9).Float(264.8).Float(265.5).Float(18200).Float(265.4).Int(512).
			String("20240102 14:31:00").Float(265.5).Float(266.1).Float(265.2).Float(265.8).Float(9400).Float(265.7).Int(301))
		if keepUpToDate {
			s.Send(frame(message.InHistoricalDataUpdate).Int(id).Int(77).
				String("20240102 14:32:00").Float(265.8).Float(266).Float(265.6).Float(265.9).Float(265.85).Float(2100))
		}
	})

	sc.On(message.OutReqHeadTimestamp, func(s *Session, req *message.Request) {
		id := req.Reader().Int()
		s.Send(frame(message.InHeadTimestamp).Int(id).String("1072915200"))
	})

	sc.On(message.OutReqHistogramData, func(s *Session, req *message.Request) {
		id := req.Reader().Int()
		s.Send(frame(message.InHistogramData).Int(id).Int(2).
			Float(265.5).Float(1200).
			Float(266).Float(3400))
	})

	sc.On(message.OutReqHistoricalTicks, func(s *Session, req *message.Request) {
		id := req.Reader().Int()
		what := ""
		if len(req.Fields) > 17 {
			what = req.Fields[17]
		}
		now := time.Now().Unix()
		switch what {
		case message.ShowMidpoint:
			s.Send(frame(message.InHistoricalTicks).Int(id).Int(1).
				Int(now).Int(0).Float(265.57).Float(0).Bool(true))
		case message.ShowBidAsk:
			s.Send(frame(message.InHistoricalTicksBidAsk).Int(id).Int(1).
				Int(now).Int(0).Float(265.5).Float(265.65).Float(100).Float(200).Bool(true))
		default:
			s.Send(frame(message.InHistoricalTicksLast).Int(id).Int(1).
				Int(now).Int(0).Float(265.6).Float(50).String("NASDAQ").Blank().Bool(true))
		}
	})

	sc.On(message.OutReqContractData, func(s *Session, req *message.Request) {
		r := req.Reader()
		r.Skip(1) // version
		id := r.Int()
		conID := r.Int()
		if conID == 0 {
			conID = 265598
		}
		s.Send(contractDataFrame(id, conID, "AAPL"))
		s.Send(frame(message.InContractDataEnd).Int(1).Int(id))
	})

	sc.On(message.OutReqExecutions, func(s *Session, req *message.Request) {
		r := req.Reader()
		r.Skip(1) // version
		id := r.Int()
		s.Send(executionFrame(id, 1, "AAPL", s.gw.accounts[0], "0000e0d5.6555a859.01.01"))
		s.Send(frame(message.InExecutionDataEnd).Int(1).Int(id))
	})

	sc.On(message.OutPlaceOrder, func(s *Session, req *message.Request) {
		r := req.Reader()
		orderID := r.Int()
		s.gw.NoteOrderID(orderID)
		r.Skip(14) // contract and security id block
		r.Skip(1)  // action
		qty := r.Float()
		r.Skip(1) // order type
		price := r.Float()
		permID := orderID + 1000000

		s.Send(orderStatusFrame(orderID, "Submitted", 0, qty, 0, permID, s.ClientID))
		s.Send(orderStatusFrame(orderID, "Filled", qty, 0, price, permID, s.ClientID))
	})

	sc.On(message.OutCancelOrder, func(s *Session, req *message.Request) {
		r := req.Reader()
		r.Skip(1) // version
		orderID := r.Int()
		s.Send(orderStatusFrame(orderID, "Cancelled", 0, 0, 0, orderID+1000000, s.ClientID))
	})

	openOrderEnd := func(s *Session, req *message.Request) {
		s.Send(frame(message.InOpenOrderEnd).Int(1))
	}
	sc.On(message.OutReqOpenOrders, openOrderEnd)
	sc.On(message.OutReqAllOpenOrders, openOrderEnd)

	sc.On(message.OutReqCompletedOrders, func(s *Session, req *message.Request) {
		s.Send(frame(message.InCompletedOrdersEnd))
	})

	sc.On(message.OutReqAcctData, func(s *Session, req *message.Request) {
		r := req.Reader()
		r.Skip(1) // version
		subscribe := r.Bool()
		account := r.String()
		if account == "" {
			account = s.gw.accounts[0]
		}
		if !subscribe {
			return
		}
		s.Send(frame(message.InAcctValue).Int(2).String("NetLiquidation").String("1000000.00").String("USD").String(account))
		s.Send(frame(message.InAcctValue).Int(2).String("BuyingPower").String("4000000.00").String("USD").String(account))
		s.Send(frame(message.InPortfolioValue).Int(8).
			Int(265598).String("AAPL").String("STK").Blank().Float(0).Blank().Blank().
			String("NASDAQ").String("USD").String("AAPL").String("NMS").
			Float(100).Float(265.5).Float(26550).Float(245.3).Float(2020).Float(0).String(account))
		s.Send(frame(message.InAcctUpdateTime).Int(1).String(time.Now().Format("15:04")))
		s.Send(frame(message.InAcctDownloadEnd).Int(1).String(account))
	})

	sc.On(message.OutReqPositions, func(s *Session, req *message.Request) {
		account := s.gw.accounts[0]
		s.Send(frame(message.InPositionData).Int(3).String(account).
			Int(265598).String("AAPL").String("STK").Blank().Float(0).Blank().Blank().
			String("NASDAQ").String("USD").String("AAPL").String("NMS").
			Float(100).Float(245.3))
		s.Send(frame(message.InPositionEnd).Int(1))
	})

	sc.On(message.OutReqAccountSummary, func(s *Session, req *message.Request) {
		r := req.Reader()
		r.Skip(1) // version
		id := r.Int()
		r.Skip(1) // group
		tags := strings.Split(r.String(), ",")
		account := s.gw.accounts[0]
		for _, tag := range tags {
			if tag == "" {
				continue
			}
			s.Send(frame(message.InAccountSummary).Int(1).Int(id).
				String(account).String(tag).String("1000000.00").String("USD"))
		}
		s.Send(frame(message.InAccountSummaryEnd).Int(1).Int(id))
	})

	sc.On(message.OutReqPnL, func(s *Session, req *message.Request) {
		id := req.Reader().Int()
		s.Send(frame(message.InPnL).Int(id).Float(250.5).Float(1200).Float(-75.25))
	})

	sc.On(message.OutReqPnLSingle, func(s *Session, req *message.Request) {
		id := req.Reader().Int()
		s.Send(frame(message.InPnLSingle).Int(id).Float(100).Float(250.5).Float(1200).Float(-75.25).Float(26550))
	})

	sc.On(message.OutReqSmartComponents, func(s *Session, req *message.Request) {
		id := req.Reader().Int()
		s.Send(frame(message.InSmartComponents).Int(id).Int(2).
			Int(1).String("NASDAQ").String("Q").
			Int(2).String("NYSE").String("N"))
	})

	sc.On(message.OutReqMktDepthExchanges, func(s *Session, req *message.Request) {
		s.Send(frame(message.InMktDepthExchanges).Int(2).
			String("ISLAND").String("STK").String("NASDAQ").String("Deep2").Int(1).
			String("NYSE").String("STK").String("NYSE").String("Deep").Int(2))
	})

	return sc
}

// contractDataFrame builds the 39 field contract details reply.
func contractDataFrame(reqID, conID int64, symbol string) *codec.Writer {
	return frame(message.InContractData).Int(reqID).
		String(symbol).String("STK").Blank().Float(0).Blank().
		String("SMART").String("USD").String(symbol).String("NMS").String("NMS").
		Int(conID).Float(0.01).Blank().
		String("LMT,MKT,STP,STP LMT").String("SMART,NASDAQ,NYSE").
		Int(1).Int(0).String("APPLE INC").String("NASDAQ").Blank().
		String("Technology").String("Computers").String("Computers").
		String("US/Eastern").String("20240102:0930-1600").String("20240102:0930-1600").
		Blank().Float(0).
		Int(0). // no security ids
		Int(1).Blank().Blank().String("26,26,26").Blank().String("COMMON").
		Float(1).Float(1).Float(100)
}

// executionFrame builds one fill report: request id, order id, the eleven
// field contract block, then the execution fields.
func executionFrame(reqID, orderID int64, symbol, account, execID string) *codec.Writer {
	return frame(message.InExecutionData).Int(reqID).Int(orderID).
		Int(265598).String(symbol).String("STK").Blank().Float(0).Blank().Blank().
		String("NASDAQ").String("USD").String(symbol).String("NMS").
		String(execID).String("20240102 14:35:02").String(account).
		String("NASDAQ").String("BOT").Float(100).Float(265.5).
		Int(1000001).Int(0).Int(0).Float(100).Float(265.5).
		Blank().Blank().Float(0).Blank().Int(1)
}

func orderStatusFrame(orderID int64, status string, filled, remaining, price float64, permID, clientID int64) *codec.Writer {
	return frame(message.InOrderStatus).Int(orderID).String(status).
		Float(filled).Float(remaining).Float(price).
		Int(permID).Int(0).Float(price).Int(clientID).Blank().Float(0)
}
