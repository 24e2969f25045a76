package message

import "ibtws/codec"

// Contract identifies a tradable instrument. Zero fields encode as blank
// and the gateway resolves the instrument from whatever is present, so
// a symbol/type/exchange/currency tuple or a bare ContractID both work.
type Contract struct {
	ContractID                   int64
	Symbol                       string
	SecurityType                 string // STK, OPT, FUT, CASH, CRYPTO, IND, CMDTY
	LastTradeDateOrContractMonth string // YYYYMM or YYYYMMDD
	Strike                       float64
	Right                        string // C or P
	Multiplier                   string
	Exchange                     string
	PrimaryExchange              string
	Currency                     string
	LocalSymbol                  string
	TradingClass                 string
	IncludeExpired               bool // historical requests only
}

// Stock returns a US stock contract routed through SMART.
func Stock(symbol string) Contract {
	return Contract{Symbol: symbol, SecurityType: "STK", Exchange: "SMART", Currency: "USD"}
}

// Forex returns a currency-pair contract on IDEALPRO, e.g. Forex("EUR", "USD").
func Forex(symbol, currency string) Contract {
	return Contract{Symbol: symbol, SecurityType: "CASH", Exchange: "IDEALPRO", Currency: currency}
}

// Crypto returns a cryptocurrency contract on PAXOS.
func Crypto(symbol string) Contract {
	return Contract{Symbol: symbol, SecurityType: "CRYPTO", Exchange: "PAXOS", Currency: "USD"}
}

// Futures returns a futures contract for the given month (YYYYMM).
func Futures(symbol, exchange, contractMonth string) Contract {
	return Contract{
		Symbol:                       symbol,
		SecurityType:                 "FUT",
		Exchange:                     exchange,
		LastTradeDateOrContractMonth: contractMonth,
		Currency:                     "USD",
	}
}

// encodeTo appends the contract's twelve request fields in wire order.
func (c Contract) encodeTo(m *Outgoing) {
	m.Int(c.ContractID).
		String(c.Symbol).
		String(c.SecurityType).
		String(c.LastTradeDateOrContractMonth).
		FloatOrBlank(c.Strike).
		String(c.Right).
		String(c.Multiplier).
		String(c.Exchange).
		String(c.PrimaryExchange).
		String(c.Currency).
		String(c.LocalSymbol).
		String(c.TradingClass)
}

// encodeToWithExpired appends the contract plus the include-expired flag
// that historical requests carry after the trading class.
func (c Contract) encodeToWithExpired(m *Outgoing) {
	c.encodeTo(m)
	m.Bool(c.IncludeExpired)
}

// readContractBlock reads the eleven-field contract block carried by
// position, portfolio and order messages. The field after the multiplier
// is the exchange, except in portfolio lines where it is the primary
// exchange.
func readContractBlock(r *codec.Reader, primary bool) Contract {
	c := Contract{
		ContractID:                   r.Int(),
		Symbol:                       r.String(),
		SecurityType:                 r.String(),
		LastTradeDateOrContractMonth: r.String(),
		Strike:                       r.Float(),
		Right:                        r.String(),
		Multiplier:                   r.String(),
	}
	if primary {
		c.PrimaryExchange = r.String()
	} else {
		c.Exchange = r.String()
	}
	c.Currency = r.String()
	c.LocalSymbol = r.String()
	c.TradingClass = r.String()
	return c
}

// ContractDetails is the full instrument record returned for a contract
// details request.
type ContractDetails struct {
	Contract               Contract
	MarketName             string
	MinTick                float64
	OrderTypes             []string
	ValidExchanges         []string
	PriceMagnifier         int64
	UnderContractID        int64
	LongName               string
	ContractMonth          string
	Industry               string
	Category               string
	Subcategory            string
	TimeZoneID             string
	TradingHours           string
	LiquidHours            string
	EVRule                 string
	EVMultiplier           float64
	SecurityIDs            map[string]string
	AggGroup               int64
	UnderSymbol            string
	UnderSecurityType      string
	MarketRuleIDs          string
	RealExpirationDate     string
	StockType              string
	MinSize                float64
	SizeIncrement          float64
	SuggestedSizeIncrement float64
}
