package message

import "strconv"

// reqIDIndex maps each inbound tag that echoes a correlation id to the
// id's position among the fields after the tag. Shapes that still carry
// a schema version hold the id at position 1; shapes that dropped the
// version lead with it. Tags absent from the table carry no usable id
// and classify by tag alone.
var reqIDIndex = map[In]int{
	// version field first, id second
	InTickPrice:              1,
	InTickSize:               1,
	InErrMsg:                 1,
	InMarketDepthL2:          1,
	InBondContractData:       1,
	InScannerData:            1,
	InTickGeneric:            1,
	InTickString:             1,
	InTickEFP:                1,
	InRealTimeBars:           1,
	InFundamentalData:        1,
	InContractDataEnd:        1,
	InExecutionDataEnd:       1,
	InDeltaNeutralValidation: 1,
	InTickSnapshotEnd:        1,
	InMarketDataType:         1,
	InAccountSummary:         1,
	InAccountSummaryEnd:      1,
	InDisplayGroupList:       1,
	InDisplayGroupUpdated:    1,
	InPositionMulti:          1,
	InPositionMultiEnd:       1,
	InAccountUpdateMulti:     1,
	InAccountUpdateMultiEnd:  1,

	// id first, no version
	InOrderStatus:           0, // order id
	InOpenOrder:             0, // order id
	InExecutionData:         0, // request id; order id follows
	InContractData:          0,
	InMarketDepth:           0,
	InHistoricalData:        0,
	InTickOptionComputation: 0,
	InSecDefOptParam:        0,
	InSecDefOptParamEnd:     0,
	InSoftDollarTiers:       0,
	InSymbolSamples:         0,
	InTickReqParams:         0,
	InSmartComponents:       0,
	InNewsArticle:           0,
	InTickNews:              0,
	InHistoricalNews:        0,
	InHistoricalNewsEnd:     0,
	InHeadTimestamp:         0,
	InHistogramData:         0,
	InHistoricalDataUpdate:  0,
	InRerouteMktDataReq:     0,
	InRerouteMktDepthReq:    0,
	InPnL:                   0,
	InPnLSingle:             0,
	InHistoricalTicks:       0,
	InHistoricalTicksBidAsk: 0,
	InHistoricalTicksLast:   0,
	InTickByTick:            0,
	InWshMetaData:           0,
	InWshEventData:          0,
	InHistoricalSchedule:    0,
	InUserInfo:              0,
}

// RequestID returns the correlation id echoed by the message, when its
// shape carries one. A malformed id field reads as no id; the message
// then falls through to the global sink instead of poisoning routing.
func (m *Incoming) RequestID() (int64, bool) {
	idx, ok := reqIDIndex[m.Tag]
	if !ok || idx >= len(m.Fields) {
		return 0, false
	}
	id, err := strconv.ParseInt(m.Fields[idx], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
