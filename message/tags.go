package message

import "strconv"

// In identifies an inbound message shape.
type In int32

// Inbound tags, from the gateway's message catalog.
const (
	InTickPrice              In = 1
	InTickSize               In = 2
	InOrderStatus            In = 3
	InErrMsg                 In = 4
	InOpenOrder              In = 5
	InAcctValue              In = 6
	InPortfolioValue         In = 7
	InAcctUpdateTime         In = 8
	InNextValidID            In = 9
	InContractData           In = 10
	InExecutionData          In = 11
	InMarketDepth            In = 12
	InMarketDepthL2          In = 13
	InNewsBulletins          In = 14
	InManagedAccts           In = 15
	InReceiveFA              In = 16
	InHistoricalData         In = 17
	InBondContractData       In = 18
	InScannerParameters      In = 19
	InScannerData            In = 20
	InTickOptionComputation  In = 21
	InTickGeneric            In = 45
	InTickString             In = 46
	InTickEFP                In = 47
	InCurrentTime            In = 49
	InRealTimeBars           In = 50
	InFundamentalData        In = 51
	InContractDataEnd        In = 52
	InOpenOrderEnd           In = 53
	InAcctDownloadEnd        In = 54
	InExecutionDataEnd       In = 55
	InDeltaNeutralValidation In = 56
	InTickSnapshotEnd        In = 57
	InMarketDataType         In = 58
	InCommissionReport       In = 59
	InPositionData           In = 61
	InPositionEnd            In = 62
	InAccountSummary         In = 63
	InAccountSummaryEnd      In = 64
	InVerifyMessageAPI       In = 65
	InVerifyCompleted        In = 66
	InDisplayGroupList       In = 67
	InDisplayGroupUpdated    In = 68
	InVerifyAndAuthMessage   In = 69
	InVerifyAndAuthCompleted In = 70
	InPositionMulti          In = 71
	InPositionMultiEnd       In = 72
	InAccountUpdateMulti     In = 73
	InAccountUpdateMultiEnd  In = 74
	InSecDefOptParam         In = 75
	InSecDefOptParamEnd      In = 76
	InSoftDollarTiers        In = 77
	InFamilyCodes            In = 78
	InSymbolSamples          In = 79
	InMktDepthExchanges      In = 80
	InTickReqParams          In = 81
	InSmartComponents        In = 82
	InNewsArticle            In = 83
	InTickNews               In = 84
	InNewsProviders          In = 85
	InHistoricalNews         In = 86
	InHistoricalNewsEnd      In = 87
	InHeadTimestamp          In = 88
	InHistogramData          In = 89
	InHistoricalDataUpdate   In = 90
	InRerouteMktDataReq      In = 91
	InRerouteMktDepthReq     In = 92
	InMarketRule             In = 93
	InPnL                    In = 94
	InPnLSingle              In = 95
	InHistoricalTicks        In = 96
	InHistoricalTicksBidAsk  In = 97
	InHistoricalTicksLast    In = 98
	InTickByTick             In = 99
	InOrderBound             In = 100
	InCompletedOrder         In = 101
	InCompletedOrdersEnd     In = 102
	InReplaceFAEnd           In = 103
	InWshMetaData            In = 104
	InWshEventData           In = 105
	InHistoricalSchedule     In = 106
	InUserInfo               In = 107
)

var inNames = map[In]string{
	InTickPrice:              "TickPrice",
	InTickSize:               "TickSize",
	InOrderStatus:            "OrderStatus",
	InErrMsg:                 "ErrMsg",
	InOpenOrder:              "OpenOrder",
	InAcctValue:              "AcctValue",
	InPortfolioValue:         "PortfolioValue",
	InAcctUpdateTime:         "AcctUpdateTime",
	InNextValidID:            "NextValidID",
	InContractData:           "ContractData",
	InExecutionData:          "ExecutionData",
	InMarketDepth:            "MarketDepth",
	InMarketDepthL2:          "MarketDepthL2",
	InNewsBulletins:          "NewsBulletins",
	InManagedAccts:           "ManagedAccts",
	InReceiveFA:              "ReceiveFA",
	InHistoricalData:         "HistoricalData",
	InBondContractData:       "BondContractData",
	InScannerParameters:      "ScannerParameters",
	InScannerData:            "ScannerData",
	InTickOptionComputation:  "TickOptionComputation",
	InTickGeneric:            "TickGeneric",
	InTickString:             "TickString",
	InTickEFP:                "TickEFP",
	InCurrentTime:            "CurrentTime",
	InRealTimeBars:           "RealTimeBars",
	InFundamentalData:        "FundamentalData",
	InContractDataEnd:        "ContractDataEnd",
	InOpenOrderEnd:           "OpenOrderEnd",
	InAcctDownloadEnd:        "AcctDownloadEnd",
	InExecutionDataEnd:       "ExecutionDataEnd",
	InDeltaNeutralValidation: "DeltaNeutralValidation",
	InTickSnapshotEnd:        "TickSnapshotEnd",
	InMarketDataType:         "MarketDataType",
	InCommissionReport:       "CommissionReport",
	InPositionData:           "PositionData",
	InPositionEnd:            "PositionEnd",
	InAccountSummary:         "AccountSummary",
	InAccountSummaryEnd:      "AccountSummaryEnd",
	InVerifyMessageAPI:       "VerifyMessageAPI",
	InVerifyCompleted:        "VerifyCompleted",
	InDisplayGroupList:       "DisplayGroupList",
	InDisplayGroupUpdated:    "DisplayGroupUpdated",
	InVerifyAndAuthMessage:   "VerifyAndAuthMessage",
	InVerifyAndAuthCompleted: "VerifyAndAuthCompleted",
	InPositionMulti:          "PositionMulti",
	InPositionMultiEnd:       "PositionMultiEnd",
	InAccountUpdateMulti:     "AccountUpdateMulti",
	InAccountUpdateMultiEnd:  "AccountUpdateMultiEnd",
	InSecDefOptParam:         "SecDefOptParam",
	InSecDefOptParamEnd:      "SecDefOptParamEnd",
	InSoftDollarTiers:        "SoftDollarTiers",
	InFamilyCodes:            "FamilyCodes",
	InSymbolSamples:          "SymbolSamples",
	InMktDepthExchanges:      "MktDepthExchanges",
	InTickReqParams:          "TickReqParams",
	InSmartComponents:        "SmartComponents",
	InNewsArticle:            "NewsArticle",
	InTickNews:               "TickNews",
	InNewsProviders:          "NewsProviders",
	InHistoricalNews:         "HistoricalNews",
	InHistoricalNewsEnd:      "HistoricalNewsEnd",
	InHeadTimestamp:          "HeadTimestamp",
	InHistogramData:          "HistogramData",
	InHistoricalDataUpdate:   "HistoricalDataUpdate",
	InRerouteMktDataReq:      "RerouteMktDataReq",
	InRerouteMktDepthReq:     "RerouteMktDepthReq",
	InMarketRule:             "MarketRule",
	InPnL:                    "PnL",
	InPnLSingle:              "PnLSingle",
	InHistoricalTicks:        "HistoricalTicks",
	InHistoricalTicksBidAsk:  "HistoricalTicksBidAsk",
	InHistoricalTicksLast:    "HistoricalTicksLast",
	InTickByTick:             "TickByTick",
	InOrderBound:             "OrderBound",
	InCompletedOrder:         "CompletedOrder",
	InCompletedOrdersEnd:     "CompletedOrdersEnd",
	InReplaceFAEnd:           "ReplaceFAEnd",
	InWshMetaData:            "WshMetaData",
	InWshEventData:           "WshEventData",
	InHistoricalSchedule:     "HistoricalSchedule",
	InUserInfo:               "UserInfo",
}

// Known reports whether the tag appears in the catalog.
func (t In) Known() bool {
	_, ok := inNames[t]
	return ok
}

func (t In) String() string {
	if name, ok := inNames[t]; ok {
		return name
	}
	return "In(" + strconv.Itoa(int(t)) + ")"
}

// Out identifies an outbound message shape.
type Out int32

// Outbound tags, from the gateway's message catalog.
const (
	OutReqMktData             Out = 1
	OutCancelMktData          Out = 2
	OutPlaceOrder             Out = 3
	OutCancelOrder            Out = 4
	OutReqOpenOrders          Out = 5
	OutReqAcctData            Out = 6
	OutReqExecutions          Out = 7
	OutReqIDs                 Out = 8
	OutReqContractData        Out = 9
	OutReqMktDepth            Out = 10
	OutCancelMktDepth         Out = 11
	OutReqNewsBulletins       Out = 12
	OutCancelNewsBulletins    Out = 13
	OutSetServerLogLevel      Out = 14
	OutReqAutoOpenOrders      Out = 15
	OutReqAllOpenOrders       Out = 16
	OutReqManagedAccts        Out = 17
	OutReqFA                  Out = 18
	OutReplaceFA              Out = 19
	OutReqHistoricalData      Out = 20
	OutExerciseOptions        Out = 21
	OutReqScannerSubscription Out = 22
	OutCancelScannerSub       Out = 23
	OutReqScannerParameters   Out = 24
	OutCancelHistoricalData   Out = 25
	OutReqCurrentTime         Out = 49
	OutReqRealTimeBars        Out = 50
	OutCancelRealTimeBars     Out = 51
	OutReqFundamentalData     Out = 52
	OutCancelFundamentalData  Out = 53
	OutReqCalcImpliedVolat    Out = 54
	OutReqCalcOptionPrice     Out = 55
	OutCancelCalcImpliedVolat Out = 56
	OutCancelCalcOptionPrice  Out = 57
	OutReqGlobalCancel        Out = 58
	OutReqMarketDataType      Out = 59
	OutReqPositions           Out = 61
	OutReqAccountSummary      Out = 62
	OutCancelAccountSummary   Out = 63
	OutCancelPositions        Out = 64
	OutVerifyRequest          Out = 65
	OutVerifyMessage          Out = 66
	OutQueryDisplayGroups     Out = 67
	OutSubscribeToGroupEvents Out = 68
	OutUpdateDisplayGroup     Out = 69
	OutUnsubscribeFromGroup   Out = 70
	OutStartAPI               Out = 71
	OutVerifyAndAuthRequest   Out = 72
	OutVerifyAndAuthMessage   Out = 73
	OutReqPositionsMulti      Out = 74
	OutCancelPositionsMulti   Out = 75
	OutReqAccountUpdatesMulti Out = 76
	OutCancelAcctUpdatesMulti Out = 77
	OutReqSecDefOptParams     Out = 78
	OutReqSoftDollarTiers     Out = 79
	OutReqFamilyCodes         Out = 80
	OutReqMatchingSymbols     Out = 81
	OutReqMktDepthExchanges   Out = 82
	OutReqSmartComponents     Out = 83
	OutReqNewsArticle         Out = 84
	OutReqNewsProviders       Out = 85
	OutReqHistoricalNews      Out = 86
	OutReqHeadTimestamp       Out = 87
	OutReqHistogramData       Out = 88
	OutCancelHistogramData    Out = 89
	OutCancelHeadTimestamp    Out = 90
	OutReqMarketRule          Out = 91
	OutReqPnL                 Out = 92
	OutCancelPnL              Out = 93
	OutReqPnLSingle           Out = 94
	OutCancelPnLSingle        Out = 95
	OutReqHistoricalTicks     Out = 96
	OutReqTickByTickData      Out = 97
	OutCancelTickByTickData   Out = 98
	OutReqCompletedOrders     Out = 99
	OutReqWshMetaData         Out = 100
	OutCancelWshMetaData      Out = 101
	OutReqWshEventData        Out = 102
	OutCancelWshEventData     Out = 103
	OutReqUserInfo            Out = 104
)

var outNames = map[Out]string{
	OutReqMktData:             "ReqMktData",
	OutCancelMktData:          "CancelMktData",
	OutPlaceOrder:             "PlaceOrder",
	OutCancelOrder:            "CancelOrder",
	OutReqOpenOrders:          "ReqOpenOrders",
	OutReqAcctData:            "ReqAcctData",
	OutReqExecutions:          "ReqExecutions",
	OutReqIDs:                 "ReqIDs",
	OutReqContractData:        "ReqContractData",
	OutReqMktDepth:            "ReqMktDepth",
	OutCancelMktDepth:         "CancelMktDepth",
	OutReqNewsBulletins:       "ReqNewsBulletins",
	OutCancelNewsBulletins:    "CancelNewsBulletins",
	OutSetServerLogLevel:      "SetServerLogLevel",
	OutReqAutoOpenOrders:      "ReqAutoOpenOrders",
	OutReqAllOpenOrders:       "ReqAllOpenOrders",
	OutReqManagedAccts:        "ReqManagedAccts",
	OutReqFA:                  "ReqFA",
	OutReplaceFA:              "ReplaceFA",
	OutReqHistoricalData:      "ReqHistoricalData",
	OutExerciseOptions:        "ExerciseOptions",
	OutReqScannerSubscription: "ReqScannerSubscription",
	OutCancelScannerSub:       "CancelScannerSubscription",
	OutReqScannerParameters:   "ReqScannerParameters",
	OutCancelHistoricalData:   "CancelHistoricalData",
	OutReqCurrentTime:         "ReqCurrentTime",
	OutReqRealTimeBars:        "ReqRealTimeBars",
	OutCancelRealTimeBars:     "CancelRealTimeBars",
	OutReqFundamentalData:     "ReqFundamentalData",
	OutCancelFundamentalData:  "CancelFundamentalData",
	OutReqCalcImpliedVolat:    "ReqCalcImpliedVolat",
	OutReqCalcOptionPrice:     "ReqCalcOptionPrice",
	OutCancelCalcImpliedVolat: "CancelCalcImpliedVolat",
	OutCancelCalcOptionPrice:  "CancelCalcOptionPrice",
	OutReqGlobalCancel:        "ReqGlobalCancel",
	OutReqMarketDataType:      "ReqMarketDataType",
	OutReqPositions:           "ReqPositions",
	OutReqAccountSummary:      "ReqAccountSummary",
	OutCancelAccountSummary:   "CancelAccountSummary",
	OutCancelPositions:        "CancelPositions",
	OutVerifyRequest:          "VerifyRequest",
	OutVerifyMessage:          "VerifyMessage",
	OutQueryDisplayGroups:     "QueryDisplayGroups",
	OutSubscribeToGroupEvents: "SubscribeToGroupEvents",
	OutUpdateDisplayGroup:     "UpdateDisplayGroup",
	OutUnsubscribeFromGroup:   "UnsubscribeFromGroupEvents",
	OutStartAPI:               "StartAPI",
	OutVerifyAndAuthRequest:   "VerifyAndAuthRequest",
	OutVerifyAndAuthMessage:   "VerifyAndAuthMessage",
	OutReqPositionsMulti:      "ReqPositionsMulti",
	OutCancelPositionsMulti:   "CancelPositionsMulti",
	OutReqAccountUpdatesMulti: "ReqAccountUpdatesMulti",
	OutCancelAcctUpdatesMulti: "CancelAccountUpdatesMulti",
	OutReqSecDefOptParams:     "ReqSecDefOptParams",
	OutReqSoftDollarTiers:     "ReqSoftDollarTiers",
	OutReqFamilyCodes:         "ReqFamilyCodes",
	OutReqMatchingSymbols:     "ReqMatchingSymbols",
	OutReqMktDepthExchanges:   "ReqMktDepthExchanges",
	OutReqSmartComponents:     "ReqSmartComponents",
	OutReqNewsArticle:         "ReqNewsArticle",
	OutReqNewsProviders:       "ReqNewsProviders",
	OutReqHistoricalNews:      "ReqHistoricalNews",
	OutReqHeadTimestamp:       "ReqHeadTimestamp",
	OutReqHistogramData:       "ReqHistogramData",
	OutCancelHistogramData:    "CancelHistogramData",
	OutCancelHeadTimestamp:    "CancelHeadTimestamp",
	OutReqMarketRule:          "ReqMarketRule",
	OutReqPnL:                 "ReqPnL",
	OutCancelPnL:              "CancelPnL",
	OutReqPnLSingle:           "ReqPnLSingle",
	OutCancelPnLSingle:        "CancelPnLSingle",
	OutReqHistoricalTicks:     "ReqHistoricalTicks",
	OutReqTickByTickData:      "ReqTickByTickData",
	OutCancelTickByTickData:   "CancelTickByTickData",
	OutReqCompletedOrders:     "ReqCompletedOrders",
	OutReqWshMetaData:         "ReqWshMetaData",
	OutCancelWshMetaData:      "CancelWshMetaData",
	OutReqWshEventData:        "ReqWshEventData",
	OutCancelWshEventData:     "CancelWshEventData",
	OutReqUserInfo:            "ReqUserInfo",
}

func (t Out) String() string {
	if name, ok := outNames[t]; ok {
		return name
	}
	return "Out(" + strconv.Itoa(int(t)) + ")"
}
