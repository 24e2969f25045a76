package refdata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Trimmed from a real catalog export: two instrument lists (only the
// full one counts), a nested location tree, scan types and the three
// filter shapes.
const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<ScanParameterResponse>
	<InstrumentList varName="simpleInstrumentList">
		<Instrument>
			<name>Decoy</name>
			<type>DECOY</type>
		</Instrument>
	</InstrumentList>
	<InstrumentList varName="fullInstrumentList">
		<Instrument>
			<name>US Stocks</name>
			<type>STK</type>
			<secType>STK</secType>
			<filters>PRICE,VOLUME,UNLISTED_FILTER</filters>
			<group>STK.GROUP</group>
			<shortName>Stocks</shortName>
			<cloudScanNotSupported>false</cloudScanNotSupported>
			<featureCodes>realtimeOnly,prefmkt</featureCodes>
		</Instrument>
		<Instrument>
			<name>US Futures</name>
			<type>FUT.US</type>
			<secType>FUT</secType>
			<filters>PRICE</filters>
			<shortName>Futures</shortName>
			<cloudScanNotSupported>true</cloudScanNotSupported>
		</Instrument>
	</InstrumentList>
	<LocationTree varName="locationTree">
		<Location>
			<displayName>US Stocks</displayName>
			<locationCode>STK.US</locationCode>
			<instruments>STK</instruments>
			<routeExchange>SMART</routeExchange>
			<LocationTree>
				<Location>
					<displayName>Listed/NASDAQ</displayName>
					<locationCode>STK.US.MAJOR</locationCode>
					<instruments>STK</instruments>
					<LocationTree>
						<Location>
							<displayName>NYSE</displayName>
							<locationCode>STK.NYSE</locationCode>
							<instruments>STK</instruments>
						</Location>
						<Location>
							<displayName>NASDAQ</displayName>
							<locationCode>STK.NASDAQ</locationCode>
							<instruments>STK</instruments>
						</Location>
					</LocationTree>
				</Location>
				<Location>
					<displayName>Pink Sheets</displayName>
					<locationCode>STK.PINK</locationCode>
					<instruments>STK</instruments>
					<delayedOnly>true</delayedOnly>
				</Location>
			</LocationTree>
		</Location>
		<Location>
			<displayName>US Futures</displayName>
			<locationCode>FUT.US</locationCode>
			<instruments>FUT.US</instruments>
		</Location>
	</LocationTree>
	<ScanTypeList varName="scanTypeList">
		<ScanType>
			<displayName>Top % Gainers</displayName>
			<scanCode>TOP_PERC_GAIN</scanCode>
			<instruments>STK,FUT.US</instruments>
			<searchName>gainers</searchName>
			<access>allowed</access>
		</ScanType>
		<ScanType>
			<displayName>Hot by Volume</displayName>
			<scanCode>HOT_BY_VOLUME</scanCode>
			<instruments>STK</instruments>
		</ScanType>
		<ScanType>
			<displayName>High Option Open Interest</displayName>
			<scanCode>HIGH_OPT_OPEN_INTEREST</scanCode>
			<instruments>FUT.US</instruments>
		</ScanType>
	</ScanTypeList>
	<FilterList varName="filterList">
		<RangeFilter>
			<id>PRICE</id>
			<category>basic</category>
			<AbstractField varName="scanner.filter.DoubleField">
				<code>priceAbove</code>
				<codeNot/>
				<displayName>Price Above</displayName>
			</AbstractField>
			<AbstractField varName="scanner.filter.DoubleField">
				<code>priceBelow</code>
				<displayName>Price Below</displayName>
			</AbstractField>
		</RangeFilter>
		<RangeFilter>
			<id>VOLUME</id>
			<category>basic</category>
			<AbstractField varName="scanner.filter.IntField">
				<code>volumeAbove</code>
				<displayName>Volume Above</displayName>
			</AbstractField>
		</RangeFilter>
		<SimpleFilter>
			<id>MOODY_RATING</id>
			<category>bond</category>
			<AbstractField varName="scanner.filter.ComboField">
				<code>moodyRatingAbove</code>
				<codeNot>moodyRatingBelow</codeNot>
				<displayName>Moody Rating</displayName>
				<ComboValues>
					<ComboValue>
						<code></code>
						<displayName>All</displayName>
						<default>true</default>
					</ComboValue>
					<ComboValue>
						<code>AAA</code>
						<displayName>Aaa</displayName>
						<default>false</default>
					</ComboValue>
					<ComboValue>
						<code>AA1</code>
						<displayName>Aa1</displayName>
						<default>false</default>
					</ComboValue>
				</ComboValues>
			</AbstractField>
		</SimpleFilter>
	</FilterList>
</ScanParameterResponse>`

func load(t *testing.T) *Parameters {
	t.Helper()
	p, err := Load(strings.NewReader(sampleXML))
	require.NoError(t, err)
	return p
}

func TestLoadSelectsCanonicalLists(t *testing.T) {
	p := load(t)
	require.Len(t, p.Instruments, 2)
	_, ok := p.Instrument("DECOY")
	assert.False(t, ok, "instrument from the non-canonical list leaked through")
}

func TestInstrumentLookup(t *testing.T) {
	p := load(t)

	stk, ok := p.Instrument("STK")
	require.True(t, ok)
	assert.Equal(t, "US Stocks", stk.Name)
	assert.Equal(t, []string{"PRICE", "VOLUME", "UNLISTED_FILTER"}, stk.Filters)
	assert.Equal(t, []string{"realtimeOnly", "prefmkt"}, stk.FeatureCodes)
	assert.False(t, stk.CloudScanNotSupported)

	fut, ok := p.Instrument("FUT.US")
	require.True(t, ok)
	assert.True(t, fut.CloudScanNotSupported)
	assert.Nil(t, fut.FeatureCodes)

	assert.Equal(t, []string{"FUT.US", "STK"}, p.InstrumentTypes())
}

func TestLocationTree(t *testing.T) {
	p := load(t)
	require.Len(t, p.Locations, 2)

	us := p.Locations[0]
	assert.Equal(t, "STK.US", us.Code)
	assert.Equal(t, "SMART", us.RouteExchange)
	require.Len(t, us.Children, 2)

	major := us.Children[0]
	assert.Equal(t, "STK.US.MAJOR", major.Code)
	require.Len(t, major.Children, 2)
	assert.Equal(t, "STK.NYSE", major.Children[0].Code)

	pink := us.Children[1]
	assert.True(t, pink.DelayedOnly)
	assert.Empty(t, pink.Children)
}

func TestLocationCodesWalkInTreeOrder(t *testing.T) {
	p := load(t)
	assert.Equal(t,
		[]string{"STK.US", "STK.US.MAJOR", "STK.NYSE", "STK.NASDAQ", "STK.PINK"},
		p.LocationCodes("STK"))
	assert.Equal(t, []string{"FUT.US"}, p.LocationCodes("FUT.US"))
	assert.Nil(t, p.LocationCodes("BOND"))
}

func TestScanCodes(t *testing.T) {
	p := load(t)
	assert.Equal(t, []string{"HOT_BY_VOLUME", "TOP_PERC_GAIN"}, p.ScanCodes("STK"))
	assert.Equal(t, []string{"HIGH_OPT_OPEN_INTEREST", "TOP_PERC_GAIN"}, p.ScanCodes("FUT.US"))

	st, ok := p.ScanType("TOP_PERC_GAIN")
	require.True(t, ok)
	assert.Equal(t, "Top % Gainers", st.DisplayName)
	assert.Equal(t, "gainers", st.SearchName)
	assert.Equal(t, []string{"STK", "FUT.US"}, st.Instruments)
}

func TestFilterDefinitions(t *testing.T) {
	p := load(t)

	price, ok := p.Filter("PRICE")
	require.True(t, ok)
	require.Len(t, price.Fields, 2)
	assert.Equal(t, "priceAbove", price.Fields[0].Code)
	assert.Equal(t, "", price.Fields[0].CodeNot)
	assert.Equal(t, KindFloat, price.Fields[0].Kind())
	assert.Equal(t, KindFloat, price.Fields[1].Kind())

	volume, ok := p.Filter("VOLUME")
	require.True(t, ok)
	assert.Equal(t, KindInt, volume.Fields[0].Kind())

	moody, ok := p.Filter("MOODY_RATING")
	require.True(t, ok)
	require.Len(t, moody.Fields, 1)
	f := moody.Fields[0]
	assert.Equal(t, KindCombo, f.Kind())
	assert.Equal(t, "moodyRatingBelow", f.CodeNot)
	require.Len(t, f.Values, 3)
	assert.True(t, f.Values[0].Default)
	assert.Equal(t, "AAA", f.Values[1].Code)
	assert.False(t, f.Values[1].Default)
}

func TestFiltersForSkipsUndefinedIDs(t *testing.T) {
	p := load(t)
	filters := p.FiltersFor("STK")
	require.Len(t, filters, 2, "the catalog references UNLISTED_FILTER without defining it")
	assert.Equal(t, "PRICE", filters[0].ID)
	assert.Equal(t, "VOLUME", filters[1].ID)
	assert.Nil(t, p.FiltersFor("BOND"))
}

func TestFieldKindUnknownClass(t *testing.T) {
	f := FilterField{Class: "scanner.filter.FancyNewField"}
	assert.Equal(t, KindUnknown, f.Kind())
	assert.Equal(t, "unknown", f.Kind().String())
}

func TestLoadRejectsEmptyDocument(t *testing.T) {
	_, err := Load(strings.NewReader("<ScanParameterResponse/>"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scanner catalogs")

	_, err = Load(strings.NewReader("<a><b></a>"))
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan_params.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleXML), 0o644))

	p, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, p.Instruments, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.xml"))
	require.Error(t, err)
}
