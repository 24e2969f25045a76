// Package refdata imports the market-scanner parameter catalog.
//
// The gateway serves the catalog as one large XML document describing
// which instruments can be scanned, where they trade, the available scan
// codes and the filter vocabulary each instrument accepts. It is
// reference data: exported once from the workstation, parsed at startup
// and consulted when composing scanner requests. Nothing here runs on
// the live message path.
package refdata

import (
	"encoding/xml"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// FieldKind classifies the value a filter field accepts.
type FieldKind int

const (
	KindUnknown FieldKind = iota
	KindBool
	KindCombo
	KindContractID
	KindDate
	KindFloat
	KindInt
	KindStringList
	KindSubstringList
)

func (k FieldKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindCombo:
		return "combo"
	case KindContractID:
		return "contract id"
	case KindDate:
		return "date"
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindStringList:
		return "string list"
	case KindSubstringList:
		return "substring list"
	default:
		return "unknown"
	}
}

// Instrument is one scannable instrument class.
type Instrument struct {
	Name                  string
	Type                  string // request code, e.g. "STK"
	SecType               string
	Group                 string
	ShortName             string
	Filters               []string // filter ids this instrument accepts
	FeatureCodes          []string
	CloudScanNotSupported bool
}

// Location is one node of the routing-location tree. Top-level nodes
// carry the instrument types they apply to; descendants inherit them.
type Location struct {
	DisplayName   string
	Code          string // locationCode used in a scanner request
	Instruments   []string
	RouteExchange string
	Access        string
	DelayedOnly   bool
	Children      []Location
}

// ScanType is one scan code, e.g. TOP_PERC_GAIN.
type ScanType struct {
	DisplayName string
	Code        string
	SearchName  string
	Access      string
	Instruments []string // instrument types the scan supports
}

// Filter is one filter definition from the catalog.
type Filter struct {
	ID       string
	Category string
	Access   string
	Fields   []FilterField
}

// FilterField is one input of a filter. Range filters carry a pair
// (above/below) of fields under one id.
type FilterField struct {
	Class       string // catalog class name, see Kind
	Code        string
	CodeNot     string // negated variant, empty when the field has none
	DisplayName string
	Tooltip     string
	Values      []ComboValue
}

// Kind maps the catalog's class name onto a value kind. StringField
// entries carry combo values in the live catalog and classify as combo.
func (f FilterField) Kind() FieldKind {
	switch f.Class {
	case "scanner.filter.BooleanField":
		return KindBool
	case "scanner.filter.ComboField",
		"scanner.filter.ComboField$ConvertedComboField",
		"scanner.filter.StringField":
		return KindCombo
	case "scanner.filter.ConidField":
		return KindContractID
	case "scanner.filter.DateField":
		return KindDate
	case "scanner.filter.DoubleField":
		return KindFloat
	case "scanner.filter.IntField":
		return KindInt
	case "scanner.filter.StringListField":
		return KindStringList
	case "scanner.filter.SubstrListField":
		return KindSubstringList
	default:
		return KindUnknown
	}
}

// ComboValue is one selectable value of a combo field.
type ComboValue struct {
	Code        string
	DisplayName string
	Tooltip     string
	Default     bool
}

// Parameters holds the parsed catalog with lookup indexes.
type Parameters struct {
	Instruments []Instrument
	Locations   []Location // top-level nodes of the location tree
	ScanTypes   []ScanType
	Filters     []Filter

	byType   map[string]int
	byScan   map[string]int
	byFilter map[string]int
}

// Load parses a scanner-parameter document. The document may carry
// several lists of the same element; the canonical one is chosen by its
// varName attribute, matching how the workstation itself reads the file.
func Load(r io.Reader) (*Parameters, error) {
	var doc xmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "refdata: parse scanner parameters")
	}

	p := &Parameters{
		byType:   make(map[string]int),
		byScan:   make(map[string]int),
		byFilter: make(map[string]int),
	}

	for _, in := range pickList(doc.InstrumentLists, "fullInstrumentList") {
		p.Instruments = append(p.Instruments, Instrument{
			Name:                  in.Name,
			Type:                  in.Type,
			SecType:               in.SecType,
			Group:                 in.Group,
			ShortName:             in.ShortName,
			Filters:               splitList(in.Filters, ","),
			FeatureCodes:          splitList(in.FeatureCodes, ","),
			CloudScanNotSupported: in.CloudScanNotSupported == "true",
		})
	}
	for _, loc := range pickTree(doc.LocationTrees, "locationTree") {
		p.Locations = append(p.Locations, convertLocation(loc))
	}
	for _, st := range pickScanList(doc.ScanTypeLists, "scanTypeList") {
		p.ScanTypes = append(p.ScanTypes, ScanType{
			DisplayName: st.DisplayName,
			Code:        st.ScanCode,
			SearchName:  st.SearchName,
			Access:      st.Access,
			Instruments: splitList(st.Instruments, ","),
		})
	}
	for _, f := range pickFilters(doc.FilterLists, "filterList") {
		p.Filters = append(p.Filters, convertFilter(f))
	}

	if len(p.Instruments) == 0 && len(p.Locations) == 0 &&
		len(p.ScanTypes) == 0 && len(p.Filters) == 0 {
		return nil, errors.New("refdata: no scanner catalogs in document")
	}

	for i, in := range p.Instruments {
		p.byType[in.Type] = i
	}
	for i, st := range p.ScanTypes {
		p.byScan[st.Code] = i
	}
	for i, f := range p.Filters {
		p.byFilter[f.ID] = i
	}
	return p, nil
}

// LoadFile parses the catalog from a file on disk.
func LoadFile(path string) (*Parameters, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "refdata: open scanner parameters")
	}
	defer f.Close()
	return Load(f)
}

// Instrument looks up an instrument by its request code, e.g. "STK".
func (p *Parameters) Instrument(typ string) (Instrument, bool) {
	i, ok := p.byType[typ]
	if !ok {
		return Instrument{}, false
	}
	return p.Instruments[i], true
}

// InstrumentTypes returns the known request codes, sorted.
func (p *Parameters) InstrumentTypes() []string {
	types := make([]string, 0, len(p.Instruments))
	for _, in := range p.Instruments {
		types = append(types, in.Type)
	}
	sort.Strings(types)
	return types
}

// ScanType looks up a scan definition by its code.
func (p *Parameters) ScanType(code string) (ScanType, bool) {
	i, ok := p.byScan[code]
	if !ok {
		return ScanType{}, false
	}
	return p.ScanTypes[i], true
}

// ScanCodes returns the codes of every scan supporting the instrument
// type, sorted.
func (p *Parameters) ScanCodes(typ string) []string {
	var codes []string
	for _, st := range p.ScanTypes {
		if contains(st.Instruments, typ) {
			codes = append(codes, st.Code)
		}
	}
	sort.Strings(codes)
	return codes
}

// Filter looks up a filter definition by id.
func (p *Parameters) Filter(id string) (Filter, bool) {
	i, ok := p.byFilter[id]
	if !ok {
		return Filter{}, false
	}
	return p.Filters[i], true
}

// FiltersFor resolves the instrument's filter ids against the catalog.
// Ids the document references but never defines are skipped; the live
// catalog contains a handful of these.
func (p *Parameters) FiltersFor(typ string) []Filter {
	in, ok := p.Instrument(typ)
	if !ok {
		return nil
	}
	var filters []Filter
	for _, id := range in.Filters {
		if f, ok := p.Filter(id); ok {
			filters = append(filters, f)
		}
	}
	return filters
}

// LocationCodes returns every location code usable with the instrument
// type, in tree order.
func (p *Parameters) LocationCodes(typ string) []string {
	var codes []string
	for _, loc := range p.Locations {
		if contains(loc.Instruments, typ) {
			collectCodes(loc, &codes)
		}
	}
	return codes
}

func collectCodes(loc Location, codes *[]string) {
	if loc.Code != "" {
		*codes = append(*codes, loc.Code)
	}
	for _, child := range loc.Children {
		collectCodes(child, codes)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func splitList(s, sep string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func convertLocation(l xmlLocation) Location {
	loc := Location{
		DisplayName:   l.DisplayName,
		Code:          l.LocationCode,
		Instruments:   splitList(l.Instruments, ","),
		RouteExchange: l.RouteExchange,
		Access:        l.Access,
		DelayedOnly:   l.DelayedOnly == "true",
	}
	for _, child := range l.Children {
		loc.Children = append(loc.Children, convertLocation(child))
	}
	return loc
}

func convertFilter(f xmlFilter) Filter {
	out := Filter{ID: f.ID, Category: f.Category, Access: f.Access}
	for _, af := range f.Fields {
		field := FilterField{
			Class:       af.Class,
			Code:        af.Code,
			CodeNot:     af.CodeNot,
			DisplayName: af.DisplayName,
			Tooltip:     af.Tooltip,
		}
		for _, cv := range af.Values {
			field.Values = append(field.Values, ComboValue{
				Code:        cv.Code,
				DisplayName: cv.DisplayName,
				Tooltip:     cv.Tooltip,
				Default:     cv.Default == "true",
			})
		}
		out.Fields = append(out.Fields, field)
	}
	return out
}

// The XML shapes below mirror the workstation's document. Lists repeat
// with different varName attributes; pick* selects the canonical one and
// falls back to the first present.

type xmlDocument struct {
	InstrumentLists []xmlInstrumentList `xml:"InstrumentList"`
	LocationTrees   []xmlLocationTree   `xml:"LocationTree"`
	ScanTypeLists   []xmlScanTypeList   `xml:"ScanTypeList"`
	FilterLists     []xmlFilterList     `xml:"FilterList"`
}

type xmlInstrumentList struct {
	VarName     string          `xml:"varName,attr"`
	Instruments []xmlInstrument `xml:"Instrument"`
}

type xmlInstrument struct {
	Name                  string `xml:"name"`
	Type                  string `xml:"type"`
	SecType               string `xml:"secType"`
	Group                 string `xml:"group"`
	ShortName             string `xml:"shortName"`
	Filters               string `xml:"filters"`
	FeatureCodes          string `xml:"featureCodes"`
	CloudScanNotSupported string `xml:"cloudScanNotSupported"`
}

type xmlLocationTree struct {
	VarName   string        `xml:"varName,attr"`
	Locations []xmlLocation `xml:"Location"`
}

type xmlLocation struct {
	DisplayName   string        `xml:"displayName"`
	LocationCode  string        `xml:"locationCode"`
	Instruments   string        `xml:"instruments"`
	RouteExchange string        `xml:"routeExchange"`
	Access        string        `xml:"access"`
	DelayedOnly   string        `xml:"delayedOnly"`
	Children      []xmlLocation `xml:"LocationTree>Location"`
}

type xmlScanTypeList struct {
	VarName   string        `xml:"varName,attr"`
	ScanTypes []xmlScanType `xml:"ScanType"`
}

type xmlScanType struct {
	DisplayName string `xml:"displayName"`
	ScanCode    string `xml:"scanCode"`
	SearchName  string `xml:"searchName"`
	Access      string `xml:"access"`
	Instruments string `xml:"instruments"`
}

type xmlFilterList struct {
	VarName string      `xml:"varName,attr"`
	Range   []xmlFilter `xml:"RangeFilter"`
	Simple  []xmlFilter `xml:"SimpleFilter"`
	Triple  []xmlFilter `xml:"TripleComboFilter"`
}

type xmlFilter struct {
	ID       string     `xml:"id"`
	Category string     `xml:"category"`
	Access   string     `xml:"access"`
	Fields   []xmlField `xml:"AbstractField"`
}

type xmlField struct {
	Class       string          `xml:"varName,attr"`
	Code        string          `xml:"code"`
	CodeNot     string          `xml:"codeNot"`
	DisplayName string          `xml:"displayName"`
	Tooltip     string          `xml:"tooltip"`
	Values      []xmlComboValue `xml:"ComboValues>ComboValue"`
}

type xmlComboValue struct {
	Code        string `xml:"code"`
	DisplayName string `xml:"displayName"`
	Tooltip     string `xml:"tooltip"`
	Default     string `xml:"default"`
}

func pickList(lists []xmlInstrumentList, want string) []xmlInstrument {
	for _, l := range lists {
		if l.VarName == want {
			return l.Instruments
		}
	}
	if len(lists) > 0 {
		return lists[0].Instruments
	}
	return nil
}

func pickTree(trees []xmlLocationTree, want string) []xmlLocation {
	for _, t := range trees {
		if t.VarName == want {
			return t.Locations
		}
	}
	if len(trees) > 0 {
		return trees[0].Locations
	}
	return nil
}

func pickScanList(lists []xmlScanTypeList, want string) []xmlScanType {
	for _, l := range lists {
		if l.VarName == want {
			return l.ScanTypes
		}
	}
	if len(lists) > 0 {
		return lists[0].ScanTypes
	}
	return nil
}

func pickFilters(lists []xmlFilterList, want string) []xmlFilter {
	for _, l := range lists {
		if l.VarName == want {
			return append(append(append([]xmlFilter{}, l.Range...), l.Simple...), l.Triple...)
		}
	}
	if len(lists) > 0 {
		l := lists[0]
		return append(append(append([]xmlFilter{}, l.Range...), l.Simple...), l.Triple...)
	}
	return nil
}
