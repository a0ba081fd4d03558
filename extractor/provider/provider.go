package provider

import "regexp"

// ColumnKind is the storage type of a table column.
type ColumnKind int

const (
	KindString ColumnKind = iota
	KindFloat
)

// Column describes one column of a persisted table.
type Column struct {
	Name     string
	Kind     ColumnKind
	Nullable bool
}

// Record is a uniformly-shaped row that a sink can persist. Values returns
// one entry per column: string, float64, or *float64 where nil means absent.
type Record interface {
	Columns() []Column
	Values() []any
}

// Row is a normalized on-demand compute price.
type Row struct {
	Sku             string   `parquet:"sku"`
	InstanceType    string   `parquet:"instanceType"`
	Family          string   `parquet:"family"`
	RegionCode      string   `parquet:"regionCode"`
	Location        string   `parquet:"location"`
	OperatingSystem string   `parquet:"operatingSystem"`
	Tenancy         string   `parquet:"tenancy"`
	VCpu            *float64 `parquet:"vcpu,optional"`
	MemoryGB        *float64 `parquet:"memory_gb,optional"`
	PriceUSDHour    float64  `parquet:"price_usd_hour"`
	Unit            string   `parquet:"unit"`
	PricePerVCpu    *float64 `parquet:"price_per_vcpu,optional"`
	PricePerGB      *float64 `parquet:"price_per_gb,optional"`
}

var rowColumns = []Column{
	{Name: "sku"},
	{Name: "instanceType"},
	{Name: "family"},
	{Name: "regionCode"},
	{Name: "location"},
	{Name: "operatingSystem"},
	{Name: "tenancy"},
	{Name: "vcpu", Kind: KindFloat, Nullable: true},
	{Name: "memory_gb", Kind: KindFloat, Nullable: true},
	{Name: "price_usd_hour", Kind: KindFloat},
	{Name: "unit"},
	{Name: "price_per_vcpu", Kind: KindFloat, Nullable: true},
	{Name: "price_per_gb", Kind: KindFloat, Nullable: true},
}

func (Row) Columns() []Column { return rowColumns }

func (r Row) Values() []any {
	return []any{
		r.Sku,
		r.InstanceType,
		r.Family,
		r.RegionCode,
		r.Location,
		r.OperatingSystem,
		r.Tenancy,
		r.VCpu,
		r.MemoryGB,
		r.PriceUSDHour,
		r.Unit,
		r.PricePerVCpu,
		r.PricePerGB,
	}
}

// RawRow keeps a catalog item verbatim for full fidelity capture.
type RawRow struct {
	Sku        string `parquet:"sku"`
	RegionCode string `parquet:"regionCode"`
	RawJSON    string `parquet:"raw_json"`
}

var rawRowColumns = []Column{
	{Name: "sku"},
	{Name: "regionCode"},
	{Name: "raw_json"},
}

func (RawRow) Columns() []Column { return rawRowColumns }

func (r RawRow) Values() []any {
	return []any{r.Sku, r.RegionCode, r.RawJSON}
}

// optional is the comparable form of a *float64.
type optional struct {
	value float64
	valid bool
}

func optionalOf(p *float64) optional {
	if p == nil {
		return optional{}
	}
	return optional{value: *p, valid: true}
}

type rowKey struct {
	sku, instanceType, family, regionCode, location, operatingSystem, tenancy string
	vcpu, memoryGB                                                            optional
	priceUSDHour                                                              float64
	unit                                                                      string
	pricePerVCpu, pricePerGB                                                  optional
}

func keyOf(r Row) rowKey {
	return rowKey{
		sku:             r.Sku,
		instanceType:    r.InstanceType,
		family:          r.Family,
		regionCode:      r.RegionCode,
		location:        r.Location,
		operatingSystem: r.OperatingSystem,
		tenancy:         r.Tenancy,
		vcpu:            optionalOf(r.VCpu),
		memoryGB:        optionalOf(r.MemoryGB),
		priceUSDHour:    r.PriceUSDHour,
		unit:            r.Unit,
		pricePerVCpu:    optionalOf(r.PricePerVCpu),
		pricePerGB:      optionalOf(r.PricePerGB),
	}
}

// DedupRows drops rows equal in every field to an earlier row.
// First occurrence order is kept.
func DedupRows(rows []Row) []Row {
	seen := make(map[rowKey]struct{}, len(rows))
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		k := keyOf(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// DedupRawRows drops raw rows whose (sku, raw_json) pair was already seen.
func DedupRawRows(rows []RawRow) []RawRow {
	type rawKey struct{ sku, raw string }
	seen := make(map[rawKey]struct{}, len(rows))
	out := make([]RawRow, 0, len(rows))
	for _, r := range rows {
		k := rawKey{r.Sku, r.RawJSON}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Contains reports whether v is present in elems.
func Contains(elems []string, v string) bool {
	for _, s := range elems {
		if v == s {
			return true
		}
	}
	return false
}

// IsMatchAny reports whether text matches any of the regular expressions.
func IsMatchAny(regexList []*regexp.Regexp, text string) bool {
	for _, regex := range regexList {
		if regex.MatchString(text) {
			return true
		}
	}
	return false
}
