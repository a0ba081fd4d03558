package aws

import (
	"regexp"
	"strings"

	"github.com/borges12matheus/pipeline-aws-price/extractor/provider"
)

// Exclusion tells why a catalog item produced no row.
type Exclusion string

const (
	ExcludedNone                 Exclusion = ""
	ExcludedMissingInstanceType  Exclusion = "missing_instance_type"
	ExcludedInstanceTypeFiltered Exclusion = "instance_type_filtered"
	ExcludedMissingHourlyPrice   Exclusion = "missing_hourly_price"
)

// NormalizeStats counts the outcome of a Normalize call.
type NormalizeStats struct {
	Items      int
	Excluded   map[Exclusion]int
	Duplicates int
}

// NormalizeItem maps a catalog item to a flat price row. Items without an
// instance type (data transfer, storage, ...) or without a parseable hourly
// on-demand price are excluded, as are instance types not matching any of
// instanceRegexes when that list is not empty.
func NormalizeItem(item Item, instanceRegexes []*regexp.Regexp) (provider.Row, Exclusion) {
	instanceType := item.Attr("instanceType")
	if instanceType == "" {
		return provider.Row{}, ExcludedMissingInstanceType
	}
	if len(instanceRegexes) > 0 && !provider.IsMatchAny(instanceRegexes, instanceType) {
		return provider.Row{}, ExcludedInstanceTypeFiltered
	}

	price := SelectHourlyPrice(item)
	if !price.Valid {
		return provider.Row{}, ExcludedMissingHourlyPrice
	}

	row := provider.Row{
		Sku:             item.Product.Sku,
		InstanceType:    instanceType,
		Family:          Family(instanceType),
		RegionCode:      item.Attr("regionCode"),
		Location:        item.Attr("location"),
		OperatingSystem: item.Attr("operatingSystem"),
		Tenancy:         item.Attr("tenancy"),
		PriceUSDHour:    price.USD,
		Unit:            price.Unit,
	}
	if vcpu, ok := ParseCount(item.Attr("vcpu")); ok {
		row.VCpu = &vcpu
	}
	if mem, ok := ParseMemoryGiB(item.Attr("memory")); ok {
		row.MemoryGB = &mem
	}
	row.PricePerVCpu = perUnit(row.PriceUSDHour, row.VCpu)
	row.PricePerGB = perUnit(row.PriceUSDHour, row.MemoryGB)
	return row, ExcludedNone
}

// Normalize maps every item and drops exact duplicate rows, keeping the
// first occurrence.
func Normalize(items []Item, instanceRegexes []*regexp.Regexp) ([]provider.Row, NormalizeStats) {
	stats := NormalizeStats{Items: len(items), Excluded: map[Exclusion]int{}}
	rows := make([]provider.Row, 0, len(items))
	for _, item := range items {
		row, excluded := NormalizeItem(item, instanceRegexes)
		if excluded != ExcludedNone {
			stats.Excluded[excluded]++
			continue
		}
		rows = append(rows, row)
	}
	deduped := provider.DedupRows(rows)
	stats.Duplicates = len(rows) - len(deduped)
	return deduped, stats
}

// Family returns the instance family, the part of the type before the first dot.
func Family(instanceType string) string {
	family, _, _ := strings.Cut(instanceType, ".")
	return family
}

func perUnit(price float64, quantity *float64) *float64 {
	if quantity == nil || *quantity <= 0 {
		return nil
	}
	v := price / *quantity
	return &v
}
