package aws

import "github.com/borges12matheus/pipeline-aws-price/extractor/provider"

// ToRawRow keeps a PriceList entry verbatim next to its sku and region.
// Nothing is validated; an undecodable entry yields empty sku and region.
func ToRawRow(raw string) provider.RawRow {
	item := DecodeItem(raw)
	return provider.RawRow{
		Sku:        item.Product.Sku,
		RegionCode: item.Attr(RegionField),
		RawJSON:    raw,
	}
}

// ToRawRows maps and deduplicates a fetched price list by (sku, raw_json).
func ToRawRows(raws []string) []provider.RawRow {
	rows := make([]provider.RawRow, len(raws))
	for i, raw := range raws {
		rows[i] = ToRawRow(raw)
	}
	return provider.DedupRawRows(rows)
}
