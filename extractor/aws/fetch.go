package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	pricingtypes "github.com/aws/aws-sdk-go-v2/service/pricing/types"
	log "github.com/sirupsen/logrus"
)

// RegionField is the catalog attribute used to shard a query by region.
const RegionField = "regionCode"

// Filter is an exact-match (TERM_MATCH) clause on a product attribute.
type Filter struct {
	Field string
	Value string
}

// Query describes a filtered catalog scan.
type Query struct {
	ServiceCode string
	Filters     []Filter
	// Regions shards the scan with one regionCode filter per entry.
	// Empty means a single pass without a region filter.
	Regions []string
	// MaxPages bounds the pages read per region; zero or less means no bound.
	MaxPages int
	// PageSize is sent as MaxResults; zero means MaxResultsPerPage.
	PageSize int32
}

// Page describes one fetched response page.
type Page struct {
	Region string
	Number int
	Items  int
}

// FetchAll runs q against the Price List API and returns every PriceList
// entry in fetch order. Regions are read one after another and the pages of
// a region in sequence, since each page's token comes from the previous one.
// onPage, when not nil, is called after every page. Any page error aborts
// the whole fetch.
func FetchAll(ctx context.Context, client pricing.GetProductsAPIClient, q Query, onPage func(Page)) ([]string, error) {
	if len(q.Regions) == 0 {
		return fetchRegion(ctx, client, q, "", q.Filters, onPage)
	}

	var out []string
	for _, region := range q.Regions {
		filters := make([]Filter, 0, len(q.Filters)+1)
		filters = append(filters, q.Filters...)
		filters = append(filters, Filter{Field: RegionField, Value: region})

		items, err := fetchRegion(ctx, client, q, region, filters, onPage)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return out, nil
}

func fetchRegion(ctx context.Context, client pricing.GetProductsAPIClient, q Query, region string, filters []Filter, onPage func(Page)) ([]string, error) {
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = MaxResultsPerPage
	}

	pag := pricing.NewGetProductsPaginator(
		client,
		&pricing.GetProductsInput{
			ServiceCode:   awssdk.String(q.ServiceCode),
			FormatVersion: awssdk.String(FormatVersion),
			MaxResults:    awssdk.Int32(pageSize),
			Filters:       toSDKFilters(filters),
		},
	)

	var out []string
	for page := 1; pag.HasMorePages(); page++ {
		if q.MaxPages > 0 && page > q.MaxPages {
			log.Debugf("page limit reached [service=%s, region=%s, max-pages=%d]", q.ServiceCode, regionLabel(region), q.MaxPages)
			break
		}
		resp, err := pag.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error while fetching price list [service=%s, region=%s, page=%d]: %w", q.ServiceCode, regionLabel(region), page, err)
		}
		log.Debugf("fetched price list page [service=%s, region=%s, page=%d, items=%d]", q.ServiceCode, regionLabel(region), page, len(resp.PriceList))
		out = append(out, resp.PriceList...)
		if onPage != nil {
			onPage(Page{Region: region, Number: page, Items: len(resp.PriceList)})
		}
	}
	return out, nil
}

func toSDKFilters(filters []Filter) []pricingtypes.Filter {
	out := make([]pricingtypes.Filter, len(filters))
	for i, f := range filters {
		out[i] = pricingtypes.Filter{
			Field: awssdk.String(f.Field),
			Type:  pricingtypes.FilterTypeTermMatch,
			Value: awssdk.String(f.Value),
		}
	}
	return out
}

func regionLabel(region string) string {
	if region == "" {
		return "all"
	}
	return region
}
