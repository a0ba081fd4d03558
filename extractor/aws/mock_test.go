package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	json "github.com/goccy/go-json"
)

// mockEC2Client implements EC2DescribeRegionsAPI for testing.
type mockEC2Client struct {
	DescribeRegionsFn func(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
}

func (m *mockEC2Client) DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error) {
	return m.DescribeRegionsFn(ctx, params, optFns...)
}

// mockPricingClient implements pricing.GetProductsAPIClient for testing.
type mockPricingClient struct {
	GetProductsFn func(ctx context.Context, params *pricing.GetProductsInput, optFns ...func(*pricing.Options)) (*pricing.GetProductsOutput, error)
}

func (m *mockPricingClient) GetProducts(ctx context.Context, params *pricing.GetProductsInput, optFns ...func(*pricing.Options)) (*pricing.GetProductsOutput, error) {
	return m.GetProductsFn(ctx, params, optFns...)
}

// makeItem builds a catalog item with a single on-demand hourly dimension.
func makeItem(sku string, attrs map[string]string, priceUSD string) Item {
	termKey := fmt.Sprintf("%s.JRTCKXETXF", sku)
	return Item{
		Product: Product{
			Sku:           sku,
			ProductFamily: "Compute Instance",
			Attributes:    attrs,
		},
		ServiceCode: ServiceCodeEC2,
		Terms: Terms{
			OnDemand: map[string]OfferTerm{
				termKey: {
					Sku:           sku,
					OfferTermCode: "JRTCKXETXF",
					PriceDimensions: map[string]PriceDimension{
						termKey + ".6YS6EN2CT7": {
							Unit:         "Hrs",
							PricePerUnit: map[string]string{"USD": priceUSD},
						},
					},
				},
			},
		},
	}
}

// makeItemJSON serializes makeItem output the way the Price List API returns it.
func makeItemJSON(sku, instanceType, region, priceUSD string) string {
	item := makeItem(sku, map[string]string{
		"instanceType":    instanceType,
		"regionCode":      region,
		"operatingSystem": "Linux",
		"tenancy":         "Shared",
		"vcpu":            "2",
		"memory":          "8 GiB",
	}, priceUSD)
	b, _ := json.Marshal(item)
	return string(b)
}

// filterValue returns the value of the named filter of a GetProducts call.
func filterValue(params *pricing.GetProductsInput, field string) string {
	for _, f := range params.Filters {
		if f.Field != nil && *f.Field == field && f.Value != nil {
			return *f.Value
		}
	}
	return ""
}
