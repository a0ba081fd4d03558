package extractor

import (
	"context"
	"fmt"
	"sync"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/pricing"

	"github.com/borges12matheus/pipeline-aws-price/extractor/aws"
)

// mockEC2Client implements aws.EC2DescribeRegionsAPI for testing.
type mockEC2Client struct {
	DescribeRegionsFn func(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
}

func (m *mockEC2Client) DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error) {
	return m.DescribeRegionsFn(ctx, params, optFns...)
}

// mockPricingClient implements pricing.GetProductsAPIClient and records
// every request it receives.
type mockPricingClient struct {
	GetProductsFn func(ctx context.Context, params *pricing.GetProductsInput, optFns ...func(*pricing.Options)) (*pricing.GetProductsOutput, error)

	mu    sync.Mutex
	calls []*pricing.GetProductsInput
}

func (m *mockPricingClient) GetProducts(ctx context.Context, params *pricing.GetProductsInput, optFns ...func(*pricing.Options)) (*pricing.GetProductsOutput, error) {
	m.mu.Lock()
	m.calls = append(m.calls, params)
	m.mu.Unlock()
	return m.GetProductsFn(ctx, params, optFns...)
}

// mockClientFactory implements aws.ClientFactory for testing.
type mockClientFactory struct {
	ec2Client     aws.EC2DescribeRegionsAPI
	ec2Err        error
	pricingClient pricing.GetProductsAPIClient
	pricingErr    error
}

func (f *mockClientFactory) NewEC2Client(ctx context.Context) (aws.EC2DescribeRegionsAPI, error) {
	return f.ec2Client, f.ec2Err
}

func (f *mockClientFactory) NewPricingClient(ctx context.Context) (pricing.GetProductsAPIClient, error) {
	return f.pricingClient, f.pricingErr
}

// staticPricing answers every request with one page holding items.
func staticPricing(items ...string) *mockPricingClient {
	return &mockPricingClient{
		GetProductsFn: func(ctx context.Context, params *pricing.GetProductsInput, optFns ...func(*pricing.Options)) (*pricing.GetProductsOutput, error) {
			return &pricing.GetProductsOutput{PriceList: items}, nil
		},
	}
}

// regionalPricing answers with the items registered for the requested
// regionCode filter.
func regionalPricing(byRegion map[string][]string) *mockPricingClient {
	return &mockPricingClient{
		GetProductsFn: func(ctx context.Context, params *pricing.GetProductsInput, optFns ...func(*pricing.Options)) (*pricing.GetProductsOutput, error) {
			return &pricing.GetProductsOutput{PriceList: byRegion[filterValue(params, aws.RegionField)]}, nil
		},
	}
}

func regionsClient(names ...string) *mockEC2Client {
	return &mockEC2Client{
		DescribeRegionsFn: func(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error) {
			out := &ec2.DescribeRegionsOutput{}
			for _, n := range names {
				out.Regions = append(out.Regions, ec2types.Region{RegionName: awssdk.String(n)})
			}
			return out, nil
		},
	}
}

// computeItem renders a catalog item the way the Price List API returns it.
func computeItem(sku, instanceType, region, vcpu, memory, priceUSD string) string {
	return fmt.Sprintf(`{
  "product": {
    "productFamily": "Compute Instance",
    "sku": %q,
    "attributes": {
      "instanceType": %q,
      "regionCode": %q,
      "location": "Somewhere",
      "operatingSystem": "Linux",
      "tenancy": "Shared",
      "vcpu": %q,
      "memory": %q
    }
  },
  "serviceCode": "AmazonEC2",
  "terms": {
    "OnDemand": {
      "%[1]s.JRTCKXETXF": {
        "sku": %[1]q,
        "offerTermCode": "JRTCKXETXF",
        "priceDimensions": {
          "%[1]s.JRTCKXETXF.6YS6EN2CT7": {
            "unit": "Hrs",
            "pricePerUnit": {"USD": %[6]q}
          }
        }
      }
    }
  }
}`, sku, instanceType, region, vcpu, memory, priceUSD)
}

func filterValue(params *pricing.GetProductsInput, field string) string {
	for _, f := range params.Filters {
		if f.Field != nil && *f.Field == field && f.Value != nil {
			return *f.Value
		}
	}
	return ""
}
