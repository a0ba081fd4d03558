package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
)

// DefaultPricingRegion hosts the Price List Query API endpoint.
const DefaultPricingRegion = "us-east-1"

// SDKClientFactory creates real AWS SDK clients. Implements ClientFactory.
// Region is the endpoint region used for both clients; empty means
// DefaultPricingRegion.
type SDKClientFactory struct {
	Region string
}

func (f *SDKClientFactory) region() string {
	if f.Region == "" {
		return DefaultPricingRegion
	}
	return f.Region
}

func (f *SDKClientFactory) NewPricingClient(ctx context.Context) (pricing.GetProductsAPIClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(f.region()))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for Pricing API [region=%s]: %w", f.region(), err)
	}
	return pricing.NewFromConfig(cfg), nil
}

func (f *SDKClientFactory) NewEC2Client(ctx context.Context) (EC2DescribeRegionsAPI, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(f.region()))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for EC2 [region=%s]: %w", f.region(), err)
	}
	return ec2.NewFromConfig(cfg), nil
}
