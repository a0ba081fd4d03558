package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
)

// EC2DescribeRegionsAPI wraps the DescribeRegions call (no SDK paginator interface exists).
type EC2DescribeRegionsAPI interface {
	DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
}

// ClientFactory creates AWS service clients, enabling dependency injection for testing.
type ClientFactory interface {
	NewPricingClient(ctx context.Context) (pricing.GetProductsAPIClient, error)
	NewEC2Client(ctx context.Context) (EC2DescribeRegionsAPI, error)
}
