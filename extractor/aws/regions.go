package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

// ListRegions returns the names of the regions enabled for the account.
func ListRegions(ctx context.Context, client EC2DescribeRegionsAPI) ([]string, error) {
	out, err := client.DescribeRegions(ctx, &ec2.DescribeRegionsInput{AllRegions: awssdk.Bool(false)})
	if err != nil {
		return nil, fmt.Errorf("couldn't describe regions: %w", err)
	}

	regions := make([]string, 0, len(out.Regions))
	for _, region := range out.Regions {
		if region.RegionName == nil {
			continue
		}
		regions = append(regions, *region.RegionName)
	}
	return regions, nil
}
