package lookup

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/ratelimit"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// pageSize is the page size used when describing images.
const pageSize = 100

// EC2API is the subset of the EC2 client used for lookups.
type EC2API interface {
	ec2.DescribeImagesAPIClient
	DescribeAvailabilityZones(ctx context.Context, params *ec2.DescribeAvailabilityZonesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeAvailabilityZonesOutput, error)
}

// STSAPI is the subset of the STS client used to identify the account.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// EC2Provider performs live lookups against the EC2 API.
type EC2Provider struct {
	ec2    EC2API
	sts    STSAPI
	region string

	mu      sync.Mutex
	account string
}

func newRetryer() aws.Retryer {
	return retry.NewStandard(func(o *retry.StandardOptions) {
		o.MaxAttempts = 5
		o.MaxBackoff = 30 * time.Second
		o.Backoff = retry.NewExponentialJitterBackoff(o.MaxBackoff)
		o.RateLimiter = ratelimit.None
	})
}

// NewEC2Provider loads the shared AWS configuration and returns a provider
// for the given region. An empty region falls back to the SDK's resolution
// (AWS_REGION, shared config).
func NewEC2Provider(ctx context.Context, region string) (*EC2Provider, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRetryer(newRetryer),
	}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	if cfg.Region == "" {
		return nil, ErrNoRegion
	}

	return NewEC2ProviderFromClients(ec2.NewFromConfig(cfg), sts.NewFromConfig(cfg), cfg.Region), nil
}

// NewEC2ProviderFromClients returns a provider using the given clients.
func NewEC2ProviderFromClients(ec2Client EC2API, stsClient STSAPI, region string) *EC2Provider {
	return &EC2Provider{
		ec2:    ec2Client,
		sts:    stsClient,
		region: region,
	}
}

// Environment returns the caller's account and the provider's region.
// The account is fetched once.
func (p *EC2Provider) Environment(ctx context.Context) (Environment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.account == "" {
		out, err := p.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
		if err != nil {
			return Environment{}, fmt.Errorf("get caller identity: %w", err)
		}
		p.account = aws.ToString(out.Account)
	}

	return Environment{Account: p.account, Region: p.region}, nil
}

// ResolveImage returns the available images whose name matches key,
// newest first.
func (p *EC2Provider) ResolveImage(ctx context.Context, key string) ([]Image, error) {
	paginator := ec2.NewDescribeImagesPaginator(
		p.ec2,
		&ec2.DescribeImagesInput{
			Filters: []ec2types.Filter{
				{Name: aws.String("name"), Values: []string{key}},
				{Name: aws.String("state"), Values: []string{"available"}},
			},
		},
		func(params *ec2.DescribeImagesPaginatorOptions) {
			params.Limit = int32(pageSize)
			params.StopOnDuplicateToken = true
		},
	)

	images := make([]Image, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe images %q: %w", key, err)
		}
		for _, img := range page.Images {
			images = append(images, Image{
				ID:           aws.ToString(img.ImageId),
				Name:         aws.ToString(img.Name),
				OwnerID:      aws.ToString(img.OwnerId),
				CreationDate: aws.ToString(img.CreationDate),
			})
		}
	}

	sort.SliceStable(images, func(i, j int) bool {
		return images[i].CreationDate > images[j].CreationDate
	})

	return images, nil
}

// AvailabilityZones returns the names of the available zones in the
// provider's region, sorted.
func (p *EC2Provider) AvailabilityZones(ctx context.Context) ([]string, error) {
	out, err := p.ec2.DescribeAvailabilityZones(ctx, &ec2.DescribeAvailabilityZonesInput{
		AllAvailabilityZones: aws.Bool(false),
		Filters: []ec2types.Filter{
			{Name: aws.String("state"), Values: []string{"available"}},
			{Name: aws.String("zone-type"), Values: []string{"availability-zone"}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("describe availability zones in %s: %w", p.region, err)
	}

	zones := make([]string, 0, len(out.AvailabilityZones))
	for _, az := range out.AvailabilityZones {
		zones = append(zones, aws.ToString(az.ZoneName))
	}
	sort.Strings(zones)

	return zones, nil
}
