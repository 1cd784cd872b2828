package lookup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEC2 struct {
	mu          sync.Mutex
	images      []ec2types.Image
	zones       []string
	err         error
	imageCalls  int
	lastFilters []ec2types.Filter
}

func (f *fakeEC2) DescribeImages(_ context.Context, in *ec2.DescribeImagesInput, _ ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imageCalls++
	f.lastFilters = in.Filters
	if f.err != nil {
		return nil, f.err
	}
	return &ec2.DescribeImagesOutput{Images: f.images}, nil
}

func (f *fakeEC2) DescribeAvailabilityZones(context.Context, *ec2.DescribeAvailabilityZonesInput, ...func(*ec2.Options)) (*ec2.DescribeAvailabilityZonesOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := &ec2.DescribeAvailabilityZonesOutput{}
	for _, z := range f.zones {
		out.AvailabilityZones = append(out.AvailabilityZones, ec2types.AvailabilityZone{ZoneName: aws.String(z)})
	}
	return out, nil
}

type fakeSTS struct {
	calls int
}

func (f *fakeSTS) GetCallerIdentity(context.Context, *sts.GetCallerIdentityInput, ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	f.calls++
	return &sts.GetCallerIdentityOutput{Account: aws.String("111122223333")}, nil
}

func testEnv() Environment {
	return Environment{Account: "111122223333", Region: "eu-west-1"}
}

func TestContextKeys(t *testing.T) {
	env := testEnv()
	assert.Equal(t, "ami:account=111122223333:filters.image-name.0=nginx-server:region=eu-west-1", ImageKey(env, "nginx-server"))
	assert.Equal(t, "availability-zones:account=111122223333:region=eu-west-1", AZKey(env))
	assert.Equal(t, "aws://111122223333/eu-west-1", env.String())
}

func TestEC2Provider_ResolveImage(t *testing.T) {
	fake := &fakeEC2{images: []ec2types.Image{
		{ImageId: aws.String("ami-old"), Name: aws.String("nginx-server"), CreationDate: aws.String("2023-01-01T00:00:00.000Z")},
		{ImageId: aws.String("ami-new"), Name: aws.String("nginx-server"), CreationDate: aws.String("2024-01-01T00:00:00.000Z")},
	}}
	provider := NewEC2ProviderFromClients(fake, &fakeSTS{}, "eu-west-1")

	images, err := provider.ResolveImage(context.Background(), "nginx-server")
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "ami-new", images[0].ID)

	require.NotEmpty(t, fake.lastFilters)
	assert.Equal(t, "name", aws.ToString(fake.lastFilters[0].Name))
	assert.Equal(t, []string{"nginx-server"}, fake.lastFilters[0].Values)
}

func TestEC2Provider_ResolveImage_Error(t *testing.T) {
	fake := &fakeEC2{err: errors.New("access denied")}
	provider := NewEC2ProviderFromClients(fake, &fakeSTS{}, "eu-west-1")

	_, err := provider.ResolveImage(context.Background(), "nginx-server")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestEC2Provider_AvailabilityZones(t *testing.T) {
	fake := &fakeEC2{zones: []string{"eu-west-1b", "eu-west-1a"}}
	provider := NewEC2ProviderFromClients(fake, &fakeSTS{}, "eu-west-1")

	zones, err := provider.AvailabilityZones(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"eu-west-1a", "eu-west-1b"}, zones)
}

func TestEC2Provider_Environment(t *testing.T) {
	stsClient := &fakeSTS{}
	provider := NewEC2ProviderFromClients(&fakeEC2{}, stsClient, "eu-west-1")

	env, err := provider.Environment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testEnv(), env)

	_, err = provider.Environment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stsClient.calls)
}

func TestContextFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultContextFile)

	cf, err := LoadContextFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cf.Len())

	require.NoError(t, cf.Set("availability-zones:account=1:region=r", []string{"ra", "rb"}))
	require.NoError(t, cf.Save())

	reloaded, err := LoadContextFile(path)
	require.NoError(t, err)

	var zones []string
	found, err := reloaded.Get("availability-zones:account=1:region=r", &zones)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"ra", "rb"}, zones)
	assert.Equal(t, `["ra","rb"]`, reloaded.Raw("availability-zones:account=1:region=r"))
}

func TestContextFile_DeleteAndClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultContextFile)
	cf, err := LoadContextFile(path)
	require.NoError(t, err)

	require.NoError(t, cf.Set("b", 1))
	require.NoError(t, cf.Set("a", 2))
	assert.Equal(t, []string{"a", "b"}, cf.Keys())

	assert.True(t, cf.Delete("a"))
	assert.False(t, cf.Delete("a"))

	cf.Clear()
	assert.Equal(t, 0, cf.Len())
	require.NoError(t, cf.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestContextFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultContextFile)
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	_, err := LoadContextFile(path)
	assert.Error(t, err)
}

func TestCachedProvider_RecordsLiveAnswers(t *testing.T) {
	cf, err := LoadContextFile(filepath.Join(t.TempDir(), DefaultContextFile))
	require.NoError(t, err)

	fake := &fakeEC2{images: []ec2types.Image{{ImageId: aws.String("ami-1"), Name: aws.String("nginx-server")}}}
	live := NewEC2ProviderFromClients(fake, &fakeSTS{}, "eu-west-1")
	provider := NewCachedProvider(testEnv(), live, cf, nil)

	images, err := provider.ResolveImage(context.Background(), "nginx-server")
	require.NoError(t, err)
	require.Len(t, images, 1)

	_, err = provider.ResolveImage(context.Background(), "nginx-server")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.imageCalls)

	assert.Contains(t, cf.Keys(), ImageKey(testEnv(), "nginx-server"))
}

func TestCachedProvider_DoesNotRecordEmptyAnswers(t *testing.T) {
	cf, err := LoadContextFile(filepath.Join(t.TempDir(), DefaultContextFile))
	require.NoError(t, err)

	live := NewEC2ProviderFromClients(&fakeEC2{}, &fakeSTS{}, "eu-west-1")
	provider := NewCachedProvider(testEnv(), live, cf, nil)

	images, err := provider.ResolveImage(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, images)
	assert.Equal(t, 0, cf.Len())
}

func TestCachedProvider_Offline(t *testing.T) {
	cf, err := LoadContextFile(filepath.Join(t.TempDir(), DefaultContextFile))
	require.NoError(t, err)

	provider := NewCachedProvider(testEnv(), NewStaticProvider(), cf, nil)

	_, err = provider.ResolveImage(context.Background(), "nginx-server")
	assert.True(t, errors.Is(err, ErrLookupDisabled))

	zones, err := provider.AvailabilityZones(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"dummy1a", "dummy1b"}, zones)
	assert.Equal(t, 0, cf.Len(), "placeholder zones must not be recorded")

	require.NoError(t, cf.Set(ImageKey(testEnv(), "nginx-server"), []Image{{ID: "ami-cached"}}))
	images, err := provider.ResolveImage(context.Background(), "nginx-server")
	require.NoError(t, err)
	assert.Equal(t, "ami-cached", images[0].ID)
}

func TestCachedProvider_NoLiveProvider(t *testing.T) {
	cf, err := LoadContextFile(filepath.Join(t.TempDir(), DefaultContextFile))
	require.NoError(t, err)

	provider := NewCachedProvider(testEnv(), nil, cf, nil)

	_, err = provider.AvailabilityZones(context.Background())
	assert.True(t, errors.Is(err, ErrMissingContext))
}

func TestCachedProvider_Warm(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultContextFile)
	cf, err := LoadContextFile(path)
	require.NoError(t, err)

	fake := &fakeEC2{
		images: []ec2types.Image{{ImageId: aws.String("ami-1"), Name: aws.String("nginx-server")}},
		zones:  []string{"eu-west-1a", "eu-west-1b"},
	}
	provider := NewCachedProvider(testEnv(), NewEC2ProviderFromClients(fake, &fakeSTS{}, "eu-west-1"), cf, nil)

	require.NoError(t, provider.Warm(context.Background(), "nginx-server", "bastion"))

	reloaded, err := LoadContextFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.Len())
}
