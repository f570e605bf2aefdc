package s3site

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/cloudfront"
	"github.com/aws/aws-sdk-go/service/cloudfront/cloudfrontiface"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCloudFront struct {
	cloudfrontiface.CloudFrontAPI
	inputs []*cloudfront.CreateInvalidationInput
	err    error
}

func (f *fakeCloudFront) CreateInvalidationWithContext(_ aws.Context, in *cloudfront.CreateInvalidationInput, _ ...request.Option) (*cloudfront.CreateInvalidationOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &cloudfront.CreateInvalidationOutput{Invalidation: &cloudfront.Invalidation{Id: aws.String("I1")}}, nil
}

func TestInvalidate(t *testing.T) {
	cf := &fakeCloudFront{}
	d := NewDistributionWithClient("E123", cf)

	err := d.Invalidate(context.Background(), mapset.NewSet("index.html", "about.html"))
	require.NoError(t, err)

	require.Len(t, cf.inputs, 1)
	in := cf.inputs[0]
	assert.Equal(t, "E123", aws.StringValue(in.DistributionId))
	assert.Equal(t, int64(2), aws.Int64Value(in.InvalidationBatch.Paths.Quantity))
	assert.Equal(t, []string{"/about.html", "/index.html"}, aws.StringValueSlice(in.InvalidationBatch.Paths.Items))
	assert.NotEmpty(t, aws.StringValue(in.InvalidationBatch.CallerReference))
}

func TestInvalidate_EncodesPaths(t *testing.T) {
	cf := &fakeCloudFront{}
	d := NewDistributionWithClient("E123", cf)

	keys := mapset.NewSet("docs/my file.html", "blog/čaj.html", "tags/c#.html", "100%.html")
	require.NoError(t, d.Invalidate(context.Background(), keys))

	assert.Equal(t, []string{
		"/100%25.html",
		"/blog/%C4%8Daj.html",
		"/docs/my%20file.html",
		"/tags/c%23.html",
	}, aws.StringValueSlice(cf.inputs[0].InvalidationBatch.Paths.Items))
}

func TestInvalidate_UniqueCallerReference(t *testing.T) {
	cf := &fakeCloudFront{}
	d := NewDistributionWithClient("E123", cf)

	require.NoError(t, d.Invalidate(context.Background(), mapset.NewSet("a")))
	require.NoError(t, d.Invalidate(context.Background(), mapset.NewSet("a")))
	assert.NotEqual(t,
		aws.StringValue(cf.inputs[0].InvalidationBatch.CallerReference),
		aws.StringValue(cf.inputs[1].InvalidationBatch.CallerReference))
}

func TestInvalidate_Empty(t *testing.T) {
	cf := &fakeCloudFront{}
	d := NewDistributionWithClient("E123", cf)

	require.NoError(t, d.Invalidate(context.Background(), mapset.NewSet[string]()))
	assert.Empty(t, cf.inputs)
}

func TestInvalidate_Wildcard(t *testing.T) {
	keys := mapset.NewSet[string]()
	for i := 0; i <= MaxInvalidationPaths; i++ {
		keys.Add(fmt.Sprintf("page-%d.html", i))
	}

	cf := &fakeCloudFront{}
	d := NewDistributionWithClient("E123", cf)
	require.NoError(t, d.Invalidate(context.Background(), keys))
	assert.Equal(t, []string{"/*"}, aws.StringValueSlice(cf.inputs[0].InvalidationBatch.Paths.Items))

	d.Prefix = "blog/"
	require.NoError(t, d.Invalidate(context.Background(), keys))
	assert.Equal(t, []string{"/blog/*"}, aws.StringValueSlice(cf.inputs[1].InvalidationBatch.Paths.Items))
}

func TestInvalidate_Error(t *testing.T) {
	throttled := errors.New("TooManyInvalidationsInProgress")
	d := NewDistributionWithClient("E123", &fakeCloudFront{err: throttled})

	err := d.Invalidate(context.Background(), mapset.NewSet("a"))
	assert.ErrorIs(t, err, throttled)
	assert.Contains(t, err.Error(), "E123")
}
