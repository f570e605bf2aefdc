package s3site

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/cloudfront"
	"github.com/aws/aws-sdk-go/service/cloudfront/cloudfrontiface"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
)

// MaxInvalidationPaths is the largest batch sent path by path. Larger batches are
// replaced by a single wildcard path.
const MaxInvalidationPaths = 1000

// Distribution invalidates paths of one CloudFront distribution.
type Distribution struct {
	ID string
	// Prefix limits the wildcard used for oversized batches.
	Prefix string

	svc cloudfrontiface.CloudFrontAPI
}

// NewDistribution returns a Distribution backed by a client created from p.
func NewDistribution(p client.ConfigProvider, id string) *Distribution {
	return NewDistributionWithClient(id, cloudfront.New(p))
}

// NewDistributionWithClient wires an explicit client, mainly for tests.
func NewDistributionWithClient(id string, svc cloudfrontiface.CloudFrontAPI) *Distribution {
	return &Distribution{ID: id, svc: svc}
}

// Invalidate requests a single invalidation covering keys.
func (d *Distribution) Invalidate(ctx context.Context, keys mapset.Set[string]) error {
	paths := d.paths(keys)
	if len(paths) == 0 {
		return nil
	}

	out, err := d.svc.CreateInvalidationWithContext(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(d.ID),
		InvalidationBatch: &cloudfront.InvalidationBatch{
			CallerReference: aws.String(uuid.NewString()),
			Paths: &cloudfront.Paths{
				Quantity: aws.Int64(int64(len(paths))),
				Items:    aws.StringSlice(paths),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("cloudfront %s: %w", d.ID, err)
	}
	if out.Invalidation != nil {
		slog.Info("invalidation created", "distribution", d.ID, "id", aws.StringValue(out.Invalidation.Id), "paths", len(paths))
	}

	return nil
}

// paths turns keys into sorted, slash prefixed CloudFront paths. Keys are
// percent-encoded the way they appear in request URLs.
func (d *Distribution) paths(keys mapset.Set[string]) []string {
	if keys == nil || keys.Cardinality() == 0 {
		return nil
	}
	if keys.Cardinality() > MaxInvalidationPaths {
		if p := strings.Trim(d.Prefix, "/"); p != "" {
			return []string{"/" + p + "/*"}
		}
		return []string{"/*"}
	}

	paths := mapset.Sorted(keys)
	for i, k := range paths {
		paths[i] = (&url.URL{Path: "/" + k}).EscapedPath()
	}
	return paths
}
