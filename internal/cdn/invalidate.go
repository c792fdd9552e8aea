package cdn

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/jonboulle/clockwork"
)

// CFClient abstracts the CloudFront invalidation API.
type CFClient interface {
	CreateInvalidation(ctx context.Context, params *cloudfront.CreateInvalidationInput, optFns ...func(*cloudfront.Options)) (*cloudfront.CreateInvalidationOutput, error)
}

// Distribution issues invalidations against one CloudFront distribution.
type Distribution struct {
	client CFClient
	id     string
	clock  clockwork.Clock
}

// NewDistribution returns a Distribution for distribution id.
func NewDistribution(client CFClient, id string, clock clockwork.Clock) *Distribution {
	return &Distribution{client: client, id: id, clock: clock}
}

// CallerReference formats t as a compact ISO 8601 timestamp, e.g.
// 19710628T000000.
func CallerReference(t time.Time) string {
	return t.UTC().Format("20060102T150405")
}

// Invalidate requests invalidation of paths and returns the invalidation
// id. No request is made for an empty path list.
func (d *Distribution) Invalidate(ctx context.Context, paths []string) (string, error) {
	if len(paths) == 0 {
		return "", nil
	}

	resp, err := d.client.CreateInvalidation(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: &d.id,
		InvalidationBatch: &cftypes.InvalidationBatch{
			CallerReference: aws.String(CallerReference(d.clock.Now())),
			Paths: &cftypes.Paths{
				Quantity: aws.Int32(int32(len(paths))),
				Items:    paths,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("creating invalidation for %s: %w", d.id, err)
	}
	if resp.Invalidation == nil {
		return "", nil
	}
	return aws.ToString(resp.Invalidation.Id), nil
}
