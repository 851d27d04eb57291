package rekognition

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	aws_rekognition "github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"

	"github.com/code-payments/moderation-gateway/moderation"
)

const DefaultRegion = "us-east-1"

type api interface {
	DetectModerationLabels(ctx context.Context, params *aws_rekognition.DetectModerationLabelsInput, optFns ...func(*aws_rekognition.Options)) (*aws_rekognition.DetectModerationLabelsOutput, error)
}

// Client detects moderation labels with AWS Rekognition.
type Client struct {
	api api
}

// NewClient builds a Rekognition client from static credentials. Calls are
// never retried. A non-empty endpoint overrides the service URL (e.g. for a
// local stub).
func NewClient(region, accessKey, secretKey string, endpoint ...string) (*Client, error) {
	if accessKey == "" || secretKey == "" {
		return nil, errors.New("aws credentials are required")
	}
	if region == "" {
		region = DefaultRegion
	}

	opts := aws_rekognition.Options{
		Region:      region,
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		Retryer:     aws.NopRetryer{},
	}
	if len(endpoint) > 0 && endpoint[0] != "" {
		opts.BaseEndpoint = aws.String(endpoint[0])
	}

	return &Client{api: aws_rekognition.New(opts)}, nil
}

func (c *Client) DetectModerationLabels(ctx context.Context, image []byte) ([]moderation.Label, error) {
	out, err := c.api.DetectModerationLabels(ctx, &aws_rekognition.DetectModerationLabelsInput{
		Image: &types.Image{Bytes: image},
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("detect moderation labels: %s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
		}
		return nil, errors.Wrap(err, "failed to detect moderation labels")
	}

	labels := make([]moderation.Label, 0, len(out.ModerationLabels))
	for _, l := range out.ModerationLabels {
		labels = append(labels, moderation.Label{
			Name:          l.Name,
			Confidence:    l.Confidence,
			ParentName:    l.ParentName,
			TaxonomyLevel: l.TaxonomyLevel,
		})
	}
	return labels, nil
}
