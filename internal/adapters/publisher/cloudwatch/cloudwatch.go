// Package cloudwatch publishes metric batches with the CloudWatch PutMetricData API.
package cloudwatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/smithy-go"

	"github.com/vshulcz/resquewatch/internal/domain"
	"github.com/vshulcz/resquewatch/internal/ports"
)

// API is the subset of *cloudwatch.Client the publisher calls.
type API interface {
	PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Publisher sends one PutMetricData request per batch.
type Publisher struct {
	api API
}

var _ ports.Publisher = (*Publisher)(nil)

// New builds a publisher from the default AWS credential chain. Region and endpoint
// override the environment when non-empty. SDK retries are disabled so every batch
// is attempted exactly once.
func New(ctx context.Context, region, endpoint string) (*Publisher, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRetryMaxAttempts(1),
	}
	if region = strings.TrimSpace(region); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := cloudwatch.NewFromConfig(cfg, func(o *cloudwatch.Options) {
		if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return NewWithAPI(client), nil
}

func NewWithAPI(api API) *Publisher {
	return &Publisher{api: api}
}

// PutMetricData implements ports.Publisher.
func (p *Publisher) PutMetricData(ctx context.Context, namespace string, data []domain.DataPoint) error {
	if len(data) == 0 {
		return nil
	}
	_, err := p.api.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(namespace),
		MetricData: toDatums(data),
	})
	if err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) {
			return fmt.Errorf("cloudwatch %s: %w", ae.ErrorCode(), err)
		}
		return fmt.Errorf("cloudwatch: %w", err)
	}
	return nil
}

func toDatums(data []domain.DataPoint) []types.MetricDatum {
	out := make([]types.MetricDatum, 0, len(data))
	for _, dp := range data {
		dims := make([]types.Dimension, 0, len(dp.Dimensions))
		for _, d := range dp.Dimensions {
			dims = append(dims, types.Dimension{
				Name:  aws.String(d.Name),
				Value: aws.String(d.Value),
			})
		}
		out = append(out, types.MetricDatum{
			MetricName: aws.String(dp.MetricName),
			Dimensions: dims,
			Timestamp:  aws.Time(dp.Timestamp),
			Value:      aws.Float64(dp.Value),
			Unit:       unit(dp.Unit),
		})
	}
	return out
}

func unit(u domain.Unit) types.StandardUnit {
	if u == "" {
		return types.StandardUnitCount
	}
	return types.StandardUnit(u)
}
