package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/stationkit/aircheck/internal/archive"
	"github.com/stationkit/aircheck/internal/config"
	"github.com/stationkit/aircheck/internal/policy"
)

// S3Signer issues presigned GET URLs for recorded broadcast objects in an
// S3-compatible store. It is the enforcement point for archive access: every
// request re-derives the broadcast hour from the key and validates it
// against the caller's tier window, regardless of any client-side check.
type S3Signer struct {
	presigner *s3.PresignClient
	policy    *policy.Policy
	bucket    string
	ttl       time.Duration
	loc       *time.Location
}

// NewS3Signer configures a presigning client targeting the provided object
// store. The policy must not be nil; it backs the server-side window check.
func NewS3Signer(ctx context.Context, cfg config.StorageConfig, pol *policy.Policy, ttl time.Duration, loc *time.Location) (*S3Signer, error) {
	if pol == nil {
		panic("resolver: policy must not be nil")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 signer: bucket is required")
	}
	if loc == nil {
		loc = time.Local
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if strings.TrimSpace(cfg.Endpoint) != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Signer{
		presigner: s3.NewPresignClient(client),
		policy:    pol,
		bucket:    cfg.Bucket,
		ttl:       ttl,
		loc:       loc,
	}, nil
}

// SignedURL implements Signer. Malformed keys and out-of-window hours are
// denials, not transport failures.
func (s *S3Signer) SignedURL(ctx context.Context, key string, tier policy.Tier) (string, error) {
	sel, ok := archive.ParseMediaKey(key)
	if !ok {
		return "", NewDeniedError("malformed media key %q", key)
	}

	window := s.policy.WindowFor(tier)
	if !window.Contains(sel.HourStart(s.loc)) {
		return "", NewDeniedError("recording %s is outside the %d-day archive window for %s access",
			key, s.policy.WindowDays(tier), tier)
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}

	return req.URL, nil
}
