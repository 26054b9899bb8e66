package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"goldsignal/internal/config"
	"goldsignal/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/rs/zerolog"
)

// S3Store keeps each collection as one JSON object in an S3-compatible
// bucket. Puts are whole-object overwrites, so two instances writing
// concurrently are last-writer-wins, same as every other backend.
type S3Store struct {
	client *s3.Client
	bucket string
	logger zerolog.Logger
}

// NewS3Store builds an S3 client against the configured endpoint.
func NewS3Store(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		return nil, fmt.Errorf("loading s3 config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3URL != "" {
			o.BaseEndpoint = aws.String(cfg.S3URL)
			o.UsePathStyle = true
		}
	})
	return &S3Store{
		client: client,
		bucket: cfg.S3Bucket,
		logger: logger.With().Str("store", "s3").Logger(),
	}, nil
}

func (s *S3Store) LoadUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	ok, err := s.read(ctx, UsersCollection, &users)
	if err != nil {
		return nil, err
	}
	if !ok {
		users = SeedUsers()
		if err := s.write(ctx, UsersCollection, users); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to persist seeded users")
		}
	}
	return users, nil
}

func (s *S3Store) SaveUsers(ctx context.Context, users []model.User) error {
	return s.write(ctx, UsersCollection, users)
}

func (s *S3Store) LoadAnalyses(ctx context.Context) ([]model.AnalysisRecord, error) {
	var analyses []model.AnalysisRecord
	ok, err := s.read(ctx, AnalysesCollection, &analyses)
	if err != nil {
		return nil, err
	}
	if !ok {
		analyses = SeedAnalyses()
		if err := s.write(ctx, AnalysesCollection, analyses); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to persist seeded analyses")
		}
	}
	return analyses, nil
}

func (s *S3Store) SaveAnalyses(ctx context.Context, analyses []model.AnalysisRecord) error {
	return s.write(ctx, AnalysesCollection, analyses)
}

func (s *S3Store) key(collection string) string {
	return collection + ".json"
}

func (s *S3Store) read(ctx context.Context, collection string, out any) (bool, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(collection)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return false, nil
		}
		return false, fmt.Errorf("fetch collection %s: %w", collection, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read collection %s: %w", collection, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.logger.Warn().Err(err).Str("collection", collection).Msg("Corrupt collection object, reseeding")
		return false, nil
	}
	return true, nil
}

func (s *S3Store) write(ctx context.Context, collection string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(collection)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("save collection %s: %w", collection, err)
	}
	return nil
}

// removeDisableGzip is a workaround for S3 signature errors with some
// S3-compatible services.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
