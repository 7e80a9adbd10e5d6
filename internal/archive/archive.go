package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/AdamBeresnev/h2h-playoffs/internal/bracket"
	"github.com/AdamBeresnev/h2h-playoffs/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver stores finished brackets as JSON documents in an S3 compatible bucket
type Archiver struct {
	client objectPutter
	bucket string
	logger *logrus.Logger
}

// Snapshot is the archived form of a bracket
type Snapshot struct {
	Bracket          bracket.Bracket  `json:"bracket"`
	Slots            []bracket.Slot   `json:"slots"`
	Champion         bracket.Occupant `json:"champion"`
	ThirdPlaceWinner bracket.Occupant `json:"third_place_winner"`
	ArchivedAt       time.Time        `json:"archived_at"`
}

func New(ctx context.Context, cfg config.ArchiveConfig, logger *logrus.Logger) (*Archiver, error) {
	sdkCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithClient(client, cfg.Bucket, logger), nil
}

func NewWithClient(client objectPutter, bucket string, logger *logrus.Logger) *Archiver {
	return &Archiver{client: client, bucket: bucket, logger: logger}
}

// Key is where a bracket's snapshot lives in the bucket
func Key(id bracket.ID) string {
	return fmt.Sprintf("brackets/%s/%s.json", id.TournamentID, url.PathEscape(id.Division))
}

func (a *Archiver) Archive(ctx context.Context, snap Snapshot) (string, error) {
	if snap.ArchivedAt.IsZero() {
		snap.ArchivedAt = time.Now().UTC()
	}
	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	key := Key(snap.Bracket.ID)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot (key: %s): %w", key, err)
	}

	a.logger.WithFields(logrus.Fields{
		"bucket": a.bucket,
		"key":    key,
		"bytes":  len(body),
	}).Info("Bracket archived")
	return key, nil
}
