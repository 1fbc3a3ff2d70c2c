package storage

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"civicwatch/config"
)

// Archiver keeps a copy of every fetched page so extraction can be replayed after a
// selector change.
type Archiver struct {
	client   *s3.Client
	endpoint string
	bucket   string
}

// NewArchiver erstellt einen S3-Client für einen S3-kompatiblen Endpoint.
func NewArchiver(cfg *config.Config) (*Archiver, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.ArchiveS3URL,
				SigningRegion:     cfg.ArchiveS3Region,
				HostnameImmutable: true,
			}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.ArchiveS3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.ArchiveS3Key, cfg.ArchiveS3Secret, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return &Archiver{
		client:   client,
		endpoint: strings.TrimRight(cfg.ArchiveS3URL, "/"),
		bucket:   cfg.ArchiveS3Bucket,
	}, nil
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// ArchiveKey builds raw/<source-slug>/<entity>/<UTC timestamp>.html.
func ArchiveKey(source, entity string, at time.Time) string {
	slug := strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(source), "-"), "-")
	if slug == "" {
		slug = "unknown"
	}
	return fmt.Sprintf("raw/%s/%s/%s.html", slug, entity, at.UTC().Format("20060102T150405Z"))
}

// PutPage lädt eine Seite ins S3 hoch und gibt den Link zurück.
func (a *Archiver) PutPage(ctx context.Context, source, entity string, fetchedAt time.Time, body []byte) (string, error) {
	return a.Put(ctx, ArchiveKey(source, entity, fetchedAt), "text/html; charset=utf-8", body)
}

// Put stores body under key and returns its path-style link.
func (a *Archiver) Put(ctx context.Context, key, contentType string, body []byte) (string, error) {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("archive %s: %w", key, err)
	}
	return fmt.Sprintf("%s/%s/%s", a.endpoint, a.bucket, key), nil
}

// Object is one stored key.
type Object struct {
	Key          string
	LastModified time.Time
	Size         int64
}

// Objects lists every key under prefix, following continuation tokens.
func (a *Archiver) Objects(ctx context.Context, prefix string) ([]Object, error) {
	var out []Object
	p := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			o := Object{Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)}
			if obj.LastModified != nil {
				o.LastModified = *obj.LastModified
			}
			out = append(out, o)
		}
	}
	return out, nil
}

// Delete removes one key.
func (a *Archiver) Delete(ctx context.Context, key string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
