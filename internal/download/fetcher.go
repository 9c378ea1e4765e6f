// Package download fetches public Overture release data from S3 so a
// benchmark dataset can be produced without leaving the tool.
package download

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/geobench/geobench/pkg/errors"
	"github.com/geobench/geobench/pkg/utils"
)

// ObjectClient is the slice of the S3 API the fetcher needs. Tests fake it.
type ObjectClient interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Options configures a Fetcher.
type Options struct {
	Bucket  string
	Region  string
	Release string
	Logger  *utils.Logger
}

// Fetcher downloads one theme of an Overture release.
type Fetcher struct {
	client ObjectClient
	opts   Options
}

// New creates a fetcher over an existing client.
func New(client ObjectClient, opts Options) *Fetcher {
	return &Fetcher{client: client, opts: opts}
}

// NewFromRegion creates a fetcher with a real S3 client. The release bucket
// is public, so access is anonymous.
func NewFromRegion(ctx context.Context, opts Options) (*Fetcher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(aws.AnonymousCredentials{}),
	)
	if err != nil {
		return nil, errors.New(errors.ErrCodeConfigLoad, "cannot configure S3 client").
			WithComponent("download").WithCause(err)
	}
	return New(s3.NewFromConfig(cfg), opts), nil
}

// prefix builds the release/theme key prefix of the Overture layout.
func (f *Fetcher) prefix(theme string) string {
	return path.Join("release", f.opts.Release, "theme="+theme) + "/"
}

// List returns the object keys for a theme in lexicographic order.
func (f *Fetcher) List(ctx context.Context, theme string) ([]string, error) {
	var keys []string
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(f.opts.Bucket),
		Prefix: aws.String(f.prefix(theme)),
	}
	for {
		out, err := f.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, errors.Newf(errors.ErrCodeConversionFailed, "cannot list theme %q", theme).
				WithComponent("download").WithCause(err)
		}
		for _, obj := range out.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}
	if len(keys) == 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidInput, "no objects under %s", f.prefix(theme)).
			WithComponent("download")
	}
	return keys, nil
}

// Download fetches every object of a theme into destDir, keeping object
// base names. It returns the local paths in download order.
func (f *Fetcher) Download(ctx context.Context, theme, destDir string) ([]string, error) {
	keys, err := f.List(ctx, theme)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, errors.Newf(errors.ErrCodeInvalidInput, "cannot create destination %s", destDir).
			WithComponent("download").WithCause(err)
	}

	paths := make([]string, 0, len(keys))
	for i, key := range keys {
		local := filepath.Join(destDir, path.Base(key))
		if f.opts.Logger != nil {
			f.opts.Logger.Info("downloading %d/%d: %s", i+1, len(keys), key)
		}
		if err := f.fetchObject(ctx, key, local); err != nil {
			return nil, err
		}
		paths = append(paths, local)
	}
	return paths, nil
}

func (f *Fetcher) fetchObject(ctx context.Context, key, local string) error {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.opts.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errors.Newf(errors.ErrCodeConversionFailed, "cannot fetch %s", key).
			WithComponent("download").WithCause(err)
	}
	defer out.Body.Close()

	dest, err := os.Create(local)
	if err != nil {
		return errors.Newf(errors.ErrCodeConversionFailed, "cannot create %s", local).
			WithComponent("download").WithCause(err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, out.Body); err != nil {
		os.Remove(local)
		return errors.Newf(errors.ErrCodeConversionFailed, "download of %s interrupted", key).
			WithComponent("download").WithCause(err)
	}
	return nil
}
