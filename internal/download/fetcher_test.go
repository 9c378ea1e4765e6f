package download

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geobench/geobench/pkg/errors"
)

// fakeS3 serves a fixed key space with a small page size to exercise
// pagination.
type fakeS3 struct {
	objects  map[string][]byte
	pageSize int
}

func (f *fakeS3) sortedKeys(prefix string) []string {
	var keys []string
	for k := range f.objects {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	// map order is random; the fake mirrors S3's lexicographic listing
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	return keys
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	keys := f.sortedKeys(aws.ToString(params.Prefix))
	start := 0
	if tok := aws.ToString(params.ContinuationToken); tok != "" {
		for i, k := range keys {
			if k == tok {
				start = i
				break
			}
		}
	}
	end := start + f.pageSize
	truncated := end < len(keys)
	if !truncated {
		end = len(keys)
	}

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(truncated)}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(k)})
	}
	if truncated {
		out.NextContinuationToken = aws.String(keys[end])
	}
	return out, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func newFakeFetcher(pageSize int) (*Fetcher, *fakeS3) {
	fake := &fakeS3{
		pageSize: pageSize,
		objects: map[string][]byte{
			"release/2023-07-26-alpha.0/theme=buildings/part-00000.parquet": []byte("aaa"),
			"release/2023-07-26-alpha.0/theme=buildings/part-00001.parquet": []byte("bbb"),
			"release/2023-07-26-alpha.0/theme=buildings/part-00002.parquet": []byte("ccc"),
			"release/2023-07-26-alpha.0/theme=places/part-00000.parquet":    []byte("zzz"),
		},
	}
	return New(fake, Options{Bucket: "overture", Release: "2023-07-26-alpha.0"}), fake
}

func TestListPaginates(t *testing.T) {
	f, _ := newFakeFetcher(1)
	keys, err := f.List(context.Background(), "buildings")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"release/2023-07-26-alpha.0/theme=buildings/part-00000.parquet",
		"release/2023-07-26-alpha.0/theme=buildings/part-00001.parquet",
		"release/2023-07-26-alpha.0/theme=buildings/part-00002.parquet",
	}, keys)
}

func TestListUnknownTheme(t *testing.T) {
	f, _ := newFakeFetcher(10)
	_, err := f.List(context.Background(), "roads")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
}

func TestDownload(t *testing.T) {
	f, _ := newFakeFetcher(2)
	dir := t.TempDir()

	paths, err := f.Download(context.Background(), "buildings", filepath.Join(dir, "data"))
	require.NoError(t, err)
	require.Len(t, paths, 3)

	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, "bbb", string(data))
	assert.Equal(t, "part-00001.parquet", filepath.Base(paths[1]))
}
