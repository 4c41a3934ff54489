/*
Package s3 loads the metaphor corpus from an S3-compatible object store
(minio). Each object is a JSON array of corpus entries; the pipeline embeds
and indexes them into qdrant at startup.
*/
package s3

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/theapemachine/senseable-go/pkg/stores/qdrant"
)

/*
Source reads corpus documents from a bucket.
*/
type Source struct {
	client *minio.Client
	bucket string
}

type SourceOption func(*Source)

func NewSource(options ...SourceOption) (*Source, error) {
	source := &Source{bucket: "corpus"}

	for _, option := range options {
		option(source)
	}

	if source.client == nil {
		return nil, fmt.Errorf("s3: no client configured")
	}

	return source, nil
}

func WithEndpoint(endpoint, accessKey, secretKey string, secure bool) SourceOption {
	return func(source *Source) {
		client, err := minio.New(endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
			Secure: secure,
		})
		if err != nil {
			log.Error("failed to create minio client", "error", err)
			return
		}
		source.client = client
	}
}

func WithBucket(bucket string) SourceOption {
	return func(source *Source) { source.bucket = bucket }
}

func WithClient(client *minio.Client) SourceOption {
	return func(source *Source) { source.client = client }
}

/*
Load streams every object in the bucket and decodes its corpus entries.
Objects that fail to decode are skipped with a warning so one bad upload
cannot take the whole corpus down.
*/
func (source *Source) Load(ctx context.Context) ([]qdrant.Document, error) {
	var docs []qdrant.Document

	for object := range source.client.ListObjects(ctx, source.bucket, minio.ListObjectsOptions{
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("s3: list objects: %w", object.Err)
		}

		entries, err := source.loadObject(ctx, object.Key)
		if err != nil {
			log.Warn("skipping corpus object", "key", object.Key, "error", err)
			continue
		}

		docs = append(docs, entries...)
	}

	log.Info("loaded corpus", "bucket", source.bucket, "documents", len(docs))

	return docs, nil
}

func (source *Source) loadObject(ctx context.Context, key string) ([]qdrant.Document, error) {
	obj, err := source.client.GetObject(ctx, source.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, err
	}

	var entries []qdrant.Document
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}

	return entries, nil
}
