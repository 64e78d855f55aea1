package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/pikodb"
	"github.com/hupe1980/pikodb/blobstore"
	"github.com/hupe1980/pikodb/blobstore/minio"
	s3store "github.com/hupe1980/pikodb/blobstore/s3"
	"github.com/hupe1980/pikodb/persistence"
	"github.com/hupe1980/pikodb/persistence/sqlite"
	"github.com/hupe1980/pikodb/resource"
)

// Open builds the configured client and creates the declared collections.
// optFns are applied after the options derived from the configuration.
func (c *Config) Open(ctx context.Context, optFns ...pikodb.Option) (*pikodb.Client, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	level, _ := c.Log.level()
	logger := pikodb.NewTextLogger(level)
	if strings.EqualFold(c.Log.Format, "json") {
		logger = pikodb.NewJSONLogger(level)
	}

	var rc *resource.Controller
	if c.Limits.MaxConcurrentQueries > 0 || c.Limits.IOBytesPerSec > 0 {
		rc = resource.NewController(resource.Config{
			MaxConcurrentQueries: c.Limits.MaxConcurrentQueries,
			IOBytesPerSec:        c.Limits.IOBytesPerSec,
		})
	}

	opts := []pikodb.Option{
		pikodb.WithLogger(logger),
		pikodb.WithOverfetchFactor(c.Search.OverfetchFactor),
		pikodb.WithResourceController(rc),
	}
	if c.Persistence.StrictLoad {
		opts = append(opts, pikodb.WithStrictLoad())
	}
	opts = append(opts, optFns...)

	var client *pikodb.Client
	if c.Persistence.Mode == ModeMemory {
		client = pikodb.InMemory(opts...)
	} else {
		adapter, err := c.Persistence.adapter(ctx, rc)
		if err != nil {
			return nil, err
		}
		client, err = pikodb.Persistent(ctx, adapter, opts...)
		if err != nil {
			if closer, ok := adapter.(interface{ Close() error }); ok {
				_ = closer.Close()
			}
			return nil, err
		}
	}

	for _, cc := range c.Collections {
		cfg, _ := cc.IndexConfig()
		if err := client.CreateCollection(ctx, cc.Name, cfg); err != nil {
			return nil, errors.Join(fmt.Errorf("create collection %q: %w", cc.Name, err), client.Close())
		}
	}

	return client, nil
}

func (p PersistenceConfig) adapter(ctx context.Context, rc *resource.Controller) (persistence.Adapter, error) {
	format, err := p.format()
	if err != nil {
		return nil, err
	}

	blob := func(store blobstore.Store) persistence.Adapter {
		return persistence.NewBlobAdapter(store, func(o *persistence.BlobOptions) {
			o.Name = p.Name
			o.Format = format
			o.Resources = rc
		})
	}

	switch p.Mode {
	case ModeFileSystem:
		return persistence.NewFileSystemAdapter(p.Path, func(o *persistence.FileSystemOptions) {
			o.Format = format
			o.Resources = rc
		}), nil
	case ModeSQLite:
		a, err := sqlite.Open(ctx, p.Path, func(o *sqlite.Options) {
			o.Format = format
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	case ModeLocal:
		return blob(blobstore.NewLocalStore(p.Path)), nil
	case ModeMinIO:
		store, err := minio.New(minio.Options{
			Endpoint:  p.MinIO.Endpoint,
			AccessKey: p.MinIO.AccessKey,
			SecretKey: p.MinIO.SecretKey,
			Bucket:    p.MinIO.Bucket,
			Prefix:    p.MinIO.Prefix,
			UseSSL:    p.MinIO.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return blob(store), nil
	case ModeS3:
		store, err := s3store.New(ctx, p.S3.Bucket,
			s3store.WithPrefix(p.S3.Prefix),
			s3store.WithRegion(p.S3.Region),
		)
		if err != nil {
			return nil, err
		}
		return blob(store), nil
	default:
		return nil, fmt.Errorf("persistence: unknown mode %q", p.Mode)
	}
}
