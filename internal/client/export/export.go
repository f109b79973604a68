// Package export writes the analytics export document to a destination:
// a local file, an S3 object, or a presigned upload URL.
package export

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/dreamwell/internal/filex"
	"github.com/dmitrijs2005/dreamwell/internal/netx"
)

const contentType = "application/json"

var ErrUnsupportedDestination = errors.New("unsupported export destination")

type Sink interface {
	Write(ctx context.Context, data []byte) error
	String() string
}

type FileSink struct {
	Path string
}

func (s FileSink) Write(_ context.Context, data []byte) error {
	return filex.WriteFileAtomic(s.Path, data, 0o600)
}

func (s FileSink) String() string { return s.Path }

// URLSink PUTs the document to a presigned URL.
type URLSink struct {
	URL    string
	Client *http.Client
}

func (s URLSink) Write(ctx context.Context, data []byte) error {
	return netx.Put(ctx, s.Client, s.URL, contentType, data)
}

func (s URLSink) String() string {
	u, err := url.Parse(s.URL)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	return u.String()
}

// Open picks a sink for dest: s3://bucket/key, http(s)://..., or a file path.
func Open(ctx context.Context, dest string, cfg S3Config) (Sink, error) {
	if dest == "" {
		return nil, fmt.Errorf("%w: empty destination", ErrUnsupportedDestination)
	}
	if !strings.Contains(dest, "://") {
		return FileSink{Path: dest}, nil
	}

	u, err := url.Parse(dest)
	if err != nil {
		return nil, fmt.Errorf("parse destination: %w", err)
	}

	switch u.Scheme {
	case "file":
		return FileSink{Path: u.Path}, nil
	case "http", "https":
		return URLSink{URL: dest}, nil
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return nil, fmt.Errorf("%w: %s needs a bucket and a key", ErrUnsupportedDestination, dest)
		}
		client, err := NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &S3Sink{client: client, Bucket: u.Host, Key: key}, nil
	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedDestination, u.Scheme)
	}
}
