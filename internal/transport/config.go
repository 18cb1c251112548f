package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/usercache/internal/config"
)

// ErrNotConfigured is returned by FromConfig when transport.kind is "none".
var ErrNotConfigured = errors.New("no transport configured")

// FromConfig builds the transport selected by cfg.Kind.
func FromConfig(ctx context.Context, cfg config.TransportConfig) (Transport, error) {
	switch cfg.Kind {
	case config.TransportFile:
		return NewFile(cfg.File.Dir)
	case config.TransportS3:
		return NewS3(ctx, S3Config{
			Bucket:       cfg.S3.Bucket,
			Region:       cfg.S3.Region,
			Endpoint:     cfg.S3.Endpoint,
			Prefix:       cfg.S3.Prefix,
			UsePathStyle: cfg.S3.UsePathStyle,
		})
	case config.TransportNone, "":
		return nil, ErrNotConfigured
	default:
		return nil, fmt.Errorf("unknown transport kind %q", cfg.Kind)
	}
}
