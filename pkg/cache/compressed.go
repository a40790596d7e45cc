package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Compressed zstd-encodes payloads before handing them to the wrapped
// cache. Entries that fail to decode are reported as errors.
type Compressed struct {
	next    Cache
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func NewCompressed(next Cache) (*Compressed, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &Compressed{next: next, encoder: encoder, decoder: decoder}, nil
}

func (c *Compressed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.next.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	payload, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, false, fmt.Errorf("decompressing %s: %w", key, err)
	}
	return payload, true, nil
}

func (c *Compressed) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	return c.next.Set(ctx, key, c.encoder.EncodeAll(payload, nil), ttl)
}

func (c *Compressed) Ping(ctx context.Context) error {
	if p, ok := c.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *Compressed) Close() error {
	c.decoder.Close()
	if err := c.encoder.Close(); err != nil {
		return err
	}
	return c.next.Close()
}
