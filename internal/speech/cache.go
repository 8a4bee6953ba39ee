package speech

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const cacheTTL = 24 * time.Hour

// Cache keeps synthesized question audio in redis so repeated Speak calls
// for the same text skip the synthesis round-trip. A nil client disables
// caching entirely.
type Cache struct {
	client *redis.Client
	voice  string
}

func NewCache(client *redis.Client, voice string) *Cache {
	return &Cache{client: client, voice: voice}
}

func (c *Cache) key(text string) string {
	sum := sha256.Sum256([]byte(c.voice + "\x00" + text))
	return "tts:" + hex.EncodeToString(sum[:])
}

func (c *Cache) Get(ctx context.Context, text string) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	audio, err := c.client.Get(ctx, c.key(text)).Bytes()
	if err != nil {
		return nil, false
	}
	return audio, true
}

func (c *Cache) Set(ctx context.Context, text string, audio []byte) {
	if c == nil || c.client == nil {
		return
	}
	// Best effort: a failed cache write only costs a future synthesis call.
	c.client.Set(ctx, c.key(text), audio, cacheTTL)
}
