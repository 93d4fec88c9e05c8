package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/dgraph-io/ristretto"

	"ghostline/types"
)

const dedupTTL = 10 * time.Second

// dedupCache short-circuits identical in-flight-adjacent requests, e.g. the
// editor re-triggering on the same cursor position. Entries expire quickly
// so edits elsewhere in the file cannot serve stale text for long.
type dedupCache struct {
	cache *ristretto.Cache
}

func newDedupCache() (*dedupCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1 << 12,
		MaxCost:     1 << 20, // bytes of cached completion text
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &dedupCache{cache: c}, nil
}

// key hashes the request identity. The model id participates so a
// reconfiguration never reuses another model's output.
func (d *dedupCache) key(req *types.CompletionRequest, modelID string) string {
	h := sha256.New()
	h.Write([]byte(modelID))
	h.Write([]byte{0})
	h.Write([]byte(req.FilePath))
	h.Write([]byte{0})
	h.Write([]byte(req.Prefix))
	h.Write([]byte{0})
	h.Write([]byte(req.Suffix))
	return hex.EncodeToString(h.Sum(nil))
}

func (d *dedupCache) get(key string) (*types.CompletionResult, bool) {
	v, ok := d.cache.Get(key)
	if !ok {
		return nil, false
	}
	res, ok := v.(*types.CompletionResult)
	return res, ok
}

func (d *dedupCache) put(key string, res *types.CompletionResult) {
	d.cache.SetWithTTL(key, res, int64(len(res.Text)), dedupTTL)
}

// wait blocks until buffered writes are applied.
func (d *dedupCache) wait() {
	d.cache.Wait()
}

func (d *dedupCache) close() {
	d.cache.Close()
}
