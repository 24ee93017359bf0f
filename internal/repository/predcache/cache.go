// Package predcache caches predictions in a key-value store. Row
// preparation is deterministic, so identical feature rows always map to
// the same prediction and can be served without re-running the model.
package predcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/inferd/internal/db"
	"github.com/kailas-cloud/inferd/internal/domain"
)

const cacheKeyPrefix = "inferd:pred_cache:"

// store is the consumer interface for the prediction cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Predictor is the inner prediction service being decorated.
type Predictor interface {
	PredictOne(ctx context.Context, row domain.FeatureRow) (domain.Prediction, error)
}

// CachedPredictor caches predictions in a key-value store.
type CachedPredictor struct {
	inner      Predictor
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner Predictor,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedPredictor {
	return &CachedPredictor{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// PredictOne returns a cached prediction or calls the inner predictor.
// Store failures never fail the request: a read error counts as a miss
// and a write error is logged and dropped.
func (c *CachedPredictor) PredictOne(
	ctx context.Context, row domain.FeatureRow,
) (domain.Prediction, error) {
	key, err := cacheKey(row)
	if err != nil {
		// unmarshalable rows cannot be cached, fall through to the model
		return c.inner.PredictOne(ctx, row)
	}

	if pred, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return pred, nil
	}

	c.incCache("miss")

	pred, err := c.inner.PredictOne(ctx, row)
	if err != nil {
		return domain.Prediction{}, err
	}

	c.putToCache(ctx, key, pred)
	return pred, nil
}

func (c *CachedPredictor) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKey hashes the canonical JSON form of the row. Map keys marshal in
// sorted order, so rows differing only in key order share a key.
func cacheKey(row domain.FeatureRow) (string, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return "", fmt.Errorf("marshal row: %w", err)
	}
	h := sha256.Sum256(data)
	return cacheKeyPrefix + hex.EncodeToString(h[:]), nil
}

func (c *CachedPredictor) getFromCache(ctx context.Context, key string) (domain.Prediction, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached prediction", zap.String("key", key), zap.Error(err))
		}
		return domain.Prediction{}, false
	}
	if len(data) == 0 {
		return domain.Prediction{}, false
	}

	var pred domain.Prediction
	if err := json.Unmarshal(data, &pred); err != nil {
		c.logger.Warn("Failed to parse cached prediction", zap.String("key", key), zap.Error(err))
		return domain.Prediction{}, false
	}

	return pred, true
}

func (c *CachedPredictor) putToCache(ctx context.Context, key string, pred domain.Prediction) {
	data, err := json.Marshal(pred)
	if err != nil {
		c.logger.Warn("Failed to encode prediction for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache prediction", zap.String("key", key), zap.Error(err))
	}
}
