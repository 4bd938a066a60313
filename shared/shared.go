package shared

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"tripcore/shared/cache"
	"tripcore/shared/constant"
)

const (
	referencePrefix = "TRV"
	referenceLength = 8
)

// Round2 rounds a monetary amount to two decimals.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// MinorUnits converts a monetary amount to its minor-unit representation (e.g. cents).
func MinorUnits(value float64) int64 {
	return int64(math.Round(value * 100))
}

// ClampPercent bounds a percentage to the 0-100 range.
func ClampPercent(value float64) float64 {
	return math.Min(math.Max(value, 0), 100)
}

// ClampMultiplier bounds a price multiplier to the allowed 0.5-3.0 range.
func ClampMultiplier(value float64) float64 {
	return math.Min(math.Max(value, 0.5), 3.0)
}

// NewBookingReference generates a human-readable booking reference such as TRV-9F2C41AB.
func NewBookingReference() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", constant.Empty))

	return referencePrefix + "-" + id[:referenceLength]
}

// BuildCacheKey joins key parts with the cache namespace separator.
func BuildCacheKey(parts ...string) string {
	return strings.Join(parts, ":")
}

// InvalidateCaches clears every cache entry under the given prefix, logging failures only.
func InvalidateCaches(ctx context.Context, redisCache cache.RedisCache, prefix string) {
	if err := redisCache.Clear(ctx, prefix+"*"); err != nil {
		log.Error().Err(err).Str("prefix", prefix).Msg("failed to invalidate caches")
	}
}
