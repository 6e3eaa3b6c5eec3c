package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "pulsewatch"
)

// Ключи TTL-кэша ответов мониторинга
const (
	RedisKeyCachePrefix       = RedisNamespace + ":cache:"
	RedisPatternCacheWildcard = RedisKeyCachePrefix + "*"
)

// GetCacheKey Генератор ключей кэша для произвольных идентификаторов
func GetCacheKey(identifier string) string {
	return fmt.Sprintf("%s%s", RedisKeyCachePrefix, identifier)
}
