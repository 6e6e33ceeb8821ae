package myredis

import (
	"encoding/json"

	"myejbclient/domain"

	"github.com/go-redis/redis/v8"
)

// InstancePrefix is the key prefix MyDiscoverer keeps instances under.
const InstancePrefix = "instance"

// NewInstanceCache stores domain.Instance values as JSON under InstancePrefix, the layout a
// MyDiscoverer sharing the same redis reads and writes.
func NewInstanceCache(client redis.UniversalClient) *redisCache[domain.Instance] {
	return NewCache[domain.Instance](client, InstancePrefix, marshalJSON[domain.Instance], unmarshalJSON[domain.Instance])
}

func marshalJSON[T any](v T) ([]byte, error) {
	return json.Marshal(v)
}

func unmarshalJSON[T any](b []byte) (T, error) {
	var v T
	err := json.Unmarshal(b, &v)
	return v, err
}
