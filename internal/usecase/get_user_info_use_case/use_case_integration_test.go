//go:build integration

package getuserinfousecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"bankauth/internal/constants"
	"bankauth/internal/testutil/containers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserInfo_UsesRedisCache(t *testing.T) {
	redis := containers.NewRedisContainer(t)
	reader := newReader()
	params := &Params{Store: reader, Redis: redis.Client, CacheTTL: time.Minute}

	for range 3 {
		user, err := New(context.Background(), params, &Payload{Search: "jdoe"}).Execute()
		require.NoError(t, err)
		assert.Equal(t, "12345678A", user.ID)
	}
	assert.Equal(t, 1, reader.byUsername, "later lookups are served from redis")

	ttl, err := redis.Client.TTL(context.Background(), fmt.Sprintf(constants.RedisKeyUserByUsername, "jdoe")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}
