package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_SetGet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisCacheWithClient(db, "oracle")
	ctx := context.Background()

	mock.ExpectSet("oracle:indicators:FRA", []byte(`{"name":"FRA","value":{"pmi":51}}`), time.Hour).SetVal("OK")
	mock.ExpectGet("oracle:indicators:FRA").SetVal(`{"name":"FRA","value":{"pmi":51}}`)
	mock.ExpectGet("oracle:indicators:DEU").RedisNil()

	require.NoError(t, c.Set(ctx, "indicators:FRA", sample{Name: "FRA", Value: map[string]float64{"pmi": 51}}, time.Hour))

	got, err := GetTyped[sample](ctx, c, "indicators:FRA")
	require.NoError(t, err)
	assert.Equal(t, 51.0, got.Value["pmi"])

	_, err = GetTyped[sample](ctx, c, "indicators:DEU")
	assert.ErrorIs(t, err, ErrCacheMiss)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_DeleteAndExists(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisCacheWithClient(db, "oracle")
	ctx := context.Background()

	mock.ExpectUnlink("oracle:indicators:FRA").SetVal(1)
	mock.ExpectExists("oracle:indicators:FRA").SetVal(0)

	require.NoError(t, c.Delete(ctx, "indicators:FRA"))
	ok, err := c.Exists(ctx, "indicators:FRA")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLayeredCache_ReadsThroughToRemote(t *testing.T) {
	remote := NewMemoryCache()
	lc := NewLayeredCache(remote, WithLayeredMemoryTTL(time.Minute))
	t.Cleanup(func() { _ = lc.Close() })
	ctx := context.Background()

	require.NoError(t, remote.Set(ctx, "k", sample{Name: "x"}, time.Hour))

	got, err := GetTyped[sample](ctx, lc, "k")
	require.NoError(t, err)
	assert.Equal(t, "x", got.Name)

	require.NoError(t, remote.Delete(ctx, "k"))
	// still served by L1
	got, err = GetTyped[sample](ctx, lc, "k")
	require.NoError(t, err)
	assert.Equal(t, "x", got.Name)

	require.NoError(t, lc.Delete(ctx, "k"))
	_, err = GetTyped[sample](ctx, lc, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
