package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sichef/sichef/internal/config"
	"github.com/sichef/sichef/internal/model"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Geocode:  config.GeocodeConfig{Provider: "google", CacheTTLHours: 1},
		Store:    config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "sichef.db")},
		Pipeline: config.PipelineConfig{DefaultLimit: 10, MaxLimit: 200, TimeoutSecs: 60, MaxRestaurants: 15},
	}
}

func TestInitEnv_StoreOnly(t *testing.T) {
	ctx := context.Background()
	env, err := initEnv(ctx, testConfig(t), envNeeds{store: true})
	require.NoError(t, err)
	defer env.Close()

	assert.NotNil(t, env.Store)
	assert.NotNil(t, env.Dataset)
	assert.Nil(t, env.Geocoder)
	assert.Nil(t, env.Pipeline)

	records, err := env.Dataset.Dataset(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = env.Dataset.Backfill(ctx)
	assert.True(t, errors.Is(err, model.ErrNotConfigured))
}

func TestInitEnv_InvalidStore(t *testing.T) {
	c := testConfig(t)
	c.Store.Driver = "mongo"

	_, err := initEnv(context.Background(), c, envNeeds{store: true})
	assert.Error(t, err)
}

func TestInitEnv_PipelineRequiresLLMKey(t *testing.T) {
	_, err := initEnv(context.Background(), testConfig(t), envNeeds{pipeline: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNotConfigured))
}

func TestInitEnv_Pipeline(t *testing.T) {
	c := testConfig(t)
	c.Anthropic.Key = "sk-test"

	env, err := initEnv(context.Background(), c, envNeeds{pipeline: true})
	require.NoError(t, err)
	defer env.Close()

	assert.NotNil(t, env.Pipeline)
	assert.NotNil(t, env.Describer)
	assert.NotNil(t, env.Geocoder)
	assert.Equal(t, 10, env.Pipeline.Limit(0))
}

func TestInitGeocoder_MissingKeyDisablesLookups(t *testing.T) {
	env := &appEnv{}
	geo := initGeocoder(context.Background(), testConfig(t), env)

	res := geo.Lookup(context.Background(), "Da Mario", "Roma")
	assert.Contains(t, res.Error, model.ErrNotConfigured.Error())
	assert.Nil(t, res.Latitude)
}

func TestInitGeocoder_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	c := testConfig(t)
	c.Google.Key = "key"
	c.Redis.Addr = mr.Addr()

	env := &appEnv{}
	geo := initGeocoder(context.Background(), c, env)
	defer env.Close()

	assert.NotNil(t, geo)
	assert.NotNil(t, env.redis)
}

func TestInitGeocoder_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	c := testConfig(t)
	c.Geocode.Provider = "nominatim"
	c.Nominatim.RPS = 1
	c.Redis.Addr = addr

	env := &appEnv{}
	geo := initGeocoder(context.Background(), c, env)

	assert.NotNil(t, geo)
	assert.Nil(t, env.redis)
}
