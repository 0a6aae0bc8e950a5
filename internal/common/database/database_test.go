package database

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"survey-forms/internal/common/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRedis_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	rc, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer rc.Close()

	assert.NoError(t, rc.Ping(context.Background()))
}

func TestNewRedis_EmptyAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.ErrorIs(t, err, ErrRedisNotConfigured)
}

func TestNewRedis_PoolSize(t *testing.T) {
	rc, err := NewRedis(config.RedisConfig{Address: "localhost:6379", PoolSize: 20})
	require.NoError(t, err)
	defer rc.Close()

	assert.Equal(t, 20, rc.Client.Options().PoolSize)
	assert.Equal(t, 4, rc.Client.Options().MinIdleConns)
}

func TestRedis_PingDown(t *testing.T) {
	rc, err := NewRedis(config.RedisConfig{Address: "127.0.0.1:1"})
	require.NoError(t, err)
	defer rc.Close()

	assert.ErrorContains(t, rc.Ping(context.Background()), "redis ping failed")
}

func TestPostgres_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	pg := &PostgresClient{DB: db}

	mock.ExpectPing()
	assert.NoError(t, pg.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.ErrorContains(t, pg.Ping(context.Background()), "postgres ping failed: connection refused")

	mock.ExpectClose()
	assert.NoError(t, pg.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigurePool(t *testing.T) {
	pg, err := NewPostgres(config.PostgresConfig{
		Host: "localhost", Port: 5432, User: "app", Database: "surveys", SSLMode: "disable",
		MaxConnections: 7, MaxIdle: 1, MaxLifetime: 60000,
	})
	require.NoError(t, err)
	defer pg.Close()

	assert.Equal(t, 7, pg.DB.Stats().MaxOpenConnections)
}

func TestElasticsearch_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	es, err := NewElasticsearch(config.ElasticsearchConfig{URL: srv.URL})
	require.NoError(t, err)
	assert.NoError(t, es.Ping(context.Background()))
}

func TestElasticsearch_EnsureIndex(t *testing.T) {
	var created string
	exists := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		switch r.Method {
		case http.MethodHead:
			if exists {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			raw, _ := io.ReadAll(r.Body)
			created = r.URL.Path + " " + string(raw)
			exists = true
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"acknowledged":true}`))
		}
	}))
	defer srv.Close()

	cfg := config.ElasticsearchConfig{URL: srv.URL, Index: "survey-submissions", Shards: 2, Replicas: 1}
	es, err := NewElasticsearch(cfg)
	require.NoError(t, err)

	ok, err := es.EnsureIndex(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, created, "/survey-submissions ")
	assert.Contains(t, created, `"number_of_shards": 2`)
	assert.Contains(t, created, `"payload":     {"type": "object", "enabled": false}`)

	ok, err = es.EnsureIndex(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestElasticsearch_EnsureIndexRace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"resource_already_exists_exception"}}`))
	}))
	defer srv.Close()

	cfg := config.ElasticsearchConfig{URL: srv.URL, Index: "survey-submissions"}
	es, err := NewElasticsearch(cfg)
	require.NoError(t, err)

	ok, err := es.EnsureIndex(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(func() error {
		calls++
		if calls < 2 {
			return errors.New("not yet")
		}
		return nil
	}, 3, time.Millisecond, zap.NewNop(), "redis connection")

	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	err = RetryWithBackoff(func() error { return errors.New("down") }, 2, time.Millisecond, zap.NewNop(), "postgres connection")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres connection failed after 2 attempts")
}
