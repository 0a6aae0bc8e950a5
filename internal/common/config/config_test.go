package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	t.Setenv("SURVEY_API_URL", "http://survey.local")
	path := writeConfig(t, `
app:
  name: surveys
workers:
  survey-form-load:
    enabled: true
`)
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "surveys", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "survey-submissions", cfg.Database.Elasticsearch.Index)
	assert.Equal(t, "./public/data", cfg.Forms.PublicDir)
	assert.Equal(t, 60000, cfg.Forms.SubmitLockTTL)
	assert.Equal(t, "/survey/save", cfg.Services.Survey.SavePath)
	assert.Equal(t, "info", cfg.Logging.Level)

	w := cfg.Workers["survey-form-load"]
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
	assert.Equal(t, 3, w.MaxRetries)

	assert.False(t, cfg.Database.Postgres.Enabled())
	assert.False(t, cfg.Database.Redis.Enabled())
	assert.False(t, cfg.Database.Elasticsearch.Enabled())
}

func TestLoadFromFile_ExpandsEnv(t *testing.T) {
	t.Setenv("SURVEY_TEST_REDIS", "localhost:6390")
	t.Setenv("SURVEY_TEST_UNSET", "")
	t.Setenv("SURVEY_API_URL", "http://survey.local")
	path := writeConfig(t, `
database:
  redis:
    address: ${SURVEY_TEST_REDIS}
  postgres:
    host: ${SURVEY_TEST_UNSET}
`)
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost:6390", cfg.Database.Redis.Address)
	assert.Equal(t, "", cfg.Database.Postgres.Host)
	assert.False(t, cfg.Database.Postgres.Enabled())
}

func TestLoadFromFile_EnvFallbacks(t *testing.T) {
	t.Setenv("FORMS_S3_BUCKET", "forms-bucket")
	t.Setenv("AWS_REGION", "ap-south-1")
	t.Setenv("SURVEY_API_URL", "http://survey.local")
	path := writeConfig(t, "app:\n  name: surveys\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "forms-bucket", cfg.Storage.S3.Bucket)
	assert.Equal(t, "ap-south-1", cfg.Storage.S3.Region)
	assert.Equal(t, "http://survey.local", cfg.Services.Survey.BaseURL)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "camunda without broker",
			body: "camunda:\n  enabled: true\n",
			want: "camunda.broker_address",
		},
		{
			name: "postgres without database",
			body: "database:\n  postgres:\n    host: db\n    user: app\n",
			want: "database.postgres.database",
		},
		{
			name: "sns without topic",
			body: "integrations:\n  aws:\n    sns:\n      enabled: true\n",
			want: "integrations.aws.sns.topic_arn",
		},
		{
			name: "survey api without base url",
			body: "services:\n  survey:\n    base_url: \"  \"\n",
			want: "services.survey.base_url",
		},
		{
			name: "survey api unset",
			body: "app:\n  name: surveys\n",
			want: "services.survey.base_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SURVEY_EVENTS_TOPIC_ARN", "")
			t.Setenv("SURVEY_API_URL", "")
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "app", Password: "pw", Database: "surveys", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=app password=pw dbname=surveys sslmode=disable", p.GetDSN())
}

func TestWorkerHelpers(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"survey-form-submit": {Enabled: false, MaxJobsActive: 2, Timeout: 1000, MaxRetries: 1},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "survey-form-submit"))
	assert.True(t, IsWorkerEnabled(cfg, "survey-form-load"))
	assert.Equal(t, 2, GetWorkerConfig(cfg, "survey-form-submit").MaxJobsActive)
	assert.Equal(t, 5, GetWorkerConfig(cfg, "survey-form-load").MaxJobsActive)
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
