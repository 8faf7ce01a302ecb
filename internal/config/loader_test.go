package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  port: 8081
  mode: "test"
database:
  host: "db.internal"
  port: 5432
  user: "leadtrack"
  password: "password"
  db_name: "leadtrack"
redis:
  addr: "redis.internal:6379"
kafka:
  brokers: ["kafka.internal:9092"]
  group_id: "leadtrack-activity"
minio:
  endpoint: "minio.internal:9000"
  access_key: "key"
  secret_key: "secret"
auth:
  jwt_secret: "0123456789abcdef0123456789abcdef"
log:
  level: "debug"
  format: "console"
`

// writeTempConfig writes yaml to a temp file and returns its path.
func writeTempConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	path := writeTempConfig(t, validConfigYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "test", cfg.Server.Mode)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"kafka.internal:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Defaults fill everything the file left out.
	assert.Equal(t, DefaultResumeBucket, cfg.MinIO.ResumeBucket)
	assert.Equal(t, DefaultAccessTokenTTL, cfg.Auth.AccessTokenTTL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidConfigFailsValidation(t *testing.T) {
	// Valid YAML, but the JWT secret is too short.
	yaml := strings.Replace(validConfigYAML,
		`jwt_secret: "0123456789abcdef0123456789abcdef"`,
		`jwt_secret: "short"`, 1)
	path := writeTempConfig(t, yaml)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("LEADTRACK_DATABASE_HOST", "env-wins.internal")

	path := writeTempConfig(t, validConfigYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-wins.internal", cfg.Database.Host)
}

func TestLoadFromEnv_RequiresSecret(t *testing.T) {
	// With no secret in the environment the config cannot validate.
	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.jwt_secret")
}

func TestLoadFromEnv_MinimalEnv(t *testing.T) {
	t.Setenv("LEADTRACK_AUTH_JWT_SECRET", strings.Repeat("k", 32))

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, strings.Repeat("k", 32), cfg.Auth.JWTSecret)
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	assert.Panics(t, func() {
		MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	})
}

func TestConfigKeys_WalksEverySection(t *testing.T) {
	keys := configKeys(reflect.TypeOf(Config{}), "")

	// One leaf per section proves the walker descends into each of them.
	for _, want := range []string{
		"server.port",
		"database.host",
		"redis.addr",
		"kafka.brokers",
		"minio.endpoint",
		"auth.jwt_secret",
		"reporting.template_dir",
		"worker.concurrency",
		"log.level",
		"metrics.enabled",
		"rate_limit.requests_per_minute",
	} {
		assert.Contains(t, keys, want)
	}

	// Struct fields must never leak as keys themselves.
	assert.NotContains(t, keys, "server")
	assert.NotContains(t, keys, "database")
}
