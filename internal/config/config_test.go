package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) lookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 3, cfg.Engine.MaxCascade)
	assert.Equal(t, 15*time.Second, cfg.Engine.CallTimeout)
}

func TestLoad_YAML(t *testing.T) {
	for _, k := range []string{"PORT", "GASHU_ADDR", "GASHU_STORE", "REDIS_ADDR", "GASHU_CALL_TIMEOUT"} {
		t.Setenv(k, "")
	}
	path := filepath.Join(t.TempDir(), "gashu.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
  cors_origins: ["http://localhost:5173"]
store:
  driver: redis
  redis:
    addr: "redis:6379"
    ttl: 2h
engine:
  call_timeout: 5s
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 2*time.Hour, cfg.Store.Redis.TTL)
	assert.Equal(t, 5*time.Second, cfg.Engine.CallTimeout)
	// Untouched fields keep their defaults.
	assert.Equal(t, "gashu:session:", cfg.Store.Redis.Prefix)
	assert.Equal(t, 40, cfg.Store.HistoryLimit)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [::"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(env(map[string]string{
		"PORT":               "8080",
		"GASHU_CORS_ORIGINS": "http://a, http://b ,",
		"GASHU_STORE":        "file",
		"REDIS_DB":           "2",
		"OPENAI_API_KEY":     "sk-test",
		"KAKAO_API_KEY":      "kakao",
		"SQLITE_DATABASE":    "/data/stations.db",
		"GASHU_CALL_TIMEOUT": "3s",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.Server.CORSOrigins)
	assert.Equal(t, DriverFile, cfg.Store.Driver)
	assert.Equal(t, 2, cfg.Store.Redis.DB)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAIKey)
	assert.Equal(t, "kakao", cfg.Providers.KakaoKey)
	assert.Equal(t, "/data/stations.db", cfg.Stations.SQLite)
	assert.Equal(t, 3*time.Second, cfg.Engine.CallTimeout)
}

func TestApplyEnv_Invalid(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(env(map[string]string{
		"REDIS_DB":           "two",
		"GASHU_CALL_TIMEOUT": "soon",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_DB")
	assert.Contains(t, err.Error(), "GASHU_CALL_TIMEOUT")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Store.Driver = "etcd"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Store.EncryptionKey = "short"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Store.EncryptionKey = "0123456789abcdef0123456789abcdef"
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.Store.RedactPatterns = []string{"(unclosed"}
	assert.Error(t, cfg.Validate())
}
