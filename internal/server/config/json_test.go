package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"endpoint_addr_grpc":               "127.0.0.1:9000",
		"endpoint_addr_http":               "127.0.0.1:9001",
		"storage_driver":                   "sqlite",
		"database_dsn":                     "auth.db",
		"secret_key":                       "my_secret_key",
		"session_token_validity_duration":  "2h",
		"one_time_token_validity_duration": "5m",
		"bcrypt_cost":                      12,
		"smtp_host":                        "smtp.example.com",
		"smtp_port":                        465,
		"smtp_user":                        "mailer",
		"smtp_password":                    "pw",
		"mail_from":                        "auth@example.com",
		"log_level":                        "debug",
		"otlp_endpoint":                    "http://collector:4318",
	})

	t.Run("loads from json", func(t *testing.T) {
		cfg := &Config{}
		parseJson(cfg, []string{"-config", path})

		assert.Equal(t, Config{
			EndpointAddrGRPC:             "127.0.0.1:9000",
			EndpointAddrHTTP:             "127.0.0.1:9001",
			StorageDriver:                StorageSQLite,
			DatabaseDSN:                  "auth.db",
			SecretKey:                    "my_secret_key",
			SessionTokenValidityDuration: 2 * time.Hour,
			OneTimeTokenValidityDuration: 5 * time.Minute,
			BcryptCost:                   12,
			SMTPHost:                     "smtp.example.com",
			SMTPPort:                     465,
			SMTPUser:                     "mailer",
			SMTPPassword:                 "pw",
			MailFrom:                     "auth@example.com",
			LogLevel:                     "debug",
			OTLPEndpoint:                 "http://collector:4318",
		}, *cfg)
	})

	t.Run("no config flag leaves values", func(t *testing.T) {
		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg, []string{"-a", ":1"})

		var want Config
		want.LoadDefaults()
		assert.Equal(t, want, *cfg)
	})

	t.Run("partial file keeps the rest", func(t *testing.T) {
		partial := writeTempJSON(t, map[string]any{"secret_key": "only-this"})
		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg, []string{"-c", partial})

		assert.Equal(t, "only-this", cfg.SecretKey)
		assert.Equal(t, 10*time.Minute, cfg.OneTimeTokenValidityDuration)
		assert.Equal(t, ":8080", cfg.EndpointAddrHTTP)
	})

	t.Run("invalid json panics", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		require.Panics(t, func() { parseJson(&Config{}, []string{"-c", bad}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		require.Panics(t, func() { parseJson(&Config{}, []string{"-c", "/does/not/exist.json"}) })
	})
}
