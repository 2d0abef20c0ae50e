package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("FLEET_DB_DSN", "")
	t.Setenv("POSTGRES_CONN", "postgres://fleet@localhost/fleet")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, "development", cfg.Env)
	require.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "postgres://fleet@localhost/fleet", cfg.Database.DSN)
	require.Equal(t, "sequence", cfg.Refnum)
	require.Equal(t, "memory", cfg.Blob.Driver)
	require.False(t, cfg.Production())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("FLEET_ENV", "Production")
	t.Setenv("FLEET_DB_DRIVER", "sqlite")
	t.Setenv("FLEET_DB_DSN", "file:fleet.db")
	t.Setenv("FLEET_JWT_SECRET", "s3cret")
	t.Setenv("FLEET_REFNUM_SCHEME", "clock")
	t.Setenv("FLEET_BLOB_DRIVER", "s3")
	t.Setenv("FLEET_BLOB_S3_BUCKET", "fleet-files")
	t.Setenv("FLEET_BLOB_S3_PATH_STYLE", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.True(t, cfg.Production())
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "clock", cfg.Refnum)
	require.Equal(t, "fleet-files", cfg.Blob.Bucket)
	require.True(t, cfg.Blob.PathStyle)
	require.Equal(t, "us-east-1", cfg.Blob.Region)
	require.NoError(t, cfg.RequireServe())
}

func TestFromEnvNamesTheBadVariable(t *testing.T) {
	cases := map[string][2]string{
		"driver":     {"FLEET_DB_DRIVER", "mysql"},
		"scheme":     {"FLEET_REFNUM_SCHEME", "random"},
		"blob":       {"FLEET_BLOB_DRIVER", "ftp"},
		"path style": {"FLEET_BLOB_S3_PATH_STYLE", "maybe"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := FromEnv()
			require.ErrorContains(t, err, kv[0])
		})
	}

	t.Run("s3 without bucket", func(t *testing.T) {
		t.Setenv("FLEET_BLOB_DRIVER", "s3")
		t.Setenv("FLEET_BLOB_S3_BUCKET", "")
		_, err := FromEnv()
		require.ErrorContains(t, err, "FLEET_BLOB_S3_BUCKET")
	})
}

func TestRequireServe(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{DSN: "dsn"}}
	require.ErrorContains(t, cfg.RequireServe(), "FLEET_JWT_SECRET")

	cfg = &Config{Auth: AuthConfig{JWTSecret: "x"}}
	require.ErrorContains(t, cfg.RequireServe(), "FLEET_DB_DSN")
}
