package config

import (
    "os"
    "path/filepath"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func setBase(t *testing.T) {
    t.Helper()
    t.Setenv("APP_ENV", "dev")
    t.Setenv("APP_PORT", "8080")
    t.Setenv("JWT_SECRET", "secret")
    t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
    t.Setenv("DB_USER", "root")
    t.Setenv("DB_HOST", "127.0.0.1")
    t.Setenv("DB_PORT", "3306")
    t.Setenv("DB_NAME", "eventify")
}

func TestLoad(t *testing.T) {
    setBase(t)
    cfg, err := Load()
    require.NoError(t, err)
    assert.Equal(t, StoreMySQL, cfg.StoreDriver)
    assert.Equal(t, 15, cfg.AccessTTLMin)
    assert.Equal(t, "eventify", cfg.DBName)
    assert.False(t, cfg.IsProduction())
}

func TestLoadReportsEveryMissingKey(t *testing.T) {
    for _, k := range []string{"APP_ENV", "APP_PORT", "JWT_SECRET", "ACCESS_TOKEN_TTL_MIN", "DB_USER", "DB_HOST", "DB_PORT", "DB_NAME", "STORE_DRIVER"} {
        t.Setenv(k, "")
    }
    _, err := Load()
    require.Error(t, err)
    for _, k := range []string{"APP_ENV", "APP_PORT", "JWT_SECRET", "ACCESS_TOKEN_TTL_MIN", "DB_HOST", "DB_NAME"} {
        assert.Contains(t, err.Error(), k)
    }
}

func TestLoadMemoryDriverSkipsDatabase(t *testing.T) {
    setBase(t)
    t.Setenv("STORE_DRIVER", "memory")
    t.Setenv("DB_HOST", "")
    t.Setenv("DB_NAME", "")
    cfg, err := Load()
    require.NoError(t, err)
    assert.Equal(t, StoreMemory, cfg.StoreDriver)
}

func TestLoadInvalidValues(t *testing.T) {
    setBase(t)
    t.Setenv("ACCESS_TOKEN_TTL_MIN", "soon")
    t.Setenv("STORE_DRIVER", "mongo")
    _, err := Load()
    require.Error(t, err)
    assert.Contains(t, err.Error(), `ACCESS_TOKEN_TTL_MIN="soon"`)
    assert.Contains(t, err.Error(), `STORE_DRIVER="mongo"`)
}

func TestLoadBookingPolicy(t *testing.T) {
    p, err := LoadBookingPolicy()
    require.NoError(t, err)
    assert.Equal(t, ReserveOnCreation, p.ReservationPoint)
    assert.False(t, p.RestockOnCancel)
    assert.True(t, p.EnforceTransitions)
    assert.Equal(t, 3, p.TxMaxRetries)
    assert.Equal(t, 5*time.Second, p.NotifyTimeout)

    t.Setenv("BOOKING_RESERVATION_POINT", "Confirmation")
    t.Setenv("BOOKING_RESTOCK_ON_CANCEL", "yes")
    t.Setenv("BOOKING_ENFORCE_TRANSITIONS", "0")
    t.Setenv("NOTIFY_TIMEOUT", "2s")
    p, err = LoadBookingPolicy()
    require.NoError(t, err)
    assert.Equal(t, ReserveOnConfirmation, p.ReservationPoint)
    assert.True(t, p.RestockOnCancel)
    assert.False(t, p.EnforceTransitions)
    assert.Equal(t, 2*time.Second, p.NotifyTimeout)

    t.Setenv("BOOKING_RESERVATION_POINT", "payment")
    _, err = LoadBookingPolicy()
    assert.Error(t, err)
}

func TestLoadNotifyConfig(t *testing.T) {
    t.Setenv("RABBITMQ_URL", "")
    t.Setenv("AMQP_URL", "amqp://other/")
    c, err := LoadNotifyConfig()
    require.NoError(t, err)
    assert.Equal(t, NotifyLog, c.Driver)
    assert.Equal(t, "amqp://other/", c.RabbitURL)
    assert.Equal(t, "booking.notifications", c.Queue)
    assert.False(t, c.UseMailerSend())

    t.Setenv("NOTIFY_DRIVER", "sms")
    _, err = LoadNotifyConfig()
    assert.Error(t, err)
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")
    c := LoadRateLimitConfig()
    assert.Equal(t, 1, c.Capacity)
    assert.Equal(t, 1, c.RefillTokens)
    assert.Equal(t, 10*time.Second, c.TTL)
    assert.Equal(t, "eventify:rl", c.Prefix)
}

func TestLoadCacheConfig(t *testing.T) {
    t.Setenv("CACHE_METHODS", "get, head")
    c := LoadCacheConfig()
    assert.True(t, c.Enabled)
    assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, c.Methods)
    assert.Equal(t, 5*time.Second, c.TTL)

    t.Setenv("CACHE_TTL", "0s")
    assert.False(t, LoadCacheConfig().Enabled)
}

func TestLoadDotEnv(t *testing.T) {
    dir := t.TempDir()
    path := filepath.Join(dir, ".env")
    require.NoError(t, os.WriteFile(path, []byte("EVENTIFY_DOTENV_PROBE=from-file\n"), 0o600))
    t.Setenv("EVENTIFY_DOTENV_PROBE", "")
    require.NoError(t, os.Unsetenv("EVENTIFY_DOTENV_PROBE"))

    require.NoError(t, LoadDotEnv(path))
    assert.Equal(t, "from-file", os.Getenv("EVENTIFY_DOTENV_PROBE"))

    assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
