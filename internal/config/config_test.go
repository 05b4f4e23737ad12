package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := Defaults()

	assert.Equal(t, "5001", c.Port)
	assert.Equal(t, 5*time.Minute, c.OTP.TTL)
	assert.Equal(t, CodeStoreMemory, c.OTP.Store)
	assert.Equal(t, 15*time.Second, c.Stream.KeepAlive)
	assert.Equal(t, time.Second, c.Stream.Heartbeat)
	assert.Equal(t, 16, c.Stream.SubscriberBuffer)
	assert.Equal(t, 10.0, c.Hospitals.NearbyRadiusKM)
	assert.Equal(t, 30*time.Second, c.Simulator.Interval)
	assert.Equal(t, 20*time.Second, c.Simulator.GreenDuration)
	require.NoError(t, c.Validate())
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("PUBLIC_URL", "https://greenway.example.com")
	t.Setenv("OTP_TTL", "2m")
	t.Setenv("USE_MEMORY_STORE", "true")
	t.Setenv("SUBSCRIBER_BUFFER", "4")
	t.Setenv("NEARBY_RADIUS_KM", "2.5")
	t.Setenv("STREAM_HEARTBEAT", "500ms")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "https://greenway.example.com", c.PublicURL)
	assert.Equal(t, 2*time.Minute, c.OTP.TTL)
	assert.True(t, c.UseMemoryStore)
	assert.Equal(t, 4, c.Stream.SubscriberBuffer)
	assert.Equal(t, 2.5, c.Hospitals.NearbyRadiusKM)
	assert.Equal(t, 500*time.Millisecond, c.Stream.Heartbeat)
}

func TestLoad_YAMLOverlayThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	body := []byte(`
port: "7000"
publicURL: https://yaml.example.com
otp:
  ttl: 90s
  store: memory
stream:
  keepAlive: 5s
  subscriberBuffer: 8
`)
	require.NoError(t, os.WriteFile(path, body, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7100")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7100", c.Port, "environment wins over file")
	assert.Equal(t, "https://yaml.example.com", c.PublicURL)
	assert.Equal(t, 90*time.Second, c.OTP.TTL)
	assert.Equal(t, 5*time.Second, c.Stream.KeepAlive)
	assert.Equal(t, 8, c.Stream.SubscriberBuffer)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad duration", "OTP_TTL", "soon"},
		{"zero heartbeat", "STREAM_HEARTBEAT", "0s"},
		{"bad bool", "USE_MEMORY_STORE", "maybe"},
		{"bad int", "SUBSCRIBER_BUFFER", "many"},
		{"unknown store", "CODE_STORE", "mongo"},
		{"non numeric port", "PORT", "http"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate_RedisRequiresAddr(t *testing.T) {
	c := Defaults()
	c.OTP.Store = CodeStoreRedis
	c.Redis.Addr = ""
	assert.Error(t, c.Validate())

	c.Redis.Addr = "localhost:6379"
	assert.NoError(t, c.Validate())
}

func TestTransportsEnabled(t *testing.T) {
	c := Defaults()
	assert.False(t, c.SMTPEnabled())
	assert.False(t, c.TwilioEnabled())

	c.SMTP.Host = "smtp.gmail.com"
	c.SMTP.User = "ops@greenway.example.com"
	c.Twilio = TwilioConfig{AccountSID: "AC1", AuthToken: "tok", From: "+14155238886"}
	assert.True(t, c.SMTPEnabled())
	assert.True(t, c.TwilioEnabled())
}
