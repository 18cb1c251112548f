package clock

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeconds(t *testing.T) {
	ts := time.Unix(1700000000, int64(250*time.Millisecond))
	assert.InDelta(t, 1700000000.25, Seconds(ts), 1e-6)
}

func TestFromSeconds_RoundTrip(t *testing.T) {
	ts := 1700000000.5
	assert.InDelta(t, ts, Seconds(FromSeconds(ts)), 1e-6)
}

func TestLocal(t *testing.T) {
	got := Local(0, "UTC")
	assert.Equal(t, 1970, got.Year())
	assert.Equal(t, "UTC", got.Location().String())

	fallback := Local(0, "Not/AZone")
	assert.Equal(t, time.UTC, fallback.Location())
}

func TestSystem(t *testing.T) {
	var c Clock = System{}
	assert.WithinDuration(t, time.Now(), c.Now(), time.Second)
	assert.NotEmpty(t, c.Zone())
}

func env(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func TestZoneName(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(dir, "localtime")
	require.NoError(t, os.Symlink("/usr/share/zoneinfo/Europe/Berlin", link))
	tzFile := filepath.Join(dir, "timezone")
	require.NoError(t, os.WriteFile(tzFile, []byte("Asia/Tokyo\n"), 0o644))
	missing := filepath.Join(dir, "missing")

	tests := []struct {
		name      string
		env       map[string]string
		localtime string
		tzFile    string
		want      string
	}{
		{"TZ name", map[string]string{"TZ": "America/New_York"}, link, tzFile, "America/New_York"},
		{"TZ with colon", map[string]string{"TZ": ":America/Chicago"}, link, tzFile, "America/Chicago"},
		{"TZ path", map[string]string{"TZ": "/usr/share/zoneinfo/Australia/Sydney"}, link, tzFile, "Australia/Sydney"},
		{"TZ empty means UTC", map[string]string{"TZ": ""}, link, tzFile, "UTC"},
		{"localtime link", nil, link, tzFile, "Europe/Berlin"},
		{"timezone file", nil, missing, tzFile, "Asia/Tokyo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, zoneName(env(tt.env), tt.localtime, tt.tzFile))
		})
	}
}

func TestZoneName_NothingConfigured(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	got := zoneName(env(nil), missing, missing)
	assert.NotEqual(t, "Local", got)
	assert.NotEmpty(t, got)
}

func TestZoneFromPath(t *testing.T) {
	assert.Equal(t, "Europe/Berlin", zoneFromPath("/usr/share/zoneinfo/Europe/Berlin"))
	assert.Equal(t, "America/Denver", zoneFromPath("../usr/share/zoneinfo/posix/America/Denver"))
	assert.Equal(t, "", zoneFromPath("/etc/custom-zone"))
}
