// Package clock provides the wall-clock and timezone source used to stamp
// new entries.
package clock

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Clock supplies the current time and the writer's IANA timezone.
type Clock interface {
	Now() time.Time
	Zone() string
}

// System reads the host clock and local timezone.
type System struct{}

// Now returns the current wall-clock time.
func (System) Now() time.Time {
	return time.Now()
}

// Zone returns the local IANA timezone identifier, e.g. "America/Los_Angeles".
//
// TZ wins when set. Otherwise the name comes from the /etc/localtime link
// target, then /etc/timezone. Falls back to "UTC" when none of them names a
// zone.
func (System) Zone() string {
	return zoneName(os.LookupEnv, "/etc/localtime", "/etc/timezone")
}

func zoneName(lookupEnv func(string) (string, bool), localtime, timezoneFile string) string {
	if tz, ok := lookupEnv("TZ"); ok {
		tz = strings.TrimPrefix(tz, ":")
		switch {
		case tz == "":
			return "UTC"
		case filepath.IsAbs(tz):
			if name := zoneFromPath(tz); name != "" {
				return name
			}
		default:
			return tz
		}
	}

	if target, err := os.Readlink(localtime); err == nil {
		if name := zoneFromPath(target); name != "" {
			return name
		}
	}

	if data, err := os.ReadFile(timezoneFile); err == nil {
		if name := strings.TrimSpace(string(data)); name != "" {
			return name
		}
	}

	if name := time.Local.String(); name != "" && name != "Local" {
		return name
	}
	return "UTC"
}

// zoneFromPath extracts "Area/City" from a zoneinfo file path such as
// /usr/share/zoneinfo/Area/City.
func zoneFromPath(p string) string {
	p = filepath.ToSlash(p)
	i := strings.LastIndex(p, "zoneinfo/")
	if i < 0 {
		return ""
	}
	name := p[i+len("zoneinfo/"):]
	name = strings.TrimPrefix(name, "posix/")
	name = strings.TrimPrefix(name, "right/")
	return name
}

// Seconds converts t to float seconds since the epoch, the unit of
// write_ts and read_ts.
func Seconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// FromSeconds converts float epoch seconds back to a time.Time.
func FromSeconds(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}

// Local reconstructs the writer's local time from a timestamp and the
// timezone stored alongside it. Unknown zones fall back to UTC.
func Local(ts float64, zone string) time.Time {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = time.UTC
	}
	return FromSeconds(ts).In(loc)
}
