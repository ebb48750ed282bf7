package snapshot

import (
	"fmt"
	"regexp"
	"time"

	"github.com/wxoracle/wxoracle/internal/apierr"
)

// nameRegexp matches "{kind}_{generated_at}.parquet", accepting both the
// colon-bearing RFC3339 form and the filesystem-safe form produced by
// Format (colons replaced with dashes).
var nameRegexp = regexp.MustCompile(`^(observations|forecasts)_([0-9TZ:\-\.]+)\.parquet$`)

// File identifies one immutable snapshot file by its kind and the
// second-precision UTC instant at which its contents were fetched.
type File struct {
	Kind        Kind
	GeneratedAt time.Time
	Name        string
}

// Format renders the canonical, filesystem-safe filename for a
// snapshot of the given kind generated at t (spec.md §3: "second
// precision, UTC").
func Format(kind Kind, t time.Time) string {
	ts := t.UTC().Truncate(time.Second).Format("2006-01-02T15-04-05Z")
	return fmt.Sprintf("%s_%s.parquet", kind, ts)
}

// ParseName extracts the kind and generation time from a snapshot
// filename, rejecting anything that doesn't match the expected pattern.
func ParseName(name string) (File, error) {
	m := nameRegexp.FindStringSubmatch(name)
	if m == nil {
		return File{}, apierr.New(apierr.InvalidInput, fmt.Sprintf("snapshot filename %q does not match the expected pattern", name))
	}
	kind := Kind(m[1])
	t, err := parseTimestamp(m[2])
	if err != nil {
		return File{}, apierr.Wrap(apierr.InvalidInput, fmt.Sprintf("snapshot filename %q has an unparseable timestamp", name), err)
	}
	return File{Kind: kind, GeneratedAt: t, Name: name}, nil
}

// parseTimestamp accepts either the filesystem-safe form written by
// Format ("2006-01-02T15-04-05Z") or plain RFC3339, so files uploaded
// by older daemon versions or hand-placed for tests still parse.
func parseTimestamp(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02T15-04-05Z", raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format %q", raw)
}
