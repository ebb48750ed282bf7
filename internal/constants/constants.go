// Package constants defines application-wide constants and version information.
package constants

// Version holds the application version information. This is set at build time via -ldflags.
var Version = "1.0.0"

// CommitID holds the git commit hash. This is set at build time via -ldflags.
var CommitID = "unknown"

// DefaultSnapshotRetentionDays is the default horizon after which the
// Snapshot Store sweeper may remove a file (spec.md §4.A).
const DefaultSnapshotRetentionDays = 30

// DefaultSleepInterval is the ingestion daemon's default cycle period
// in seconds (spec.md §4.F).
const DefaultSleepInterval = 3600

// OutboundHTTPTimeoutSeconds bounds every outbound HTTP call the oracle
// or daemon makes (spec.md §5).
const OutboundHTTPTimeoutSeconds = 30

// MetadataStoreBusyTimeoutSeconds bounds how long a writer waits for
// the Metadata Store lock before failing Transient (spec.md §4.C, §5).
const MetadataStoreBusyTimeoutSeconds = 5
