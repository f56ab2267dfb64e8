package storage

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// Dir is the storage directory.
	Dir string

	// GCInterval is the interval between automatic value log GC runs.
	// Default: 10m
	GCInterval string

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5 (rewrite a value log file when half of it is stale)
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 16MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 64MB
	ValueLogFileSize int64

	// NumMemtables is the number of memtables.
	// Default: 2
	NumMemtables int

	// SyncWrites enables sync writes (fsync after each write).
	// Default: true
	SyncWrites bool

	// DetectConflicts enables transaction conflict detection.
	// Token claims rely on it; turning it off makes concurrent claims of
	// the same token race.
	// Default: true
	DetectConflicts bool

	// InMemory runs badger without touching disk. Dir is ignored.
	InMemory bool
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig(dir string) BadgerConfig {
	return BadgerConfig{
		Dir:              dir,
		GCInterval:       "10m",
		GCThreshold:      0.5,
		CacheSize:        16 << 20, // 16MB
		ValueLogFileSize: 64 << 20, // 64MB
		NumMemtables:     2,
		SyncWrites:       true,
		DetectConflicts:  true,
	}
}
