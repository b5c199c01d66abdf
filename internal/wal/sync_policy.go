package wal

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
)

var ErrSyncPolicyUnsupported = errors.New("unsupported WAL sync policy")

// SyncPolicyType describes the type of sync policy to apply when appending to the log file.
type SyncPolicyType int

const (
	SyncPolicyTypeNone SyncPolicyType = iota
	SyncPolicyTypeImmediate
	SyncPolicyTypePeriodic
	SyncPolicyTypeGrouped
)

// String returns a string representation of the sync policy type.
func (s SyncPolicyType) String() string {
	switch s {
	case SyncPolicyTypeNone:
		return "none"
	case SyncPolicyTypeImmediate:
		return "immediate"
	case SyncPolicyTypePeriodic:
		return "periodic"
	case SyncPolicyTypeGrouped:
		return "grouped"
	default:
		return "unknown"
	}
}

// ParseSyncPolicyType returns the sync policy type with the given name.
func ParseSyncPolicyType(name string) (SyncPolicyType, error) {
	for _, syncPolicyType := range SyncPolicyTypes {
		if syncPolicyType.String() == name {
			return syncPolicyType, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrSyncPolicyUnsupported, name)
}

// SyncPolicyTypes provides a list of supported sync policies. Helpful for writing tests and benchmarks which iterate
// over all possibilities.
var SyncPolicyTypes = []SyncPolicyType{
	SyncPolicyTypeNone,
	SyncPolicyTypeImmediate,
	SyncPolicyTypePeriodic,
	SyncPolicyTypeGrouped,
}

// DefaultSyncPolicy is the sync policy type which should work fine for most use cases. Every append is on stable
// storage before it is acknowledged.
const DefaultSyncPolicy = SyncPolicyTypeImmediate

// SyncPolicy is the interface every sync policy needs to implement.
type SyncPolicy interface {
	// Startup is called once when the log is opened.
	Startup(file Syncer, logger logr.Logger) error

	// EntryAppended is called after every append with the number of entries in the log. The append is only
	// acknowledged to the caller after EntryAppended returns without error.
	EntryAppended(sequenceNumber uint64) error

	// Shutdown is called once when the log is closed. It flushes everything which is still pending.
	Shutdown() error
}

// syncFile flushes the file to stable storage and records the duration.
func syncFile(file Syncer) error {
	start := time.Now()
	if err := file.Sync(); err != nil {
		return fmt.Errorf("synching the log file: %w", err)
	}
	SyncDuration.Observe(time.Since(start).Seconds())
	return nil
}
