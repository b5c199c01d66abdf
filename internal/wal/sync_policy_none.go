package wal

import "github.com/go-logr/logr"

// SyncPolicyNone is never flushing the content of the log to disk. The data only survives a restart of the process,
// not a crash of the operating system or a power loss.
type SyncPolicyNone struct{}

// SyncPolicyNone implements SyncPolicy
var _ SyncPolicy = (*SyncPolicyNone)(nil)

// NewSyncPolicyNone creates a new SyncPolicyNone.
func NewSyncPolicyNone() *SyncPolicyNone {
	return &SyncPolicyNone{}
}

func (s *SyncPolicyNone) Startup(file Syncer, logger logr.Logger) error {
	return nil
}

func (s *SyncPolicyNone) EntryAppended(sequenceNumber uint64) error {
	return nil
}

func (s *SyncPolicyNone) Shutdown() error {
	return nil
}
