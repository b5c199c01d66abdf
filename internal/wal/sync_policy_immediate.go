package wal

import (
	"github.com/go-logr/logr"
)

// SyncPolicyImmediate is flushing the content of the log to disk after every entry. This reduces the chances of
// data loss because of hardware failure, but it has a negative impact on performance.
type SyncPolicyImmediate struct {
	file Syncer
}

// SyncPolicyImmediate implements SyncPolicy.
var _ SyncPolicy = (*SyncPolicyImmediate)(nil)

// NewSyncPolicyImmediate creates a new SyncPolicyImmediate.
func NewSyncPolicyImmediate() *SyncPolicyImmediate {
	return &SyncPolicyImmediate{}
}

func (s *SyncPolicyImmediate) Startup(file Syncer, logger logr.Logger) error {
	s.file = file
	return nil
}

func (s *SyncPolicyImmediate) EntryAppended(sequenceNumber uint64) error {
	return syncFile(s.file)
}

func (s *SyncPolicyImmediate) Shutdown() error {
	return nil
}
