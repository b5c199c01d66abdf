package wal

import (
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// SyncPolicyPeriodic is flushing the log to disk after having written some number of entries, or after some time
// interval has passed. Appends are acknowledged before they are on stable storage, so a crash of the operating system
// can lose the entries of the last interval.
type SyncPolicyPeriodic struct {
	mutex sync.Mutex

	syncAfterEntryCount int
	syncEvery           time.Duration

	file              Syncer
	logger            logr.Logger
	syncTicker        *time.Ticker
	shutdown          chan struct{}
	shutdownWaitGroup sync.WaitGroup

	unsyncedEntryCount int
}

// SyncPolicyPeriodic implements SyncPolicy.
var _ SyncPolicy = (*SyncPolicyPeriodic)(nil)

// NewSyncPolicyPeriodic creates a new SyncPolicyPeriodic.
func NewSyncPolicyPeriodic(syncAfterEntryCount int, syncEvery time.Duration) *SyncPolicyPeriodic {
	return &SyncPolicyPeriodic{
		syncAfterEntryCount: max(syncAfterEntryCount, 1),
		syncEvery:           max(syncEvery, 100*time.Microsecond),
	}
}

func (s *SyncPolicyPeriodic) Startup(file Syncer, logger logr.Logger) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.file = file
	s.logger = logger
	s.syncTicker = time.NewTicker(s.syncEvery)
	s.shutdown = make(chan struct{})
	s.shutdownWaitGroup.Add(1)
	go s.backgroundTask()
	return nil
}

func (s *SyncPolicyPeriodic) EntryAppended(sequenceNumber uint64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.unsyncedEntryCount++
	if s.unsyncedEntryCount < s.syncAfterEntryCount {
		return nil
	}
	return s.syncNow()
}

func (s *SyncPolicyPeriodic) Shutdown() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.syncTicker.Stop()
	close(s.shutdown)

	// We need to unlock the mutex while waiting for the shutdown, otherwise we run the risk of a deadlock.
	s.mutex.Unlock()
	s.shutdownWaitGroup.Wait()
	s.mutex.Lock()

	return s.syncNow()
}

func (s *SyncPolicyPeriodic) backgroundTask() {
	defer s.shutdownWaitGroup.Done()
	for {
		select {
		case <-s.syncTicker.C:
			s.periodicSync()
		case <-s.shutdown:
			return
		}
	}
}

func (s *SyncPolicyPeriodic) periodicSync() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.syncNow(); err != nil {
		s.logger.Error(err, "Periodic sync failed")
	}
}

func (s *SyncPolicyPeriodic) syncNow() error {
	if s.unsyncedEntryCount == 0 {
		return nil
	}

	if err := syncFile(s.file); err != nil {
		return err
	}
	s.unsyncedEntryCount = 0
	return nil
}
