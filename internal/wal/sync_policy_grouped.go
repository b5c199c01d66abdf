package wal

import (
	"math"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// SyncPolicyGrouped is batching the flushes of multiple appends into a single one. Every append still waits until
// its entry is on stable storage before it is acknowledged. This pays off when several goroutines append to the same
// log concurrently.
type SyncPolicyGrouped struct {
	syncAfter         time.Duration
	file              Syncer
	logger            logr.Logger
	syncTimer         *time.Timer
	shutdown          chan struct{}
	shutdownWaitGroup sync.WaitGroup
	backgroundSync    sync.Cond

	mutex                 sync.Mutex
	pendingSequenceNumber uint64
	syncedSequenceNumber  uint64
	syncTimerActive       bool
	syncErr               error
	closed                bool
}

// SyncPolicyGrouped implements SyncPolicy.
var _ SyncPolicy = (*SyncPolicyGrouped)(nil)

// NewSyncPolicyGrouped creates a new SyncPolicyGrouped.
func NewSyncPolicyGrouped(syncAfter time.Duration) *SyncPolicyGrouped {
	newPolicy := SyncPolicyGrouped{
		syncAfter: max(syncAfter, 100*time.Microsecond),
	}
	newPolicy.backgroundSync.L = &newPolicy.mutex
	return &newPolicy
}

func (s *SyncPolicyGrouped) Startup(file Syncer, logger logr.Logger) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.file = file
	s.logger = logger
	s.syncTimer = time.NewTimer(math.MaxInt64)
	s.shutdown = make(chan struct{})
	s.shutdownWaitGroup.Add(1)
	go s.backgroundTask()
	return nil
}

func (s *SyncPolicyGrouped) EntryAppended(sequenceNumber uint64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	// Nobody is left to run the sync timer after shutdown.
	if s.closed {
		return ErrLogClosed
	}
	if !s.syncTimerActive {
		s.syncTimer.Reset(s.syncAfter)
		s.syncTimerActive = true
	}

	s.pendingSequenceNumber = max(s.pendingSequenceNumber, sequenceNumber)
	for s.syncedSequenceNumber < sequenceNumber && s.syncErr == nil {
		s.backgroundSync.Wait()
	}
	return s.syncErr
}

func (s *SyncPolicyGrouped) Shutdown() error {
	s.mutex.Lock()
	s.closed = true
	s.mutex.Unlock()

	// Shutdown and wait for the background sync to exit.
	s.syncTimer.Stop()
	close(s.shutdown)
	s.shutdownWaitGroup.Wait()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.syncNow()
}

func (s *SyncPolicyGrouped) backgroundTask() {
	defer s.shutdownWaitGroup.Done()
	for {
		select {
		case <-s.syncTimer.C:
			s.periodicSync()
		case <-s.shutdown:
			return
		}
	}
}

func (s *SyncPolicyGrouped) periodicSync() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.syncNow(); err != nil {
		s.logger.Error(err, "Grouped sync failed")
	}
	s.syncTimerActive = false
}

// syncNow flushes all pending entries and wakes up everyone waiting for them. A failed flush is reported to all
// current and future waiters, because there is no way of telling which entries made it to stable storage.
func (s *SyncPolicyGrouped) syncNow() error {
	if s.syncErr != nil {
		return s.syncErr
	}
	if s.syncedSequenceNumber == s.pendingSequenceNumber {
		return nil
	}

	if err := syncFile(s.file); err != nil {
		s.syncErr = err
		s.backgroundSync.Broadcast()
		return err
	}
	s.syncedSequenceNumber = s.pendingSequenceNumber
	s.backgroundSync.Broadcast()
	return nil
}
