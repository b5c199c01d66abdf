// Package kvs provides a persistent key-value store of string keys and string values backed by a write-ahead log.
//
//   - The whole store lives in a single log file. Every set and remove is appended to the log before it becomes
//     visible, and every read is appended as well unless read auditing is disabled.
//   - When opening the store, the log is replayed from the start and folded into an in-memory map. Entries recording
//     reads do not change the map.
//   - The log file is locked for exclusive use while the store is open. Opening the same file a second time fails.
//   - A log with a malformed tail, for example from a crash in the middle of an append, is reported as a corruption
//     error instead of being silently cut off.
package kvs
