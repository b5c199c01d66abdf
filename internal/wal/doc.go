// Package wal provides the write-ahead log backing the key-value store.
//
// The on-disk structure looks like this:
//
//   - The write-ahead log is a single file. There is no file header, no magic number and no checksum. The whole file
//     is the database and deleting it resets the store to empty.
//   - The file is a back-to-back concatenation of entries as defined by the encoding package. Entries are only ever
//     appended at the end. No entry is ever rewritten or deleted.
//   - The log pointer consists of the byte offset of the end of the log and the number of entries stored in front of
//     that offset. Both values only ever increase.
//   - A process holds an exclusive advisory lock on the file for as long as the log is open. The lock is released on
//     Close and automatically by the operating system when the process exits.
package wal
