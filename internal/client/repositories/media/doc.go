// Package media persists captured photos and videos together with their
// upload-queue bookkeeping (status, attempts, backoff, last error).
//
// The upload queue is implicit: DueForUpload and DueForDelete select rows by
// sync_status. Listing methods hide soft-deleted rows unless asked not to.
package media
