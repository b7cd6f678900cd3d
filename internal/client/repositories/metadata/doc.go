// Package metadata stores small key/value bookkeeping for the local store,
// such as the time of the last successful pull.
package metadata
