// Package cli hosts the sync engine behind an interactive terminal client.
//
// NewApp wires the local store, the remote backends chosen by config, the
// queues and the synchronizer. App.Run starts the connectivity probe and the
// background sync loop, then serves the REPL until the user exits. Every
// command works offline: writes land in the local store and are delivered
// when the gateway becomes reachable.
package cli
