// Package archive keeps point-in-time snapshots of the writ backend.
//
// writdesk does not own writ storage; the backend does. An operator can
// still take a snapshot of every writ the backend returns and keep it on
// local disk or in an S3 bucket:
//
//	store, _ := archive.NewDiskStore("/var/backups/writdesk")
//	key, n, err := archive.Export(ctx, backendClient, store, time.Now())
//
// Snapshots are JSON documents named "snapshot-<UTC timestamp>.json".
package archive
