// Package connectors holds document sources.
//
// The filesystem connector resolves user paths and watches a folder for new
// or changed files to ingest.
package connectors
