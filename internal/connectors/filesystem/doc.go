// Package filesystem resolves local paths and watches folders with fsnotify.
package filesystem
