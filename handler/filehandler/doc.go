// Package filehandler provides the file sink: formatted log envelopes
// written to a file through a buffered writer, with size-based rotation
// and retention of a bounded number of rotated files.
//
// The file is opened by Init so a bad path surfaces as an install
// error, not a construction panic. Rotated files carry a timestamp
// suffix; when MaxBackups is set the oldest are removed after each
// rotation. Terminate flushes and syncs before closing.
package filehandler
