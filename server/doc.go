/*
Package server loads the TOML configuration of a segmentation session and wires the
labelmap store, history manager, background compression, snapshot persistence and
contour cache together.

A minimal configuration that persists history in BadgerDB:

	[logging]
	logfile = "dvidseg.log"
	max_log_size = 500 # MB
	max_log_age = 30   # days

	[history]
	debounce_ms = 100
	background = true
	workers = 2
	compression = "deflate"

	[store]
	engine = "badger"
	path = "snapshots"

Relative paths are taken relative to the configuration file.
*/
package server
