/*
dvidseg is the segmentation core for labelmaps painted over stacks of 2d images.

A labelmap holds one 16-bit label per voxel for an entire image stack.  Around it,
this module provides the geometric fills used by circle and rectangle tools, the
extraction of renderable outlines from a slice, and an undo/redo history whose
snapshots are compressed in the background and can be persisted so a session
survives a restart.

Packages, leaves first:

	dvid            logging, snapshot codecs, 2d geometry, errors
	labelmap        Volume and Slice, segment state
	labels          contour extraction, region fills, contour cache
	datastore       the directory of labelmaps per displayed stack
	storage         persisted snapshot stores (memory, BadgerDB)
	history         debounced push, background compression, undo/redo
	server          TOML configuration and session wiring
	cmd/dvidseg     command-line snapshot and contour tool

Drawing, mapping image to display coordinates and any event handling are left to
the viewer embedding these packages.
*/
package dvidseg
