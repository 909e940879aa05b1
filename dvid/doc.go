/*
	Package dvid provides types, constants, and functions that have no other dependencies
	and can be used by all packages within dvidseg.  This includes logging, the compression
	codecs used for labelmap snapshots, simple 2d geometry, and the error taxonomy shared
	by the fill, contour and history layers.
*/
package dvid
