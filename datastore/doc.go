/*
	Package datastore is the directory of segmentation state for displayed image stacks.

	A Store maps each stack, identified by the image id of its first image, to the
	labelmap volumes painted over it and which of them is active.  Callers reach
	volumes and slice views through the Store using a StackRef, which a StackResolver
	turns into the stack's key and geometry.  Stores are explicit values: state lives
	as long as the stack is registered and is dropped by Unregister.
*/
package datastore
