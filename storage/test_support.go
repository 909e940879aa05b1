/* Conformance checks shared by the tests of every snapshot storage engine. */

package storage

import (
	"bytes"
	"testing"
)

func checkRecords(t *testing.T, desc string, got []Record, times ...uint64) {
	t.Helper()
	if len(got) != len(times) {
		t.Fatalf("%s: expected %d records, got %v\n", desc, len(times), got)
	}
	for i, rec := range got {
		if rec.Time != times[i] {
			t.Errorf("%s: expected record %d to have time %d, got %d\n", desc, i, times[i], rec.Time)
		}
	}
}

// CheckSnapshotStore exercises an empty SnapshotStore.  The store is not closed.
func CheckSnapshotStore(t *testing.T, store SnapshotStore) {
	undo, redo, err := store.Load("nothing")
	if err != nil {
		t.Fatalf("load of unknown volume: %v\n", err)
	}
	if len(undo) != 0 || len(redo) != 0 {
		t.Fatalf("unknown volume has records: %v %v\n", undo, redo)
	}
	if err := store.Put("", UndoStack, Record{Time: 1}); err == nil {
		t.Errorf("expected error on empty volume id\n")
	}
	if err := store.Put("a/b", UndoStack, Record{Time: 1}); err == nil {
		t.Errorf("expected error on volume id with separator\n")
	}

	// Out of order puts come back sorted by time, including times whose
	// bytes would sort differently in little-endian.
	for _, time := range []uint64{3, 1, 256, 2} {
		data := bytes.Repeat([]byte{byte(time)}, int(time%7)+1)
		if err := store.Put("vol1", UndoStack, Record{Time: time, Compressed: data}); err != nil {
			t.Fatalf("put of undo record %d: %v\n", time, err)
		}
	}
	if err := store.Put("vol1", RedoStack, Record{Time: 9, Compressed: []byte("redo")}); err != nil {
		t.Fatalf("put of redo record: %v\n", err)
	}
	if err := store.Put("vol2", UndoStack, Record{Time: 1, Compressed: []byte("other")}); err != nil {
		t.Fatalf("put of second volume: %v\n", err)
	}

	undo, redo, err = store.Load("vol1")
	if err != nil {
		t.Fatalf("load: %v\n", err)
	}
	checkRecords(t, "undo", undo, 1, 2, 3, 256)
	checkRecords(t, "redo", redo, 9)
	if !bytes.Equal(undo[3].Compressed, []byte{0, 0, 0, 0, 0}) {
		t.Errorf("bad payload for record 256: %v\n", undo[3].Compressed)
	}
	if string(redo[0].Compressed) != "redo" {
		t.Errorf("bad redo payload: %q\n", redo[0].Compressed)
	}

	// Replacement of an existing time.
	if err := store.Put("vol1", UndoStack, Record{Time: 2, Compressed: []byte("new")}); err != nil {
		t.Fatalf("replacing put: %v\n", err)
	}
	if err := store.Delete("vol1", UndoStack, 3); err != nil {
		t.Fatalf("delete: %v\n", err)
	}
	if err := store.Delete("vol1", UndoStack, 1000); err != nil {
		t.Fatalf("delete of missing record: %v\n", err)
	}
	undo, _, err = store.Load("vol1")
	if err != nil {
		t.Fatalf("load: %v\n", err)
	}
	checkRecords(t, "undo after delete", undo, 1, 2, 256)
	if string(undo[1].Compressed) != "new" {
		t.Errorf("expected replaced payload, got %q\n", undo[1].Compressed)
	}

	ids, err := store.Volumes()
	if err != nil {
		t.Fatalf("volumes: %v\n", err)
	}
	if len(ids) != 2 || ids[0] != "vol1" || ids[1] != "vol2" {
		t.Errorf("expected volumes [vol1 vol2], got %v\n", ids)
	}

	if err := store.Clear("vol1", RedoStack); err != nil {
		t.Fatalf("clear: %v\n", err)
	}
	undo, redo, err = store.Load("vol1")
	if err != nil {
		t.Fatalf("load: %v\n", err)
	}
	checkRecords(t, "undo after clear", undo, 1, 2, 256)
	checkRecords(t, "redo after clear", redo)

	if err := store.Clear("vol1", UndoStack); err != nil {
		t.Fatalf("clear: %v\n", err)
	}
	ids, err = store.Volumes()
	if err != nil {
		t.Fatalf("volumes: %v\n", err)
	}
	if len(ids) != 1 || ids[0] != "vol2" {
		t.Errorf("expected volumes [vol2] after clear, got %v\n", ids)
	}
}
