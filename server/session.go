package server

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/janelia-flyem/dvidseg/datastore"
	"github.com/janelia-flyem/dvidseg/dvid"
	"github.com/janelia-flyem/dvidseg/history"
	"github.com/janelia-flyem/dvidseg/labelmap"
	"github.com/janelia-flyem/dvidseg/labels"
	"github.com/janelia-flyem/dvidseg/storage"
	"github.com/janelia-flyem/dvidseg/storage/badger"
)

// Session wires the segmentation components together for one configuration.
// Like the history manager it drives, it is not safe for concurrent use.
type Session struct {
	Config  *Config
	Store   *datastore.Store
	History *history.Manager
	Cache   *labels.ContourCache

	snapshots storage.SnapshotStore
	worker    *history.DeflateWorker
}

// OpenSnapshots returns the snapshot store selected by the [store] section, or nil if
// history is not persisted.
func OpenSnapshots(c StoreConfig) (storage.SnapshotStore, error) {
	switch c.Engine {
	case "":
		return nil, nil
	case "memory":
		return storage.NewMemoryStore(), nil
	case "badger":
		return badger.Open(c.Path, badger.Options{SyncWrites: c.SyncWrites, LowMemory: c.LowMemory})
	default:
		return nil, fmt.Errorf("unknown store engine %q", c.Engine)
	}
}

// NewSession builds the components described by config.  Background compression
// goroutines stop when ctx is cancelled or the session is closed.
func NewSession(ctx context.Context, config *Config, resolver datastore.StackResolver, notifier history.Notifier) (*Session, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.Logging.SetLogger()

	compression, err := dvid.ParseCompression(config.History.Compression)
	if err != nil {
		return nil, err
	}
	snapshots, err := OpenSnapshots(config.Store)
	if err != nil {
		return nil, err
	}

	s := &Session{
		Config:    config,
		Store:     datastore.NewStore(resolver),
		snapshots: snapshots,
	}
	hc := history.Config{
		DebounceWindow: config.History.DebounceWindow(),
		Compression:    compression,
		Notifier:       notifier,
		Snapshots:      snapshots,
	}
	if config.History.Background {
		s.worker = history.NewDeflateWorker(config.History.Workers, compression)
		s.worker.Start(ctx)
		hc.Compressor = s.worker
	}
	s.History = history.NewManager(s.Store, hc)
	if config.Cache.ContourMB > 0 {
		s.Cache = labels.NewContourCache(config.Cache.ContourMB * dvid.Mega)
	}
	dvid.Infof("Started segmentation session: %s history, snapshots in %s\n", compression, s.snapshotsName())
	return s, nil
}

func (s *Session) snapshotsName() string {
	if s.snapshots == nil {
		return "memory only"
	}
	return s.snapshots.String()
}

// Snapshots returns the persistent snapshot store or nil.
func (s *Session) Snapshots() storage.SnapshotStore {
	return s.snapshots
}

// AddLabelmap creates a new active labelmap for the displayed stack and loads any
// history persisted for it by an earlier session.
func (s *Session) AddLabelmap(ref datastore.StackRef) (*labelmap.Volume, int, error) {
	vol, index, err := s.Store.AddLabelmap(ref)
	if err != nil {
		return nil, 0, err
	}
	vol.SegmentsPerLabelmap = s.Config.Segmentation.SegmentsPerLabelmap
	if _, err := s.History.Restore(ref, index); err != nil {
		dvid.Errorf("Unable to restore history of %s: %v\n", vol, err)
	}
	return vol, index, nil
}

// Contours returns the outline geometry of the active labelmap at the displayed slice,
// inset by half the configured outline width.
func (s *Session) Contours(ref datastore.StackRef) (labels.Contours, bool) {
	slice, found := s.Store.Labelmap2D(ref)
	if !found {
		return nil, false
	}
	vol, _ := s.Store.ResolveVolume(ref)
	return s.Cache.Extract(slice, vol.Rows, vol.Cols, s.Config.Segmentation.HalfWidth()), true
}

// Close lands any in-flight snapshots, stops the compression goroutines and closes
// the snapshot store.
func (s *Session) Close() error {
	var firstErr error
	if s.worker != nil {
		dvid.Debugf("Closing %s with %d tasks queued\n", s.worker, s.worker.Queued())
		done := make(chan error, 1)
		go func() {
			done <- s.worker.Close()
		}()
		for res := range s.worker.Results() {
			s.History.HandleCompletion(res)
		}
		firstErr = <-done
	}
	if s.snapshots != nil {
		if err := s.snapshots.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.Cache != nil {
		hits, misses := s.Cache.Stats()
		dvid.Debugf("Contour cache: %d hits, %d misses\n", hits, misses)
	}
	return firstErr
}

// WriteMetrics writes all registered metrics in the Prometheus text format.
func WriteMetrics(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
