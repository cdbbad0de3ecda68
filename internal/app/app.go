// Package app wires settings into the equation engine, the datastore and the
// native species reference shared by the command line and the HTTP server.
package app

import (
	"context"

	"github.com/greencanopy/allometree/internal/allometry"
	"github.com/greencanopy/allometree/internal/conf"
	"github.com/greencanopy/allometree/internal/datastore"
	"github.com/greencanopy/allometree/internal/errors"
	"github.com/greencanopy/allometree/internal/logger"
	"github.com/greencanopy/allometree/internal/observability"
	"github.com/greencanopy/allometree/internal/species"
)

// GetLogger returns the app module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("app")
}

// EquationsPath returns the configured canonical equation table path.
func EquationsPath(settings *conf.Settings) string {
	return conf.ExpandPath(settings.Data.Equations)
}

// NativeSpeciesPath returns the configured native species reference path.
func NativeSpeciesPath(settings *conf.Settings) string {
	return conf.ExpandPath(settings.Data.NativeSpecies)
}

// DataDir returns the configured root for staging and processed outputs.
func DataDir(settings *conf.Settings) string {
	return conf.ExpandPath(settings.Data.Dir)
}

// OpenStore opens the configured datastore. m may be nil.
func OpenStore(ctx context.Context, settings *conf.Settings, m *observability.Metrics) (*datastore.Store, error) {
	opts := []datastore.Option{}
	if m != nil {
		opts = append(opts, datastore.WithMetrics(m.Datastore))
	}
	ds := settings.Datastore
	ds.SQLite.Path = conf.ExpandPath(ds.SQLite.Path)
	return datastore.Open(ctx, &ds, opts...)
}

// NewEngine builds the equation engine from allometry.source. The returned
// close function releases the datastore opened for the database source and is
// never nil.
func NewEngine(ctx context.Context, settings *conf.Settings, m *observability.Metrics) (*allometry.Engine, func() error, error) {
	noop := func() error { return nil }

	var opts []allometry.EngineOption
	if m != nil {
		opts = append(opts, allometry.WithMetrics(m.Allometry))
	}

	switch settings.Allometry.Source {
	case "", conf.SourceCSV:
		engine, err := allometry.NewEngine(ctx, allometry.FileSource{Path: EquationsPath(settings)}, opts...)
		if err != nil {
			return nil, noop, err
		}
		return engine, noop, nil

	case conf.SourceDatabase:
		store, err := OpenStore(ctx, settings, m)
		if err != nil {
			return nil, noop, err
		}
		engine, err := allometry.NewEngine(ctx, store, opts...)
		if err != nil {
			_ = store.Close()
			return nil, noop, err
		}
		return engine, store.Close, nil

	default:
		return nil, noop, errors.Newf("unsupported equation source: %s", settings.Allometry.Source).
			Component("app").
			Category(errors.CategoryConfiguration).
			Context("source", settings.Allometry.Source).
			Build()
	}
}

// LoadCatalog reads the configured native species reference.
func LoadCatalog(ctx context.Context, settings *conf.Settings) (*species.Catalog, error) {
	return species.Load(ctx, NativeSpeciesPath(settings))
}
