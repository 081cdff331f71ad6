// Package core loads the catalog of source files into a readiness-gated
// dataset registry.
//
// # Source Catalog
//
// Dataset kinds are registered at init time using [Register]. Each
// [SourceDefinition] names a canonical dataset, its default file and its place
// in the load order:
//
//	core.Register(core.SourceDefinition{
//	    Name:  "CountyList",
//	    File:  "usa_county_list.csv",
//	    Order: 2,
//	    Group: "County",
//	})
//
// [ResolveSources] binds the catalog to a data directory, applying per-name
// file overrides.
//
// # Registry
//
// A [Registry] starts in [StateNotReady]. [Registry.LoadAll] reads every source
// through the ingest reader chosen by file extension, normalizes the rows and
// publishes all datasets at once. Any failure aborts the batch and leaves the
// registry in [StateFailed] with nothing visible.
//
// Published datasets live in an immutable snapshot swapped atomically, so
// queries never block on a load and [Registry.Reload] can replace the data
// without readers seeing a mix of old and new datasets.
//
// # Events
//
// An [Observer] receives load lifecycle events. The metrics package implements
// one backed by Prometheus collectors.
package core
