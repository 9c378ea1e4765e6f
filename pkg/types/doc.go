/*
Package types defines the core data model shared by every GeoBench component:
formats, processes, datasets, conversion requests and results, backend
capability descriptors, and the benchmark matrix.

# Architecture Overview

GeoBench follows a layered architecture with the data model at the bottom:

	┌─────────────────────────────────────────────┐
	│               CLI Surface                   │
	│             (cmd/geobench)                  │
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│          Benchmark Orchestrator             │
	│             (internal/bench)                │
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│          Conversion Orchestrator            │
	│            (internal/convert)               │
	└─────────────────────────────────────────────┘
	          │             │             │
	┌─────────────┐ ┌─────────────┐ ┌─────────────┐
	│   DuckDB    │ │  In-memory  │ │   ogr2ogr   │
	│   backend   │ │   backend   │ │   backend   │
	└─────────────┘ └─────────────┘ └─────────────┘

Backends implement one shared conversion contract and declare static
Capabilities. The conversion orchestrator validates a ConversionRequest
against those capabilities before dispatch, and wraps every failure into a
ConversionResult so the benchmark orchestrator can run unattended across the
full process × format cross product with per-cell isolation.
*/
package types
