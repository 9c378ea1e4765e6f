/*
Package backend implements the three interchangeable processing engines
behind the shared Backend conversion contract:

  - duckdb: an embedded DuckDB database with the spatial extension. The
    conversion is a query pipeline with streaming semantics and bounded
    memory regardless of input size. Splitting multipart geometries happens
    inside the engine via ST_Dump.

  - pandas: an in-memory table engine. The full dataset is loaded before
    anything is written, which keeps the implementation simple but offers no
    bounded-memory guarantee; large inputs may exhaust memory. Format
    writing is delegated to the writer subpackage.

  - ogr: a thin adapter around the ogr2ogr command-line tool, one child
    process per source file. It declares no multipart-splitting capability;
    the orchestrator fails such requests before this adapter ever runs.

Backends declare static Capabilities so unsupported (process, format,
splitting) combinations are rejected up front instead of producing partial
output or misleading zero-duration timings.
*/
package backend
