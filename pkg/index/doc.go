/*
Package index owns one environment per Index (§4.2): the per-index
collection of typed sub-stores (documents, word-postings,
prefix-postings, proximity-postings, facet trees, settings, FST
dictionary) and the invariants that tie them together.

An Index is opened once per process and lives for the process's
lifetime, matching §5's resource model. Write-side primitives
(PutDocument, PurgeDocument, UpdateSettings) are consumed only by
pkg/indexing, inside a transaction it owns; read-side operations
(GetDocument, FacetDistribution, Settings) may run concurrently with any
number of other readers thanks to bbolt's MVCC snapshot reads.
*/
package index
