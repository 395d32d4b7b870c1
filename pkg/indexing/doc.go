/*
Package indexing implements the indexing pipeline that folds a batch of
document additions, deletions, and settings updates into one index's
posting lists, facet stores, and document store, inside the single write
transaction the scheduler opens for the batch.

The pipeline follows the phases described for the system it generalizes:
decode & id-assign, diff against the previously stored document, extract
token/facet deltas, fold ("merge") those deltas across every document in
the batch, apply them to the bitmap-valued sub-stores, maintain
materialized word prefixes, and let the caller's transaction commit make
the whole batch visible atomically.

Dispatch for the apply phase is a switch on each Operation's Kind in
Pipeline.Run: there is no log, just one in-transaction interpreter.
*/
package indexing
