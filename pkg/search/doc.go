/*
Package search implements the search engine pipeline described for
lexidb's query path: tokenize, build a query tree of interpretations
(exact, prefix, typo, synonym), intersect a filter-constrained candidate
bitmap, bucket-sort by the index's ranking rules, apply distinct, project
and highlight/crop the result, and compute facet distributions.

Everything here runs against one already-open read snapshot
(*kv.ReadTx); Search never mutates state and never blocks a writer.
*/
package search
