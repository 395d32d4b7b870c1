/*
Package fst wraps the dictionary FST described in §3: an immutable
finite-state transducer over the set of indexed words, rebuilt from
scratch on every commit that changes the word set, used by the search
engine for prefix enumeration and Levenshtein-automaton typo expansion.

Backed by github.com/blevesearch/vellum. A Dictionary is a thin,
read-only handle over a serialized FST blob stored as a single value in
the index's fst bucket; Build produces a new blob from a sorted, deduped
word list.
*/
package fst
