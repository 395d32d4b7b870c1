/*
Package filter implements the filter expression grammar from §3/§6: a
small boolean language over field comparisons (`=`, `!=`, `<`, `<=`, `>`,
`>=`, `IN [...]`, `EXISTS`, `NOT EXISTS`), `AND`/`OR` composition, and
parenthesized grouping, evaluated against one index's facet stores to
produce a candidate roaring.Bitmap.

There is no pack example of a hand-written expression grammar to ground
this against, so the parser is original recursive-descent code; its
shape (lexer producing a flat token slice, a parser holding a position
cursor, precedence-climbing for AND/OR) follows the conventional Go
approach rather than any specific teacher file.
*/
package filter
