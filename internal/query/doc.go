// Package query parses free-text search input into segments and terms.
//
// Grammar (informal):
//
//	query   = segment { "," segment }
//	segment = { phrase | word }
//	phrase  = '"' words '"'     -> one exact term per word
//	word    = non-space, non-quote run -> one fuzzy term
//
// Segments are OR-ed together by the evaluator; terms within a segment are
// AND-ed. Quoting does not require adjacency: `"black cat"` means both
// `black` and `cat` must match as whole words, in any order.
package query
