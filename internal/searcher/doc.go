// Package searcher evaluates parsed queries against the inverted tag index.
//
// Evaluation per segment:
//
//  1. For each term, OR together the postings of every tag the term matches
//     (exact terms: case-insensitive whole-word match; fuzzy terms:
//     case-insensitive substring match).
//  2. Intersect term results: a location survives only if every term matched
//     it AND the bitwise AND of the term masks is non-zero, i.e. all terms were
//     observed from at least one common bearing.
//  3. Drop location IDs that are not in the valid set.
//
// Segment ID sets are then unioned. Evaluation is a pure function of the
// segments and the index contents, so repeating it yields identical results.
//
// Searchers own reusable scratch memory and are pooled; Evaluate takes care
// of Get/Put.
package searcher
