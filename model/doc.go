// Package model defines core types used throughout streetsearch.
//
// # Identity Types
//
//   - LocationID: Stable identifier of a geotagged image location (uint32)
//   - Mask: 8-bit directional bitmask, one bit per compass octant
//
// # Query Types
//
//   - Term: A single query word, either exact (word boundary) or fuzzy (substring)
//   - Segment: One comma-separated clause of a query; an AND of its terms
//
// # Data Types
//
//   - Location: Frozen location record (ID, coordinates, optional tags)
package model
