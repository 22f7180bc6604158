// Package detail decodes location-detail shards and curates the tags shown
// for a selected location.
//
// A detail shard covers every location whose ID ends in the same two decimal
// digits. For each location it lists the tags observed there, each with the
// camera bearing (degrees) it was seen from, plus an optional "_default"
// bearing. Tag order is significant and preserved.
package detail
