// Package hash provides the string hash used to partition the tag index.
//
// # DJB2
//
// The offline index builder assigns every tag to one of 256 shards using the
// DJB2 hash of the tag, truncated to an unsigned 32-bit value:
//
//	h := uint32(5381)
//	for each UTF-16 code unit c:
//	    h = h*33 + c
//	shard := h % 256
//
// The hash must stay bit-for-bit compatible with the builder, otherwise
// queries would request the wrong shard files.
//
// # Usage
//
//	h := hash.DJB2("graffiti")
package hash
