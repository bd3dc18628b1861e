// Package chunk indexes, renders and rebuilds TES3-style chunk containers.
//
// A container is a flat sequence of records; each record holds a
// back-to-back sequence of subrecords:
//
//	File      = Record*
//	Record    = [Tag(4)][Size(4)][Flags(8)] Subrecord*   (Size covers the subrecords)
//	Subrecord = [Tag(4)][Size(4)] Payload(Size)
//
// A File owns the whole buffer. Records and subrecords hold only offsets
// into it and never copy payload bytes, so every accessor takes the buffer
// (or the record window) it was indexed from.
//
// Decode accepts either form. Binary input starts with the TES3 magic; text
// input is an XML document whose first non-whitespace byte is '<':
//
//	<CHIM xmlns:t="urn:chim:tag">
//	<TES3 size="300">
//	  <HEDR size="4">2C010000</HEDR>
//	</TES3>
//	</CHIM>
//
// Tags that cannot start an XML name (hex tags such as 01020304) are written
// with the t: prefix. Payload text is decoded back into bytes; an element
// with no payload text regenerates its payload as zero bytes.
//
// Every failure is returned as a chain of *ChunkError values naming the
// record and subrecord ordinal and offset, ending at a codec sentinel.
package chunk
