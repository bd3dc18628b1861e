// Package codec provides the leaf encoders used by the chim container engine.
//
// The container format is a two-level hierarchy of length-prefixed chunks.
// Every chunk begins with the same two fields, so a single header check is
// shared by every chunk kind:
//
//	[Tag(4)][Size(4)][...fixed metadata...][Payload(Size)]
//
// Fields:
//   - Tag: four opaque identifier bytes, usually printable ASCII ("TES3", "NAME")
//   - Size: 32-bit unsigned payload length (little-endian), excluding the header
//
// Records carry 8 extra flag bytes after Size (16-byte header); subrecords
// carry nothing else (8-byte header).
//
// # Tags
//
// Tags are rendered as text so they can be used as XML element names. A tag
// made only of [A-Za-z0-9_.-] renders as its 4 characters; anything else
// renders as 8 uppercase hex digits. ParseTag reverses both forms:
//
//	tag := codec.TagOf([]byte{0x01, 0x02, 0x03, 0x04})
//	tag.String() // "01020304"
//	back, _ := codec.ParseTag("01020304")
//	back == tag  // true
//
// # Hex text
//
// Payload bytes are rendered as uppercase hex pairs. The HexLayout row and
// group widths only insert whitespace; DecodeHex discards all whitespace, so
// any layout decodes back to the same bytes.
//
// # Header validation
//
// ValidateHeader reads the declared size of a chunk and checks it against
// the bytes remaining in the window. It never reads past the window and never
// trusts the declared size before checking it.
//
// # Error Handling
//
// All failures wrap one of the package sentinels (ErrTooShort,
// ErrSizeOverflow, ErrInvalidTag, ErrInvalidHex) so callers can match with
// errors.Is. Size overflows are reported as *SizeOverflowError carrying the
// declared and available sizes.
package codec
