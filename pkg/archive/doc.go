// Package archive copies a wheel while replacing selected entries.
//
// # Rewriting
//
// [Rewrite] streams every entry of a source zip archive to a destination
// unchanged (raw compressed bytes, method, timestamps and permissions are
// copied as-is) except the entries named in a patch map, whose content is
// replaced:
//
//	out, err := archive.Rewrite(src, dst, map[string][]byte{
//	    "pkg-1.0.dist-info/WHEEL": patched,
//	}, false)
//
// The destination is written to a temporary file in its own directory and
// renamed into place only after everything succeeded, so a failure never
// leaves a partial archive behind and never touches the source or a
// pre-existing destination.
//
// # Collision Policy
//
// A destination that already exists and is a different file than the source
// is only replaced when clobber is set; otherwise Rewrite fails with
// DESTINATION_EXISTS. A destination that is the source itself is always
// updated in place. With no patches and the destination equal to the source,
// Rewrite does nothing and reports [NoOp].
package archive
