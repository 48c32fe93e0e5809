// Package encoder transcodes PAR v1.0 file names between the host's
// native string form and the OEM (CP437) code page the PAR v1.0 wire
// format stores them in, grounded on the ANSI<->OEM helpers in
// original_source/source/Utils.cpp and shaped after the corpus's
// lib/encoder package.
//
// Per spec.md §9's Open Question, two names are only considered equal
// when their stored OEM/UTF-16 forms are byte-identical; this package
// never exposes a host-string comparison as a substitute.
package encoder

import (
	"golang.org/x/text/encoding/charmap"
)

// ToOEM transcodes a host string into its OEM (CP437) UTF-16 code-unit
// form for on-disk storage in a file-list entry. Runes with no CP437
// representation are replaced with '?'.
func ToOEM(name string) []uint16 {
	units := make([]uint16, 0, len(name))
	for _, r := range name {
		b, ok := charmap.CodePage437.EncodeRune(r)
		if !ok {
			b = '?'
		}
		units = append(units, uint16(b))
	}
	return units
}

// FromOEM transcodes the on-disk OEM code units of a file-list entry
// back into a host string for display purposes only; it must never be
// used to compare names (see the package doc comment).
func FromOEM(units []uint16) string {
	raw := make([]byte, len(units))
	for i, u := range units {
		raw[i] = byte(u)
	}
	decoded, err := charmap.CodePage437.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

// Equal reports byte-equality of two stored OEM name forms, the only
// equality PAR v1.0 names are ever compared with.
func Equal(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
