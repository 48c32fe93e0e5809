// Package parset implements the set manager (spec.md §4.G): loading a
// PAR v1.0 set from a single file path, discovering sibling parity
// volumes, classifying every file's status, and deciding whether the
// set is currently recoverable.
//
// Grounded on original_source/source/ParityInfo.cpp (directory scan for
// sibling volumes, FindDuplicateHashes) and the corpus's backend/hasher
// checksum-cache overlay for the cache-hook shape.
package parset

import (
	"github.com/nettlep/parsync/par/fingerprint"
)

// Status mirrors the shared enum of spec.md §3.
type Status int

const (
	Unknown Status = iota
	Valid
	Corrupt
	Missing
	Misnamed
	Error
)

func (s Status) String() string {
	switch s {
	case Unknown:
		return "Unknown"
	case Valid:
		return "Valid"
	case Corrupt:
		return "Corrupt"
	case Missing:
		return "Missing"
	case Misnamed:
		return "Misnamed"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// DataFileRecord is one cataloged data file (spec.md §3). FullHash and
// PrefixHash are the catalogued, immutable values read from (or
// computed for) the file-list entry; they are never rewritten by a
// classification pass.
type DataFileRecord struct {
	NameOEM     []uint16
	Path        string // resolved on-disk path (host string form)
	Size        uint32
	FullHash    fingerprint.Fingerprint
	PrefixHash  fingerprint.Fingerprint
	Recoverable bool
	Status      Status
	// MisnamedExpected holds the name the content actually matches,
	// when Status == Misnamed.
	MisnamedExpected []uint16
	// ActualFullHash and ActualPrefixHash are the most recently computed
	// digests of the file currently on disk at Path, filled in by
	// Classify. They are transient classification state, not part of
	// the catalogue.
	ActualFullHash   fingerprint.Fingerprint
	ActualPrefixHash fingerprint.Fingerprint
}

// path, expectedHash and statusMut implement the verifiedFile capability
// the verify pass is polymorphic over (spec.md §9's duck-typing redesign note).
func (r *DataFileRecord) path() string             { return r.Path }
func (r *DataFileRecord) expectedHash() fingerprint.Fingerprint { return r.FullHash }
func (r *DataFileRecord) statusMut() *Status        { return &r.Status }

// ParityVolumeRecord is one cataloged parity volume (spec.md §3).
type ParityVolumeRecord struct {
	VolumeNumber uint32
	Path         string
	BodyHash     fingerprint.Fingerprint
	SetHash      fingerprint.Fingerprint
	DataOffset   uint64
	DataSize     uint64
	Status       Status
	Generator    uint32
}

func (r *ParityVolumeRecord) path() string             { return r.Path }
func (r *ParityVolumeRecord) expectedHash() fingerprint.Fingerprint { return r.BodyHash }
func (r *ParityVolumeRecord) statusMut() *Status        { return &r.Status }

// verifiedFile is the small capability set the verify pass is
// polymorphic over, replacing the virtual-method duck typing of the
// original implementation (spec.md §9).
type verifiedFile interface {
	path() string
	expectedHash() fingerprint.Fingerprint
	statusMut() *Status
}

// DuplicateGroup reports two or more data files sharing a FullHash
// within one set: a ClassificationMismatch the set manager surfaces
// but does not reject the set for (spec.md §3, §7).
type DuplicateGroup struct {
	FullHash fingerprint.Fingerprint
	Indices  []int
}

// Set is a loaded PAR set: its data files, its parity volumes, and the
// set_hash binding them together.
type Set struct {
	Dir       string
	BaseName  string
	DataFiles []DataFileRecord
	Parity    []ParityVolumeRecord // sorted ascending by VolumeNumber
	SetHash   fingerprint.Fingerprint

	Duplicates []DuplicateGroup
}

// RecoverableIndices returns the indices into DataFiles of the
// recoverable files, in serialisation order. This order is the column
// index used by par/matrix.
func (s *Set) RecoverableIndices() []int {
	var idx []int
	for i, r := range s.DataFiles {
		if r.Recoverable {
			idx = append(idx, i)
		}
	}
	return idx
}

// ValidParityVolumes returns the volume numbers of parity volumes
// (excluding volume 0) whose Status is Valid, ascending.
func (s *Set) ValidParityVolumes() []int {
	var ids []int
	for _, p := range s.Parity {
		if p.VolumeNumber >= 1 && p.Status == Valid {
			ids = append(ids, int(p.VolumeNumber))
		}
	}
	return ids
}
