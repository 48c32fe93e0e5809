package parset

import (
	"os"

	perrors "github.com/nettlep/parsync/par/errors"
	"github.com/nettlep/parsync/par/fingerprint"
	"github.com/nettlep/parsync/par/host"
	"github.com/nettlep/parsync/par/parfile"
)

// Classify runs the full classification pass of spec.md §4.G: a cheap
// existence/size check for every data file, full hashing for the ones
// still pending, Misnamed detection against other records' full
// hashes, duplicate-fingerprint collection, and body-hash validation
// for every sibling parity volume not already validated by Load.
//
// Classify is the cancellation point: it polls svc.Report between
// files and returns a Cancelled error (leaving untouched records at
// whatever status they already had) if the callback returns false.
func (s *Set) Classify(svc *host.Services) error {
	log := svc.Logger()
	total := len(s.DataFiles) + len(s.Parity)
	done := 0

	byHash := make(map[fingerprint.Fingerprint][]int)

	for i := range s.DataFiles {
		r := &s.DataFiles[i]
		if !s.cheapCheck(r) {
			done++
			if !svc.Report("classify", percent(done, total)) {
				return cancelledErr()
			}
			continue
		}

		if err := hashFile(r); err != nil {
			r.Status = Error
			done++
			if !svc.Report("classify", percent(done, total)) {
				return cancelledErr()
			}
			continue
		}

		byHash[r.ActualFullHash] = append(byHash[r.ActualFullHash], i)
		r.Status = verifyAgainstExpected(r, r.ActualFullHash)

		done++
		if !svc.Report("classify", percent(done, total)) {
			return cancelledErr()
		}
	}

	// Misnamed detection: a file whose full hash matches a *different*
	// record's expected hash is renamed in place, not merely corrupt.
	for i := range s.DataFiles {
		r := &s.DataFiles[i]
		if r.Status != Corrupt {
			continue
		}
		for j := range s.DataFiles {
			if j == i {
				continue
			}
			if s.DataFiles[j].FullHash == r.ActualFullHash {
				r.Status = Misnamed
				r.MisnamedExpected = s.DataFiles[j].NameOEM
				break
			}
		}
	}

	// Duplicate fingerprints: a ClassificationMismatch, surfaced not rejected.
	for h, idxs := range byHash {
		if len(idxs) > 1 {
			s.Duplicates = append(s.Duplicates, DuplicateGroup{FullHash: h, Indices: idxs})
			log.Warnf("parset: %d data files share fingerprint %x", len(idxs), h[:4])
		}
	}

	for i := range s.Parity {
		p := &s.Parity[i]
		if p.Status == Valid {
			done++
			continue
		}
		ok, err := parfile.ValidateBodyHash(p.Path, p.BodyHash)
		if err != nil {
			p.Status = Error
		} else if ok {
			p.Status = Valid
		} else {
			p.Status = Corrupt
		}
		done++
		if !svc.Report("classify", percent(done, total)) {
			return cancelledErr()
		}
	}

	return nil
}

// cheapCheck performs the inexpensive existence/size probe, setting
// Missing/Corrupt status directly and returning false when no further
// hashing is needed.
func (s *Set) cheapCheck(r *DataFileRecord) bool {
	fi, err := os.Stat(r.Path)
	if err != nil {
		r.Status = Missing
		return false
	}
	if uint64(fi.Size()) != uint64(r.Size) {
		r.Status = Corrupt
		return false
	}
	return true
}

const prefixHashLen = 16 * 1024

// hashFile computes r's current on-disk full and prefix digests into
// ActualFullHash/ActualPrefixHash, leaving the catalogued FullHash and
// PrefixHash fields untouched.
func hashFile(r *DataFileRecord) error {
	f, err := os.Open(r.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	full := fingerprint.New()
	prefix := fingerprint.New()
	buf := make([]byte, 64*1024)
	var read int64
	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			_ = full.Absorb(buf[:n])
			if read < prefixHashLen {
				take := int64(n)
				if read+take > prefixHashLen {
					take = prefixHashLen - read
				}
				_ = prefix.Absorb(buf[:take])
			}
			read += int64(n)
		}
		if rerr != nil {
			break
		}
	}
	r.ActualFullHash = full.Finish()
	r.ActualPrefixHash = prefix.Finish()
	return nil
}

// verifyAgainstExpected is the polymorphic verify step spec.md §9
// describes: any verifiedFile (a DataFileRecord or a
// ParityVolumeRecord) can be checked the same way. par/decode and
// par/encode use the concrete types directly; only the verify pass
// needs this common capability.
func verifyAgainstExpected(vf verifiedFile, actual fingerprint.Fingerprint) Status {
	if actual == vf.expectedHash() {
		return Valid
	}
	return Corrupt
}

func percent(done, total int) int {
	if total == 0 {
		return 100
	}
	return done * 100 / total
}

func cancelledErr() error {
	return perrors.New(perrors.Cancelled, cancelled{})
}

type cancelled struct{}

func (cancelled) Error() string { return "parset: classification cancelled" }
