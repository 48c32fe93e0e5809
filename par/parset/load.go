package parset

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/nettlep/parsync/lib/encoder"
	perrors "github.com/nettlep/parsync/par/errors"
	"github.com/nettlep/parsync/par/parfile"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// siblingExt matches PAR v1.0 sibling volume extensions: a p or q
// followed by "ar" or by two decimal digits, per spec.md §4.G.
var siblingExt = regexp.MustCompile(`(?i)^[pq](ar|[0-9]{2})$`)

// Load reads the PAR file at path, validates its own body hash,
// discovers and admits sibling parity volumes sharing its set_hash,
// and returns the loaded Set. The loaded volume itself is marked Valid;
// every other record's Status is left at Unknown (the caller runs
// Classify for the full pass).
func Load(path string) (*Set, error) {
	pf, maskedAny, err := parfile.ReadFile(path)
	if err != nil {
		return nil, perrors.Wrap(perrors.FormatError, err, "parset: load header")
	}
	if maskedAny {
		logrus.Warnf("parset: %s: unknown status bits in the file list were masked", path)
	}

	ok, err := parfile.ValidateBodyHash(path, pf.Header.BodyHash)
	if err != nil {
		return nil, perrors.Wrap(perrors.IOError, err, "parset: validate body hash")
	}
	if !ok {
		return nil, perrors.New(perrors.FormatError, errors.New("parset: loaded volume's body hash does not match header"))
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	baseName := strings.TrimSuffix(base, filepath.Ext(base))

	set := &Set{
		Dir:      dir,
		BaseName: baseName,
		SetHash:  pf.Header.SetHash,
	}

	for _, e := range pf.Entries {
		set.DataFiles = append(set.DataFiles, DataFileRecord{
			NameOEM:     e.NameOEM,
			Path:        filepath.Join(dir, encoder.FromOEM(e.NameOEM)),
			Size:        e.FileSize,
			FullHash:    e.FullHash,
			PrefixHash:  e.PrefixHash,
			Recoverable: e.Recoverable,
			Status:      Unknown,
		})
	}

	loadedVol := ParityVolumeRecord{
		VolumeNumber: pf.Header.VolumeNumber,
		Path:         path,
		BodyHash:     pf.Header.BodyHash,
		SetHash:      pf.Header.SetHash,
		DataOffset:   pf.Header.DataOffset,
		DataSize:     pf.Header.DataSize,
		Status:       Valid,
		Generator:    pf.Header.Generator,
	}
	set.Parity = append(set.Parity, loadedVol)

	siblings, err := discoverSiblings(dir, baseName, path)
	if err != nil {
		return nil, perrors.Wrap(perrors.IOError, err, "parset: scan directory")
	}

	seen := map[uint32]bool{loadedVol.VolumeNumber: true}
	for _, sib := range siblings {
		sh, probeOK, err := parfile.ProbeFileSetHash(sib)
		if err != nil || !probeOK || sh != pf.Header.SetHash {
			continue
		}
		spf, _, err := parfile.ReadFile(sib)
		if err != nil {
			continue
		}
		if seen[spf.Header.VolumeNumber] {
			continue
		}
		seen[spf.Header.VolumeNumber] = true
		set.Parity = append(set.Parity, ParityVolumeRecord{
			VolumeNumber: spf.Header.VolumeNumber,
			Path:         sib,
			BodyHash:     spf.Header.BodyHash,
			SetHash:      spf.Header.SetHash,
			DataOffset:   spf.Header.DataOffset,
			DataSize:     spf.Header.DataSize,
			Status:       Unknown,
			Generator:    spf.Header.Generator,
		})
	}

	sort.Slice(set.Parity, func(i, j int) bool {
		return set.Parity[i].VolumeNumber < set.Parity[j].VolumeNumber
	})

	return set, nil
}

func discoverSiblings(dir, baseName, loadedPath string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		full := filepath.Join(dir, name)
		if full == loadedPath {
			continue
		}
		nameBase := strings.TrimSuffix(name, filepath.Ext(name))
		if nameBase != baseName {
			continue
		}
		ext := strings.TrimPrefix(filepath.Ext(name), ".")
		if len(ext) != 3 || !siblingExt.MatchString(ext) {
			continue
		}
		out = append(out, full)
	}
	return out, nil
}
