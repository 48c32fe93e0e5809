// Package host carries the options a caller injects into a pass,
// replacing the module-level application state (registry handle,
// singleton app object) the original implementation used, per the
// redesign flag in spec.md §9.
package host

import (
	"github.com/sirupsen/logrus"
)

// CacheHandle is the opaque persistence hook for the classification
// cache (spec.md §4.G, §6). par/parset is the only package that knows
// its concrete shape; this package only carries the pointer through.
type CacheHandle interface {
	LoadCached(setHash [16]byte) (ok bool, data []byte)
	StoreCached(setHash [16]byte, data []byte)
}

// ProgressFunc reports progress (0-100) under a caller-defined tag and
// returns false to request cancellation. It is the sole suspension and
// cancellation point of a pass (spec.md §5); it must be cheap to call
// and non-reentrant per pass.
type ProgressFunc func(tag string, percent int) (keepGoing bool)

// Services is the parameter object a pass is driven with.
type Services struct {
	// WorkingMemoryBytes caps the per-volume working-chunk size.
	WorkingMemoryBytes uint64
	// OverlappedIO enables double-buffered chunk prefetch when the
	// platform supports it.
	OverlappedIO bool
	// Progress reports progress and carries cancellation requests. A
	// nil Progress is treated as "always continue, report nothing".
	Progress ProgressFunc
	// Cache is the optional classification-cache persistence hook.
	Cache CacheHandle
	// Log receives structured diagnostics. Defaults to
	// logrus.StandardLogger() when nil.
	Log logrus.FieldLogger
}

// Logger returns s.Log, defaulting to the standard logrus logger.
func (s *Services) Logger() logrus.FieldLogger {
	if s == nil || s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

// Report calls Progress if set, defaulting to "keep going".
func (s *Services) Report(tag string, percent int) bool {
	if s == nil || s.Progress == nil {
		return true
	}
	return s.Progress(tag, percent)
}

// DefaultChunkSize is used when WorkingMemoryBytes is zero or would
// otherwise round down to less than one 64 KiB block.
const DefaultChunkSize = 64 * 1024

// ChunkSize derives a working-chunk size C: a multiple of 64 KiB,
// bounded by a fraction of WorkingMemoryBytes and by the largest file
// size involved in the pass, per spec.md §4.H step 3.
func (s *Services) ChunkSize(largestFile uint64, volumeCount int) uint64 {
	if volumeCount < 1 {
		volumeCount = 1
	}
	budget := uint64(DefaultChunkSize)
	if s != nil && s.WorkingMemoryBytes > 0 {
		// Reserve the working memory across one buffer per volume.
		perVolume := s.WorkingMemoryBytes / uint64(volumeCount)
		perVolume -= perVolume % DefaultChunkSize
		if perVolume >= DefaultChunkSize {
			budget = perVolume
		}
	}
	if largestFile > 0 && budget > largestFile {
		budget = largestFile - (largestFile % DefaultChunkSize)
		if budget < DefaultChunkSize {
			budget = DefaultChunkSize
		}
	}
	return budget
}
