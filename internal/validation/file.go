package validation

import (
	"path/filepath"
	"strings"

	"github.com/avoronov/harvest/internal/models"
)

// FileRules configures file acceptance.
type FileRules struct {
	// AllowedExtensions, when non-empty, accepts only listed extensions.
	AllowedExtensions []string
	// BlockedExtensions rejects listed extensions.
	BlockedExtensions []string
	// MaxFileSize rejects larger files when > 0.
	MaxFileSize int64
	// MaxTotalSize, when > 0, caps the combined size of a batch. One
	// oversized batch invalidates every file in it, not just the excess.
	MaxTotalSize int64
}

// FileCheck pairs a candidate with its validation outcome. Err is nil for
// accepted candidates.
type FileCheck struct {
	File models.FileDescriptor
	Err  *Error
}

// ValidateFile checks a single candidate descriptor against rules.
// Extension comparison is case-insensitive and always includes the leading
// dot.
func ValidateFile(candidate models.FileDescriptor, rules FileRules) *Error {
	ext := strings.ToLower(filepath.Ext(candidate.Name))
	if ext == "" || ext == "." {
		return newError(ReasonNoExtension, "file %q has no extension", candidate.Name)
	}
	if containsExt(rules.BlockedExtensions, ext) {
		return newError(ReasonExtBlocked, "extension %q is blocked", ext)
	}
	if len(rules.AllowedExtensions) > 0 && !containsExt(rules.AllowedExtensions, ext) {
		return newError(ReasonExtNotAllowed, "extension %q not in allow-list", ext)
	}
	if candidate.SizeBytes == 0 {
		return newError(ReasonEmptyFile, "file %q is empty", candidate.Name)
	}
	if rules.MaxFileSize > 0 && candidate.SizeBytes > rules.MaxFileSize {
		return newError(ReasonFileTooLarge, "file %q exceeds %d bytes", candidate.Name, rules.MaxFileSize)
	}
	return nil
}

// ValidateFileBatch validates each candidate independently, then applies the
// all-or-nothing batch-size policy: if the sum of all candidate sizes
// exceeds rules.MaxTotalSize, every result is overridden to failed,
// regardless of individual validity.
func ValidateFileBatch(candidates []models.FileDescriptor, rules FileRules) []FileCheck {
	checks := make([]FileCheck, len(candidates))
	var total int64
	for i, c := range candidates {
		checks[i] = FileCheck{File: c, Err: ValidateFile(c, rules)}
		total += c.SizeBytes
	}

	if rules.MaxTotalSize > 0 && total > rules.MaxTotalSize {
		overflow := newError(ReasonBatchTooLarge, "batch size %d exceeds %d bytes", total, rules.MaxTotalSize)
		for i := range checks {
			checks[i].Err = overflow
		}
	}

	return checks
}

// containsExt matches extensions case-insensitively, tolerating entries
// listed without the leading dot.
func containsExt(list []string, ext string) bool {
	for _, e := range list {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if e == ext {
			return true
		}
	}
	return false
}
