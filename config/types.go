package config

import (
	"os"
	"slices"
	"strconv"
	"strings"
)

// DocumentTypes defines the file extensions that can be loaded into a corpus
var DocumentTypes = []string{"pdf", "doc", "docx", "txt"}

// IsDocumentFile checks if a file extension is a supported document type
func IsDocumentFile(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(getFileExtension(filename), "."))
	return slices.Contains(DocumentTypes, ext)
}

// BuildFileTypeMap creates a map for O(1) file type lookups
func BuildFileTypeMap() map[string]bool {
	typeMap := make(map[string]bool, len(DocumentTypes))
	for _, ext := range DocumentTypes {
		typeMap["."+ext] = true
	}
	return typeMap
}

// GetFileTypeDescription returns a human-readable description of file types
func GetFileTypeDescription() string {
	return "documents (" + strings.Join(DocumentTypes, ", ") + ")"
}

// GetPerformanceProfile returns a worker count for a batch of the given size
func GetPerformanceProfile(fileCount int) int {
	switch {
	case fileCount < 4:
		return 1
	case fileCount < 100:
		return 2
	case fileCount < 1000:
		return 4
	default:
		return 8
	}
}

// getFileExtension extracts file extension from filename
func getFileExtension(filename string) string {
	lastDot := strings.LastIndex(filename, ".")
	if lastDot == -1 || lastDot == len(filename)-1 {
		return ""
	}
	return filename[lastDot:]
}

// IsHiddenFile checks if a file should be treated as hidden
func IsHiddenFile(filename string) bool {
	return strings.HasPrefix(filename, ".")
}

// ShouldSkipDirectory determines if a directory should be skipped during traversal
func ShouldSkipDirectory(dirName string) bool {
	skipDirs := map[string]bool{
		".git":          true,
		".svn":          true,
		".hg":           true,
		"node_modules":  true,
		".vscode":       true,
		".idea":         true,
		"__pycache__":   true,
		".pytest_cache": true,
		"vendor":        true,
		"target":        true,
		"build":         true,
		"dist":          true,
		"coverage":      true,
	}

	return skipDirs[dirName] || strings.HasPrefix(dirName, ".")
}

// DeriveConcurrency picks an extraction concurrency from CPU count and available RAM.
// One heavy slot per 4 GiB of available memory, clamped to [1,8].
func DeriveConcurrency(cpus int) int {
	derived := cpus / 2
	if derived < 1 {
		derived = 1
	}
	ramBound := int(availableMemoryKB() / (1024 * 1024) / 4)
	if ramBound < 1 {
		ramBound = 1
	}
	if derived > ramBound {
		derived = ramBound
	}
	if derived > 8 {
		derived = 8
	}
	return derived
}

// availableMemoryKB reads MemAvailable (or MemFree) from /proc/meminfo; 0 when unknown
func availableMemoryKB() int64 {
	b, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return 0
	}
	lines := strings.Split(string(b), "\n")
	for _, key := range []string{"MemAvailable:", "MemFree:"} {
		for _, ln := range lines {
			if !strings.HasPrefix(ln, key) {
				continue
			}
			fields := strings.Fields(ln)
			if len(fields) >= 2 {
				if kb, err := strconv.ParseInt(fields[1], 10, 64); err == nil && kb > 0 {
					return kb
				}
			}
		}
	}
	return 0
}
