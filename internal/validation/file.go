package validation

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/thoas/go-funk"
)

const (
	// DefaultMaxFileSize is the upload size limit.
	DefaultMaxFileSize = 10 * 1024 * 1024
	maxFilenameLength  = 255
)

var (
	defaultAllowedExtensions = []string{".pdf", ".doc", ".docx"}
	defaultMIMEPrefixes      = []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument",
	}
	// deniedExtensions are rejected anywhere in the filename, so a double
	// extension such as resume.pdf.exe is caught too.
	deniedExtensions = []string{
		".exe", ".bat", ".cmd", ".com", ".scr", ".msi",
		".js", ".vbs", ".jar", ".sh", ".php", ".ps1",
	}
	suspiciousContent = [][]byte{
		[]byte("<script"), []byte("javascript:"), []byte("vbscript:"), []byte("<?php"),
	}
	illegalFilenameChars = `<>:"|?*`
)

// FileInput is the metadata and leading bytes of a candidate upload.
type FileInput struct {
	Name        string
	Size        int64
	ContentType string
	// Head holds the first bytes of the file for content sniffing. May be
	// the whole file; only a short prefix is needed.
	Head []byte
}

// FileOptions configures the file rule. Zero values fall back to defaults.
type FileOptions struct {
	MaxSize           int64
	AllowedExtensions []string
	MIMEPrefixes      []string
}

// File validates an upload candidate: presence, size limit, extension allow
// list, MIME prefix, filename charset/length, deny-listed extensions and a
// magic-byte sanity check for pdf/docx.
func File(opts FileOptions) Rule {
	maxSize := opts.MaxSize
	if maxSize == 0 {
		maxSize = DefaultMaxFileSize
	}
	allowedExts := opts.AllowedExtensions
	if len(allowedExts) == 0 {
		allowedExts = defaultAllowedExtensions
	}
	mimePrefixes := opts.MIMEPrefixes
	if len(mimePrefixes) == 0 {
		mimePrefixes = defaultMIMEPrefixes
	}

	return func(value any) Result {
		var result Result

		file, ok := value.(FileInput)
		if !ok {
			if ptr, isPtr := value.(*FileInput); isPtr && ptr != nil {
				file = *ptr
			} else {
				result.addError(CodeFileRequired, "no file provided")
				return result
			}
		}
		if file.Name == "" {
			result.addError(CodeFileRequired, "no file provided")
			return result
		}

		if err := checkFilename(file.Name); err != "" {
			result.addError(CodeInvalidFilename, err)
			return result
		}

		for _, part := range extensionChain(file.Name) {
			if funk.ContainsString(deniedExtensions, part) {
				result.addError(CodeSuspiciousExtension, fmt.Sprintf("file extension %s is not permitted", part))
				return result
			}
		}

		ext := strings.ToLower(filepath.Ext(file.Name))
		if !funk.ContainsString(allowedExts, ext) {
			result.addError(CodeInvalidFileType,
				fmt.Sprintf("file type not allowed, allowed types: %s", strings.Join(allowedExts, ", ")))
			return result
		}

		if file.Size == 0 {
			result.addError(CodeFileEmpty, "file is empty")
			return result
		}
		if file.Size > maxSize {
			result.addError(CodeFileTooLarge,
				fmt.Sprintf("file size (%.2fMB) exceeds the %dMB limit",
					float64(file.Size)/1024/1024, maxSize/1024/1024))
			return result
		}

		if file.ContentType != "" && !hasAnyPrefix(file.ContentType, mimePrefixes) {
			result.addWarning(CodeUnexpectedMimeType, fmt.Sprintf("unexpected MIME type: %s", file.ContentType))
		}

		result.merge(checkContent(ext, file.Head))
		return result
	}
}

func checkFilename(name string) string {
	if utf8Len := len([]rune(name)); utf8Len > maxFilenameLength {
		return fmt.Sprintf("filename exceeds %d characters", maxFilenameLength)
	}
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return "filename must not contain path separators"
	}
	if strings.ContainsAny(name, illegalFilenameChars) {
		return "filename contains illegal characters"
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return "filename contains control characters"
		}
	}
	return ""
}

// extensionChain returns every dot-suffix segment of the filename, lowered:
// "a.pdf.exe" yields [".pdf", ".exe"].
func extensionChain(name string) []string {
	parts := strings.Split(strings.ToLower(name), ".")
	if len(parts) < 2 {
		return nil
	}
	exts := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		exts = append(exts, "."+p)
	}
	return exts
}

func checkContent(ext string, head []byte) Result {
	var result Result
	if len(head) == 0 {
		return result
	}

	switch ext {
	case ".pdf":
		if !bytes.HasPrefix(head, []byte("%PDF-")) {
			result.addError(CodeInvalidContent, "file does not appear to be a valid PDF")
		}
	case ".docx":
		if !bytes.HasPrefix(head, []byte("PK")) {
			result.addError(CodeInvalidContent, "file does not appear to be a valid DOCX document")
		}
	}

	lowered := bytes.ToLower(head)
	for _, pattern := range suspiciousContent {
		if bytes.Contains(lowered, pattern) {
			result.addError(CodeSecurityViolation, "file contains potentially malicious content")
			break
		}
	}
	return result
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// SanitizeFilename strips path components, illegal and control characters
// and caps the length, for use when forwarding user filenames to the service.
func SanitizeFilename(name string) string {
	if name == "" {
		return "unnamed_file"
	}
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	var b strings.Builder
	for _, r := range name {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(illegalFilenameChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	name = strings.Trim(b.String(), ". ")
	if name == "" {
		return "unnamed_file"
	}
	if len(name) > maxFilenameLength {
		ext := filepath.Ext(name)
		if len(ext) < maxFilenameLength {
			name = name[:maxFilenameLength-len(ext)] + ext
		} else {
			name = name[:maxFilenameLength]
		}
	}
	return name
}
