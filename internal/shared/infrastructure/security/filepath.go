// Package security validates file paths supplied on the command line.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
)

// forbiddenChars are shell metacharacters never accepted in a path.
var forbiddenChars = []string{";", "&", "|", "$", "`", "(", ")", "{", "}", "<", ">", "!", "\n", "\r", "\x00"}

// CleanFilePath returns the absolute, symlink-resolved form of path.
// A path that does not exist yet is returned cleaned.
func CleanFilePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", domain.NewValidationError("file path cannot be empty")
	}
	for _, char := range forbiddenChars {
		if strings.Contains(path, char) {
			return "", domain.NewValidationError(fmt.Sprintf("file path contains forbidden character %q", char))
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", domain.NewInternalError(fmt.Errorf("resolve %s: %w", path, err))
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return abs, nil
		}
		return "", domain.NewInternalError(fmt.Errorf("resolve %s: %w", path, err))
	}
	return resolved, nil
}

// CleanFilePathIn is CleanFilePath restricted to paths inside baseDir.
func CleanFilePathIn(path, baseDir string) (string, error) {
	if baseDir == "" {
		return "", domain.NewValidationError("base directory cannot be empty")
	}
	clean, err := CleanFilePath(path)
	if err != nil {
		return "", err
	}
	base, err := CleanFilePath(baseDir)
	if err != nil {
		return "", err
	}

	if clean != base && !strings.HasPrefix(clean, base+string(filepath.Separator)) {
		return "", domain.NewValidationError(fmt.Sprintf("%s is outside %s", path, baseDir))
	}
	return clean, nil
}

// CreateFile validates path, creates its parent directory and opens the file
// for writing, truncating any previous content.
func CreateFile(path string) (*os.File, error) {
	clean, err := CleanFilePath(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(clean), 0o750); err != nil {
		return nil, domain.NewInternalError(fmt.Errorf("create directory for %s: %w", path, err))
	}
	// #nosec G304 - path is validated above
	f, err := os.OpenFile(clean, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, domain.NewInternalError(fmt.Errorf("create %s: %w", path, err))
	}
	return f, nil
}
