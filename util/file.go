package util

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/fearthecowboy/toolscout/internal/errors"
)

// JoinPath joins path elements using the platform separator.
func JoinPath(elements ...string) string {
	return filepath.Join(elements...)
}

// CanonicalPath returns the absolute, cleaned form of path. Relative paths
// are resolved against basePath when given, otherwise against the current
// working directory.
func CanonicalPath(path string, basePath string) (string, error) {
	if !filepath.IsAbs(path) && basePath != "" {
		path = filepath.Join(basePath, path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", errors.WithStackTrace(err)
	}

	return filepath.Clean(absPath), nil
}

// FileExists returns true if the path exists on disk.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsFile returns true if the path exists and is a regular file.
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsDir returns true if the path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsExecutable returns true if the path is a file the current user could
// execute. On Windows executability comes from the extension, so any regular
// file qualifies here and extension checks happen at the call site.
func IsExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	if runtime.GOOS == "windows" {
		return true
	}

	return info.Mode().Perm()&0111 != 0
}

// ReadFileAsString returns the contents of the file at path.
func ReadFileAsString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.WithStackTrace(err)
	}

	return string(data), nil
}

// WriteFileAtomic writes data to path via a temporary file in the same
// directory followed by a rename, so readers never observe a partial write.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.WithStackTrace(err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.WithStackTrace(err)
	}

	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return errors.WithStackTrace(err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.WithStackTrace(err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.WithStackTrace(err)
	}

	return nil
}

// HomeDir returns the current user's home directory.
func HomeDir() (string, error) {
	dir, err := homedir.Dir()
	if err != nil {
		return "", errors.WithStackTrace(err)
	}

	return dir, nil
}

// FileStem returns the base name of path. On Windows a trailing extension
// from the given executable extensions is stripped case-insensitively;
// elsewhere the base name is returned as is, extension included.
func FileStem(path string, executableExtensions []string) string {
	base := filepath.Base(path)

	if runtime.GOOS != "windows" {
		return base
	}

	for _, ext := range executableExtensions {
		if strings.EqualFold(filepath.Ext(base), ext) {
			return base[:len(base)-len(ext)]
		}
	}

	return base
}

// SplitEnvPath splits a PATH-style value on the platform list separator,
// dropping empty entries.
func SplitEnvPath(value string) []string {
	var out []string

	for _, entry := range strings.Split(value, string(os.PathListSeparator)) {
		if entry != "" {
			out = append(out, entry)
		}
	}

	return out
}
