package envfile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/firefly-engineering/mythic-ctl/internal/errors"
)

// filePerm keeps generated secrets away from other local users.
const filePerm = 0600

// MalformedSuffix is appended to a malformed file when it is set aside.
const MalformedSuffix = ".malformed"

// Load reads the configuration file at path.
//
// It fails with a NotFound error when the file does not exist and with a
// Malformed error naming the first offending line otherwise.
func Load(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(path)
		}
		return nil, errors.ConfigError(fmt.Sprintf("failed to read %s", path), err)
	}
	return Parse(bytes.NewReader(data), path)
}

// Parse decodes the key=value format from r. One pair of double quotes
// around a value is removed, as written by the Mythic installer. The name
// is only used in error messages.
func Parse(r io.Reader, name string) (*Configuration, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found || strings.TrimSpace(key) == "" {
			return nil, errors.Malformed(name, lineNo, trimmed)
		}
		cfg.Set(key, unquote(value))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("failed to read %s", name), err)
	}
	return cfg, nil
}

func unquote(value string) string {
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		return value[1 : len(value)-1]
	}
	return value
}

// Encode writes cfg in file format to w.
func Encode(w io.Writer, cfg *Configuration) error {
	bw := bufio.NewWriter(w)
	for _, e := range cfg.Entries() {
		if strings.ContainsAny(e.Value, "\r\n") {
			return errors.InvalidArgument(fmt.Sprintf("value of %s contains a line break", e.Key))
		}
		if _, err := fmt.Fprintf(bw, "%s=%s\n", e.Key, e.Value); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Persist writes cfg to path. The content goes to a temporary file in the
// same directory which is then renamed over path, so readers see either the
// old or the new file and never a partial one.
func Persist(cfg *Configuration, path string) error {
	var buf bytes.Buffer
	if err := Encode(&buf, cfg); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.ConfigError(fmt.Sprintf("failed to create temporary file in %s", dir), err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return errors.ConfigError(fmt.Sprintf("failed to write %s", tmpName), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.ConfigError(fmt.Sprintf("failed to sync %s", tmpName), err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return errors.ConfigError(fmt.Sprintf("failed to chmod %s", tmpName), err)
	}
	if err := tmp.Close(); err != nil {
		return errors.ConfigError(fmt.Sprintf("failed to close %s", tmpName), err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return errors.ConfigError(fmt.Sprintf("failed to replace %s", path), err)
	}
	return nil
}

// SetAside moves a malformed file out of the way so defaults can be written
// without losing the operator's content. It returns the new location.
func SetAside(path string) (string, error) {
	dest := path + MalformedSuffix
	if err := os.Rename(path, dest); err != nil {
		return "", errors.ConfigError(fmt.Sprintf("failed to move %s aside", path), err)
	}
	return dest, nil
}
