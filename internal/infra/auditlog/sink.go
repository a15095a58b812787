package auditlog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileName is the audit log written inside the resolved log directory.
const FileName = "subscribers.log"

// ResolveDir returns preferred when it is an existing directory and the
// current working directory otherwise.
func ResolveDir(preferred string) string {
	info, err := os.Stat(preferred)
	if err != nil || !info.IsDir() {
		return "."
	}
	return preferred
}

// FileSink appends one line per deactivated address to <dir>/subscribers.log.
type FileSink struct {
	path string
}

func NewFileSink(dir string) *FileSink {
	return &FileSink{path: filepath.Join(dir, FileName)}
}

func (s *FileSink) Path() string {
	return s.path
}

// Line formats the audit record for a single address.
func Line(address string, at time.Time) string {
	return fmt.Sprintf("status=1 to=%s code=deactivated time=%d\n", address, at.Unix())
}

// Append writes every address with the same timestamp. The file is not
// touched when addresses is empty.
func (s *FileSink) Append(addresses []string, at time.Time) (err error) {
	if len(addresses) == 0 {
		return nil
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log %s: %w", s.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close audit log %s: %w", s.path, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	for _, addr := range addresses {
		if _, err := w.WriteString(Line(addr, at)); err != nil {
			return fmt.Errorf("failed to write audit log %s: %w", s.path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write audit log %s: %w", s.path, err)
	}
	return nil
}
