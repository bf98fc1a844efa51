package logging

import (
	"os"
	"sync"
)

const defaultLogCapMB = 10

// cappedFile is the LOG_FILE sink. Once a write would push the file past the
// cap it is truncated in place and writing restarts from zero. Cruder than
// rotation, but there is no shipper here to hand rotated files to.
type cappedFile struct {
	mu sync.Mutex

	path string
	cap  int64

	f    *os.File
	used int64
}

func openCappedFile(path string, capMB int) (*cappedFile, error) {
	if capMB <= 0 {
		capMB = defaultLogCapMB
	}
	w := &cappedFile{path: path, cap: int64(capMB) << 20}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *cappedFile) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.used = info.Size()
	return nil
}

func (w *cappedFile) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		if err := w.open(); err != nil {
			return 0, err
		}
	}
	if w.used+int64(len(p)) > w.cap {
		if err := w.reset(); err != nil {
			return 0, err
		}
	}
	n, err := w.f.Write(p)
	w.used += int64(n)
	return n, err
}

func (w *cappedFile) reset() error {
	if w.f != nil {
		_ = w.f.Close()
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		w.f = nil
		return err
	}
	w.f = f
	w.used = 0
	return nil
}

func (w *cappedFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}
