package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local はローカルディスクに保存する
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: dir}, nil
}

// 一時ファイルに書いてからrenameする
func (s *Local) Save(_ context.Context, key string, _ string, body io.Reader, _ int64) error {
	f, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, s.path(key))
}

// 存在しなければ fs.ErrNotExist を包んだエラーになる
func (s *Local) Open(_ context.Context, key string) (io.ReadCloser, error) {
	return os.Open(s.path(key))
}

func (s *Local) path(key string) string {
	return filepath.Join(s.dir, filepath.Base(key))
}
