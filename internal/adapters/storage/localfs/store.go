package localfs

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrUnsupportedType は許可されていない種類のファイルの場合に返却されます。
var ErrUnsupportedType = errors.New("localfs: only images, PDF and Word documents are allowed")

var allowedTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

var extensionPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// Store はアップロードされた添付書類をローカルディレクトリに保存します。
type Store struct {
	dir string
	now func() time.Time
}

// New は Store を生成し、保存先ディレクトリを作成します。
func New(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("localfs: directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("localfs: create %s: %w", dir, err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Save は内容から種類を判定し、許可された場合のみ保存して保存先のパスを返します。
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("localfs: open upload: %w", err)
	}
	defer src.Close()

	detected, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("localfs: detect type: %w", err)
	}
	if !isAllowed(detected) {
		return "", fmt.Errorf("%w: got %s", ErrUnsupportedType, detected.String())
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("localfs: rewind upload: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !extensionPattern.MatchString(ext) {
		ext = detected.Extension()
	}
	name := fmt.Sprintf("file-%d-%s%s", s.now().UnixMilli(), uuid.NewString()[:8], ext)
	path := filepath.Join(s.dir, name)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("localfs: create %s: %w", name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("localfs: write %s: %w", name, err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("localfs: close %s: %w", name, err)
	}

	return path, nil
}

// Remove は保存済みのファイルを削除します。存在しない場合は何もしません。
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("localfs: remove: %w", err)
	}
	return nil
}

func isAllowed(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") || m.Is(allowedTypes[0]) || m.Is(allowedTypes[1]) || m.Is(allowedTypes[2]) {
			return true
		}
	}
	return false
}
