// Package media persists card images into a single flat directory and hands
// back references the card store can keep.
package media

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"cardshare/internal/domain"
	applog "cardshare/internal/log"
	"cardshare/internal/validate"
)

// DefaultMaxBytes is the largest accepted upload.
const DefaultMaxBytes int64 = 5_000_000

var (
	allowedTypes = map[string]bool{"image/jpeg": true, "image/png": true, "image/jpg": true}
	reExt        = regexp.MustCompile(`^[A-Za-z0-9]{1,8}$`)
)

// Ref is a stored image reference: an owned path relative to the public
// root (e.g. "uploads/front_1700000000_65f1c2a3b4d5e.png") or a remote URL.
type Ref struct {
	Value string
	Owned bool
}

type Store struct {
	dir       string
	urlPrefix string
	maxBytes  int64

	now   func() time.Time
	token func() string

	mu    sync.Mutex
	ready bool
}

// NewStore manages dir; owned references are reported as urlPrefix/<file>.
func NewStore(dir, urlPrefix string, maxBytes int64) *Store {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Store{
		dir:       dir,
		urlPrefix: strings.Trim(urlPrefix, "/"),
		maxBytes:  maxBytes,
		now:       time.Now,
		token:     randomToken,
	}
}

func randomToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:13]
}

func (s *Store) Dir() string       { return s.dir }
func (s *Store) URLPrefix() string { return s.urlPrefix }
func (s *Store) MaxBytes() int64   { return s.maxBytes }

// Store validates src and, for uploads, writes it under a generated name.
// URL sources are returned verbatim and cause no side effect.
func (s *Store) Store(src Source, namePrefix string) (Ref, error) {
	switch {
	case src.Upload != nil:
		return s.storeUpload(src.Upload, namePrefix)
	case src.URL != "":
		u, ok := validate.AbsoluteURL(src.URL)
		if !ok {
			applog.Security(nil, "asset.url.invalid", map[string]any{"prefix": namePrefix, "url": src.URL})
			return Ref{}, domain.Validation("", "invalid image URL")
		}
		return Ref{Value: u}, nil
	default:
		return Ref{}, domain.AssetFailure(domain.ReasonNoFile, "no file was uploaded", nil)
	}
}

// Check runs the upload acceptance rules without touching the filesystem.
func (s *Store) Check(u *Upload) error {
	if u.Failure != nil {
		var de *domain.Error
		if errors.As(u.Failure, &de) {
			return de
		}
		return domain.AssetFailure(domain.ReasonTransport, "upload failed", u.Failure)
	}
	if u.Open == nil || u.Filename == "" {
		return domain.AssetFailure(domain.ReasonNoFile, "no file was uploaded", nil)
	}
	if u.Size > s.maxBytes {
		e := domain.AssetFailure(domain.ReasonSizeLimit,
			fmt.Sprintf("file size exceeds %s limit", humanize.Bytes(uint64(s.maxBytes))), nil)
		e.Limit = s.maxBytes
		return e
	}
	if !allowedTypes[mediaType(u.ContentType)] {
		return domain.AssetFailure(domain.ReasonType, "only JPG, PNG, and JPEG files are allowed", nil)
	}
	return nil
}

func mediaType(ct string) string {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return mt
}

func (s *Store) storeUpload(u *Upload, namePrefix string) (Ref, error) {
	if err := s.Check(u); err != nil {
		applog.Security(nil, "asset.reject", map[string]any{
			"prefix": namePrefix, "filename": u.Filename, "type": u.ContentType, "size": u.Size, "reason": err.Error(),
		})
		return Ref{}, err
	}
	if err := s.ensureDir(); err != nil {
		applog.Error(nil, "asset.dir.unavailable", err, map[string]any{"dir": s.dir})
		return Ref{}, err
	}

	name := fmt.Sprintf("%s_%d_%s.%s", namePrefix, s.now().Unix(), s.token(), extension(u))
	full := filepath.Join(s.dir, name)

	if err := s.write(u, full); err != nil {
		_ = os.Remove(full)
		applog.Error(nil, "asset.write.fail", err, map[string]any{"file": name})
		return Ref{}, err
	}
	ref := Ref{Value: path.Join(s.urlPrefix, name), Owned: true}
	applog.Info(nil, "asset.store", map[string]any{"file": name, "size": u.Size, "type": u.ContentType})
	return ref, nil
}

type countingReader struct {
	r   io.Reader
	err error
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if err != nil && err != io.EOF {
		c.err = err
	}
	return n, err
}

func (s *Store) write(u *Upload, full string) error {
	src, err := u.Open()
	if err != nil {
		return domain.AssetFailure(domain.ReasonTransport, "could not read uploaded file", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return domain.AssetFailure(domain.ReasonWriteFailed, "failed to write file to disk", err)
	}
	cr := &countingReader{r: src}
	n, copyErr := io.Copy(dst, io.LimitReader(cr, s.maxBytes+1))
	closeErr := dst.Close()

	switch {
	case cr.err != nil:
		return domain.AssetFailure(domain.ReasonPartial, "file was only partially uploaded", cr.err)
	case copyErr != nil:
		return domain.AssetFailure(domain.ReasonWriteFailed, "failed to write file to disk", copyErr)
	case n > s.maxBytes:
		e := domain.AssetFailure(domain.ReasonSizeLimit,
			fmt.Sprintf("file size exceeds %s limit", humanize.Bytes(uint64(s.maxBytes))), nil)
		e.Limit = s.maxBytes
		return e
	case n != u.Size:
		return domain.AssetFailure(domain.ReasonPartial,
			fmt.Sprintf("file was only partially uploaded (%d of %d bytes)", n, u.Size), nil)
	case closeErr != nil:
		return domain.AssetFailure(domain.ReasonWriteFailed, "failed to write file to disk", closeErr)
	}
	return nil
}

// ensureDir creates the managed directory on first use, then re-checks that
// it is writable on every call.
func (s *Store) ensureDir() error {
	s.mu.Lock()
	if !s.ready {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			s.mu.Unlock()
			return domain.StorageUnavailable("failed to create uploads directory", err)
		}
		s.ready = true
		applog.Info(nil, "asset.dir.ready", map[string]any{"dir": s.dir})
	}
	s.mu.Unlock()

	if err := writable(s.dir); err != nil {
		return domain.StorageUnavailable("uploads directory is not writable", err)
	}
	return nil
}

func extension(u *Upload) string {
	ext := strings.TrimPrefix(filepath.Ext(u.Filename), ".")
	if reExt.MatchString(ext) {
		return ext
	}
	if mediaType(u.ContentType) == "image/png" {
		return "png"
	}
	return "jpg"
}

// Owns reports whether ref names a file inside the managed directory.
func (s *Store) Owns(ref string) bool {
	_, ok := s.Path(ref)
	return ok
}

// Path maps an owned reference to its file on disk.
func (s *Store) Path(ref string) (string, bool) {
	name, ok := strings.CutPrefix(ref, s.urlPrefix+"/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", false
	}
	return filepath.Join(s.dir, name), true
}

// Discard removes an owned file written by a submission that did not commit.
// Files referenced by stored cards are never removed here.
func (s *Store) Discard(ref Ref) {
	if !ref.Owned {
		return
	}
	p, ok := s.Path(ref.Value)
	if !ok {
		return
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		applog.Error(nil, "asset.discard.fail", err, map[string]any{"ref": ref.Value})
		return
	}
	applog.Info(nil, "asset.discard", map[string]any{"ref": ref.Value})
}
