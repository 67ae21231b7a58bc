package media

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// Upload describes inbound image bytes together with what the client
// declared about them. Failure carries a transport-level problem detected
// before the bytes reached the store (size limit, partial transfer...).
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
	Failure     error
}

// Source is either an Upload or a remote URL reference.
type Source struct {
	Upload *Upload
	URL    string
}

func (s Source) Empty() bool { return s.Upload == nil && s.URL == "" }

// FromFileHeader adapts a parsed multipart file.
func FromFileHeader(fh *multipart.FileHeader) *Upload {
	return &Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// FromFile adapts a local file; contentType is what the caller declares.
func FromFile(path, contentType string) (*Upload, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &Upload{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Size:        fi.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}
