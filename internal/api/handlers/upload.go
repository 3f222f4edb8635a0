package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/domain"
)

// maxFieldBytes bounds a single non-file form field.
const maxFieldBytes = 64 << 10

// Spooler streams the multipart "file" part of a request to a temp file.
type Spooler struct {
	dir      string
	maxBytes int64
}

// NewSpooler writes uploads into dir; requests larger than maxBytes are rejected.
func NewSpooler(dir string, maxBytes int64) *Spooler {
	return &Spooler{dir: dir, maxBytes: maxBytes}
}

// Receive reads the whole multipart body. It returns the spooled upload and the
// plain form fields. The caller owns the upload file. Without a file part the
// error is domain.ErrMissingFile.
func (s *Spooler) Receive(w http.ResponseWriter, r *http.Request) (domain.Upload, map[string]string, error) {
	fields := make(map[string]string)

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		return domain.Upload{}, fields, domain.ErrMissingFile
	}

	if s.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes)
	}
	reader, err := r.MultipartReader()
	if err != nil {
		return domain.Upload{}, fields, domain.ValidationError("invalid multipart body", err)
	}

	var upload domain.Upload
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			removeFile(upload.Path)
			return domain.Upload{}, fields, bodyError(err)
		}

		name := part.FormName()
		switch {
		case name == "file" && part.FileName() != "" && upload.Path == "":
			upload, err = s.spool(part)
		case part.FileName() == "" && name != "":
			var value []byte
			value, err = io.ReadAll(io.LimitReader(part, maxFieldBytes))
			fields[name] = strings.TrimSpace(string(value))
		default:
			_, err = io.Copy(io.Discard, part)
		}
		part.Close()
		if err != nil {
			removeFile(upload.Path)
			return domain.Upload{}, fields, bodyError(err)
		}
	}

	if upload.Path == "" {
		return domain.Upload{}, fields, domain.ErrMissingFile
	}
	return upload, fields, nil
}

func (s *Spooler) spool(part *multipart.Part) (domain.Upload, error) {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return domain.Upload{}, domain.IOError("create uploads dir", err)
	}

	path := filepath.Join(s.dir, uuid.NewString())
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600) // #nosec G304 -- generated name
	if err != nil {
		return domain.Upload{}, domain.IOError("create upload file", err)
	}

	upload := domain.Upload{
		Path:        path,
		FileName:    filepath.Base(part.FileName()),
		ContentType: part.Header.Get("Content-Type"),
	}

	if _, err := io.Copy(f, part); err != nil {
		f.Close()
		removeFile(path)
		return domain.Upload{}, err
	}
	if err := f.Close(); err != nil {
		removeFile(path)
		return domain.Upload{}, domain.IOError("close upload file", err)
	}
	return upload, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.ValidationError(fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit), err)
	}
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	return domain.ValidationError("read multipart body", err)
}

func removeFile(path string) {
	if path != "" {
		_ = os.Remove(path)
	}
}
