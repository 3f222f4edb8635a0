package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"strings"
)

// FilePart describes the file attached to a multipart body.
type FilePart struct {
	Field       string
	FileName    string
	ContentType string
	Path        string
	Data        []byte
}

// MultipartBody builds a multipart/form-data body from plain fields and one file.
// It returns the body and the Content-Type header value including the boundary.
func MultipartBody(fields map[string]string, file FilePart) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", name, err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(file.Field), escapeQuotes(file.FileName)))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}

	if file.Path != "" {
		f, err := os.Open(file.Path)
		if err != nil {
			return nil, "", fmt.Errorf("open %s: %w", file.Path, err)
		}
		defer f.Close()
		if _, err := io.Copy(part, f); err != nil {
			return nil, "", fmt.Errorf("copy %s: %w", file.Path, err)
		}
	} else if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("write file part: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
