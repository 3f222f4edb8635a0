// Package sniff classifies documents by their leading bytes.
package sniff

import "bytes"

// Kind is the container format of a document.
type Kind string

const (
	KindPDF     Kind = "pdf"
	KindOffice  Kind = "office"
	KindUnknown Kind = "unknown"
)

var (
	pdfMagic = []byte("%PDF-")
	// Local file header, empty archive and spanned archive markers.
	zipMagics = [][]byte{
		{'P', 'K', 0x03, 0x04},
		{'P', 'K', 0x05, 0x06},
		{'P', 'K', 0x07, 0x08},
	}
)

// Detect inspects the first bytes of data. Filenames and declared content types are ignored.
func Detect(data []byte) Kind {
	if bytes.HasPrefix(data, pdfMagic) {
		return KindPDF
	}
	for _, magic := range zipMagics {
		if bytes.HasPrefix(data, magic) {
			return KindOffice
		}
	}
	return KindUnknown
}

// ContentType returns the MIME type served for the kind. Office output from the
// translation service is a Word document.
func (k Kind) ContentType() string {
	switch k {
	case KindPDF:
		return "application/pdf"
	case KindOffice:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}

// Extension returns the file extension, dot included.
func (k Kind) Extension() string {
	switch k {
	case KindPDF:
		return ".pdf"
	case KindOffice:
		return ".docx"
	default:
		return ".bin"
	}
}
