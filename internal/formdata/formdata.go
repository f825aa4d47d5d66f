// Package formdata assembles multipart/form-data request bodies from file
// and text parts.
package formdata

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mcncl/skjson/internal/errors"
)

const (
	// DefaultCharset labels text parts when no charset is configured
	DefaultCharset = "UTF-8"
	// DefaultContentType is used when a file's type cannot be probed
	DefaultContentType = "application/octet-stream"

	scriptExtension    = ".sk"
	transportExtension = ".vb"
)

// NewBoundary returns the 16 bytes of a random UUID rendered as hex
func NewBoundary() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

type part struct {
	field       string
	filename    string
	contentType string
	file        string
	text        string
	isFile      bool
}

// Builder collects parts in insertion order
type Builder struct {
	charset  string
	boundary string
	parts    []part
	temps    []string
}

// Option configures a Builder
type Option func(*Builder)

// WithCharset sets the charset advertised by text parts
func WithCharset(charset string) Option {
	return func(b *Builder) {
		b.charset = charset
	}
}

// WithBoundary fixes the part boundary instead of generating one
func WithBoundary(boundary string) Option {
	return func(b *Builder) {
		b.boundary = boundary
	}
}

// NewBuilder creates a new Builder instance
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{charset: DefaultCharset}
	for _, opt := range opts {
		opt(b)
	}
	if b.boundary == "" {
		b.boundary = NewBoundary()
	}
	return b
}

// Boundary returns the part boundary
func (b *Builder) Boundary() string {
	return b.boundary
}

// ContentType returns the Content-Type header value for the body
func (b *Builder) ContentType() string {
	return "multipart/form-data; boundary=" + b.boundary
}

// AddFile adds a file part. An empty contentType is probed from the file
// extension. Scripts ending in .sk are sent as a .vb copy.
func (b *Builder) AddFile(field, filePath, contentType string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return errors.NewIOError(fmt.Sprintf("attachment '%s' is not readable", filePath), err)
	}
	if info.IsDir() {
		return errors.NewIOError(fmt.Sprintf("attachment '%s' is a directory", filePath), errors.ErrIO)
	}

	source := filePath
	if strings.HasSuffix(filepath.Base(filePath), scriptExtension) {
		source, err = b.transportCopy(filePath)
		if err != nil {
			return err
		}
	}

	if contentType == "" {
		contentType = ProbeContentType(source)
	}
	b.parts = append(b.parts, part{
		field:       field,
		filename:    filepath.Base(source),
		contentType: contentType,
		file:        source,
		isFile:      true,
	})
	return nil
}

// transportCopy copies a script file to a temporary file with the
// transport extension. The copy lives until Close.
func (b *Builder) transportCopy(filePath string) (string, error) {
	name := strings.TrimSuffix(filepath.Base(filePath), scriptExtension)
	src, err := os.Open(filePath)
	if err != nil {
		return "", errors.NewIOError(fmt.Sprintf("failed to open attachment '%s'", filePath), err)
	}
	defer func() { _ = src.Close() }()

	tmp, err := os.CreateTemp("", name+scriptExtension+" -- *"+transportExtension)
	if err != nil {
		return "", errors.NewIOError("failed to create transport copy", err)
	}
	b.temps = append(b.temps, tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		return "", errors.NewIOError(fmt.Sprintf("failed to copy attachment '%s'", filePath), err)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.NewIOError(fmt.Sprintf("failed to copy attachment '%s'", filePath), err)
	}
	return tmp.Name(), nil
}

// AddText adds a text part
func (b *Builder) AddText(field, text string) {
	b.parts = append(b.parts, part{field: field, text: text})
}

// Len returns the number of parts
func (b *Builder) Len() int {
	return len(b.parts)
}

// Data is an assembled multipart body
type Data struct {
	contentType string
	body        []byte
}

// ContentType returns the Content-Type header value
func (d *Data) ContentType() string {
	return d.contentType
}

// Body returns the encoded parts
func (d *Data) Body() []byte {
	return d.body
}

// Reader returns a reader over the body
func (d *Data) Reader() io.Reader {
	return bytes.NewReader(d.body)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Build encodes all parts. File contents are read at this point.
func (b *Builder) Build() (*Data, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.SetBoundary(b.boundary); err != nil {
		return nil, errors.NewIOError(fmt.Sprintf("invalid boundary %q", b.boundary), err)
	}

	for _, p := range b.parts {
		header := make(textproto.MIMEHeader)
		if p.isFile {
			header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
				quoteEscaper.Replace(p.field), quoteEscaper.Replace(p.filename)))
			header.Set("Content-Type", p.contentType)
		} else {
			header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(p.field)))
			header.Set("Content-Type", "text/plain; charset="+b.charset)
		}

		w, err := mw.CreatePart(header)
		if err != nil {
			return nil, errors.NewIOError("failed to create part", err)
		}
		if p.isFile {
			if err := copyFile(w, p.file); err != nil {
				return nil, err
			}
		} else if _, err := io.WriteString(w, p.text); err != nil {
			return nil, errors.NewIOError("failed to write text part", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, errors.NewIOError("failed to finish multipart body", err)
	}
	return &Data{contentType: b.ContentType(), body: buf.Bytes()}, nil
}

func copyFile(w io.Writer, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return errors.NewIOError(fmt.Sprintf("failed to open attachment '%s'", filePath), err)
	}
	defer func() { _ = f.Close() }()
	if _, err := io.Copy(w, f); err != nil {
		return errors.NewIOError(fmt.Sprintf("failed to read attachment '%s'", filePath), err)
	}
	return nil
}

// Close removes temporary transport copies
func (b *Builder) Close() error {
	var firstErr error
	for _, name := range b.temps {
		if err := os.Remove(name); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	b.temps = nil
	return firstErr
}

// ProbeContentType guesses a MIME type from the file extension
func ProbeContentType(filePath string) string {
	if t := mime.TypeByExtension(filepath.Ext(filePath)); t != "" {
		return t
	}
	return DefaultContentType
}
