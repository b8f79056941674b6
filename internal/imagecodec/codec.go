package imagecodec

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	schemeFile    = "file://"
	schemeContent = "content://"

	defaultMime     = "image/jpeg"
	defaultMaxBytes = 10 << 20
)

var (
	// ErrUnsupportedRef is returned for references FileSource cannot open,
	// such as content:// URIs or empty values.
	ErrUnsupportedRef = errors.New("unsupported local reference")

	// ErrTooLarge is returned when a photo is bigger than the codec's limit.
	ErrTooLarge = errors.New("image exceeds size limit")
)

// Image is a photo ready to be embedded in a webhook payload.
type Image struct {
	Name   string
	Mime   string
	Base64 string
}

// ReadError reports a local photo that could not be read. Callers drop the
// photo from the payload rather than aborting the whole mutation.
type ReadError struct {
	Ref string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read image %q: %v", e.Ref, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Source opens local photo references. Implementations must return a reader
// the caller closes exactly once.
type Source interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// FileSource reads file:// URIs and plain filesystem paths.
type FileSource struct{}

// Open implements Source.
func (FileSource) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	path, err := localPath(ref)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Codec turns local references into transport Images.
type Codec struct {
	source   Source
	maxBytes int64
}

// NewCodec builds a Codec. A nil source reads from the filesystem and a
// non-positive maxBytes falls back to 10 MiB.
func NewCodec(source Source, maxBytes int64) *Codec {
	if source == nil {
		source = FileSource{}
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Codec{source: source, maxBytes: maxBytes}
}

// Encode reads the full content of ref and packages it for the photo slot.
// Any failure is returned as a *ReadError.
func (c *Codec) Encode(ctx context.Context, ref string, slot int) (Image, error) {
	data, err := c.read(ctx, ref)
	if err != nil {
		return Image{}, &ReadError{Ref: ref, Err: err}
	}
	mime := MimeTypeOf(ref)
	return Image{
		Name:   NameFor(slot, mime),
		Mime:   mime,
		Base64: base64.StdEncoding.EncodeToString(data),
	}, nil
}

func (c *Codec) read(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc, err := c.source.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, c.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, c.maxBytes)
	}
	return data, nil
}

// IsLocal reports whether ref points at an on-device photo that still needs
// to be uploaded.
func IsLocal(ref string) bool {
	return strings.HasPrefix(ref, schemeFile) || strings.HasPrefix(ref, schemeContent)
}

// MimeTypeOf derives the MIME type from the extension of ref, defaulting to
// image/jpeg when the extension is missing or unknown.
func MimeTypeOf(ref string) string {
	dot := strings.LastIndex(ref, ".")
	if dot < 0 {
		return defaultMime
	}
	switch strings.ToLower(ref[dot+1:]) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "bmp":
		return "image/bmp"
	default:
		return defaultMime
	}
}

// NameFor returns the synthetic upload name for a slot, e.g. "foto5.jpg".
func NameFor(slot int, mime string) string {
	ext := "jpg"
	if _, subtype, ok := strings.Cut(mime, "/"); ok && subtype != "" && subtype != "jpeg" {
		ext = subtype
	}
	return "foto" + strconv.Itoa(slot) + "." + ext
}

// FileRef turns an absolute filesystem path into a file:// reference,
// escaping characters such as '#', '?' and '%' so FileSource reads back the
// same path.
func FileRef(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

func localPath(ref string) (string, error) {
	switch {
	case strings.HasPrefix(ref, schemeFile):
		u, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("parse %q: %w", ref, err)
		}
		if u.Path == "" {
			return "", fmt.Errorf("%w: %q has no path", ErrUnsupportedRef, ref)
		}
		return u.Path, nil
	case strings.Contains(ref, "://"):
		return "", fmt.Errorf("%w: %q", ErrUnsupportedRef, ref)
	case strings.TrimSpace(ref) == "":
		return "", fmt.Errorf("%w: empty reference", ErrUnsupportedRef)
	default:
		return ref, nil
	}
}
