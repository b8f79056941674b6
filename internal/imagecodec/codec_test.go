package imagecodec

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMimeTypeOf(t *testing.T) {
	cases := map[string]string{
		"foo.PNG":                      "image/png",
		"file:///tmp/a.jpg":            "image/jpeg",
		"content://media/1.JPEG":       "image/jpeg",
		"file:///tmp/anim.gif":         "image/gif",
		"file:///tmp/p.webp":           "image/webp",
		"file:///tmp/scan.bmp":         "image/bmp",
		"file:///tmp/doc.tiff":         "image/jpeg",
		"content://media/external/123": "image/jpeg",
		"":                             "image/jpeg",
	}
	for ref, want := range cases {
		require.Equal(t, want, MimeTypeOf(ref), ref)
	}
}

func TestNameFor(t *testing.T) {
	require.Equal(t, "foto5.jpg", NameFor(5, "image/jpeg"))
	require.Equal(t, "foto1.png", NameFor(1, "image/png"))
	require.Equal(t, "foto12.webp", NameFor(12, "image/webp"))
	require.Equal(t, "foto3.jpg", NameFor(3, "garbage"))
}

func TestIsLocal(t *testing.T) {
	require.True(t, IsLocal("file:///tmp/a.jpg"))
	require.True(t, IsLocal("content://media/1"))
	require.False(t, IsLocal("https://cdn.example/a.jpg"))
	require.False(t, IsLocal("vehicles/a.jpg"))
	require.False(t, IsLocal(""))
}

func TestCodec_EncodeReadsFileURI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "front.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o600))

	img, err := NewCodec(nil, 0).Encode(context.Background(), "file://"+path, 2)
	require.NoError(t, err)
	require.Equal(t, "foto2.png", img.Name)
	require.Equal(t, "image/png", img.Mime)

	raw, err := base64.StdEncoding.DecodeString(img.Base64)
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(raw))
}

func TestFileRef_RoundTripsAwkwardNames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"car 1.jpg", "car #1.jpg", "car%41.jpg", "car?.jpg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(name), 0o600))

		ref := FileRef(path)
		require.True(t, IsLocal(ref), ref)
		require.Equal(t, "image/jpeg", MimeTypeOf(ref), ref)

		got, err := localPath(ref)
		require.NoError(t, err)
		require.Equal(t, path, got)

		img, err := NewCodec(nil, 0).Encode(context.Background(), ref, 1)
		require.NoError(t, err, name)
		raw, err := base64.StdEncoding.DecodeString(img.Base64)
		require.NoError(t, err)
		require.Equal(t, name, string(raw))
	}
}

func TestCodec_EncodeMissingFileIsReadError(t *testing.T) {
	_, err := NewCodec(nil, 0).Encode(context.Background(), "file:///does/not/exist.jpg", 1)

	var readErr *ReadError
	require.ErrorAs(t, err, &readErr)
	require.Equal(t, "file:///does/not/exist.jpg", readErr.Ref)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCodec_EncodeContentURIUnsupported(t *testing.T) {
	_, err := NewCodec(nil, 0).Encode(context.Background(), "content://media/external/1", 1)
	require.ErrorIs(t, err, ErrUnsupportedRef)
}

type trackingSource struct {
	data    string
	openErr error
	closed  int
}

type trackingReader struct {
	io.Reader
	src *trackingSource
}

func (r *trackingReader) Close() error {
	r.src.closed++
	return nil
}

func (s *trackingSource) Open(context.Context, string) (io.ReadCloser, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return &trackingReader{Reader: strings.NewReader(s.data), src: s}, nil
}

func TestCodec_ReleasesReaderOnSuccessAndFailure(t *testing.T) {
	src := &trackingSource{data: "0123456789"}
	c := NewCodec(src, 4)

	_, err := c.Encode(context.Background(), "file:///x.jpg", 1)
	require.ErrorIs(t, err, ErrTooLarge)
	require.Equal(t, 1, src.closed)

	c = NewCodec(src, 64)
	_, err = c.Encode(context.Background(), "file:///x.jpg", 1)
	require.NoError(t, err)
	require.Equal(t, 2, src.closed)
}

func TestCodec_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &trackingSource{openErr: errors.New("should not open")}
	_, err := NewCodec(src, 0).Encode(ctx, "file:///x.jpg", 1)
	require.ErrorIs(t, err, context.Canceled)
}
