package utils

import (
	"bytes"
	"encoding/base64"
	"image/color"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func fileHeader(name, contentType string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{
		Filename: name,
		Size:     size,
		Header:   textproto.MIMEHeader{"Content-Type": []string{contentType}},
	}
}

func TestNewULIDFromTimestampOrdered(t *testing.T) {
	u := New()

	earlier, err := u.NewULIDFromTimestamp(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	later, err := u.NewULIDFromTimestamp(time.Now())
	require.NoError(t, err)

	require.Len(t, earlier, 26)
	require.Less(t, earlier, later)
}

func TestValidateMediaFile(t *testing.T) {
	u := New()

	kind, err := u.ValidateMediaFile(fileHeader("a.jpg", "image/jpeg", 1024))
	require.NoError(t, err)
	require.Equal(t, "image", kind)

	kind, err = u.ValidateMediaFile(fileHeader("a.mp4", "video/mp4", 1024))
	require.NoError(t, err)
	require.Equal(t, "video", kind)

	_, err = u.ValidateMediaFile(fileHeader("a.pdf", "application/pdf", 1024))
	require.Error(t, err)

	_, err = u.ValidateMediaFile(fileHeader("big.jpg", "image/jpeg", 60*1024*1024))
	require.Error(t, err)

	_, err = u.ValidateMediaFile(nil)
	require.Error(t, err)
}

func TestDecodeBase64Frame(t *testing.T) {
	u := New()
	raw := []byte{0xff, 0xd8, 0xff, 0x00}
	encoded := base64.StdEncoding.EncodeToString(raw)

	decoded, err := u.DecodeBase64Frame(encoded)
	require.NoError(t, err)
	require.Equal(t, raw, decoded)

	decoded, err = u.DecodeBase64Frame("data:image/jpeg;base64," + encoded)
	require.NoError(t, err)
	require.Equal(t, raw, decoded)

	_, err = u.DecodeBase64Frame("not base64!!!")
	require.Error(t, err)
}

func TestMakeThumbnailFitsBox(t *testing.T) {
	u := New()

	img := imaging.New(640, 480, color.NRGBA{100, 100, 100, 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))

	thumb, err := u.MakeThumbnail(buf.Bytes(), 160, 120, 80)
	require.NoError(t, err)

	decoded, err := imaging.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)
	require.Equal(t, 160, decoded.Bounds().Dx())
	require.Equal(t, 120, decoded.Bounds().Dy())
}

func TestMakeThumbnailRejectsGarbage(t *testing.T) {
	u := New()

	_, err := u.MakeThumbnail([]byte("garbage"), 160, 120, 80)
	require.Error(t, err)
}
