package utils

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/oklog/ulid/v2"
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateMediaFile(file *multipart.FileHeader) (string, error)
	DecodeBase64Frame(data string) ([]byte, error)
	MakeThumbnail(imageData []byte, width, height, quality int) ([]byte, error)
}

type utils struct {
	maxFileSize int64
}

func New() IUtils {
	return &utils{
		maxFileSize: 50 * 1024 * 1024,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// ValidateMediaFile accepts images and videos and returns which kind the
// upload is ("image" or "video").
func (u *utils) ValidateMediaFile(file *multipart.FileHeader) (string, error) {
	if file == nil {
		return "", errors.New("no file uploaded")
	}

	if file.Size > u.maxFileSize {
		return "", errors.New("file size exceeds limit")
	}

	contentType := file.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image", nil
	case strings.HasPrefix(contentType, "video/"):
		return "video", nil
	default:
		return "", errors.New("uploaded file is not an image or video")
	}
}

func (u *utils) DecodeBase64Frame(data string) ([]byte, error) {
	if idx := strings.Index(data, ","); idx >= 0 && strings.HasPrefix(data, "data:") {
		data = data[idx+1:]
	}

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}

	return decoded, nil
}

// MakeThumbnail resizes an image into the given box preserving aspect
// ratio and re-encodes it as JPEG.
func (u *utils) MakeThumbnail(imageData []byte, width, height, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, err
	}

	thumb := imaging.Fit(img, width, height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
