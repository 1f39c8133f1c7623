package video

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrUnavailable marks a missing or unreachable frame-extraction sidecar.
var ErrUnavailable = errors.New("frame extractor unavailable")

// IExtractor decomposes an uploaded video into sampled JPEG frames. Frame
// decoding runs in the media sidecar, not in-process.
type IExtractor interface {
	Extract(ctx context.Context, video []byte, maxFrames int) ([][]byte, error)
}

type extractor struct {
	baseURL string
	client  *http.Client
	log     *logrus.Logger
}

func NewExtractor(log *logrus.Logger) IExtractor {
	return &extractor{
		baseURL: os.Getenv("FRAME_EXTRACTOR_URL"),
		client:  &http.Client{Timeout: 120 * time.Second},
		log:     log,
	}
}

type extractRequest struct {
	Video     string `json:"video"`
	MaxFrames int    `json:"max_frames"`
}

type extractResponse struct {
	Frames []string `json:"frames"`
	Error  string   `json:"error,omitempty"`
}

func (e *extractor) Extract(ctx context.Context, video []byte, maxFrames int) ([][]byte, error) {
	if e.baseURL == "" {
		return nil, ErrUnavailable
	}

	payload, err := json.Marshal(extractRequest{
		Video:     base64.StdEncoding.EncodeToString(video),
		MaxFrames: maxFrames,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/extract", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		e.log.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("Frame extractor request failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var decoded extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("frame extractor: %s", decoded.Error)
	}

	frames := make([][]byte, 0, len(decoded.Frames))
	for _, f := range decoded.Frames {
		raw, err := base64.StdEncoding.DecodeString(f)
		if err != nil {
			e.log.WithFields(logrus.Fields{
				"error": err.Error(),
			}).Warn("Skipping undecodable extracted frame")
			continue
		}
		frames = append(frames, raw)
	}

	return frames, nil
}
