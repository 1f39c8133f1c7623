package detector

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"HomeGuardGolang/internal/entity"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// cloudClient calls a hosted defect-detection model over HTTP. It is the
// secondary, higher-accuracy capability; without an API key it reports
// itself unavailable and the adapter degrades to primary-only output.
type cloudClient struct {
	apiURL     string
	apiKey     string
	modelID    string
	confidence float64
	httpClient *http.Client
	log        *logrus.Logger
}

type cloudPrediction struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
	Class      string  `json:"class"`
}

type cloudResponse struct {
	Predictions []cloudPrediction `json:"predictions"`
	Time        float64           `json:"time"`
}

func NewCloud(log *logrus.Logger) Detector {
	apiURL := os.Getenv("CLOUD_DETECTOR_URL")
	if apiURL == "" {
		apiURL = "https://detect.roboflow.com"
	}
	modelID := os.Getenv("CLOUD_DETECTOR_MODEL_ID")
	if modelID == "" {
		modelID = "crack-detection-a5fyy/3"
	}

	client := &cloudClient{
		apiURL:     apiURL,
		apiKey:     os.Getenv("CLOUD_DETECTOR_API_KEY"),
		modelID:    modelID,
		confidence: 0.4,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}

	if client.apiKey == "" {
		log.Warn("Cloud detector API key not configured. Cloud detection disabled.")
	}

	return client
}

func (c *cloudClient) Method() entity.DetectionMethod {
	return entity.MethodCloud
}

func (c *cloudClient) Detect(ctx context.Context, frame []byte) (entity.DetectResult, error) {
	if c.apiKey == "" {
		return entity.DetectResult{}, ErrUnavailable
	}

	encoded := base64.StdEncoding.EncodeToString(frame)

	endpoint := fmt.Sprintf("%s/%s?api_key=%s&confidence=%d",
		c.apiURL, c.modelID, url.QueryEscape(c.apiKey), int(c.confidence*100))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(encoded))
	if err != nil {
		return entity.DetectResult{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warnf("Cloud detector request failed: %v", err)
		return entity.DetectResult{}, ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warnf("Cloud detector returned status %d", resp.StatusCode)
		return entity.DetectResult{}, ErrUnavailable
	}

	var parsed cloudResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return entity.DetectResult{}, err
	}

	result := entity.DetectResult{
		InferenceTime: time.Duration(parsed.Time * float64(time.Second)),
	}

	now := time.Now()
	for _, p := range parsed.Predictions {
		// Hosted models report center plus size; convert to corners.
		det := entity.Detection{
			Class:      p.Class,
			Confidence: p.Confidence,
			BBox: entity.BBox{
				X1: p.X - p.Width/2,
				Y1: p.Y - p.Height/2,
				X2: p.X + p.Width/2,
				Y2: p.Y + p.Height/2,
			},
			Method:    entity.MethodCloud,
			Timestamp: now,
		}
		if det.Class == "" {
			det.Class = "crack"
		}
		result.Defects = append(result.Defects, det)
	}

	return result, nil
}
