package detector

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"HomeGuardGolang/internal/entity"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// localClient talks to the on-premise model-inference sidecar over a
// persistent websocket: one binary JPEG frame out, one JSON result back.
type localClient struct {
	url          string
	conn         *websocket.Conn
	mu           sync.Mutex
	log          *logrus.Logger
	writeTimeout time.Duration
	readTimeout  time.Duration
}

type localWireBox struct {
	BBox       []float64 `json:"bbox"`
	Confidence float64   `json:"confidence"`
	Class      string    `json:"class,omitempty"`
}

type localWireResult struct {
	Defects     []localWireBox `json:"defects"`
	Persons     []localWireBox `json:"persons"`
	InferenceMS float64        `json:"inference_time_ms"`
	Error       string         `json:"error,omitempty"`
}

func NewLocal(log *logrus.Logger) Detector {
	client := &localClient{
		url:          os.Getenv("DETECTOR_WS_URL"),
		log:          log,
		writeTimeout: 5 * time.Second,
		readTimeout:  10 * time.Second,
	}

	go func() {
		client.mu.Lock()
		err := client.reconnect()
		client.mu.Unlock()
		if err != nil {
			log.Warnf("Initial connection to detector sidecar failed: %v. Will retry on demand.", err)
		} else {
			log.Info("Connected to detector sidecar")
		}
	}()

	return client
}

func (c *localClient) Method() entity.DetectionMethod {
	return entity.MethodLocal
}

func (c *localClient) reconnect() error {
	if c.url == "" {
		return ErrUnavailable
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

func (c *localClient) Detect(ctx context.Context, frame []byte) (entity.DetectResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		if err := c.reconnect(); err != nil {
			return entity.DetectResult{}, ErrUnavailable
		}
	}

	deadline := time.Now().Add(c.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return entity.DetectResult{}, err
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		c.conn.Close()
		c.conn = nil
		return entity.DetectResult{}, ErrUnavailable
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return entity.DetectResult{}, err
	}
	_, message, err := c.conn.ReadMessage()
	if err != nil {
		c.conn.Close()
		c.conn = nil
		return entity.DetectResult{}, ErrUnavailable
	}

	var wire localWireResult
	if err := json.Unmarshal(message, &wire); err != nil {
		return entity.DetectResult{}, err
	}
	if wire.Error != "" {
		c.log.Warnf("Detector sidecar returned error: %s", wire.Error)
		return entity.DetectResult{}, ErrUnavailable
	}

	return c.makeResult(wire), nil
}

func (c *localClient) makeResult(wire localWireResult) entity.DetectResult {
	result := entity.DetectResult{
		InferenceTime: time.Duration(wire.InferenceMS * float64(time.Millisecond)),
	}

	now := time.Now()
	for _, d := range wire.Defects {
		if len(d.BBox) != 4 {
			continue
		}
		result.Defects = append(result.Defects, entity.Detection{
			Class:      d.Class,
			Confidence: d.Confidence,
			BBox:       entity.BBox{X1: d.BBox[0], Y1: d.BBox[1], X2: d.BBox[2], Y2: d.BBox[3]},
			Method:     entity.MethodLocal,
			Timestamp:  now,
		})
	}
	for _, p := range wire.Persons {
		// A person without usable coordinates still counts as present;
		// the zero box tells downstream the location is unknown.
		region := entity.PersonRegion{Confidence: p.Confidence}
		if len(p.BBox) == 4 {
			region.BBox = entity.BBox{X1: p.BBox[0], Y1: p.BBox[1], X2: p.BBox[2], Y2: p.BBox[3]}
		}
		result.Persons = append(result.Persons, region)
	}

	return result
}
