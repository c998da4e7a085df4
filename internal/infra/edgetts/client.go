// Package edgetts synthesizes speech through the Edge neural-TTS WebSocket
// service. The whole exchange stays in memory: audio frames stream back
// over the socket and are concatenated into one MP3 buffer, never written
// to disk.
package edgetts

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	defaultEndpoint = "wss://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1"
	trustedToken    = "6A5AA1D4EAFF4E9FB37E23D68491D6F4"

	pathSpeechConfig = "Path:speech.config"
	pathSSML         = "Path:ssml"
	pathAudio        = "Path:audio"
	pathTurnEnd      = "Path:turn.end"
)

// Client requests synthesized audio for a text from the Edge TTS backend.
// Stateless: every Synthesize call opens its own connection, identified by
// a fresh request id, and closes it when the turn ends.
type Client struct {
	voice    string
	format   string
	endpoint string
	dialer   *websocket.Dialer
	logger   *slog.Logger
}

func NewClient(voice, format string, logger *slog.Logger) *Client {
	return &Client{
		voice:    voice,
		format:   format,
		endpoint: defaultEndpoint,
		dialer:   websocket.DefaultDialer,
		logger:   logger,
	}
}

// NewClientWithEndpoint points the client at an alternative service, used
// by tests to stand up a local fake.
func NewClientWithEndpoint(voice, format, endpoint string, logger *slog.Logger) *Client {
	c := NewClient(voice, format, logger)
	c.endpoint = endpoint
	return c
}

// Synthesize renders text to audio bytes. It returns once the service
// signals the end of the turn, or fails if the socket closes early or ctx
// is cancelled mid-stream.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	requestID := strings.ReplaceAll(uuid.NewString(), "-", "")
	url := fmt.Sprintf("%s?TrustedClientToken=%s&ConnectionId=%s", c.endpoint, trustedToken, requestID)

	header := http.Header{}
	header.Set("Origin", "chrome-extension://jdiccldimpdaibmpdkjnbmckianbfold")

	conn, _, err := c.dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dialing tts service: %w", err)
	}
	defer conn.Close()

	// Close the socket when ctx dies so the read loop below cannot hang
	// past shutdown.
	watchdone := make(chan struct{})
	defer close(watchdone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-watchdone:
		}
	}()

	if err := c.sendConfig(conn); err != nil {
		return nil, err
	}
	if err := c.sendSSML(conn, requestID, text); err != nil {
		return nil, err
	}

	audio, err := c.collectAudio(conn)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	c.logger.Debug("synthesis complete", "request_id", requestID, "bytes", len(audio))
	return audio, nil
}

func (c *Client) sendConfig(conn *websocket.Conn) error {
	msg := strings.Join([]string{
		"X-Timestamp:" + timestamp(),
		"Content-Type:application/json; charset=utf-8",
		pathSpeechConfig,
		"",
		`{"context":{"synthesis":{"audio":{"metadataoptions":{"sentenceBoundaryEnabled":"false","wordBoundaryEnabled":"false"},"outputFormat":"` + c.format + `"}}}}`,
	}, "\r\n")
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		return fmt.Errorf("sending speech config: %w", err)
	}
	return nil
}

func (c *Client) sendSSML(conn *websocket.Conn, requestID, text string) error {
	ssml := fmt.Sprintf(
		"<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'><voice name='%s'>%s</voice></speak>",
		c.voice, escapeXML(text),
	)
	msg := strings.Join([]string{
		"X-RequestId:" + requestID,
		"Content-Type:application/ssml+xml",
		"X-Timestamp:" + timestamp(),
		pathSSML,
		"",
		ssml,
	}, "\r\n")
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		return fmt.Errorf("sending ssml: %w", err)
	}
	return nil
}

// collectAudio concatenates binary audio frames until the service reports
// turn.end.
func (c *Client) collectAudio(conn *websocket.Conn) ([]byte, error) {
	var audio []byte
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("reading tts stream: %w", err)
		}

		switch msgType {
		case websocket.TextMessage:
			if strings.Contains(string(data), pathTurnEnd) {
				if len(audio) == 0 {
					return nil, fmt.Errorf("tts turn ended with no audio")
				}
				return audio, nil
			}
		case websocket.BinaryMessage:
			chunk, ok := audioPayload(data)
			if ok {
				audio = append(audio, chunk...)
			}
		}
	}
}

// audioPayload strips the binary frame header: the first two bytes carry
// the big-endian header length, and only frames whose header names the
// audio path carry sample data.
func audioPayload(frame []byte) ([]byte, bool) {
	if len(frame) < 2 {
		return nil, false
	}
	headerLen := int(binary.BigEndian.Uint16(frame[:2]))
	if len(frame) < 2+headerLen {
		return nil, false
	}
	header := string(frame[2 : 2+headerLen])
	if !strings.Contains(header, pathAudio) {
		return nil, false
	}
	return frame[2+headerLen:], true
}

func timestamp() string {
	return time.Now().UTC().Format("Mon Jan 02 2006 15:04:05 GMT+0000 (Coordinated Universal Time)")
}

func escapeXML(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"'", "&apos;",
		`"`, "&quot;",
	)
	return r.Replace(s)
}
