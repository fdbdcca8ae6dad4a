// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The Aviary Authors

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"
)

// errLinkClosed reports that the transport under a link went away; readers
// treat it as a clean shutdown rather than a failure.
var errLinkClosed = errors.New("link closed")

const wsDialTimeout = 15 * time.Second

// openTransport opens the byte transport selected by the connection flags:
// a serial port with --port, a WebSocket tunnel (e.g. through a radio
// bridge) with --url. Returns the transport and a description for banners.
func openTransport() (io.ReadWriteCloser, string, error) {
	switch {
	case wsURL != "":
		password := ""
		if wsUsername != "" {
			var err error
			password, err = linkPassword()
			if err != nil {
				return nil, "", err
			}
		}
		conn, err := dialWebSocket(wsURL, wsUsername, password, wsNoSSLVerify)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("WebSocket: %s", wsURL), nil

	case portName != "":
		port, err := serial.Open(portName, &serial.Mode{
			BaudRate: baudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		})
		if err != nil {
			return nil, "", fmt.Errorf("open serial port %s: %v", portName, err)
		}
		return port, fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate), nil

	default:
		return nil, "", fmt.Errorf("either --port or --url must be specified")
	}
}

// wsStream presents a WebSocket as the byte stream the protocol expects.
// Each binary message is a chunk of the stream; framing is the protocol's
// job, not the WebSocket's. Reads past the end of one message carry over
// into the next.
type wsStream struct {
	conn    *websocket.Conn
	pending []byte
	closed  bool
}

func (w *wsStream) Read(p []byte) (int, error) {
	if w.closed {
		return 0, errLinkClosed
	}

	for len(w.pending) == 0 {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.closed = true
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return 0, errLinkClosed
			}
			return 0, err
		}
		// Text/control messages carry no telemetry bytes.
		if messageType == websocket.BinaryMessage {
			w.pending = data
		}
	}

	n := copy(p, w.pending)
	w.pending = w.pending[n:]
	return n, nil
}

func (w *wsStream) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *wsStream) Close() error {
	w.closed = true
	return w.conn.Close()
}

// dialWebSocket connects with optional HTTP Basic auth. TLS verification
// can be disabled for self-signed bridge certificates (wss:// only).
func dialWebSocket(rawURL, username, password string, skipVerify bool) (io.ReadWriteCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{HandshakeTimeout: wsDialTimeout}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: skipVerify}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), wsDialTimeout)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, rawURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %v", err)
	}
	return &wsStream{conn: conn}, nil
}

// linkPassword takes the WebSocket password from AVIARY_PASSWORD, or
// prompts without echo. There is deliberately no --password flag; it would
// leak credentials into shell history.
func linkPassword() (string, error) {
	if pw := os.Getenv("AVIARY_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err == nil {
		return string(pw), nil
	}

	// Not a terminal (piped stdin): fall back to a plain line read.
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %v", err)
	}
	return strings.TrimSpace(line), nil
}
