package printer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

// DefaultEndpoint is where Zebra Browser Print listens on the operator station
const DefaultEndpoint = "http://127.0.0.1:9100/write"

// Device is the printer descriptor the print bridge expects
type Device struct {
	Name         string `json:"name"`
	UID          string `json:"uid"`
	Connection   string `json:"connection"`
	DeviceType   string `json:"deviceType"`
	Version      int    `json:"version"`
	Provider     string `json:"provider"`
	Manufacturer string `json:"manufacturer"`
}

// Payload is the request body of the print bridge
type Payload struct {
	Device Device `json:"device"`
	Data   string `json:"data"`
}

// Outcome reports a print attempt. Message carries the bridge's response
// body on success and the failure text otherwise.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

var wristbandPrinter = Device{
	Name:         "ZDesigner 105SL",
	UID:          "ZDesigner 105SL",
	Connection:   "driver",
	DeviceType:   "printer",
	Version:      2,
	Provider:     "com.zebra.ds.webdriver.desktop.provider.DefaultDeviceProvider",
	Manufacturer: "Zebra Technologies",
}

// BuildPrintPayload wraps raw markup with the fixed device descriptor
func BuildPrintPayload(markup string) Payload {
	return Payload{Device: wristbandPrinter, Data: markup}
}

// Client sends markup to the local print bridge
type Client struct {
	Endpoint   string
	HTTPClient *http.Client
}

// NewClient creates a print bridge client. An empty endpoint uses DefaultEndpoint.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{Endpoint: endpoint, HTTPClient: &http.Client{}}
}

// Submit posts markup to the bridge. It never returns an error: transport
// failures and non-2xx answers become a failed Outcome.
func (c *Client) Submit(ctx context.Context, markup string) Outcome {
	body, err := json.Marshal(BuildPrintPayload(markup))
	if err != nil {
		return Outcome{Message: fmt.Sprintf("failed to encode print payload: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Outcome{Message: fmt.Sprintf("failed to build print request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.Printf("Error sending to printer: %v", err)
		return Outcome{Message: fmt.Sprintf("could not reach the print service at %s, check that Zebra Browser Print is running: %v", c.Endpoint, err)}
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{Message: fmt.Sprintf("failed to read print service response: %v", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("Printer answered %d: %s", resp.StatusCode, text)
		return Outcome{Message: fmt.Sprintf("print failed: %d %s", resp.StatusCode, text)}
	}
	return Outcome{Success: true, Message: fmt.Sprintf("print job sent. Response: %s", text)}
}
