/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package deliver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/log"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/record"
)

const webhookTimeout = 10 * time.Second
const messageTruncateLen = 200

type webhookField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type webhookAttachment struct {
	Color  string         `json:"color"`
	Fields []webhookField `json:"fields"`
	Footer string         `json:"footer"`
}

type webhookPayload struct {
	Text        string              `json:"text"`
	Attachments []webhookAttachment `json:"attachments"`
}

// WebhookSink posts a Slack-attachment-shaped JSON payload to a chat
// webhook URL.
type WebhookSink struct {
	url    string
	client *http.Client
	log    *log.Logger
}

// NewWebhookSink builds a WebhookSink targeting url.
func NewWebhookSink(url string, lg *log.Logger) *WebhookSink {
	return &WebhookSink{url: url, client: &http.Client{Timeout: webhookTimeout}, log: lg}
}

func (s *WebhookSink) Name() string { return "webhook" }

func (s *WebhookSink) Send(ctx context.Context, alert record.AlertEvent) bool {
	payload := webhookPayload{
		Text: alert.RuleName,
		Attachments: []webhookAttachment{{
			Color: colorFor(alert.Severity),
			Fields: []webhookField{
				{Title: "Severity", Value: string(alert.Severity), Short: true},
				{Title: "Rule", Value: alert.RuleName, Short: true},
				{Title: "Description", Value: alert.Description, Short: false},
				{Title: "Hostname", Value: alert.LogData.Hostname, Short: true},
				{Title: "Source IP", Value: alert.LogData.SourceIP, Short: true},
				{Title: "Message", Value: truncate(alert.LogData.Message, messageTruncateLen), Short: false},
				{Title: "Threat Score", Value: strconv.Itoa(alert.LogData.ThreatScore), Short: true},
			},
			Footer: "CyberSentinel",
		}},
	}

	b, err := json.Marshal(payload)
	if err != nil {
		s.log.Error("marshaling webhook payload failed", log.KVErr(err))
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(b))
	if err != nil {
		s.log.Error("building webhook request failed", log.KVErr(err))
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error("webhook delivery failed", log.KVErr(err))
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
