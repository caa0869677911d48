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
	"crypto/tls"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/log"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/record"
)

// emailTimeout bounds the whole SMTP round trip; no mail library appears
// anywhere in the example corpus so this is built directly on net/smtp —
// see DESIGN.md.
const emailTimeout = 30 * time.Second

// EmailConfig configures an EmailSink.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// EmailSink delivers alerts via SMTP with STARTTLS, as a multipart
// alternative (plain + HTML) message.
type EmailSink struct {
	cfg EmailConfig
	log *log.Logger
}

// NewEmailSink builds an EmailSink.
func NewEmailSink(cfg EmailConfig, lg *log.Logger) *EmailSink {
	return &EmailSink{cfg: cfg, log: lg}
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) buildMessage(alert record.AlertEvent) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	subject := fmt.Sprintf("[%s] %s", strings.ToUpper(string(alert.Severity)), alert.RuleName)

	headers := make(textproto.MIMEHeader)
	headers.Set("From", s.cfg.From)
	headers.Set("To", strings.Join(s.cfg.To, ", "))
	headers.Set("Subject", mime.QEncoding.Encode("UTF-8", subject))
	headers.Set("MIME-Version", "1.0")
	headers.Set("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%s", mw.Boundary()))

	var head bytes.Buffer
	for k, vs := range headers {
		for _, v := range vs {
			fmt.Fprintf(&head, "%s: %s\r\n", k, v)
		}
	}
	head.WriteString("\r\n")

	plain := fmt.Sprintf(
		"Hostname: %s\r\nSource IP: %s\r\nFacility: %s\r\nSeverity: %s\r\nMessage: %s\r\nThreat Score: %d\r\nThreat Indicators: %s\r\n",
		alert.LogData.Hostname, alert.LogData.SourceIP, alert.LogData.FacilityNm, alert.LogData.SeverityNm,
		alert.LogData.Message, alert.LogData.ThreatScore, strings.Join(alert.LogData.ThreatKeywords, ", "),
	)
	html := fmt.Sprintf(
		"<html><body><table>"+
			"<tr><td>Hostname</td><td>%s</td></tr>"+
			"<tr><td>Source IP</td><td>%s</td></tr>"+
			"<tr><td>Facility</td><td>%s</td></tr>"+
			"<tr><td>Severity</td><td>%s</td></tr>"+
			"<tr><td>Message</td><td>%s</td></tr>"+
			"<tr><td>Threat Score</td><td>%d</td></tr>"+
			"<tr><td>Threat Indicators</td><td>%s</td></tr>"+
			"</table></body></html>",
		alert.LogData.Hostname, alert.LogData.SourceIP, alert.LogData.FacilityNm, alert.LogData.SeverityNm,
		alert.LogData.Message, alert.LogData.ThreatScore, strings.Join(alert.LogData.ThreatKeywords, ", "),
	)

	plainPart, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=UTF-8"}})
	if err != nil {
		return nil, "", err
	}
	plainPart.Write([]byte(plain))

	htmlPart, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=UTF-8"}})
	if err != nil {
		return nil, "", err
	}
	htmlPart.Write([]byte(html))

	if err := mw.Close(); err != nil {
		return nil, "", err
	}

	var full bytes.Buffer
	full.Write(head.Bytes())
	full.Write(buf.Bytes())
	return full.Bytes(), subject, nil
}

// Send builds and transmits the alert email; it never blocks past
// emailTimeout and reports false on any failure.
func (s *EmailSink) Send(ctx context.Context, alert record.AlertEvent) bool {
	body, _, err := s.buildMessage(alert)
	if err != nil {
		s.log.Error("building alert email failed", log.KVErr(err))
		return false
	}

	done := make(chan error, 1)
	go func() { done <- s.deliver(body) }()

	select {
	case err := <-done:
		if err != nil {
			s.log.Error("sending alert email failed", log.KVErr(err))
			return false
		}
		return true
	case <-time.After(emailTimeout):
		s.log.Error("sending alert email timed out")
		return false
	case <-ctx.Done():
		return false
	}
}

func (s *EmailSink) deliver(body []byte) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	conn, err := net.DialTimeout("tcp", addr, emailTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); !ok {
		return fmt.Errorf("smtp server %s does not offer STARTTLS", s.cfg.Host)
	}
	if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
		return err
	}

	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := c.Auth(auth); err != nil {
			return err
		}
	}

	if err := c.Mail(s.cfg.From); err != nil {
		return err
	}
	for _, rcpt := range s.cfg.To {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}

	wc, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write(body); err != nil {
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}
	return c.Quit()
}
