/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package enrich derives threat metadata from a RawRecord: extracted IPs,
// threat keywords/score, severity category, tags, a dedup fingerprint, and
// a normalized timestamp.
package enrich

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gravwell/timegrinder/v3"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/record"
)

// ipPattern matches dotted-quad tokens without octet-range validation,
// exactly as the original enricher does: a false-positive match on
// something like 999.999.999.999 is accepted.
var ipPattern = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)

// threatKeywords is the fixed, ordered keyword table. Order matters:
// ThreatMatches reports matches in this order, not input order.
var threatKeywords = []string{
	"exploit", "malware", "ransomware", "trojan", "backdoor",
	"injection", "xss", "sql injection", "ddos", "brute force",
	"unauthorized", "breach", "intrusion", "anomaly",
}

// Enricher derives EnrichedRecord fields from a RawRecord. It holds no
// mutable state and is safe to share across worker goroutines.
type Enricher struct {
	tg *timegrinder.TimeGrinder
}

// New builds an Enricher with a best-effort UTC timestamp extractor.
func New() (*Enricher, error) {
	tg, err := timegrinder.NewTimeGrinder(timegrinder.Config{EnableLeftMostSeed: true})
	if err != nil {
		return nil, err
	}
	tg.SetUTC()
	return &Enricher{tg: tg}, nil
}

// ExtractIPs returns every dotted-quad match in message, in order, with
// duplicates preserved.
func ExtractIPs(message string) []string {
	return ipPattern.FindAllString(message, -1)
}

// ThreatMatches returns the subset of threatKeywords present in the
// lower-cased message, in keyword-table order.
func ThreatMatches(message string) []string {
	lower := strings.ToLower(message)
	var hits []string
	for _, kw := range threatKeywords {
		if strings.Contains(lower, kw) {
			hits = append(hits, kw)
		}
	}
	return hits
}

// ThreatScore caps 10 points per matched keyword at 100.
func ThreatScore(matches []string) int {
	score := len(matches) * 10
	if score > 100 {
		score = 100
	}
	return score
}

// SeverityCategory buckets a numeric severity per the fixed thresholds.
func SeverityCategory(severity int) record.SeverityCategory {
	switch {
	case severity <= 2:
		return record.SeverityCritical
	case severity <= 4:
		return record.SeverityHigh
	case severity == 5:
		return record.SeverityMedium
	default:
		return record.SeverityLow
	}
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Fingerprint is the SHA-256 hex digest of the pipe-joined identity
// fields, computed over the RawRecord as received — never over derived
// enrichment fields, so re-enriching the same raw record is idempotent.
func Fingerprint(raw record.RawRecord) string {
	parts := strings.Join([]string{
		raw.Hostname,
		derefOrEmpty(raw.AppName),
		raw.Message,
		strconv.Itoa(raw.Facility),
		strconv.Itoa(raw.Severity),
	}, "|")
	sum := sha256.Sum256([]byte(parts))
	return hex.EncodeToString(sum[:])
}

func tags(message string, severity int, hasThreats bool) []string {
	lower := strings.ToLower(message)
	var out []string
	if hasThreats {
		out = append(out, record.TagSecurity)
	}
	if severity <= 3 {
		out = append(out, record.TagCritical)
	}
	if strings.Contains(lower, "error") || strings.Contains(lower, "fail") {
		out = append(out, record.TagError)
	}
	if strings.Contains(lower, "auth") || strings.Contains(lower, "login") {
		out = append(out, record.TagAuthentication)
	}
	return out
}

// normalizeTimestamp best-effort-parses raw.Timestamp; on any failure
// (including an empty timestamp) it falls back to received_at.
func (e *Enricher) normalizeTimestamp(raw record.RawRecord) string {
	if raw.Timestamp != "" {
		if t, ok, err := e.tg.Extract([]byte(raw.Timestamp)); err == nil && ok {
			return record.FormatTime(t)
		}
		if t, err := time.Parse(time.RFC3339, raw.Timestamp); err == nil {
			return record.FormatTime(t)
		}
	}
	return raw.ReceivedAt
}

// indexDate is received_at's UTC calendar date, YYYY.MM.DD.
func indexDate(receivedAt string) string {
	t, err := time.Parse(time.RFC3339, receivedAt)
	if err != nil {
		if t2, err2 := time.Parse("2006-01-02T15:04:05.000Z07:00", receivedAt); err2 == nil {
			t = t2
		} else {
			t = time.Now().UTC()
		}
	}
	return t.UTC().Format("2006.01.02")
}

// Enrich derives every EnrichedRecord field from raw.
func (e *Enricher) Enrich(raw record.RawRecord) record.EnrichedRecord {
	matches := ThreatMatches(raw.Message)
	enriched := record.EnrichedRecord{
		RawRecord:           raw,
		ProcessedAt:         record.Now(),
		SeverityCategory:    SeverityCategory(raw.Severity),
		ExtractedIPs:        ExtractIPs(raw.Message),
		HasThreatIndicators: len(matches) > 0,
		ThreatKeywords:      matches,
		ThreatScore:         ThreatScore(matches),
		Fingerprint:         Fingerprint(raw),
		IndexDate:           indexDate(raw.ReceivedAt),
	}
	enriched.Tags = tags(raw.Message, raw.Severity, enriched.HasThreatIndicators)
	norm := e.normalizeTimestamp(raw)
	enriched.TimestampNorm = norm
	enriched.Timestamp = norm
	return enriched
}
