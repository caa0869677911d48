/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/record"
)

func strp(s string) *string { return &s }

func TestExtractIPs(t *testing.T) {
	ips := ExtractIPs("connection from 10.0.0.1 to 192.168.1.254 refused")
	assert.Equal(t, []string{"10.0.0.1", "192.168.1.254"}, ips)
}

func TestExtractIPsPreservesDuplicates(t *testing.T) {
	ips := ExtractIPs("10.0.0.1 retried, still 10.0.0.1")
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.1"}, ips)
}

func TestThreatScoring(t *testing.T) {
	matches := ThreatMatches("Detected EXPLOIT attempt and malware signature")
	assert.Equal(t, []string{"exploit", "malware"}, matches)
	assert.Equal(t, 20, ThreatScore(matches))
}

func TestThreatScoreCapsAt100(t *testing.T) {
	msg := "exploit malware ransomware trojan backdoor injection xss ddos breach intrusion anomaly unauthorized"
	matches := ThreatMatches(msg)
	assert.GreaterOrEqual(t, len(matches), 10)
	assert.Equal(t, 100, ThreatScore(matches))
}

func TestSeverityCategoryMonotone(t *testing.T) {
	assert.Equal(t, record.SeverityCritical, SeverityCategory(0))
	assert.Equal(t, record.SeverityCritical, SeverityCategory(2))
	assert.Equal(t, record.SeverityHigh, SeverityCategory(3))
	assert.Equal(t, record.SeverityHigh, SeverityCategory(4))
	assert.Equal(t, record.SeverityMedium, SeverityCategory(5))
	assert.Equal(t, record.SeverityLow, SeverityCategory(6))
	assert.Equal(t, record.SeverityLow, SeverityCategory(7))
}

func TestFingerprintStableAndSensitive(t *testing.T) {
	r1 := record.RawRecord{
		ParsedFields: record.ParsedFields{
			Hostname: "h", AppName: strp("app"), Message: "msg", Facility: 1, Severity: 5,
		},
	}
	r2 := r1
	assert.Equal(t, Fingerprint(r1), Fingerprint(r2))

	r3 := r1
	r3.Message = "different"
	assert.NotEqual(t, Fingerprint(r1), Fingerprint(r3))
}

func TestEnrichIsIdempotent(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	raw := record.RawRecord{
		SourceIP:   "1.2.3.4",
		Protocol:   record.ProtoUDP,
		ReceivedAt: "2024-01-15T10:30:00.000Z",
		Raw:        "<13>test",
		ParsedFields: record.ParsedFields{
			Priority: 13, Facility: 1, Severity: 5,
			Hostname: "h", AppName: strp("app"), Message: "login failed for admin",
		},
	}

	e1 := e.Enrich(raw)
	e2 := e.Enrich(raw)
	assert.Equal(t, e1.Fingerprint, e2.Fingerprint)
	assert.Equal(t, e1.ThreatScore, e2.ThreatScore)
	assert.Contains(t, e1.Tags, record.TagAuthentication)
	assert.Contains(t, e1.Tags, record.TagError)
}

func TestIndexDateFromReceivedAt(t *testing.T) {
	assert.Equal(t, "2025.03.01", indexDate("2025-03-01T00:00:00.000Z"))
	assert.Equal(t, "2025.03.02", indexDate("2025-03-02T23:59:59.000Z"))
}
