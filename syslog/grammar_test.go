/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package syslog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/record"
)

func strp(s string) *string { return &s }

func TestParseRFC5424(t *testing.T) {
	raw := "<134>1 2024-01-15T10:30:00.000Z host1 app1 1234 - - test message"
	pf := Parse(raw)

	require.Equal(t, record.RFC5424, pf.Format)
	assert.Equal(t, 134, pf.Priority)
	assert.Equal(t, 16, pf.Facility)
	assert.Equal(t, 6, pf.Severity)
	assert.Equal(t, "local0", pf.FacilityNm)
	assert.Equal(t, "informational", pf.SeverityNm)
	assert.Equal(t, "host1", pf.Hostname)
	require.NotNil(t, pf.AppName)
	assert.Equal(t, "app1", *pf.AppName)
	require.NotNil(t, pf.ProcID)
	assert.Equal(t, "1234", *pf.ProcID)
	assert.Nil(t, pf.MsgID)
	assert.Nil(t, pf.StructuredData)
	assert.Equal(t, "test message", pf.Message)
}

func TestParseRFC5424WithStructuredData(t *testing.T) {
	raw := `<165>1 2024-01-15T10:30:00Z host2 app2 42 msg1 [exampleSDID@32473 iut="3" eventSource="App"] structured message`
	pf := Parse(raw)

	require.Equal(t, record.RFC5424, pf.Format)
	require.NotNil(t, pf.MsgID)
	assert.Equal(t, "msg1", *pf.MsgID)
	require.NotNil(t, pf.StructuredData)
	assert.Contains(t, *pf.StructuredData, "exampleSDID@32473")
	assert.Equal(t, "structured message", pf.Message)
}

func TestParseRFC3164(t *testing.T) {
	raw := "<158>Jan 15 10:30:00 web sshd[42]: Failed password for invalid user admin"
	pf := Parse(raw)

	require.Equal(t, record.RFC3164, pf.Format)
	assert.Equal(t, 158, pf.Priority)
	facility, severity := DecodePriority(158)
	assert.Equal(t, facility, pf.Facility)
	assert.Equal(t, severity, pf.Severity)
	assert.Equal(t, "local3", pf.FacilityNm)
	assert.Equal(t, "informational", pf.SeverityNm)
	assert.Equal(t, "web", pf.Hostname)
	require.NotNil(t, pf.AppName)
	assert.Equal(t, "sshd", *pf.AppName)
	require.NotNil(t, pf.ProcID)
	assert.Equal(t, "42", *pf.ProcID)
	assert.Equal(t, "Failed password for invalid user admin", pf.Message)
}

func TestParseRFC3164WithoutTag(t *testing.T) {
	raw := "<13>Jan 15 10:30:00 myhost just a plain message body"
	pf := Parse(raw)

	require.Equal(t, record.RFC3164, pf.Format)
	assert.Equal(t, "myhost", pf.Hostname)
	assert.Nil(t, pf.AppName)
	assert.Nil(t, pf.ProcID)
	assert.Equal(t, "just a plain message body", pf.Message)
}

func TestParseFallback(t *testing.T) {
	cases := []string{
		"not a syslog message at all",
		"<999>1 2024-01-15T10:30:00.000Z host app 1 - - out of range priority",
		"",
	}
	for _, raw := range cases {
		pf := Parse(raw)
		assert.Equal(t, record.Unknown, pf.Format, raw)
		assert.Equal(t, FallbackPriority, pf.Priority, raw)
		assert.Equal(t, FallbackFacility, pf.Facility, raw)
		assert.Equal(t, FallbackSeverity, pf.Severity, raw)
		assert.Equal(t, "user", pf.FacilityNm, raw)
		assert.Equal(t, "notice", pf.SeverityNm, raw)
		assert.Equal(t, raw, pf.Message, raw)
	}
}

func TestDecodePriority(t *testing.T) {
	tests := []struct {
		priority, facility, severity int
	}{
		{0, 0, 0},
		{13, 1, 5},
		{134, 16, 6},
		{191, 23, 7},
	}
	for _, tt := range tests {
		f, s := DecodePriority(tt.priority)
		assert.Equal(t, tt.facility, f)
		assert.Equal(t, tt.severity, s)
	}
}

func TestFacilityAndSeverityNameBounds(t *testing.T) {
	assert.Equal(t, "kern", FacilityName(0))
	assert.Equal(t, "local7", FacilityName(23))
	assert.Equal(t, "unknown", FacilityName(24))
	assert.Equal(t, "unknown", FacilityName(-1))

	assert.Equal(t, "emergency", SeverityName(0))
	assert.Equal(t, "debug", SeverityName(7))
	assert.Equal(t, "unknown", SeverityName(8))
	assert.Equal(t, "unknown", SeverityName(-1))
}
