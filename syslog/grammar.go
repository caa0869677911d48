/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package syslog implements the two syslog grammars this pipeline accepts
// (RFC 5424, RFC 3164) plus the fallback record produced when neither
// matches. It intentionally does not depend on a generic syslog-parsing
// library: see DESIGN.md for why this one grammar is hand-rolled against
// regexp rather than imported.
package syslog

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/record"
)

const (
	// FallbackPriority/Facility/Severity are the values spec'd for a
	// message that matches neither grammar: user.notice.
	FallbackPriority = 13
	FallbackFacility = 1
	FallbackSeverity = 5
)

var (
	// rfc5424Pattern: <PRI>VER SP TIMESTAMP SP HOSTNAME SP APP SP PROCID
	// SP MSGID SP SD SP MSG. (?s) makes '.' match newlines so a multi-line
	// MSG doesn't truncate the match.
	rfc5424Pattern = regexp.MustCompile(`(?s)^<(\d+)>(\d+)\s+(\S+)\s+(\S+)\s+(\S+)\s+(\S+)\s+(\S+)\s+((?:\[.*?\]|-)+)\s*(.*)$`)

	// rfc3164Pattern: <PRI>TIMESTAMP SP HOSTNAME SP (TAG(\[PID\])?:)? MSG.
	// The timestamp alternation tries BSD form, then ISO-8601 with or
	// without a timezone offset, then falls back to any non-whitespace
	// token so something still lands in the timestamp slot.
	rfc3164Pattern = regexp.MustCompile(`(?s)^<(\d+)>(\w{3}\s+\d{1,2}\s+\d{2}:\d{2}:\d{2}|\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}[+-]\d{2}:\d{2}|\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}|\S+)\s+(\S+)\s+(?:([^:\s]+)(?:\[(\d+)\])?:\s*)?(.*)$`)
)

func optional(s string) *string {
	if s == "" || s == "-" {
		return nil
	}
	return &s
}

func validPriority(p int) bool {
	return p >= 0 && p <= 191
}

// parseRFC5424 attempts the RFC 5424 grammar against raw. ok is false if
// raw doesn't match the grammar or carries an out-of-range priority.
func parseRFC5424(raw string) (pf record.ParsedFields, ok bool) {
	m := rfc5424Pattern.FindStringSubmatch(raw)
	if m == nil {
		return
	}
	priority, err := strconv.Atoi(m[1])
	if err != nil || !validPriority(priority) {
		return
	}
	facility, severity := DecodePriority(priority)

	sd := m[8]
	if sd == "-" {
		sd = ""
	}

	pf = record.ParsedFields{
		Priority:       priority,
		Facility:       facility,
		Severity:       severity,
		FacilityNm:     FacilityName(facility),
		SeverityNm:     SeverityName(severity),
		Timestamp:      m[3],
		Hostname:       m[4],
		AppName:        optional(m[5]),
		ProcID:         optional(m[6]),
		MsgID:          optional(m[7]),
		StructuredData: optional(sd),
		Message:        strings.TrimSpace(m[9]),
		Format:         record.RFC5424,
	}
	ok = true
	return
}

// parseRFC3164 attempts the RFC 3164 grammar against raw. The TAG/PID
// capture (when present) is folded into AppName/ProcID: spec §3's
// ParsedFields model has no separate tag/pid fields, so RFC 3164's
// conventional TAG[PID]: prefix is normalized onto the same AppName/ProcID
// slots RFC 5424 uses (see DESIGN.md for this Open Question resolution).
func parseRFC3164(raw string) (pf record.ParsedFields, ok bool) {
	m := rfc3164Pattern.FindStringSubmatch(raw)
	if m == nil {
		return
	}
	priority, err := strconv.Atoi(m[1])
	if err != nil || !validPriority(priority) {
		return
	}
	facility, severity := DecodePriority(priority)

	pf = record.ParsedFields{
		Priority:   priority,
		Facility:   facility,
		Severity:   severity,
		FacilityNm: FacilityName(facility),
		SeverityNm: SeverityName(severity),
		Timestamp:  m[2],
		Hostname:   m[3],
		AppName:    optional(m[4]),
		ProcID:     optional(m[5]),
		Message:    strings.TrimSpace(m[6]),
		Format:     record.RFC3164,
	}
	ok = true
	return
}

// fallback builds the format=unknown record spec'd for input that matches
// neither grammar.
func fallback(raw string) record.ParsedFields {
	return record.ParsedFields{
		Priority:   FallbackPriority,
		Facility:   FallbackFacility,
		Severity:   FallbackSeverity,
		FacilityNm: FacilityName(FallbackFacility),
		SeverityNm: SeverityName(FallbackSeverity),
		Message:    raw,
		Format:     record.Unknown,
	}
}

// Parse tries RFC 5424 then RFC 3164, falling back to the unknown-format
// stub if both fail. The returned ParsedFields always has a valid
// Format/Priority per spec §8's quantified invariant.
func Parse(raw string) record.ParsedFields {
	if pf, ok := parseRFC5424(raw); ok {
		return pf
	}
	if pf, ok := parseRFC3164(raw); ok {
		return pf
	}
	return fallback(raw)
}
