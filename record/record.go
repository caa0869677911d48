/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package record defines the wire shapes that flow between the pipeline
// stages: RawRecord off the wire, ParsedFields from the syslog grammar,
// and EnrichedRecord once the processor stage is done with it. These are
// the only loosely-typed boundary: everything else in the repo works
// against these concrete structs rather than map[string]interface{}.
package record

import "time"

// Format identifies which syslog grammar, if any, produced ParsedFields.
type Format string

const (
	RFC5424 Format = "RFC5424"
	RFC3164 Format = "RFC3164"
	Unknown Format = "unknown"
)

// Protocol identifies the wire transport a RawRecord arrived over.
type Protocol string

const (
	ProtoUDP Protocol = "udp"
	ProtoTCP Protocol = "tcp"
	ProtoTLS Protocol = "tls"
)

// ParsedFields holds everything the syslog grammar extracts from the raw
// message body, plus the two closed-enum names derived from priority.
type ParsedFields struct {
	Priority   int    `json:"priority"`
	Facility   int    `json:"facility"`
	Severity   int    `json:"severity"`
	FacilityNm string `json:"facility_name"`
	SeverityNm string `json:"severity_name"`

	// Timestamp is the timestamp token as it appeared in the message, if
	// any. It is present verbatim here; EnrichedRecord.TimestampNorm is
	// the best-effort parsed/normalized version.
	Timestamp string `json:"timestamp,omitempty"`

	Hostname string `json:"hostname"`

	AppName        *string `json:"app_name,omitempty"`
	ProcID         *string `json:"proc_id,omitempty"`
	MsgID          *string `json:"msg_id,omitempty"`
	StructuredData *string `json:"structured_data,omitempty"`

	Message string `json:"message"`
	Format  Format  `json:"format"`
}

// RawRecord is what the ingest stage publishes to the raw-logs bus.
type RawRecord struct {
	SourceIP   string   `json:"source_ip"`
	Protocol   Protocol `json:"protocol"`
	ReceivedAt string   `json:"received_at"` // UTC ISO-8601, always present
	Raw        string   `json:"raw"`         // original bytes, UTF-8 w/ replacement

	ParsedFields
}

// SeverityCategory is the coarse bucket severity_category falls into.
type SeverityCategory string

const (
	SeverityCritical SeverityCategory = "critical"
	SeverityHigh     SeverityCategory = "high"
	SeverityMedium   SeverityCategory = "medium"
	SeverityLow      SeverityCategory = "low"
)

// Tags the enricher may attach. Other values never appear.
const (
	TagSecurity       = "security"
	TagCritical       = "critical"
	TagError          = "error"
	TagAuthentication = "authentication"
)

// EnrichedRecord is RawRecord plus everything the processor stage derives.
// It is both the processed-logs bus payload and the indexed-store document,
// so its json tags are the stable wire/mapping keys from spec §6.
type EnrichedRecord struct {
	RawRecord

	ProcessedAt         string           `json:"processed_at"`
	TimestampNorm       string           `json:"timestamp_normalized"`
	SeverityCategory    SeverityCategory `json:"severity_category"`
	ExtractedIPs        []string         `json:"extracted_ips,omitempty"`
	HasThreatIndicators bool             `json:"has_threat_indicators"`
	ThreatKeywords      []string         `json:"threat_keywords,omitempty"`
	ThreatScore         int              `json:"threat_score"`
	Tags                []string         `json:"tags,omitempty"`
	Fingerprint         string           `json:"fingerprint"`
	IndexDate           string           `json:"_index_date"`
}

// AlertSeverity mirrors EnrichedRecord.SeverityCategory's value set, used
// for AlertRule/AlertEvent severity so the JSON representation matches
// spec §6's alert payload exactly.
type AlertSeverity string

const (
	AlertCritical AlertSeverity = "critical"
	AlertHigh     AlertSeverity = "high"
	AlertMedium   AlertSeverity = "medium"
	AlertLow      AlertSeverity = "low"
)

// Predicate decides whether a rule fires against an enriched record.
type Predicate func(*EnrichedRecord) bool

// AlertRule is owned by the rule engine; callers only ever see it through
// rules.Engine's Add/Remove/Enable/Disable/List operations.
type AlertRule struct {
	Name        string
	Description string
	Severity    AlertSeverity
	Predicate   Predicate
	Enabled     bool
}

// AlertEvent is emitted to the alerts bus and handed to every delivery sink.
type AlertEvent struct {
	RuleName    string         `json:"rule_name"`
	Description string         `json:"description"`
	Severity    AlertSeverity  `json:"severity"`
	Timestamp   string         `json:"timestamp"`
	LogData     EnrichedRecord `json:"log_data"`
}

// DedupKey computes the dedup-cache key for an (rule, fingerprint) pair.
func DedupKey(ruleName, fingerprint string) string {
	return "alert:" + ruleName + ":" + fingerprint
}

// Now returns the current instant formatted the way every *_at field in
// this package is encoded: UTC, ISO-8601/RFC3339 with millisecond precision.
func Now() string {
	return FormatTime(time.Now())
}

// FormatTime renders t the way every *_at / timestamp_normalized field is
// encoded on the wire: UTC, RFC3339 with millisecond precision.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
