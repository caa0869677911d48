/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package rules

import "github.com/sujalthakur-03/CyberSentinel-SyslogServer/record"

// DefaultLibrary returns the ten rules that must be loaded at startup,
// matching the original rule table exactly (name, severity, trigger).
func DefaultLibrary() []record.AlertRule {
	return []record.AlertRule{
		{
			Name:        "critical_severity",
			Description: "Record severity is critical or worse",
			Severity:    record.AlertCritical,
			Predicate:   SeverityLTE(2),
			Enabled:     true,
		},
		{
			Name:        "high_threat_score",
			Description: "Threat score indicates a likely active threat",
			Severity:    record.AlertHigh,
			Predicate:   ThreatScoreGTE(50),
			Enabled:     true,
		},
		{
			Name:        "auth_failure",
			Description: "Authentication-tagged record reports a failure",
			Severity:    record.AlertMedium,
			Predicate: And(
				TagContains(record.TagAuthentication),
				MessageContainsAny("failed", "failure", "denied", "rejected"),
			),
			Enabled: true,
		},
		{
			Name:        "security_event",
			Description: "Record is security-tagged or carries a threat indicator",
			Severity:    record.AlertHigh,
			Predicate: Or(
				TagContains(record.TagSecurity),
				HasThreatIndicators(),
			),
			Enabled: true,
		},
		{
			Name:        "error_spike",
			Description: "Error-level record with an identified host",
			Severity:    record.AlertMedium,
			Predicate: And(
				SeverityNameEquals("error"),
				HostnamePresent(),
			),
			Enabled: true,
		},
		{
			Name:        "brute_force",
			Description: "Message or threat keywords indicate a brute-force attempt",
			Severity:    record.AlertHigh,
			Predicate: Or(
				MessageContainsAny("brute force"),
				ThreatKeywordContains("brute force"),
			),
			Enabled: true,
		},
		{
			Name:        "malware_detected",
			Description: "Message names a known malware family",
			Severity:    record.AlertCritical,
			Predicate:   MessageContainsAny("malware", "ransomware", "trojan", "virus"),
			Enabled:     true,
		},
		{
			Name:        "unauthorized_access",
			Description: "Message indicates an access-control rejection",
			Severity:    record.AlertHigh,
			Predicate:   MessageContainsAny("unauthorized", "forbidden", "access denied"),
			Enabled:     true,
		},
		{
			Name:        "sql_injection",
			Description: "Message or threat keywords indicate a SQL injection attempt",
			Severity:    record.AlertCritical,
			Predicate: Or(
				MessageContainsAny("sql injection"),
				ThreatKeywordContains("sql injection"),
				MessageContainsAny("union select", "' or '1'='1", "drop table"),
			),
			Enabled: true,
		},
		{
			Name:        "ddos_attack",
			Description: "Message or threat keywords indicate a DDoS attack",
			Severity:    record.AlertCritical,
			Predicate: Or(
				MessageContainsAny("ddos"),
				ThreatKeywordContains("ddos"),
			),
			Enabled: true,
		},
	}
}
