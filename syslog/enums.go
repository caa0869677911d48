/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package syslog

// facilityNames is the closed facility enum, index == facility number.
var facilityNames = [24]string{
	"kern", "user", "mail", "daemon",
	"auth", "syslog", "lpr", "news",
	"uucp", "cron", "authpriv", "ftp",
	"ntp", "security", "console", "solaris-cron",
	"local0", "local1", "local2", "local3",
	"local4", "local5", "local6", "local7",
}

// severityNames is the closed severity enum, index == severity number.
var severityNames = [8]string{
	"emergency", "alert", "critical", "error",
	"warning", "notice", "informational", "debug",
}

// FacilityName returns the closed-enum name for a facility in [0,23], or
// "unknown" outside that range.
func FacilityName(facility int) string {
	if facility < 0 || facility >= len(facilityNames) {
		return "unknown"
	}
	return facilityNames[facility]
}

// SeverityName returns the closed-enum name for a severity in [0,7], or
// "unknown" outside that range.
func SeverityName(severity int) string {
	if severity < 0 || severity >= len(severityNames) {
		return "unknown"
	}
	return severityNames[severity]
}

// DecodePriority splits a PRI value into its facility/severity components.
func DecodePriority(priority int) (facility, severity int) {
	facility = priority >> 3
	severity = priority & 0x07
	return
}
