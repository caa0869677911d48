/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package ingest

import "bytes"

// replacementChar is substituted for any invalid UTF-8 byte sequence,
// matching the "decode as UTF-8 with replacement" policy spec'd for both
// datagram and stream listeners.
var replacementChar = []byte("�")

func sanitizeUTF8(b []byte) string {
	return string(bytes.ToValidUTF8(b, replacementChar))
}
