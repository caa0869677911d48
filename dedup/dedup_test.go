/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/log"
)

func TestSeenBeforeFirstInsertIsNotDuplicate(t *testing.T) {
	srv, err := miniredis.Run()
	require.NoError(t, err)
	defer srv.Close()

	c := New(Config{Addr: srv.Addr(), TTL: time.Hour}, log.NewDiscard())
	defer c.Close()

	require.False(t, c.SeenBefore(context.Background(), "alert:critical_severity:abc123"))
}

func TestSeenBeforeSecondInsertIsDuplicate(t *testing.T) {
	srv, err := miniredis.Run()
	require.NoError(t, err)
	defer srv.Close()

	c := New(Config{Addr: srv.Addr(), TTL: time.Hour}, log.NewDiscard())
	defer c.Close()

	ctx := context.Background()
	key := "alert:critical_severity:abc123"
	require.False(t, c.SeenBefore(ctx, key))
	require.True(t, c.SeenBefore(ctx, key))
}

func TestSeenBeforeExpiresAfterTTL(t *testing.T) {
	srv, err := miniredis.Run()
	require.NoError(t, err)
	defer srv.Close()

	c := New(Config{Addr: srv.Addr(), TTL: time.Second}, log.NewDiscard())
	defer c.Close()

	ctx := context.Background()
	key := "alert:critical_severity:abc123"
	require.False(t, c.SeenBefore(ctx, key))
	srv.FastForward(2 * time.Second)
	require.False(t, c.SeenBefore(ctx, key), "key should look fresh again once its TTL has elapsed")
}

func TestSeenBeforeFailsOpenWhenCacheUnreachable(t *testing.T) {
	// Nothing listens on this address; SetNX will error and SeenBefore
	// must fail open rather than block an alert on a down cache.
	c := New(Config{Addr: "127.0.0.1:1"}, log.NewDiscard())
	defer c.Close()

	require.False(t, c.SeenBefore(context.Background(), "alert:critical_severity:abc123"))
}
