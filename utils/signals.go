/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package utils collects the small process-lifetime helpers shared by
// every cmd/* binary.
package utils

import (
	"os"
	"os/signal"
	"syscall"
)

// quitSignals is the set of OS signals that mean "shut down". SIGKILL is
// deliberately absent: the runtime can't catch it via signal.Notify, so
// listing it here would be a silent no-op.
var quitSignals = []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM}

// WaitForQuit blocks until a termination signal arrives and returns it.
func WaitForQuit() os.Signal {
	ch := GetQuitChannel()
	defer signal.Stop(ch)
	return <-ch
}

// GetQuitChannel returns a channel that receives a termination signal.
// Callers that also want a programmatic shutdown trigger can select on
// this channel alongside their own done channel.
func GetQuitChannel() chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, quitSignals...)
	return ch
}
