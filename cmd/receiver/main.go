/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Command receiver runs the ingest stage: UDP/TCP/TLS syslog listeners
// publishing parsed records onto the raw-logs bus topic.
package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"os"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/bus"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/config"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/ingest"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/lifecycle"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/log"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/metrics"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/record"
)

var confLoc = flag.String("config-file", "", "path to the shared CyberSentinel config file")

// queueDepth sizes the in-process handoff between listener goroutines and
// the bus-publishing worker; see spec §5's non-blocking-handoff rule.
const queueDepth = 4096

func main() {
	flag.Parse()

	lg := log.New(os.Stderr, "receiver")
	cfg, err := config.Load(*confLoc)
	if err != nil {
		lg.Fatal("loading configuration failed", log.KVErr(err))
	}
	lg.SetLevel(logLevel(cfg))

	stage := lifecycle.New("receiver", lg)
	reg := metrics.New()

	go serveMetrics(cfg.Global.MetricsBind, reg, lg)

	var producer *bus.Producer
	if err := stage.StartDep("bus-producer", func() error {
		p, e := bus.NewProducer(bus.ProducerConfig{Brokers: cfg.Bus.Brokers}, lg)
		if e != nil {
			return e
		}
		producer = p
		return nil
	}); err != nil {
		lifecycle.Fatal(lg, "receiver", err)
	}
	stage.AddCloser(producer)

	queue := make(chan record.RawRecord, queueDepth)
	listeners := ingest.New(ingest.Config{
		UDPBind:        cfg.Listener.UDPBind,
		TCPBind:        cfg.Listener.TCPBind,
		TLSBind:        cfg.Listener.TLSBind,
		TLSCertPath:    cfg.Listener.TLSCert,
		TLSKeyPath:     cfg.Listener.TLSKey,
		TLSEnabled:     cfg.Listener.TLSEnabled,
		MaxMessageSize: cfg.Listener.MaxMessageSize,
	}, queue, reg, lg)
	stage.AddCloser(listeners)

	if err := listeners.StartUDP(); err != nil {
		lifecycle.Fatal(lg, "receiver", err)
	}
	if err := listeners.StartTCP(); err != nil {
		lifecycle.Fatal(lg, "receiver", err)
	}
	if err := listeners.StartTLS(); err != nil {
		lifecycle.Fatal(lg, "receiver", err)
	}

	for i := 0; i < cfg.Workers.Count; i++ {
		stage.Go(func() {
			for rec := range queue {
				b, err := json.Marshal(rec)
				if err != nil {
					lg.Error("marshaling raw record failed", log.KVErr(err))
					continue
				}
				if err := producer.Publish(cfg.Bus.TopicRaw, b); err != nil {
					lg.Warn("publishing raw record failed", log.KVErr(err))
				}
			}
		})
	}

	lg.Info("receiver started")
	stage.WaitForQuit()
	lg.Info("shutdown signal received, draining")
	listeners.Close()
	close(queue)
	stage.Drain(lifecycle.DefaultDrainTimeout)
	stage.Stop()
}

func logLevel(cfg *config.Global) log.Level {
	return log.ParseLevel(cfg.Global.LogLevel)
}

func serveMetrics(bind string, reg *metrics.Registry, lg *log.Logger) {
	if bind == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	if err := http.ListenAndServe(bind, mux); err != nil {
		lifecycle.Fatal(lg, "receiver", err)
	}
}
