/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package bus wraps the durable message bus (Kafka, via sarama) behind the
// narrow producer/consumer-group interface this pipeline actually uses:
// publish one JSON message per record, consume a topic within a group.
package bus

import (
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/log"
)

// ProducerConfig names the brokers a Producer dials.
type ProducerConfig struct {
	Brokers []string
}

// Producer publishes JSON payloads with idempotent writes, acks=all and
// LZ4 compression — the durability posture spec'd for every bus write.
type Producer struct {
	sp  sarama.SyncProducer
	log *log.Logger
}

func newSaramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Retry.Backoff = 100 * time.Millisecond
	cfg.Producer.Retry.BackoffFunc = func(retries, _ int) time.Duration {
		return 100 * time.Millisecond << uint(retries)
	}
	cfg.Producer.Compression = sarama.CompressionLZ4
	cfg.Producer.Return.Successes = true
	cfg.Net.MaxOpenRequests = 1 // required alongside Idempotent
	return cfg
}

// NewProducer dials brokers once; callers drive the bounded-retry startup
// policy via lifecycle.Stage.StartDep.
func NewProducer(cfg ProducerConfig, lg *log.Logger) (*Producer, error) {
	sp, err := sarama.NewSyncProducer(cfg.Brokers, newSaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("bus: connecting producer: %w", err)
	}
	return &Producer{sp: sp, log: lg}, nil
}

// Publish sends payload to topic with no key. Sarama retries a failed send
// up to 3 times (Producer.Retry.Max), waiting 100ms*2^n before retry n
// (Producer.Retry.BackoffFunc).
func (p *Producer) Publish(topic string, payload []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(payload),
	}
	_, _, err := p.sp.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("bus: publishing to %s: %w", topic, err)
	}
	return nil
}

// Close implements lifecycle.Closer.
func (p *Producer) Close() error {
	return p.sp.Close()
}
