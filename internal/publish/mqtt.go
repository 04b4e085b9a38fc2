// Package publish sends sweep results to an MQTT broker.
package publish

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/config"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/sim"
)

const publishTimeout = 5 * time.Second

// PointPayload is the JSON body published for one BER point.
type PointPayload struct {
	RunID     string  `json:"run_id"`
	Timestamp int64   `json:"timestamp"`
	Scheme    string  `json:"scheme"`
	SNR       int     `json:"snr_db"`
	BER       float64 `json:"ber"`
	BitErrors int     `json:"bit_errors"`
	Bits      int     `json:"bits"`
}

// Message is a topic and its encoded payload.
type Message struct {
	Topic   string
	Payload []byte
}

// Messages builds one message per point of res, in result order.
func Messages(prefix, runID string, res *sim.Result, now time.Time) ([]Message, error) {
	out := make([]Message, 0, len(res.Points))
	for _, p := range res.Points {
		body, err := json.Marshal(PointPayload{
			RunID:     runID,
			Timestamp: now.Unix(),
			Scheme:    p.Scheme.String(),
			SNR:       p.SNR,
			BER:       p.BER,
			BitErrors: p.BitErrors,
			Bits:      p.Bits,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, Message{Topic: prefix + "/" + p.Scheme.String(), Payload: body})
	}
	return out, nil
}

// MQTTPublisher publishes sweep results.
type MQTTPublisher struct {
	client mqtt.Client
	prefix string
	qos    byte

	// OnFailure, when set, is called once per failed publish.
	OnFailure func(error)
}

func generateClientID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return "modemsim_" + hex.EncodeToString(b)
}

// NewMQTTPublisher connects to the configured broker.
func NewMQTTPublisher(cfg config.MQTTConfig) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(generateClientID())
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Println("[mqtt] connected to broker")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("[mqtt] connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to MQTT broker: %w", token.Error())
	}
	log.Printf("[mqtt] publishing to %s under %s/<scheme>", cfg.Broker, cfg.TopicPrefix)

	return NewWithClient(client, cfg.TopicPrefix, cfg.QoS), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client mqtt.Client, prefix string, qos byte) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: prefix, qos: qos}
}

// PublishResult sends every point of res. Failures are logged and counted;
// the returned value is the number of messages that failed.
func (p *MQTTPublisher) PublishResult(runID string, res *sim.Result) int {
	msgs, err := Messages(p.prefix, runID, res, time.Now())
	if err != nil {
		log.Printf("[mqtt] encode run %s: %v", runID, err)
		p.failed(err)
		return len(res.Points)
	}

	failures := 0
	for _, m := range msgs {
		token := p.client.Publish(m.Topic, p.qos, false, m.Payload)
		if !token.WaitTimeout(publishTimeout) {
			err = fmt.Errorf("publish %s: timed out", m.Topic)
		} else {
			err = token.Error()
		}
		if err != nil {
			log.Printf("[mqtt] run %s: %v", runID, err)
			p.failed(err)
			failures++
		}
	}
	return failures
}

func (p *MQTTPublisher) failed(err error) {
	if p.OnFailure != nil {
		p.OnFailure(err)
	}
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
