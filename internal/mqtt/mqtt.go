// Package mqtt streams compass headings from devices into guidance sessions
// and publishes the resulting feedback back to them.
package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/sajda/internal/model"
	"github.com/Nixie-Tech-LLC/sajda/internal/qibla"
)

const (
	headingTopic  = "qibla/+/heading"
	feedbackTopic = "qibla/%s/feedback"
	qos           = 1
)

var connectHandler paho.OnConnectHandler = func(client paho.Client) {
	log.Info().Msg("Connected to MQTT broker")
}

var connectLostHandler paho.ConnectionLostHandler = func(client paho.Client, err error) {
	log.Warn().Err(err).Msg("MQTT connection lost")
}

// clientOptions builds the broker options. Messages are routed without
// ordering so a handler that publishes cannot stall inbound delivery.
func clientOptions(brokerURL string) *paho.ClientOptions {
	opts := paho.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID("sajda-" + uuid.NewString())
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetOrderMatters(false)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler
	return opts
}

// Connect dials the broker with a unique client id.
func Connect(brokerURL string) (paho.Client, error) {
	client := paho.NewClient(clientOptions(brokerURL))
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %v", token.Error())
	}
	return client, nil
}

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// HeadingFeed routes samples published on qibla/<device>/heading to the
// device's open session and answers on qibla/<device>/feedback.
type HeadingFeed struct {
	client   paho.Client
	pub      publisher
	sessions *qibla.Sessions
}

func NewHeadingFeed(client paho.Client, sessions *qibla.Sessions) *HeadingFeed {
	return &HeadingFeed{client: client, pub: client, sessions: sessions}
}

// Start subscribes to every device's heading topic.
func (f *HeadingFeed) Start() error {
	token := f.client.Subscribe(headingTopic, qos, f.handle)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to %s: %v", headingTopic, token.Error())
	}
	log.Info().Str("topic", headingTopic).Msg("heading feed subscribed")
	return nil
}

// Stop unsubscribes and disconnects.
func (f *HeadingFeed) Stop() {
	if token := f.client.Unsubscribe(headingTopic); token.Wait() && token.Error() != nil {
		log.Warn().Err(token.Error()).Msg("failed to unsubscribe heading feed")
	}
	f.client.Disconnect(250)
	log.Info().Msg("MQTT client disconnected")
}

func (f *HeadingFeed) send(deviceID string, fb model.Feedback) (paho.Token, error) {
	payload, err := json.Marshal(fb)
	if err != nil {
		return nil, err
	}
	return f.pub.Publish(fmt.Sprintf(feedbackTopic, deviceID), qos, false, payload), nil
}

// Publish sends feedback to a device and waits for the broker.
func (f *HeadingFeed) Publish(deviceID string, fb model.Feedback) error {
	token, err := f.send(deviceID, fb)
	if err != nil {
		return err
	}
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to send feedback to device %s: %v", deviceID, token.Error())
	}
	return nil
}

func (f *HeadingFeed) handle(_ paho.Client, msg paho.Message) {
	deviceID, ok := deviceFromTopic(msg.Topic())
	if !ok {
		log.Debug().Str("topic", msg.Topic()).Msg("ignoring message on unexpected topic")
		return
	}

	var sample model.HeadingSample
	if err := json.Unmarshal(msg.Payload(), &sample); err != nil {
		log.Warn().Err(err).Str("device", deviceID).Msg("malformed heading sample")
		return
	}

	session, err := f.sessions.ForDevice(deviceID)
	if err != nil {
		log.Debug().Str("device", deviceID).Msg("heading for device without a session")
		return
	}

	// handlers run on paho's router goroutine and must not wait on the ack
	token, err := f.send(deviceID, session.Apply(sample))
	if err != nil {
		log.Error().Err(err).Str("device", deviceID).Msg("feedback encode failed")
		return
	}
	go func() {
		if token.Wait() && token.Error() != nil {
			log.Error().Err(token.Error()).Str("device", deviceID).Msg("feedback publish failed")
		}
	}()
}

func deviceFromTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "qibla" || parts[2] != "heading" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
