// Package mqtt defines how analysis results leave the service over MQTT.
package mqtt

import "errors"

// ErrNotConnected is returned when publishing without a broker connection.
var ErrNotConnected = errors.New("mqtt client not connected")

// Publisher sends JSON encoded results to topics under a configured prefix.
type Publisher interface {
	PublishJSON(topic string, v any) error
	Close()
}
