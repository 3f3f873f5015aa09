package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/domain"
)

var ErrUnknownTopic = errors.New("unknown topic")

// Lid commands understood by the bin firmware on its control topic.
const (
	CommandOpen  = "OPEN"
	CommandClose = "CLOSE"
)

type Topics struct {
	Telemetry string
	Event     string
	Control   string
}

// TopicsFor builds <prefix>/<binID>/{telemetry,event,control}.
func TopicsFor(prefix, binID string) Topics {
	base := strings.TrimSuffix(prefix, "/") + "/" + binID
	return Topics{
		Telemetry: base + "/telemetry",
		Event:     base + "/event",
		Control:   base + "/control",
	}
}

// TelemetryPayload is what the bin publishes on its telemetry topic. The
// firmware only sends fill and lid; the remaining sensors are optional.
type TelemetryPayload struct {
	Fill        *float64 `json:"fill,omitempty"`
	Lid         *bool    `json:"lid,omitempty"`
	Battery     *float64 `json:"battery,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	Odor        *float64 `json:"odor,omitempty"`
}

// inboundTelemetry keeps fill raw so a malformed level does not cost the
// rest of the message.
type inboundTelemetry struct {
	TelemetryPayload
	Fill json.RawMessage `json:"fill"`
}

type EventPayload struct {
	Event string `json:"event"`
}

type Kind string

const (
	KindFill         Kind = "fill"
	KindLid          Kind = "lid"
	KindSensors      Kind = "sensors"
	KindEmptied      Kind = "emptied"
	KindConnected    Kind = "connected"
	KindDisconnected Kind = "disconnected"
)

// Sensors carries the optional environment readings; nil means not reported.
type Sensors struct {
	Battery     *float64
	Temperature *float64
	Humidity    *float64
	Odor        *float64
}

type Signal struct {
	Kind    Kind
	Level   float64
	LidOpen bool
	Sensors Sensors
}

// Decode maps one inbound message to the signals it carries. Events other
// than "emptied" decode to no signals.
func Decode(topic string, payload []byte) ([]Signal, error) {
	switch {
	case strings.HasSuffix(topic, "/telemetry"):
		var p inboundTelemetry
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decode telemetry: %w", err)
		}
		var out []Signal
		var fill *float64
		if len(p.Fill) > 0 && json.Unmarshal(p.Fill, &fill) == nil && fill != nil {
			out = append(out, Signal{Kind: KindFill, Level: domain.ClampPercent(*fill)})
		}
		if p.Lid != nil {
			out = append(out, Signal{Kind: KindLid, LidOpen: *p.Lid})
		}
		if p.Battery != nil || p.Temperature != nil || p.Humidity != nil || p.Odor != nil {
			out = append(out, Signal{Kind: KindSensors, Sensors: Sensors{
				Battery:     p.Battery,
				Temperature: p.Temperature,
				Humidity:    p.Humidity,
				Odor:        p.Odor,
			}})
		}
		return out, nil
	case strings.HasSuffix(topic, "/event"):
		var p EventPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		if strings.TrimSpace(p.Event) == domain.EventEmptied {
			return []Signal{{Kind: KindEmptied}}, nil
		}
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
}
