// Package mqtt announces kiosk state to a broker so wall panels and
// home automations can observe the display and wake it.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/netboard/netboard-kiosk/internal/nkioskd/kiosk"
)

// Config holds announcer settings. An empty Broker disables the announcer
type Config struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// Announcer mirrors controller state onto retained topics and accepts
// wake commands on <prefix>/wake.
type Announcer struct {
	client     pahomqtt.Client
	controller *kiosk.Controller
	prefix     string
	logger     zerolog.Logger
	unsub      func()
}

// statePayload is the retained state document
type statePayload struct {
	Active               bool      `json:"active"`
	ViewMode             string    `json:"viewMode"`
	Sleeping             bool      `json:"sleeping"`
	CycleIntervalSeconds int       `json:"cycleIntervalSeconds"`
	AlertIndex           int       `json:"alertIndex"`
	ScheduleEnabled      bool      `json:"scheduleEnabled"`
	WakeLockHeld         bool      `json:"wakeLockHeld"`
	SettingsUnlocked     bool      `json:"settingsUnlocked"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// NewAnnouncer connects to the broker and registers the availability
// will. The returned announcer is idle until Start.
func NewAnnouncer(controller *kiosk.Controller, cfg Config, logger zerolog.Logger) (*Announcer, error) {
	a := &Announcer{
		controller: controller,
		prefix:     cfg.TopicPrefix,
		logger:     logger.With().Str("component", "mqtt").Logger(),
	}
	if a.prefix == "" {
		a.prefix = "netboard/kiosk"
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "nkioskd"
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(a.prefix+"/availability", "offline", 1, true).
		SetOnConnectHandler(func(_ pahomqtt.Client) {
			a.logger.Info().Msg("broker connected")
			a.publish(a.prefix+"/availability", []byte("online"), true)
			a.publishState(a.controller.Snapshot())
			a.subscribeWake()
		}).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			a.logger.Warn().Err(err).Msg("broker connection lost")
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	a.client = client
	return a, nil
}

// Start subscribes to controller events and begins publishing
func (a *Announcer) Start() {
	a.unsub = a.controller.Events().OnAll(a.handleEvent)
	a.logger.Info().Str("prefix", a.prefix).Msg("announcer started")
}

// Stop publishes the offline availability, unsubscribes and disconnects
func (a *Announcer) Stop() {
	if a.unsub != nil {
		a.unsub()
	}
	a.publish(a.prefix+"/availability", []byte("offline"), true)
	a.client.Disconnect(1000)
	a.logger.Info().Msg("announcer stopped")
}

// handleEvent republishes state on every state transition. Device feed
// refreshes are skipped; the retained document describes the controller,
// not the fleet.
func (a *Announcer) handleEvent(e kiosk.Event) {
	if e.Type == kiosk.EventDevicesUpdated || e.State == nil {
		return
	}
	a.publishState(*e.State)
}

func (a *Announcer) publishState(s kiosk.State) {
	data, err := json.Marshal(buildStatePayload(s))
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to marshal state")
		return
	}
	a.publish(a.prefix+"/state", data, true)
}

func buildStatePayload(s kiosk.State) statePayload {
	return statePayload{
		Active:               s.Active,
		ViewMode:             string(s.ViewMode),
		Sleeping:             s.Sleeping,
		CycleIntervalSeconds: int(s.CycleInterval / time.Second),
		AlertIndex:           s.AlertIndex,
		ScheduleEnabled:      s.Schedule.Enabled,
		WakeLockHeld:         s.WakeLockHeld,
		SettingsUnlocked:     s.SettingsUnlocked,
		UpdatedAt:            s.UpdatedAt,
	}
}

func (a *Announcer) subscribeWake() {
	topic := a.prefix + "/wake"
	a.client.Subscribe(topic, 1, func(_ pahomqtt.Client, _ pahomqtt.Message) {
		if err := a.controller.Wake(context.Background()); err != nil {
			a.logger.Warn().Err(err).Msg("wake command failed")
		}
	})
}

func (a *Announcer) publish(topic string, payload []byte, retained bool) {
	token := a.client.Publish(topic, 1, retained, payload)
	go func() {
		if !token.WaitTimeout(5 * time.Second) {
			a.logger.Warn().Str("topic", topic).Msg("publish timeout")
		} else if err := token.Error(); err != nil {
			a.logger.Warn().Err(err).Str("topic", topic).Msg("publish failed")
		}
	}()
}
