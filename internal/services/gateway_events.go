package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	pubnub "github.com/pubnub/go/v7"

	"lightning-pass/internal/services/gateway"
	"lightning-pass/monitoring"
)

// GatewayEventListener subscribes to the processor's async notification
// channel over PubNub. The feed is observational: fulfillment is driven
// by the confirm endpoint, so messages here only produce logs and
// metrics used for reconciliation.
type GatewayEventListener struct {
	pn       *pubnub.PubNub
	listener *pubnub.Listener
	channels []string
	monitor  *monitoring.Monitor
}

type ListenerConfig struct {
	SubscribeKey string
	SecretKey    string
	UUID         string
	Channel      string
}

func NewGatewayEventListener(cfg ListenerConfig, monitor *monitoring.Monitor) (*GatewayEventListener, error) {
	if cfg.SubscribeKey == "" || cfg.Channel == "" {
		return nil, fmt.Errorf("gateway events: subscribe key and channel are required")
	}

	pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.UUID))
	pnCfg.SubscribeKey = cfg.SubscribeKey
	pnCfg.SecretKey = cfg.SecretKey

	l := &GatewayEventListener{
		pn:       pubnub.NewPubNub(pnCfg),
		listener: pubnub.NewListener(),
		channels: []string{cfg.Channel},
		monitor:  monitor,
	}
	l.pn.AddListener(l.listener)
	return l, nil
}

// Run subscribes and processes notifications until the context ends.
func (l *GatewayEventListener) Run(ctx context.Context) {
	l.pn.Subscribe().Channels(l.channels).Execute()
	defer l.pn.Unsubscribe().Channels(l.channels).Execute()

	for {
		select {
		case st := <-l.listener.Status:
			switch st.Category {
			case pubnub.PNConnectedCategory:
				slog.Info("gateway event channel connected", "channels", l.channels)
			case pubnub.PNReconnectedCategory:
				slog.Info("gateway event channel reconnected")
			case pubnub.PNDisconnectedCategory:
				slog.Warn("gateway event channel disconnected")
			case pubnub.PNAccessDeniedCategory:
				slog.Error("gateway event channel access denied")
			case pubnub.PNReconnectionAttemptsExhausted:
				slog.Error("gateway event channel reconnection attempts exhausted")
			default:
				slog.Debug("gateway event channel status", "category", st.Category)
			}

		case message := <-l.listener.Message:
			l.observe(message)

		case <-ctx.Done():
			slog.Info("gateway event listener stopped")
			return
		}
	}
}

func (l *GatewayEventListener) observe(message *pubnub.PNMessage) {
	raw, ok := message.Message.(string)
	if !ok {
		encoded, err := json.Marshal(message.Message)
		if err != nil {
			slog.Warn("gateway event in unreadable shape", "error", err)
			return
		}
		raw = string(encoded)
	}

	var event gateway.Event
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		l.monitor.TrackWebhookEvent("unknown", "undecodable")
		slog.Warn("gateway event decode failed", "error", err)
		return
	}

	switch event.Type {
	case gateway.EventIntentSucceeded:
		l.monitor.TrackWebhookEvent(event.Type, "observed")
		slog.Info("gateway reported intent succeeded", "intent", event.IntentID, "event", event.ID)
	case gateway.EventIntentFailed:
		l.monitor.TrackWebhookEvent(event.Type, "observed")
		slog.Warn("gateway reported intent failed", "intent", event.IntentID, "event", event.ID)
	default:
		l.monitor.TrackWebhookEvent(event.Type, "ignored")
		slog.Debug("gateway event ignored", "type", event.Type, "event", event.ID)
	}
}
