package discord

import (
	"context"
	"log"

	"github.com/isaiah-harvey/logicrpc/internal/daemon/presence"
	"github.com/isaiah-harvey/logicrpc/internal/models"
)

// Publisher adapts a Client to presence.Publisher. The presence text goes
// into the activity state under the configured large image.
//
// When a call finds the connection gone, Publisher reconnects once before
// giving up. Nothing is re-sent on its own: after Discord restarts, the
// activity stays blank until the loop publishes its next change.
type Publisher struct {
	client *Client
	assets Assets
}

var _ presence.Publisher = (*Publisher)(nil)

// NewPublisher wraps a connected client.
func NewPublisher(client *Client, cfg models.DiscordConfig) *Publisher {
	return &Publisher{
		client: client,
		assets: Assets{LargeImage: cfg.LargeImage, LargeText: cfg.LargeText},
	}
}

// NewConnector returns a presence.Connector that connects a new client for
// clientID.
func NewConnector(clientID string, cfg models.DiscordConfig) presence.Connector {
	return func(ctx context.Context) (presence.Publisher, error) {
		client := NewClient(clientID)
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		log.Printf("[discord] connected (client id %s)", clientID)
		return NewPublisher(client, cfg), nil
	}
}

// SetState publishes text as the activity state.
func (p *Publisher) SetState(ctx context.Context, text string) error {
	if err := p.ensureConnected(ctx); err != nil {
		return err
	}
	return p.client.SetActivity(ctx, p.activity(text))
}

// ClearState removes the activity.
func (p *Publisher) ClearState(ctx context.Context) error {
	if err := p.ensureConnected(ctx); err != nil {
		return err
	}
	return p.client.ClearActivity(ctx)
}

// Close disconnects the client.
func (p *Publisher) Close() error {
	return p.client.Close()
}

// Connected reports whether the underlying client is connected.
func (p *Publisher) Connected() bool {
	return p.client.Connected()
}

func (p *Publisher) activity(text string) *Activity {
	a := &Activity{Type: ActivityPlaying, State: text}
	if p.assets != (Assets{}) {
		assets := p.assets
		a.Assets = &assets
	}
	return a
}

func (p *Publisher) ensureConnected(ctx context.Context) error {
	if p.client.Connected() {
		return nil
	}
	if err := p.client.Connect(ctx); err != nil {
		return err
	}
	log.Printf("[discord] reconnected")
	return nil
}
