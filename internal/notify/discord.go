package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// DiscordDispatcher posts notifications to a Discord channel
type DiscordDispatcher struct {
	session   *discordgo.Session
	channelID string
}

// NewDiscordDispatcher creates a bot session for posting to channelID
func NewDiscordDispatcher(token, channelID string) (*DiscordDispatcher, error) {
	if token == "" || channelID == "" {
		return nil, fmt.Errorf("discord token and channel id are required")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	return &DiscordDispatcher{session: session, channelID: channelID}, nil
}

// Send posts a description of e to the channel
func (d *DiscordDispatcher) Send(_ context.Context, e Event) error {
	_, err := d.session.ChannelMessageSend(d.channelID, fmt.Sprintf("`%s`", Describe(e)))
	if err != nil {
		return fmt.Errorf("error sending Discord message: %w", err)
	}
	return nil
}

// Close closes the underlying session
func (d *DiscordDispatcher) Close() error {
	return d.session.Close()
}
