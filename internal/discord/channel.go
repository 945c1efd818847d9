package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"remindbot/internal/transport"
)

// textChannel is a resolved text-capable channel bound to the session.
type textChannel struct {
	sess *discordgo.Session
	id   string
	num  uint64
}

func (c *textChannel) ID() uint64 { return c.num }

func (c *textChannel) Send(ctx context.Context, text string) error {
	_, err := c.sess.ChannelMessageSend(c.id, text, discordgo.WithContext(ctx))
	return err
}

// SendDigest renders the checklist digest as one embed field per task.
// Discord caps embeds at 25 fields; the remainder is summarized in the
// footer.
func (c *textChannel) SendDigest(ctx context.Context, d transport.Digest) error {
	const maxFields = 25

	embed := &discordgo.MessageEmbed{
		Title: "Hourly task list",
		Color: 0x5865F2,
	}
	for i, e := range d.Entries {
		if i == maxFields {
			embed.Footer = &discordgo.MessageEmbedFooter{
				Text: fmt.Sprintf("+%d more", len(d.Entries)-maxFields),
			}
			break
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("#%d %s", e.ID, e.Task),
			Value: digestFieldValue(e),
		})
	}
	_, err := c.sess.ChannelMessageSendEmbed(c.id, embed, discordgo.WithContext(ctx))
	return err
}

func digestFieldValue(e transport.DigestEntry) string {
	switch {
	case e.Urgency != "" && e.Deadline != "":
		return fmt.Sprintf("urgency: %s · due %s", e.Urgency, e.Deadline)
	case e.Urgency != "":
		return "urgency: " + e.Urgency
	case e.Deadline != "":
		return "due " + e.Deadline
	default:
		return "no labels"
	}
}
