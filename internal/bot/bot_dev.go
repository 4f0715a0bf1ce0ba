package bot

import (
	"fmt"
	"io"
	"puma/internal/util"
	"time"

	"github.com/bwmarrin/discordgo"
)

func (bot *Bot) cmdDev(m *discordgo.Message, args []string, out io.Writer) error {
	if !bot.config.IsDiscordAdmin(m.Author.ID) {
		return fmt.Errorf("!dev command ran by a non-admin: %v", args)
	}
	if len(args) < 1 {
		return util.ErrPublic("need a subcommand")
	}

	switch args[0] {
	case "panic":
		panic("an admin asked me to panic")
	case "uptime":
		fmt.Fprintf(out, "The bot has been online since %s (%s)",
			util.Datetime(bot.startedAt), time.Since(bot.startedAt).Truncate(time.Second),
		)
	case "error":
		return util.ErrPublic("here's your error")
	case "save":
		if err := bot.back.SaveAvailable(); err != nil {
			return err
		}
		fmt.Fprint(out, "The current pool has been saved.")
	case "load":
		if err := bot.back.LoadAvailable(); err != nil {
			return err
		}
		fmt.Fprint(out, "The saved pool has been restored.")
	case "url":
		fmt.Fprintf(
			out,
			"https://discord.com/api/oauth2/authorize?client_id=%s&scope=bot&permissions=%d",
			bot.dg.State.User.ID,
			discordgo.PermissionViewChannel|discordgo.PermissionSendMessages|
				discordgo.PermissionEmbedLinks,
		)
	default:
		return util.ErrPublic(fmt.Sprintf("unknown subcommand `%s`", args[0]))
	}

	return nil
}
