package bot

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"puma/internal/back"
	"puma/internal/util"

	"github.com/bwmarrin/discordgo"
)

func (bot *Bot) cmdRegister(m *discordgo.Message, args []string, out io.Writer) error {
	name := argsAsName(args)
	if name == "" {
		return util.ErrPublic("you forgot to tell me your player name")
	}

	player, err := bot.back.LinkDiscordPlayer(m.Author.ID, name)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "You are now registered as `%s`, see you on the leaderboards.", player.DisplayName)
	return nil
}

// resolvePlayer finds the player designated by name, or the player linked to
// the message author if name is empty.
func (bot *Bot) resolvePlayer(m *discordgo.Message, name string) (back.Player, error) {
	if name == "" {
		player, err := bot.back.GetPlayerByDiscordID(m.Author.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return back.Player{}, util.ErrPublic("you are not registered, send `!register NAME` first")
		}
		return player, err
	}

	player, err := bot.back.GetPlayerByName(name)
	if errors.Is(err, sql.ErrNoRows) {
		return back.Player{}, util.ErrPublic(fmt.Sprintf("there is no player named `%s`", name))
	}

	return player, err
}

func (bot *Bot) cmdIn(m *discordgo.Message, args []string, out io.Writer) error {
	return bot.setAvailable(m, argsAsName(args), true, out)
}

func (bot *Bot) cmdOut(m *discordgo.Message, args []string, out io.Writer) error {
	return bot.setAvailable(m, argsAsName(args), false, out)
}

func (bot *Bot) setAvailable(m *discordgo.Message, name string, available bool, out io.Writer) error {
	player, err := bot.resolvePlayer(m, name)
	if err != nil {
		return err
	}

	if err := bot.back.SetAvailable([]int64{player.ID}, available); err != nil {
		return err
	}

	if available {
		fmt.Fprintf(out, "`%s` is waiting for a match.", player.DisplayName)
	} else {
		fmt.Fprintf(out, "`%s` left the pool.", player.DisplayName)
	}

	return nil
}

func (bot *Bot) cmdAvailable(_ *discordgo.Message, _ []string, out io.Writer) error {
	players, err := bot.back.GetAvailablePlayers(back.RankWindow{})
	if err != nil {
		return err
	}

	if len(players) == 0 {
		fmt.Fprint(out, "Nobody is waiting for a match.")
		return nil
	}

	fmt.Fprintf(out, "%d players are waiting for a match:\n", len(players))
	for k, v := range players {
		fmt.Fprintf(out, "%d. %s (%s)\n", k+1, v.DisplayName, util.Rating(v.RatingOrDefault()))
	}

	return nil
}

func (bot *Bot) cmdLeaderboard(_ *discordgo.Message, _ []string, out io.Writer) error {
	leaderboard, err := bot.back.GetLeaderboard()
	if err != nil {
		return err
	}

	if len(leaderboard) == 0 {
		fmt.Fprint(out, "There is no rated player yet.")
		return nil
	}

	fmt.Fprintln(out, "```")
	for _, v := range leaderboard {
		fmt.Fprintf(out, "%3d. %-20s %7s  %d-%d\n", v.Rank, v.DisplayName, util.Rating(v.Rating), v.Wins, v.Losses)
	}
	fmt.Fprint(out, "```")

	return nil
}
