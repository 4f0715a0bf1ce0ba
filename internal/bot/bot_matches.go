package bot

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"puma/internal/back"
	"puma/internal/balance"
	"puma/internal/elo"
	"puma/internal/util"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

func (bot *Bot) cmdMatch(_ *discordgo.Message, args []string, out io.Writer) error {
	req, err := parseMatchRequest(args)
	if err != nil {
		return err
	}

	match, err := bot.back.CreateMatch(req, nil)
	if err != nil {
		return err
	}

	writeMatch(out, match)
	return nil
}

// parseMatchRequest reads "[KIND] [METHOD]", both optional.
func parseMatchRequest(args []string) (back.MatchRequest, error) {
	req := back.MatchRequest{Kind: balance.KindDoubles, Method: balance.MethodOptimal}
	if len(args) > 2 {
		return back.MatchRequest{}, util.ErrPublic("expected at most 2 arguments: KIND METHOD")
	}

	if len(args) > 0 {
		kind, err := balance.ParseKind(args[0])
		if err != nil {
			return back.MatchRequest{}, util.ErrPublic(fmt.Sprintf("unknown match kind `%s`", args[0]))
		}
		req.Kind = kind
	}

	if len(args) > 1 {
		method, err := balance.ParseMethod(args[1])
		if err != nil {
			return back.MatchRequest{}, util.ErrPublic(fmt.Sprintf("unknown pairing method `%s`", args[1]))
		}
		req.Method = method
	}

	return req, nil
}

func parseMatchID(args []string) (int64, error) {
	if len(args) < 1 {
		return 0, util.ErrPublic("you forgot the match number")
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, util.ErrPublic(fmt.Sprintf("invalid match number `%s`", args[0]))
	}

	return id, nil
}

func parseSets(args []string) ([]back.Set, error) {
	if len(args) < 1 || len(args) > back.MaxSets {
		return nil, util.ErrPublic(fmt.Sprintf("expected 1 to %d set scores like `21-15`", back.MaxSets))
	}

	sets := make([]back.Set, 0, len(args))
	for _, v := range args {
		set, err := back.ParseSet(v)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}

	return sets, nil
}

func unknownMatch(id int64, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return util.ErrPublic(fmt.Sprintf("there is no match #%d", id))
	}

	return err
}

func (bot *Bot) cmdScore(_ *discordgo.Message, args []string, out io.Writer) error {
	id, err := parseMatchID(args)
	if err != nil {
		return err
	}

	sets, err := parseSets(args[1:])
	if err != nil {
		return err
	}

	match, history, err := bot.back.RecordScore(id, sets)
	if err != nil {
		return unknownMatch(id, err)
	}

	writeMatch(out, match)
	if len(history) == 0 {
		fmt.Fprint(out, "\nThe match is a draw, ratings were left untouched.")
		return nil
	}

	names := map[int64]string{}
	for _, side := range [][]back.Player{match.Side1, match.Side2} {
		for _, v := range side {
			names[v.ID] = v.DisplayName
		}
	}

	fmt.Fprintln(out, "\nNew ratings:")
	for _, v := range history {
		old := elo.DefaultRating
		if v.OldRating.Valid {
			old = v.OldRating.Float64
		}
		fmt.Fprintf(out, "- %s: %s (%+.1f)\n", names[v.PlayerID], util.Rating(v.NewRating), v.NewRating-old)
	}

	return nil
}

func (bot *Bot) cmdReturn(_ *discordgo.Message, args []string, out io.Writer) error {
	id, err := parseMatchID(args)
	if err != nil {
		return err
	}

	players, err := bot.back.ReturnPlayers(id)
	if err != nil {
		return unknownMatch(id, err)
	}

	fmt.Fprintf(out, "%d players of match #%d are back in the pool.", len(players), id)
	return nil
}

func (bot *Bot) cmdOdds(_ *discordgo.Message, args []string, out io.Writer) error {
	id, err := parseMatchID(args)
	if err != nil {
		return err
	}

	match, err := bot.back.GetMatch(id)
	if err != nil {
		return unknownMatch(id, err)
	}

	prediction, err := bot.back.PredictMatch(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s: %.0f%%\n", sideNames(match.Side1), 100*prediction.Side1WinProbability)
	fmt.Fprintf(out, "%s: %.0f%%", sideNames(match.Side2), 100*(1-prediction.Side1WinProbability))

	return nil
}

func sideNames(players []back.Player) string {
	if len(players) == 0 {
		return "(nobody)"
	}

	names := make([]string, len(players))
	for k, v := range players {
		names[k] = v.DisplayName
	}

	return strings.Join(names, " & ")
}

func writeMatch(out io.Writer, match back.MatchWithPlayers) {
	fmt.Fprintf(out, "**Match #%d** (%s, %s)\n", match.ID, match.Kind, match.Method)
	fmt.Fprintf(out, "%s vs. %s", sideNames(match.Side1), sideNames(match.Side2))

	if !match.HasScore() {
		return
	}

	sets := make([]string, 0, back.MaxSets)
	for _, v := range match.Sets() {
		sets = append(sets, v.String())
	}
	fmt.Fprintf(out, "\nScore: %s", strings.Join(sets, ", "))

	switch match.Winner {
	case back.Side1:
		fmt.Fprintf(out, ", **%s win**", sideNames(match.Side1))
	case back.Side2:
		fmt.Fprintf(out, ", **%s win**", sideNames(match.Side2))
	case back.SideNone:
	}
}
