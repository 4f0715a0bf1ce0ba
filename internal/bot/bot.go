package bot

import (
	"errors"
	"fmt"
	"io"
	"log"
	"puma/internal/back"
	"puma/internal/config"
	"puma/internal/util"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

type commandHandler func(m *discordgo.Message, args []string, w io.Writer) error

type Bot struct {
	back   *back.Back
	config *config.Config

	startedAt time.Time
	dg        *discordgo.Session

	handlers map[string]commandHandler

	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter
}

// Per user command budget.
const (
	commandBurst    = 3
	commandInterval = 2 * time.Second
)

func New(back *back.Back, conf *config.Config) (*Bot, error) {
	dg, err := discordgo.New("Bot " + conf.DiscordToken)
	if err != nil {
		return nil, err
	}
	dg.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	bot := &Bot{
		back:      back,
		config:    conf,
		dg:        dg,
		startedAt: time.Now(),
		limiters:  map[string]*rate.Limiter{},
	}

	dg.AddHandler(bot.handleMessage)

	bot.handlers = map[string]commandHandler{
		"!dev":         bot.cmdDev,
		"!help":        bot.cmdHelp,
		"!leaderboard": bot.cmdLeaderboard,
		"!register":    bot.cmdRegister,

		"!available": bot.cmdAvailable,
		"!in":        bot.cmdIn,
		"!out":       bot.cmdOut,

		"!match":  bot.cmdMatch,
		"!odds":   bot.cmdOdds,
		"!return": bot.cmdReturn,
		"!score":  bot.cmdScore,
	}

	return bot, nil
}

func (bot *Bot) Serve(wg *sync.WaitGroup, done <-chan struct{}) {
	log.Println("info: starting Discord bot")
	wg.Add(1)
	defer wg.Done()
	if err := bot.dg.Open(); err != nil {
		log.Printf("error: could not open Discord session: %s", err)
		return
	}

	<-done

	if err := bot.dg.Close(); err != nil {
		log.Printf("error: could not close Discord bot: %s", err)
	}
}

func (bot *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore webooks, self, bots, non-commands.
	if m.Author == nil || m.Author.ID == s.State.User.ID ||
		m.Author.Bot || !strings.HasPrefix(m.Content, "!") {
		return
	}

	if !bot.config.ListensTo(m.ChannelID) || bot.config.IsDiscordBanned(m.Author.ID) {
		return
	}

	if !bot.allow(m.Author.ID) {
		log.Printf("warning: rate limited %s(%s): %s", m.Author.String(), m.Author.ID, m.Content)
		return
	}

	log.Printf(
		"info: <%s(%s)@%s#%s> %s",
		m.Author.String(), m.Author.ID,
		m.GuildID, m.ChannelID,
		m.Content,
	)

	out := newChannelWriter(s, m.ChannelID)
	defer func() {
		if err := out.Flush(); err != nil {
			log.Printf("error: could not send message: %s", err)
		}
	}()

	defer func() {
		r := recover()
		if r != nil {
			out.Reset()
			fmt.Fprint(out, "Someting went very wrong, please tell an admin.")
			log.Print("panic: ", r)
			log.Print(string(debug.Stack()))
		}
	}()

	bot.run(m.Message, out)
}

// run dispatches the command and writes either its output or a
// user-friendly error to w.
func (bot *Bot) run(m *discordgo.Message, w resetWriter) {
	if err := bot.dispatch(m, w); err != nil {
		w.Reset()
		fmt.Fprintln(w, "There was an error processing your command.")

		if errors.Is(err, util.ErrPublic("")) {
			fmt.Fprintf(w, "```%s\n```\nIf you need help, send `!help`.", err)
		} else {
			fmt.Fprint(w, "An admin will check the logs.")
		}

		log.Printf("error: failed to process command: %s", err)
	}
}

type resetWriter interface {
	io.Writer
	Reset()
}

func (bot *Bot) allow(userID string) bool {
	bot.limitersMu.Lock()
	defer bot.limitersMu.Unlock()

	limiter, ok := bot.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(commandInterval), commandBurst)
		bot.limiters[userID] = limiter
	}

	return limiter.Allow()
}

func parseCommand(cmd string) (string, []string) {
	parts := strings.Fields(cmd)

	switch len(parts) {
	case 0:
		return "", nil
	case 1:
		return strings.ToLower(parts[0]), nil
	default:
		return strings.ToLower(parts[0]), parts[1:]
	}
}

func argsAsName(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func (bot *Bot) dispatch(m *discordgo.Message, w io.Writer) error {
	command, args := parseCommand(m.Content)
	handler, ok := bot.handlers[command]
	if !ok {
		return util.ErrPublic(fmt.Sprintf("invalid command: %v", m.Content))
	}

	return handler(m, args, w)
}

func (bot *Bot) cmdHelp(m *discordgo.Message, _ []string, w io.Writer) error {
	fmt.Fprint(w, strings.ReplaceAll(`Available commands:
'''
# Players
!help                       # display this help message
!leaderboard                # list the rated players, best first
!register NAME              # link your Discord account to the player NAME

# Pool
!available                  # list the players waiting for a match
!in [NAME]                  # add yourself (or NAME) to the pool
!out [NAME]                 # remove yourself (or NAME) from the pool

# Matches
!match [KIND] [METHOD]      # KIND: doubles, singles; METHOD: random, balanced, optimal
!odds ID                    # display the win probability of match ID
!return ID                  # put the players of match ID back in the pool
!score ID 21-15 [18-21] ... # record the sets of match ID and update ratings
'''`, "'''", "```"))

	if !bot.config.IsDiscordAdmin(m.Author.ID) {
		return nil
	}

	fmt.Fprint(w, strings.ReplaceAll(`Admin-only commands:
'''
!dev error     error out
!dev panic     panic and abort
!dev save      snapshot the current pool
!dev load      restore the pool snapshot
!dev uptime    display for how long the bot has been running
!dev url       display the link to use when adding the bot to a new server
'''`, "'''", "```"))

	return nil
}
