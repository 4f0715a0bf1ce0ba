package bot

import (
	"bytes"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
)

// Discord rejects messages longer than this.
const maxMessageLength = 2000

// channelWriter outputs messages to a Discord channel when flushed, it can be
// reused right after flushing to send a new message.
type channelWriter struct {
	channelID string
	dg        *discordgo.Session
	buf       bytes.Buffer

	debugInfo string
}

func newChannelWriter(dg *discordgo.Session, channelID string) *channelWriter {
	return &channelWriter{
		dg:        dg,
		channelID: channelID,
		debugInfo: fmt.Sprintf("<to chan %s>", channelID),
	}
}

func (w *channelWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *channelWriter) Reset() {
	w.buf.Reset()
}

func (w *channelWriter) Flush() error {
	if w.buf.Len() <= 0 {
		return nil
	}

	content := w.buf.String()
	w.buf.Reset()
	if len(content) > maxMessageLength {
		content = content[:maxMessageLength-3] + "..."
	}

	_, err := w.dg.ChannelMessageSendComplex(w.channelID, &discordgo.MessageSend{
		Content: content,
	})
	log.Printf("info: %s: %s", w.debugInfo, content)

	return err
}
