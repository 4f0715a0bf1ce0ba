package main

import (
	"log"
	"os"
	"os/signal"
	"puma/internal/back"
	"puma/internal/bot"
	"puma/internal/config"
	"puma/internal/web"
	"sync"
	"syscall"
)

func serve(b *back.Back, conf *config.Config) error {
	var (
		wg       sync.WaitGroup
		done     = make(chan struct{})
		signaled = make(chan os.Signal, 1)
	)
	signal.Notify(signaled, syscall.SIGINT, syscall.SIGTERM)

	var discord *bot.Bot
	if conf.DiscordToken != "" {
		var err error
		if discord, err = bot.New(b, conf); err != nil {
			return err
		}
	} else {
		log.Print("warning: no Discord token configured, the bot is disabled")
	}

	go web.NewServer(b, conf).Serve(&wg, done)
	if discord != nil {
		go discord.Serve(&wg, done)
	}

	sig := <-signaled
	log.Printf("info: received signal %d", sig)

	close(done)
	wg.Wait()

	log.Print("info: shutdown complete")

	return nil
}
