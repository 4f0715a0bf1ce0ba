package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"puma/internal/back"
	"puma/internal/config"

	_ "github.com/mattn/go-sqlite3"
)

// Version holds the build-time version string.
var Version = "unknown" // nolint:gochecknoglobals

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	flag.Parse()

	switch flag.Arg(0) {
	case "version":
		fmt.Fprintf(os.Stdout, "Puma %s\n", Version)
	case "help":
		fmt.Fprint(os.Stdout, help())
	case "serve", "migrate", "import:players", "import:ratings", "dev:fixtures":
		if err := run(flag.Arg(0), flag.Arg(1)); err != nil {
			log.Fatalf("error: %s", err)
		}
	default:
		fmt.Fprint(os.Stderr, help())
		os.Exit(1)
	}
}

func run(command, arg string) error {
	conf, err := config.NewFromUserConfigDir()
	if err != nil {
		return err
	}

	b, err := back.New(conf)
	if err != nil {
		return err
	}
	defer b.Close()

	switch command {
	case "serve":
		return serve(b, conf)
	case "migrate":
		return printSchemaVersion(b)
	case "import:players":
		return importCSV(arg, b.ImportPlayers)
	case "import:ratings":
		return importCSV(arg, b.ImportRatings)
	case "dev:fixtures":
		return b.LoadFixtures()
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printSchemaVersion(b *back.Back) error {
	version, dirty, err := b.SchemaVersion()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Database schema is at version %d", version)
	if dirty {
		fmt.Fprint(os.Stdout, " (dirty)")
	}
	fmt.Fprintln(os.Stdout)

	return nil
}

func help() string {
	return fmt.Sprintf(`
Puma keeps the ratings of a badminton club and pairs its players into
balanced matches.

Usage: %[1]s COMMAND [ARGS…]

COMMANDS
    dev:fixtures         create default data for quick testing during development
    help                 display this help
    import:players FILE  create the players listed in a CSV file
    import:ratings FILE  set the ratings of existing players from a CSV file
    migrate              apply pending database migrations
    serve                start the HTTP API and the Discord bot
    version              display the current version

The configuration is read from %[2]s
and can be overridden by PUMA_* environment variables or a .env file.
`,
		os.Args[0],
		configPathForHelp(),
	)
}

func configPathForHelp() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "the user configuration directory"
	}

	return dir + "/puma/config.json"
}
