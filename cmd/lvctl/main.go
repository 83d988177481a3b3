// Command lvctl is the lessonvault debugging and maintenance CLI.
//
// Usage:
//
//	lvctl                        Show help
//	lvctl token -user <id>       Mint an access token
//	lvctl seed -user <id>        Insert demo content for a user
//	lvctl stats -user <id>       Run the fetch pipeline and summarize it
//	lvctl events                 Per-fetch summaries from the event log
package main

import (
	"fmt"
	"os"
)

const usage = `lvctl: lessonvault debug & maintenance CLI

Usage:
  lvctl <command> [flags]

Commands:
  token       Mint an HS256 access token signed with the configured jwt_secret
  seed        Insert demo content for a user into the sqlite store
  stats       Fetch a user's content through the pipeline and summarize it
  events      Summarize fetches from the event log (-lines for single events)

Environment:
  LESSONVAULT_DB          sqlite database path
  LESSONVAULT_JWT_SECRET  token signing secret

Run 'lvctl <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "token":
		runToken()
	case "seed":
		runSeed()
	case "stats":
		runStats()
	case "events":
		runEvents()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "lvctl: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
