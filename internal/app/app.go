package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "sync":
		return runSync(args[1:])
	case "ingest-events":
		return runIngestEvents(args[1:])
	case "match-videos":
		return runMatchVideos(args[1:])
	case "search":
		return runSearch(args[1:])
	case "list":
		return runList(args[1:])
	case "runs":
		return runRuns(args[1:])
	case "hash-key":
		return runHashKey(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "meetups CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  meetups <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health         Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  sync           Ingest new events, then match videos to unmatched events")
	fmt.Fprintln(os.Stderr, "  ingest-events  Fetch the event snapshot and store new events")
	fmt.Fprintln(os.Stderr, "  match-videos   Fetch candidate videos and link them to unmatched events")
	fmt.Fprintln(os.Stderr, "  search         Search stored events by title or description")
	fmt.Fprintln(os.Stderr, "  list           List stored events, newest first")
	fmt.Fprintln(os.Stderr, "  runs           Show recent sync runs")
	fmt.Fprintln(os.Stderr, "  hash-key       Generate an admin API key and its bcrypt hash")
	fmt.Fprintln(os.Stderr, "  serve          Start Echo API server and the optional sync schedule")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"meetups <command> -h\" for command-specific flags.")
}
