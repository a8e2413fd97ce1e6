package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"horse.fit/meetups/internal/cli"
	"horse.fit/meetups/internal/db"
	"horse.fit/meetups/internal/meetup"
)

func runSearch(args []string) int {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	query := fs.String("query", "", "Text matched against title, description and description text")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "search does not accept positional arguments")
		return 2
	}

	trimmedQuery := strings.TrimSpace(*query)
	if trimmedQuery == "" {
		fmt.Fprintln(os.Stderr, "--query is required")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	sess, err := openSession(envLoader, *timeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer sess.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	service := meetup.NewService(sess.pool, nil, nil, nil, meetup.Options{}, sess.logger)
	items, err := service.Search(ctx, trimmedQuery)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to search meetups: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(items); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	writeMeetupTable(items)
	return 0
}

func runList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	page := fs.Int("page", 1, "Page number, starting at 1")
	pageSize := fs.Int("page-size", meetup.DefaultPageSize, "Meetups per page")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "list does not accept positional arguments")
		return 2
	}
	if *page <= 0 {
		fmt.Fprintln(os.Stderr, "--page must be > 0")
		return 2
	}
	if *pageSize <= 0 || *pageSize > meetup.MaxPageSize {
		fmt.Fprintf(os.Stderr, "--page-size must be between 1 and %d\n", meetup.MaxPageSize)
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	sess, err := openSession(envLoader, *timeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer sess.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	service := meetup.NewService(sess.pool, nil, nil, nil, meetup.Options{}, sess.logger)
	result, err := service.List(ctx, *page, *pageSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list meetups: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(result); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	writeMeetupTable(result.Items)
	fmt.Printf("page %d, %d of %d meetups\n", result.Page, len(result.Items), result.Total)
	return 0
}

func runRuns(args []string) int {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	limit := fs.Int("limit", 20, "Maximum runs to return")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *limit <= 0 {
		fmt.Fprintln(os.Stderr, "--limit must be > 0")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	sess, err := openSession(envLoader, *timeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer sess.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	runs, err := sess.pool.ListSyncRuns(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list sync runs: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(runs); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	writeSyncRunTable(runs)
	return 0
}

func writeMeetupTable(items []db.Meetup) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatInt(item.MeetupID, 10),
			item.ExternalEventID,
			truncateForTable(item.Title, 48),
			formatTimestamp(item.StartDate),
			pointerStringOrEmpty(item.VideoURL),
		})
	}
	writeTable(
		[]string{"ID", "Event", "Title", "Starts", "Video"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
	)
}

func writeSyncRunTable(runs []db.SyncRun) {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.RunUUID,
			run.Trigger,
			run.Status,
			strconv.Itoa(run.EventsInserted),
			strconv.Itoa(run.VideosMatched),
			formatTimestamp(run.StartedAt),
			formatTimestampPtr(run.FinishedAt),
			truncateForTable(pointerStringOrEmpty(run.ErrorMessage), 48),
		})
	}
	writeTable(
		[]string{"Run", "Trigger", "Status", "Inserted", "Matched", "Started", "Finished", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft, alignLeft},
	)
}
