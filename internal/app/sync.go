package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/meetups/internal/cli"
	"horse.fit/meetups/internal/meetup"
	"horse.fit/meetups/internal/synclock"
)

type pipelineFlags struct {
	envLoader *cli.EnvLoader
	timeout   *time.Duration
	lockFile  *string
	format    *string
}

func addPipelineFlags(fs *flag.FlagSet) pipelineFlags {
	return pipelineFlags{
		envLoader: cli.AddEnvFlag(fs, ".env", "Path to the .env file"),
		timeout:   fs.Duration("timeout", 10*time.Minute, "Command timeout"),
		lockFile:  fs.String("lock-file", synclock.DefaultPath(), "Host-level lock file guarding concurrent runs"),
		format:    fs.String("format", outputFormatTable, "Output format: table or json"),
	}
}

type pipelineRun struct {
	ctx     context.Context
	service *meetup.Service
	logger  zerolog.Logger
	format  string
	release func()
}

func (r *pipelineRun) Close() {
	if r != nil && r.release != nil {
		r.release()
	}
}

// preparePipeline parses flags, takes the sync lock and wires the service.
// A nil run means the command is done and code is its exit code.
func preparePipeline(name string, args []string) (run *pipelineRun, code int) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	flags := addPipelineFlags(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, 0
		}
		return nil, 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s does not accept positional arguments\n", name)
		return nil, 2
	}
	if *flags.timeout <= 0 {
		fmt.Fprintln(os.Stderr, "--timeout must be > 0")
		return nil, 2
	}
	format, err := parseOutputFormat(*flags.format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return nil, 2
	}

	lock, err := synclock.Acquire(*flags.lockFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start %s: %v\n", name, err)
		return nil, 1
	}

	sess, err := openSession(flags.envLoader, 10*time.Second)
	if err != nil {
		_ = lock.Unlock()
		fmt.Fprintln(os.Stderr, err)
		return nil, 1
	}

	service, _, err := buildService(sess.cfg, sess.pool, nil, sess.logger)
	if err != nil {
		sess.Close()
		_ = lock.Unlock()
		fmt.Fprintf(os.Stderr, "Failed to build meetup service: %v\n", err)
		return nil, 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *flags.timeout)
	return &pipelineRun{
		ctx:     ctx,
		service: service,
		logger:  sess.logger,
		format:  format,
		release: func() {
			cancel()
			sess.Close()
			_ = lock.Unlock()
		},
	}, 0
}

func runSync(args []string) int {
	run, code := preparePipeline("sync", args)
	if run == nil {
		return code
	}
	defer run.Close()

	result, err := run.service.Sync(run.ctx, meetup.TriggerCLI)
	if errors.Is(err, meetup.ErrServiceDisabled) {
		fmt.Fprintln(os.Stderr, "Meetup sync is disabled; set MEETUP_SYNC_ACTIVE=true to enable it")
		return 1
	}

	if run.format == outputFormatJSON {
		if encErr := printJSON(result); encErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", encErr)
			return 1
		}
	} else {
		printIngestOutcomes(result.Ingest)
		printMatches(result.Match)
		fmt.Printf("run %s %s: %s\n", result.RunUUID, result.Status, result.Summary())
	}

	if err != nil {
		run.logger.Error().Err(err).Str("run_uuid", result.RunUUID).Msg("sync finished with errors")
		fmt.Fprintf(os.Stderr, "Sync finished with errors: %v\n", err)
		return 1
	}
	return 0
}

func runIngestEvents(args []string) int {
	run, code := preparePipeline("ingest-events", args)
	if run == nil {
		return code
	}
	defer run.Close()

	result, err := run.service.IngestEvents(run.ctx)
	if errors.Is(err, meetup.ErrServiceDisabled) {
		fmt.Fprintln(os.Stderr, "Meetup sync is disabled; set MEETUP_SYNC_ACTIVE=true to enable it")
		return 1
	}
	if err != nil {
		run.logger.Error().Err(err).Msg("ingest events failed")
		fmt.Fprintf(os.Stderr, "Failed to ingest events: %v\n", err)
		return 1
	}

	if run.format == outputFormatJSON {
		if err := printJSON(result); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}
	printIngestOutcomes(result)
	fmt.Printf("fetched=%d inserted=%d skipped=%d failed=%d\n", result.Fetched, result.Inserted, result.Skipped, result.Failed)
	return 0
}

func runMatchVideos(args []string) int {
	run, code := preparePipeline("match-videos", args)
	if run == nil {
		return code
	}
	defer run.Close()

	result, err := run.service.MatchVideos(run.ctx)
	if errors.Is(err, meetup.ErrServiceDisabled) {
		fmt.Fprintln(os.Stderr, "Meetup sync is disabled; set MEETUP_SYNC_ACTIVE=true to enable it")
		return 1
	}
	if err != nil {
		run.logger.Error().Err(err).Msg("match videos failed")
		fmt.Fprintf(os.Stderr, "Failed to match videos: %v\n", err)
		return 1
	}

	if run.format == outputFormatJSON {
		if err := printJSON(result); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}
	printMatches(result)
	fmt.Printf("candidates=%d videos=%d matched=%d\n", result.Candidates, result.Videos, result.Matched)
	return 0
}

func printIngestOutcomes(result meetup.IngestResult) {
	if len(result.Outcomes) == 0 {
		return
	}
	rows := make([][]string, 0, len(result.Outcomes))
	for _, outcome := range result.Outcomes {
		meetupID := ""
		if outcome.MeetupID > 0 {
			meetupID = strconv.FormatInt(outcome.MeetupID, 10)
		}
		detail := ""
		if outcome.Err != nil {
			detail = truncateForTable(outcome.Err.Error(), 72)
		}
		rows = append(rows, []string{outcome.ExternalEventID, string(outcome.Status), meetupID, detail})
	}
	writeTable(
		[]string{"Event", "Outcome", "Meetup", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func printMatches(result meetup.MatchResult) {
	if len(result.Matches) == 0 {
		return
	}
	rows := make([][]string, 0, len(result.Matches))
	for _, match := range result.Matches {
		rows = append(rows, []string{
			strconv.FormatInt(match.MeetupID, 10),
			truncateForTable(match.Title, 40),
			truncateForTable(match.VideoTitle, 40),
			strconv.FormatFloat(match.Score, 'f', 3, 64),
			match.VideoURL,
		})
	}
	writeTable(
		[]string{"Meetup", "Title", "Video", "Score", "URL"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	)
}
