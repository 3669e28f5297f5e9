package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"speech_tracker/internal/cache"
	"speech_tracker/internal/chapters"
	"speech_tracker/internal/config"
	"speech_tracker/internal/db"
	"speech_tracker/internal/fingerprint"
	"speech_tracker/internal/ingest"
	"speech_tracker/internal/pipeline"
	"speech_tracker/internal/speech"
	"speech_tracker/internal/workspace"
)

func newAnalyzeCmd(log *logrus.Logger) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "analyze <manuscript>",
		Short: "Detect speech consistency changes across a manuscript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runAnalyze(ctx, log, args[0], workers)
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "character workers (0 = NumCPU)")
	return cmd
}

func runAnalyze(ctx context.Context, log *logrus.Logger, path string, workers int) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if workers > 0 {
		cfg.Analysis.Workers = workers
	}

	env, err := prepare(log, path)
	if err != nil {
		return err
	}
	defer env.conn.Close()

	store := cache.NewStore(env.conn, cfg.Cache.MaxEntries)
	tracker, err := speech.NewTracker(cfg, env.project.ID, env.fp, store, speech.Collaborators{}, log)
	if err != nil {
		return err
	}

	results, err := pipeline.Run(ctx, tracker, env.speakers, env.narrative, cfg.Analysis.Workers)
	if err != nil {
		return err
	}

	var alerts []speech.Alert
	var failed []string
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r.Character)
			log.WithField("character", r.Character).WithError(r.Err).Error("character analysis failed")
			continue
		}
		alerts = append(alerts, r.Alerts...)
	}

	if err := persistAlerts(env.conn, env.project.ID, alerts); err != nil {
		return err
	}

	stats := store.Stats()
	log.WithFields(logrus.Fields{
		"hits":     stats.Hits(),
		"misses":   stats.Misses,
		"hit_rate": fmt.Sprintf("%.2f", stats.HitRate()),
	}).Info("cache performance")

	report := workspace.Report{
		BookTitle:        env.book.Title,
		Fingerprint:      env.fp,
		WordCount:        len(strings.Fields(env.book.Text)),
		ChapterCount:     len(env.chapterList),
		SpeakerCount:     len(env.speakers),
		Alerts:           alerts,
		FailedCharacters: failed,
		CacheHits:        stats.Hits(),
		CacheMisses:      stats.Misses,
	}
	if err := workspace.SaveReport(env.project.ReportPath, report); err != nil {
		return err
	}

	fmt.Printf("%d alert(s) across %d speaker(s); report written to %s\n", len(alerts), len(env.speakers), env.project.ReportPath)
	for _, a := range alerts {
		fmt.Printf("  %-8s %s: chapters %d-%d vs %d-%d (confidence %.2f, %d metric(s))\n",
			strings.ToUpper(a.Severity.String()), a.Character,
			a.Window1.Start, a.Window1.End, a.Window2.Start, a.Window2.End,
			a.Confidence, len(a.ChangedMetrics))
	}
	return nil
}

func newCharactersCmd(log *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "characters <manuscript>",
		Short: "List extracted speakers and their dialogue volume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			book, err := ingest.ParseFile(args[0])
			if err != nil {
				return err
			}
			speakers := chapters.ExtractSpeakers(chapters.Split(book.Text))
			for _, sp := range speakers {
				words := sp.DialogueWords()
				status := "eligible"
				if words < cfg.Analysis.MinTotalWords {
					status = "below dialogue minimum"
				}
				fmt.Printf("%-20s %4d utterance(s) %6d word(s)  %s\n", sp.Name, len(sp.Utterances), words, status)
			}
			return nil
		},
	}
}

func newCacheGCCmd(log *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "cache-gc <manuscript>",
		Short: "Delete cache rows orphaned by older revisions of the manuscript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := prepare(log, args[0])
			if err != nil {
				return err
			}
			defer env.conn.Close()

			n, err := db.DeleteStaleCache(env.conn, env.project.ID, env.fp)
			if err != nil {
				return err
			}
			fmt.Printf("removed %d stale cache row(s)\n", n)
			return nil
		},
	}
}

// env is everything shared by the subcommands: parsed book, project dirs,
// open database, extracted speakers.
type env struct {
	book        *ingest.Manuscript
	project     *workspace.Project
	conn        *sql.DB
	fp          string
	chapterList []chapters.Chapter
	speakers    []speech.Speaker
	narrative   map[int]string
}

func prepare(log *logrus.Logger, path string) (*env, error) {
	book, err := ingest.ParseFile(path)
	if err != nil {
		return nil, err
	}

	base := flagWorkspace
	if base == "" {
		base, err = workspace.EnsureDefault()
	} else {
		base, err = workspace.EnsureAt(base)
	}
	if err != nil {
		return nil, err
	}

	project, err := workspace.OpenProject(base, book.Title)
	if err != nil {
		return nil, err
	}

	conn, err := db.Open(project.CachePath)
	if err != nil {
		return nil, err
	}

	chapterList := chapters.Split(book.Text)
	e := &env{
		book:        book,
		project:     project,
		conn:        conn,
		fp:          fingerprint.Compute(book.Text),
		chapterList: chapterList,
		speakers:    chapters.ExtractSpeakers(chapterList),
		narrative:   chapters.NarrativeByChapter(chapterList),
	}
	log.WithFields(logrus.Fields{
		"title":       book.Title,
		"chapters":    len(chapterList),
		"speakers":    len(e.speakers),
		"fingerprint": e.fp,
	}).Debug("manuscript prepared")
	return e, nil
}

func persistAlerts(conn *sql.DB, project string, alerts []speech.Alert) error {
	rows := make([]db.AlertRow, 0, len(alerts))
	for _, a := range alerts {
		payload, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encode alert: %w", err)
		}
		rows = append(rows, db.AlertRow{
			Character:    a.Character,
			Window1Start: a.Window1.Start,
			Window1End:   a.Window1.End,
			Window2Start: a.Window2.Start,
			Window2End:   a.Window2.End,
			Confidence:   a.Confidence,
			Severity:     a.Severity.String(),
			Payload:      payload,
		})
	}
	return db.ReplaceAlerts(conn, project, rows)
}
