package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"tour-ops-backend/internal/db"
	"tour-ops-backend/internal/feed"
	"tour-ops-backend/internal/live"
	"tour-ops-backend/internal/parse"
	"tour-ops-backend/internal/store"
	"tour-ops-backend/internal/timeline"
)

// cellMinutes is the width of one character on the rendered axis.
const cellMinutes = 30

func newTimelineCmd(load configLoader) *cobra.Command {
	var (
		date string
		sync bool
	)
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Print the packed timeline and hour load of one day",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			engine := timeline.New(cfg.Timeline.EngineOptions())

			now := time.Now().In(engine.Location())
			day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, engine.Location())
			if date != "" {
				if day, err = parse.ParseDay(date, engine.Location()); err != nil {
					return err
				}
			}

			gormDB, err := db.Init(&cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			appStore := store.NewGormStore(gormDB)
			ctx := cmd.Context()

			if sync {
				if _, err := feed.NewSyncer(feed.NewClient(cfg.Feed), appStore).SyncDay(ctx, parse.DayKey(day)); err != nil {
					return err
				}
			}

			rows, err := appStore.BookingsForDay(ctx, parse.DayKey(day))
			if err != nil {
				return err
			}
			threshold := resolveThreshold(ctx, appStore, cfg.Timeline.BusyThreshold)

			list := live.ToTimeline(rows, day)
			bars := engine.Pack(list)
			render(cmd.OutOrStdout(), live.Snapshot{
				Day:         day,
				EvaluatedAt: now,
				Bars:        bars,
				Rows:        timeline.RowCount(bars),
				View:        engine.DailyView(list, now, day, threshold),
			})
			return nil
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "day to render (YYYY-MM-DD), defaults to today")
	cmd.Flags().BoolVar(&sync, "sync", false, "refresh the day from the booking feed first")
	return cmd
}

// resolveThreshold prefers the stored busy threshold over the configured one.
func resolveThreshold(ctx context.Context, s store.Store, configured *int) *int {
	threshold, err := s.BusyThreshold(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read busy threshold, using configured value")
		return configured
	}
	if threshold == nil {
		return configured
	}
	return threshold
}

var statusMark = map[timeline.Status]byte{
	timeline.StatusPending:   '=',
	timeline.StatusActive:    '#',
	timeline.StatusCompleted: '-',
}

// render draws one line per row on a 30-minute grid followed by the busy hour summary.
func render(w io.Writer, snap live.Snapshot) {
	cells := timeline.DayMinutes / cellMinutes
	fmt.Fprintf(w, "%s  rows=%d active=%d completed=%d remaining=%d threshold=%d\n",
		parse.DayKey(snap.Day), snap.Rows, snap.View.Counts.Active, snap.View.Counts.Completed,
		snap.View.Counts.Remaining, snap.View.Threshold)

	var axis strings.Builder
	for h := 0; h < timeline.HoursPerDay; h += 3 {
		axis.WriteString(fmt.Sprintf("%-6s", fmt.Sprintf("%02d", h)))
	}
	fmt.Fprintf(w, "     %s\n", axis.String())

	lines := make([][]byte, snap.Rows)
	for i := range lines {
		lines[i] = []byte(strings.Repeat(" ", cells))
	}
	for _, bar := range snap.Bars {
		mark := statusMark[snap.View.Statuses[bar.BookingID]]
		first := bar.Start / cellMinutes
		last := (bar.End - 1) / cellMinutes
		if last >= cells {
			last = cells - 1
		}
		for c := first; c <= last; c++ {
			lines[bar.Row][c] = mark
		}
	}
	for i, line := range lines {
		fmt.Fprintf(w, "%3d |%s|\n", i, line)
	}

	for _, b := range snap.View.Hours {
		if b.Bookings == 0 {
			continue
		}
		flag := ""
		if b.Busy {
			flag = " busy"
		}
		fmt.Fprintf(w, "%02d:00  departures=%d load=%d%s\n", b.Hour, b.Bookings, b.Weight, flag)
	}
}
