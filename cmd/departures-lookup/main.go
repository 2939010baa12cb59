package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"departure_finder/internal/departures"
	"departure_finder/internal/finder"
	"departure_finder/internal/geo"
	"departure_finder/internal/maps"
	"departure_finder/internal/results"
	"departure_finder/internal/selection"
	"departure_finder/platform/config"
	"departure_finder/platform/logger"
	"departure_finder/platform/validator"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one lookup and returns the process exit code. Logs go to
// stderr so stdout carries only the table or the raw panel.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("departures-lookup", flag.ContinueOnError)
	fs.SetOutput(stderr)
	from := fs.String("from", "", "start point as lat,lng")
	to := fs.String("to", "", "destination point as lat,lng")
	fromAddress := fs.String("from-address", "", "start point as a street address")
	toAddress := fs.String("to-address", "", "destination point as a street address")
	limit := fs.String("limit", "", "number of departures (1-20)")
	departAt := fs.String("time", "", "departure time as 2006-01-02T15:04, empty for now")
	raw := fs.Bool("raw", false, "print the raw response instead of the table")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		return fail(stderr, fmt.Errorf("load config: %w", err))
	}

	log := logger.NewWithWriter(cfg.Env, stderr)
	ctx := context.Background()

	ctrl := finder.NewController(finder.Deps{
		Searcher:  departures.NewClient(cfg, log),
		Validator: validator.New(),
		Location:  cfg.GetDisplayLocation(),
		Logger:    log,
	})
	geocoder := maps.NewService(cfg, log)

	if err := place(ctx, stdout, ctrl, geocoder, selection.RoleStart, *from, *fromAddress); err != nil {
		return fail(stderr, err)
	}
	if err := place(ctx, stdout, ctrl, geocoder, selection.RoleEnd, *to, *toAddress); err != nil {
		return fail(stderr, err)
	}
	if *limit != "" {
		ctrl.SetLimit(*limit)
	}
	if isSet(fs, "time") {
		ctrl.SetDepartureTime(*departAt)
	}

	if err := ctrl.Search(ctx); err != nil {
		return fail(stderr, err)
	}

	view := ctrl.View()
	result, visible := ctrl.Result()
	if *raw {
		_, _ = fmt.Fprintln(stdout, view.Debug.Raw)
	}
	if !visible {
		return fail(stderr, errors.New(view.Status.Message))
	}
	if *raw {
		return 0
	}

	_, _ = fmt.Fprintf(stdout, "%s -> %s\n", view.Start.Display, view.End.Display)
	if err := results.Text(stdout, result, cfg.GetDisplayLocation()); err != nil {
		return fail(stderr, err)
	}
	return 0
}

func place(ctx context.Context, out io.Writer, ctrl *finder.Controller, geocoder *maps.Service, role selection.Role, coords, address string) error {
	switch {
	case coords != "":
		p, err := geo.ParsePoint(coords)
		if err != nil {
			return fmt.Errorf("%s point: %w", role, err)
		}
		return ctrl.PlacePoint(role, p)
	case address != "":
		lookupCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		p, label, err := geocoder.Locate(lookupCtx, address)
		if err != nil {
			return fmt.Errorf("%s address %q: %w", role, address, err)
		}
		_, _ = fmt.Fprintf(out, "%s: %s\n", role, label)
		return ctrl.PlacePoint(role, p)
	default:
		return fmt.Errorf("%s point is required (--%s or --%s-address)", role, flagPrefix(role), flagPrefix(role))
	}
}

func flagPrefix(role selection.Role) string {
	if role == selection.RoleStart {
		return "from"
	}
	return "to"
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func fail(stderr io.Writer, err error) int {
	_, _ = fmt.Fprintln(stderr, "error:", err)
	return 1
}
