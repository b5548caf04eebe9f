package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/RevCBH/plangate/internal/cli"
	"github.com/RevCBH/plangate/internal/review"
)

// Build-time variables (set via ldflags)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	app := cli.New()
	app.SetVersion(version, commit, date)

	if err := app.Execute(); err != nil {
		// A cancelled review is an outcome, not a failure
		if errors.Is(err, review.ErrReviewCancelled) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
