package main

import (
	"fmt"
	"os"

	"github.com/innerhue/moodsync/internal/cli"
	"github.com/innerhue/moodsync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	build := models.NewAppBuildInfo(orNA(buildVersion), orNA(buildDate), orNA(buildCommit))

	if err := cli.NewRootCmd(build).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}
