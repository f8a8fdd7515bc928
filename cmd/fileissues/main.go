package main

import (
	"os"

	"sitewatch/pkg/cli"
)

// fileissues is the issue filer on its own, for jobs that run it after `sitewatch run`
func main() {
	if err := cli.ExecuteFileIssues(); err != nil {
		os.Exit(1)
	}
}
