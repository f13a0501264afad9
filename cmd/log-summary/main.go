package main

import (
	"os"

	"github.com/turbot/tailpipe-log-summary/logging"
)

const appName = "log-summary"

func main() {
	logging.Initialize(appName)
	os.Exit(Execute(os.Args[1:]))
}
