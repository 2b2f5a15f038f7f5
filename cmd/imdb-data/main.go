package main

import (
	"imdb-data/cmd/imdb-data/commands"
	"imdb-data/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
