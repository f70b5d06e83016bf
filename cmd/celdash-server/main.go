package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/celdash/cmd/celdash-server/app"
)

func main() {
	app.NewApp().Run()
}
