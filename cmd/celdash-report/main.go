package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/celdash/cmd/celdash-report/app"
)

func main() {
	app.NewApp().Run()
}
