// Command pbserve runs an embedded PocketBase with the attendance collections migrated in.
//
//	go run ./scripts/pbserve serve --http=0.0.0.0:8090
//	go run ./scripts/pbserve migrate up
package main

import (
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"

	_ "attendance-report/migrations"
)

func main() {
	app := pocketbase.New()

	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: false,
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
