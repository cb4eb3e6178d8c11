package main

import (
	"fmt"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/caremesh/consult-chat-api/api/handlers"
	"github.com/caremesh/consult-chat-api/api/scheduler"
	"github.com/caremesh/consult-chat-api/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil { //initialize database, bus and router
		log.Fatal(err)
	}

	sched := scheduler.NewScheduler(a.Store.Users, a.Store.Memberships, a.Chat)
	sched.Start()
	defer sched.Stop()

	zap.S().Infow("consult-chat-api is up and running",
		"port", a.Config.Port,
		"url", a.Config.BaseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", a.Config.Port), a.Router))
}
