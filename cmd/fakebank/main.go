package main

import (
	"flag"
	"log"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/punchamoorthee/bankfront/internal/fakebank"
)

func main() {
	port := flag.String("port", "8080", "listen port")
	seed := flag.Bool("seed", false, "provision a demo user with funded accounts")
	flag.Parse()

	store := fakebank.NewStore()
	if *seed {
		store.Seed()
		log.Println("seeded demo user (demo/password) with two accounts")
	}

	server := fakebank.NewServer(store, slog.Default())
	server.Router().Handle("/metrics", promhttp.Handler())

	log.Printf("fakebank listening on :%s", *port)
	if err := http.ListenAndServe(":"+*port, server); err != nil {
		log.Fatal(err)
	}
}
