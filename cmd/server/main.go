package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/kuelshammer/LogicCastle-sub007/internal/game"
	"github.com/kuelshammer/LogicCastle-sub007/internal/game/connectfour"
	"github.com/kuelshammer/LogicCastle-sub007/internal/game/gomoku"
	"github.com/kuelshammer/LogicCastle-sub007/internal/game/lgame"
	"github.com/kuelshammer/LogicCastle-sub007/internal/game/trio"
	"github.com/kuelshammer/LogicCastle-sub007/internal/server"
	"github.com/kuelshammer/LogicCastle-sub007/internal/session"
	"github.com/kuelshammer/LogicCastle-sub007/internal/storage"
)

func main() {
	addr := ":8080"
	if p := os.Getenv("PORT"); p != "" {
		addr = ":" + p
	}

	dbPath := "logiccastle.db"
	if p := os.Getenv("DB_PATH"); p != "" {
		dbPath = p
	}

	store, err := storage.New(dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer store.Close()

	registry := game.NewRegistry()
	registry.Register(connectfour.ConnectFour{})
	registry.Register(gomoku.Gomoku{})
	registry.Register(lgame.LGame{})
	registry.Register(trio.Trio{})

	mgr := session.NewManager(registry, store)
	if err := mgr.Restore(); err != nil {
		log.Printf("warning: restore sessions: %v", err)
	}

	// Cleanup stale sessions every minute, remove after 1 hour
	go mgr.CleanupLoop(1*time.Minute, 1*time.Hour)

	srv := server.New(registry, mgr)

	log.Printf("listening on %s", addr)
	if err := http.ListenAndServe(addr, srv); err != nil {
		log.Fatalf("server: %v", err)
	}
}
