package lib

import (
	"errors"
	"log"
	"os"
)

func Load(path string) error {
	if path == "" {
		os.Exit(2) // want `os.Exit terminates the process`
	}
	if _, err := os.Stat(path); err != nil {
		log.Fatalf("stat: %v", err) // want `log.Fatalf terminates the process`
	}
	l := log.New(os.Stderr, "", 0)
	l.Fatal("boom") // want `\(\*log.Logger\).Fatal terminates the process`
	log.Println("loaded")
	return errors.New("unreachable")
}

func Exit(code int) int { return code }

func Local() int {
	return Exit(1)
}
