// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command aurora-sql queries the auroradb database for a run's BER
// history, either one-shot or through an interactive shell.
package main // import "github.com/go-daq/aurora66b/cmd/aurora-sql"

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/go-daq/aurora66b/auroradb"
)

func main() {
	log.SetPrefix("aurora-sql: ")
	log.SetFlags(0)

	var (
		dbname      = flag.String("db", "aurora", "name of the auroradb database to query")
		run         = flag.String("run", "", "run ID to inspect")
		interactive = flag.Bool("i", false, "start an interactive shell")
	)

	flag.Parse()

	db, err := auroradb.Open(*dbname)
	if err != nil {
		log.Fatalf("could not open auroradb: %+v", err)
	}
	defer db.Close()

	if *interactive {
		if err := shell(db, *run); err != nil {
			log.Fatalf("could not run interactive shell: %+v", err)
		}
		return
	}

	if *run == "" {
		log.Fatalf("missing -run run ID")
	}

	if err := doQuery(db, *run); err != nil {
		log.Fatalf("could not do query: %+v", err)
	}
}

func doQuery(db *auroradb.DB, runID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hist, err := db.BERHistory(ctx, runID)
	if err != nil {
		return fmt.Errorf("could not get BER history (run=%q): %w", runID, err)
	}
	log.Printf("ber history: %d samples", len(hist))
	for i, s := range hist {
		log.Printf("row[%d]: ber=%d at=%s", i, s.BER, s.ObservedAt.Format(time.RFC3339))
	}

	return nil
}

// shell drives an interactive liner session over db: "ber <run>" prints
// BER history for run, "quit" exits.
func shell(db *auroradb.DB, run string) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Println(`aurora-sql interactive shell. Commands:
  ber <run>    print BER history for <run>
  quit         exit`)

	for {
		cmd, err := line.Prompt("aurora-sql> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				return nil
			}
			return fmt.Errorf("could not read command: %w", err)
		}
		line.AppendHistory(cmd)

		cmd = strings.TrimSpace(cmd)
		switch {
		case cmd == "" || strings.HasPrefix(cmd, "#"):
			continue
		case cmd == "quit" || cmd == "exit":
			return nil
		case strings.HasPrefix(cmd, "ber"):
			args := strings.Fields(cmd)
			runID := run
			if len(args) > 1 {
				runID = args[1]
			}
			if runID == "" {
				fmt.Println("usage: ber <run>")
				continue
			}
			if err := doQuery(db, runID); err != nil {
				fmt.Printf("error: %+v\n", err)
			}
		default:
			fmt.Printf("unknown command %q\n", cmd)
		}
	}
}
