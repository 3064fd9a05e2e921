// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command aurora-watch polls a directory of Aurora capture files, alerting
// by e-mail when a file stops growing or when its decoded bit-error rate
// or alignment search degrades.
package main // import "github.com/go-daq/aurora66b/cmd/aurora-watch"

import (
	"crypto/tls"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	mail "gopkg.in/gomail.v2"

	"github.com/go-daq/aurora66b/aurora"
)

func main() {
	var (
		dir     = flag.String("dir", "", "directory to monitor")
		glob    = flag.String("glob", "*.aurora", "glob pattern of capture files to monitor")
		freq    = flag.Duration("freq", 30*time.Second, "probing interval")
		berMax  = flag.Int("ber-max", 5, "bit-error-rate percentage above which an alert fires")
		pct     = flag.Int("pct", 90, "alignment-search threshold, in percent")
		samples = flag.Int("samplesize", 64, "alignment-search sample size, in frames")
	)

	flag.Parse()

	log.SetPrefix("aurora-watch: ")
	log.SetFlags(0)

	srv := newServer(*dir, *glob, *freq, *berMax, *pct, *samples)
	log.Printf("watching %q every %v...", *dir, *freq)
	srv.run()
}

type server struct {
	dir     string
	glob    string
	freq    time.Duration
	berMax  int
	pct     int
	samples int

	sizes     map[string]int64
	alerts    map[string]int
	syncFails map[string]int
}

// syncFailAlertThreshold is how many consecutive alignment-search
// failures a file must accumulate before it triggers a mail alert: a
// single failed probe is expected right after a file is created, before
// enough frames have landed to synchronize on.
const syncFailAlertThreshold = 3

func newServer(dir, glob string, freq time.Duration, berMax, pct, samples int) *server {
	return &server{
		dir:       dir,
		glob:      glob,
		freq:      freq,
		berMax:    berMax,
		pct:       pct,
		samples:   samples,
		sizes:     make(map[string]int64),
		alerts:    make(map[string]int),
		syncFails: make(map[string]int),
	}
}

func (srv *server) run() {
	tick := time.NewTicker(srv.freq)
	defer tick.Stop()

	for range tick.C {
		cur, err := srv.list()
		if err != nil {
			log.Printf("could not list files: %+v", err)
			continue
		}
		srv.checkStalled(cur)
		srv.checkDecode(cur)
		srv.sizes = cur
	}
}

func (srv *server) list() (map[string]int64, error) {
	table := make(map[string]int64)
	glob := filepath.Join(srv.dir, srv.glob)
	files, err := filepath.Glob(glob)
	if err != nil {
		return nil, fmt.Errorf("could not glob %q: %w", glob, err)
	}
	for _, fname := range files {
		fi, err := os.Stat(fname)
		if err != nil {
			return nil, fmt.Errorf("could not stat %q: %w", fname, err)
		}
		table[fname] = fi.Size()
	}
	return table, nil
}

// checkStalled alerts on any file whose size hasn't changed since the
// previous tick.
func (srv *server) checkStalled(cur map[string]int64) {
	for fname, size := range cur {
		prev, ok := srv.sizes[fname]
		if !ok {
			continue // file just appeared; nothing to compare against.
		}
		if prev == size {
			srv.alert(fname, fmt.Sprintf("file did not grow in the last %v (size=%d bytes)", srv.freq, size))
		}
	}
}

// checkDecode runs the alignment search and a BER pass on every file that
// grew since the previous tick. A bit-error rate over the configured
// threshold alerts immediately; an alignment failure only alerts once it
// has happened syncFailAlertThreshold times in a row for the same file,
// since early probes on a freshly-created file are expected to fail
// before enough frames have landed.
func (srv *server) checkDecode(cur map[string]int64) {
	for fname, size := range cur {
		if prev, ok := srv.sizes[fname]; ok && prev == size {
			continue
		}
		buf, err := readWords(fname)
		if err != nil {
			log.Printf("could not read %q: %+v", fname, err)
			continue
		}

		rx := aurora.NewReceiver(buf, srv.pct, srv.samples)
		if !rx.Synchronize() {
			srv.syncFails[fname]++
			if srv.syncFails[fname] >= syncFailAlertThreshold {
				srv.alert(fname, fmt.Sprintf("%v (%d consecutive failures)", rx.AlignmentError(), srv.syncFails[fname]))
			}
			continue
		}
		srv.syncFails[fname] = 0

		rx.Process(false)
		if ber := rx.BER(); ber > srv.berMax {
			srv.alert(fname, fmt.Sprintf("bit-error rate %d%% exceeds threshold %d%%", ber, srv.berMax))
		}
	}
}

func readWords(fname string) ([]uint32, error) {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return nil, fmt.Errorf("could not read %q: %w", fname, err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("aurora-watch: %q size %d is not a multiple of 4 bytes", fname, len(raw))
	}
	buf := make([]uint32, len(raw)/4)
	for i := range buf {
		buf[i] = binary.BigEndian.Uint32(raw[4*i:])
	}
	return buf, nil
}

func (srv *server) alert(fname, reason string) {
	log.Printf("%s: %s", fname, reason)
	srv.alerts[fname]++

	const maxAlerts = 5
	if srv.alerts[fname] < maxAlerts {
		srv.alertMail(fname, reason)
	}
}

var (
	alertMailUsr  = os.Getenv("MAIL_USERNAME")
	alertMailPwd  = os.Getenv("MAIL_PASSWORD")
	alertMailSrv  = os.Getenv("MAIL_SERVER")
	alertMailPort = atoi(os.Getenv("MAIL_PORT"))
	alertMailTgts = strings.Split(os.Getenv("MAIL_TGTS"), ",")
)

func (srv *server) alertMail(fname, reason string) {
	if alertMailUsr == "" || alertMailPwd == "" ||
		alertMailSrv == "" || alertMailPort == 0 ||
		len(alertMailTgts) == 0 {
		log.Printf("could not send mail alert: missing credentials")
		return
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", alertMailUsr)
	msg.SetHeader("Bcc", alertMailTgts...)
	msg.SetHeader("Subject", fmt.Sprintf("[aurora-watch] alert: %q", fname))
	msg.SetBody("text/plain", fmt.Sprintf("file: %q\nreason: %s\n", fname, reason))

	dial := mail.NewDialer(alertMailSrv, alertMailPort, alertMailUsr, alertMailPwd)
	dial.TLSConfig = &tls.Config{
		InsecureSkipVerify: true,
	}
	err := dial.DialAndSend(msg)
	if err != nil {
		log.Printf("could not send mail alert: %+v", err)
	}
}

func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
