// Package main writes a development CA and a server certificate for the
// backend into a directory (./certs by default).
//
//	go run ./tools/devcert
//	server -tls-cert certs/server.crt -tls-key certs/server.key
//	client -url https://localhost:8080 -ca certs/ca.crt
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atinyakov/thestream/internal/devcert"
)

func main() {
	var (
		dir   string
		hosts string
		days  int
	)
	flag.StringVar(&dir, "dir", "certs", "output directory")
	flag.StringVar(&hosts, "hosts", "localhost,127.0.0.1", "comma-separated server host names and IPs")
	flag.IntVar(&days, "days", 365, "certificate validity in days")
	flag.Parse()

	validFor := time.Duration(days) * 24 * time.Hour

	ca, err := devcert.NewAuthority("thestream dev CA", validFor)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	server, err := ca.IssueServer(strings.Split(hosts, ","), validFor)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := devcert.WriteBundle(dir, ca, server); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("Certificates generated into ./%s\n", dir)
}
