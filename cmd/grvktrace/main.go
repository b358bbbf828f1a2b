// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/grvk/utility/trace"
)

var (
	asJSON     = flag.Bool("json", false, "Print calls as JSON")
	failedOnly = flag.Bool("failed", false, "Only print calls that did not succeed")
	name       = flag.String("name", "", "Only print calls whose name contains this")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] trace.grt\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	tr, err := trace.OpenFile(flag.Arg(0))
	if err != nil {
		log.WithError(err).WithField("file", flag.Arg(0)).Fatal("cannot read trace")
	}

	calls := filter(tr.Calls)
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(calls); err != nil {
			log.WithError(err).Fatal("encode calls")
		}
		return
	}

	fmt.Printf("author: %s, created: %s, version: %d, calls: %d\n",
		tr.Header.Author,
		time.Unix(tr.Header.DateCreated, 0).Format(time.RFC3339),
		tr.Header.Version,
		tr.Header.Calls)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, call := range calls {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", call.Seq, call.Name, call.Result, call.Args)
	}
	w.Flush()
}

func filter(calls []trace.Call) []trace.Call {
	filtered := calls[:0:0]
	for _, call := range calls {
		if *failedOnly && call.Result == "GR_SUCCESS" {
			continue
		}
		if *name != "" && !strings.Contains(call.Name, *name) {
			continue
		}
		filtered = append(filtered, call)
	}
	return filtered
}
