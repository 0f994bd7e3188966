package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
)

// Progress bars go to stderr; set VORBISEDIT_NO_PROGRESS to turn them off.
var noProgress = os.Getenv("VORBISEDIT_NO_PROGRESS") != ""

type command struct {
	name    string
	usage   string
	summary string
	run     func(ctx context.Context, args []string) error
}

var commands = []command{
	{"info", "[-spool] FILE", "print stream, header and tag information", runInfo},
	{"packets", "[-spool] FILE", "list audio packets", runPackets},
	{"comments", "[-vendor V] [-set TAG=VALUE]... [-delete TAG]... [-clear] -o OUT FILE", "rewrite the comment header", runComments},
	{"trim", "-start N -count M -o OUT FILE", "remove pages and renumber the rest", runTrim},
	{"strip", "-o OUT FILE", "drop data in front of the first Vorbis header", runStrip},
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: vorbisedit COMMAND [flags] FILE")
	fmt.Fprintln(os.Stderr, "FILE may be - for standard input.")
	fmt.Fprintln(os.Stderr)
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-9s %s\n", c.name, c.summary)
		fmt.Fprintf(os.Stderr, "            vorbisedit %s %s\n", c.name, c.usage)
	}
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("vorbisedit: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sc := make(chan os.Signal, 1)
		signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

		<-sc
		cancel()
	}()

	name, args := os.Args[1], os.Args[2:]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(ctx, args); err != nil {
			log.Fatalln(err)
		}
		return
	}

	log.Println("unknown command", name)
	usage()
	os.Exit(2)
}
