// go-fel: host-side driver for the Allwinner FEL USB boot-recovery protocol
// Copyright (C) 2026
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/allwinner-tools/go-fel/internal/bootimg"
	"github.com/allwinner-tools/go-fel/internal/fel"
	"github.com/allwinner-tools/go-fel/internal/felerr"
	"github.com/allwinner-tools/go-fel/internal/progress"
	"github.com/allwinner-tools/go-fel/internal/usbtransport"
)

func main() {
	var (
		verbose      = flag.Bool("v", false, "verbose diagnostics")
		showProgress = flag.Bool("p", false, "show a progress bar for large transfers")
		devSpec      = flag.String("d", "", "restrict to device at BUS:DEV")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [options] command args... [command args...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	transport, err := usbtransport.Open(*devSpec)
	if err != nil {
		log.Fatalf("fel: %v", err)
	}

	dev, err := fel.Open(transport, *verbose)
	if err != nil {
		log.Fatalf("fel: %v", err)
	}
	defer dev.Close()

	if *showProgress && term.IsTerminal(int(os.Stderr.Fd())) {
		dev.Progress = progress.New().Func()
	}

	d := &dispatcher{dev: dev, autostart: false}
	if err := d.run(args); err != nil {
		log.Fatalf("fel: %v", err)
	}
	if d.autostart {
		if *verbose {
			log.Printf("fel: autostarting U-Boot at 0x%08x", dev.UBootEntry)
		}
		if err := dev.Execute(dev.UBootEntry); err != nil {
			log.Fatalf("fel: %v", err)
		}
	}
}

// dispatcher walks the command list, executing each command table entry in
// turn. Several commands may appear in one invocation.
type dispatcher struct {
	dev       *fel.Device
	autostart bool
}

func (d *dispatcher) run(args []string) error {
	for len(args) > 0 {
		cmd := args[0]
		args = args[1:]

		handler, rest, err := lookupCommand(cmd, args)
		if err != nil {
			return err
		}
		if err := handler(d, rest.consumed); err != nil {
			return err
		}
		args = rest.remaining
	}
	return nil
}

type commandArgs struct {
	consumed  []string
	remaining []string
}

type commandFunc func(d *dispatcher, args []string) error

// commandTable maps a canonical command name to its arg count and handler.
// Lookup matches on a first-prefix basis (e.g. "exe" and "execute" both
// match "execute"), per the CLI surface's command table.
var commandTable = []struct {
	name    string
	nargs   int
	handler commandFunc
}{
	{"hexdump", 2, cmdHexdump},
	{"dump", 2, cmdDump},
	{"execute", 1, cmdExecute},
	{"version", 0, cmdVersion},
	{"read", 3, cmdRead},
	{"write", 2, cmdWrite},
	{"clear", 2, cmdClear},
	{"fill", 3, cmdFill},
	{"spl", 1, cmdSPL},
	{"uboot", 1, cmdUboot},
}

func lookupCommand(name string, args []string) (commandFunc, commandArgs, error) {
	for _, c := range commandTable {
		if strings.HasPrefix(c.name, name) {
			if len(args) < c.nargs {
				return nil, commandArgs{}, &felerr.UsageError{Op: fmt.Sprintf("%q needs %d argument(s)", c.name, c.nargs)}
			}
			return c.handler, commandArgs{consumed: args[:c.nargs], remaining: args[c.nargs:]}, nil
		}
	}
	return nil, commandArgs{}, &felerr.UsageError{Op: fmt.Sprintf("unknown command %q", name)}
}

func parseUint(s string) (uint64, error) {
	return strconv.ParseUint(s, 0, 64)
}

func cmdVersion(d *dispatcher, _ []string) error {
	v, err := d.dev.Version()
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n", v.String(), d.dev.SoC.Name)
	return nil
}

func cmdExecute(d *dispatcher, args []string) error {
	addr, err := parseUint(args[0])
	if err != nil {
		return err
	}
	return d.dev.Execute(uint32(addr))
}

func cmdRead(d *dispatcher, args []string) error {
	addr, err := parseUint(args[0])
	if err != nil {
		return err
	}
	length, err := parseUint(args[1])
	if err != nil {
		return err
	}
	buf, err := d.dev.ReadExact(uint32(addr), int(length))
	if err != nil {
		return err
	}
	return os.WriteFile(args[2], buf, 0644)
}

func cmdDump(d *dispatcher, args []string) error {
	addr, err := parseUint(args[0])
	if err != nil {
		return err
	}
	length, err := parseUint(args[1])
	if err != nil {
		return err
	}
	buf, err := d.dev.ReadExact(uint32(addr), int(length))
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(buf)
	return err
}

func cmdHexdump(d *dispatcher, args []string) error {
	addr, err := parseUint(args[0])
	if err != nil {
		return err
	}
	length, err := parseUint(args[1])
	if err != nil {
		return err
	}
	buf, err := d.dev.ReadExact(uint32(addr), int(length))
	if err != nil {
		return err
	}
	hexdump(os.Stdout, uint32(addr), buf)
	return nil
}

func cmdWrite(d *dispatcher, args []string) error {
	addr, err := parseUint(args[0])
	if err != nil {
		return err
	}
	buf, err := os.ReadFile(args[1])
	if err != nil {
		return &felerr.UsageError{Op: "read " + args[1], Err: err}
	}
	start := time.Now()
	if err := d.dev.Write(uint32(addr), buf); err != nil {
		return err
	}
	if d.dev.Verbose {
		elapsed := time.Since(start).Seconds()
		if elapsed > 0 {
			log.Printf("fel: written %.1f KB in %.1f sec (speed: %.1f KB/s)",
				float64(len(buf))/1000, elapsed, float64(len(buf))/elapsed/1000)
		}
	}
	if bootimg.GetImageType(buf) == bootimg.TypeScript {
		return bootimg.PassFELInformation(d.dev, d.dev.SoC.SPLAddr, uint32(addr), d.dev.Verbose)
	}
	return nil
}

func cmdClear(d *dispatcher, args []string) error {
	addr, err := parseUint(args[0])
	if err != nil {
		return err
	}
	length, err := parseUint(args[1])
	if err != nil {
		return err
	}
	return d.dev.Clear(uint32(addr), int(length))
}

func cmdFill(d *dispatcher, args []string) error {
	addr, err := parseUint(args[0])
	if err != nil {
		return err
	}
	length, err := parseUint(args[1])
	if err != nil {
		return err
	}
	value, err := parseUint(args[2])
	if err != nil {
		return err
	}
	return d.dev.Fill(uint32(addr), int(length), byte(value))
}

func cmdSPL(d *dispatcher, args []string) error {
	blob, err := os.ReadFile(args[0])
	if err != nil {
		return &felerr.UsageError{Op: "read " + args[0], Err: err}
	}
	return bootimg.ProcessSPLAndUboot(d.dev, d.dev.SoC, blob, d.dev.Verbose)
}

func cmdUboot(d *dispatcher, args []string) error {
	if err := cmdSPL(d, args); err != nil {
		return err
	}
	if d.dev.UBootSize == 0 {
		log.Printf("fel: warning: \"uboot\" command failed to detect image")
		return nil
	}
	d.autostart = true
	return nil
}

// hexdump writes a classic 16-bytes-per-line hex+ASCII dump of buf, with
// addresses starting at base.
func hexdump(w *os.File, base uint32, buf []byte) {
	for off := 0; off < len(buf); off += 16 {
		end := off + 16
		if end > len(buf) {
			end = len(buf)
		}
		line := buf[off:end]
		fmt.Fprintf(w, "%08x: ", base+uint32(off))
		for i := 0; i < 16; i++ {
			if i < len(line) {
				fmt.Fprintf(w, "%02x ", line[i])
			} else {
				fmt.Fprint(w, "   ")
			}
		}
		fmt.Fprint(w, " ")
		for _, b := range line {
			if b >= 0x20 && b < 0x7f {
				fmt.Fprintf(w, "%c", b)
			} else {
				fmt.Fprint(w, ".")
			}
		}
		fmt.Fprintln(w)
	}
}
