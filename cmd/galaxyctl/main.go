// Copyright 2026 The Galaxybus Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Command galaxyctl runs a galaxybus.Bus as a standalone master or
// slave, configured from a TOML file, for bring-up and bench testing
// of a Galaxy bus wiring without writing Go.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/galaxybus/galaxybus"
	"github.com/galaxybus/galaxybus/platform/auto"
	"github.com/galaxybus/galaxybus/platform/uartassist"
)

func main() {
	help := flag.Bool("help", false, "print usage help")
	configFile := flag.String("config", "galaxyctl.toml", "path to config file")
	flag.Parse()

	if *help {
		fmt.Fprintf(os.Stderr, "Usage: %s -config galaxyctl.toml\n", os.Args[0])
		os.Exit(1)
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(*configFile, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "cannot read config file: %s\n", err)
		os.Exit(1)
	}

	if cfg.Debug {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	} else {
		log.SetOutput(os.Stderr)
	}

	if cfg.UART != "" {
		runUART(cfg)
		return
	}
	runBitBang(cfg)
}

// runBitBang drives a real GPIO-wired bus through galaxybus.Bus.
func runBitBang(cfg *Config) {
	if _, err := auto.Init(); err != nil {
		log.Printf("driver init: %s (continuing; some backends may be unavailable)", err)
	}

	line, err := resolvePin(cfg.Board, cfg.Line, cfg.LineHeader)
	if err != nil {
		log.Fatal(err)
	}
	de, err := resolvePin(cfg.Board, cfg.DE, cfg.DEHeader)
	if err != nil {
		log.Fatal(err)
	}
	var re gpioPinOut
	if cfg.RE != "" || cfg.REHeader != 0 {
		rePin, err := resolvePin(cfg.Board, cfg.RE, cfg.REHeader)
		if err != nil {
			log.Fatal(err)
		}
		re = rePin
	}

	bus, err := galaxybus.New(galaxybus.Config{
		Line:    galaxybus.TriPin{PinIO: line},
		DE:      de,
		RE:      re,
		Role:    role(cfg.Role),
		Address: byte(cfg.Address),
		TxPre:   cfg.TxPre,
		TxPost:  cfg.TxPost,
		Gap:     cfg.Gap,
	})
	if err != nil {
		log.Fatal(err)
	}
	if err := bus.Start(); err != nil {
		log.Fatal(err)
	}
	defer bus.End()

	log.Printf("bus started: role=%s address=0x%02x", cfg.Role, bus_address(bus, cfg))
	if role(cfg.Role) == galaxybus.RoleMaster {
		runMaster(bus, cfg)
	} else {
		runSlave(bus)
	}
}

// gpioPinOut is an alias for galaxybus.OutPin, the type of
// galaxybus.Config.RE; runBitBang leaves it nil when no RE pin is
// configured.
type gpioPinOut = galaxybus.OutPin

func bus_address(_ *galaxybus.Bus, cfg *Config) int { return cfg.Address }

func role(s string) galaxybus.Role {
	if s == "slave" {
		return galaxybus.RoleSlave
	}
	return galaxybus.RoleMaster
}

func runMaster(bus *galaxybus.Bus, cfg *Config) {
	if len(cfg.Poll) == 0 {
		log.Fatal("master role requires at least one [[Poll]] target")
	}
	resp := make([]byte, galaxybus.MaxFrame)
	for {
		for _, target := range cfg.Poll {
			payload, err := hex.DecodeString(target.Payload)
			if err != nil {
				log.Printf("poll 0x%02x: bad hex payload: %s", target.Address, err)
				continue
			}
			n, err := bus.Poll(byte(target.Address), payload, resp, 200*time.Millisecond)
			if err != nil {
				log.Printf("poll 0x%02x: %s", target.Address, err)
				continue
			}
			log.Printf("poll 0x%02x: reply % x", target.Address, resp[:n])
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func runSlave(bus *galaxybus.Bus) {
	buf := make([]byte, galaxybus.MaxFrame)
	for {
		n, err := bus.Rx(buf, time.Second)
		if err != nil {
			log.Printf("rx: %s", err)
			continue
		}
		if n == 0 {
			continue // timeout or empty frame, nothing to report
		}
		log.Printf("rx: % x", buf[:n])
	}
}

// runUART drives a real hardware UART instead of bit-banging GPIO.
func runUART(cfg *Config) {
	baud := uint32(cfg.UARTBaud)
	if baud == 0 {
		baud = 9600
	}
	port, err := uartassist.Open(cfg.UART, baud)
	if err != nil {
		log.Fatal(err)
	}
	defer port.Close()

	log.Printf("uart-assisted bus started on %s at %d baud", cfg.UART, baud)
	if role(cfg.Role) == galaxybus.RoleMaster {
		resp := make([]byte, galaxybus.MaxFrame)
		for {
			for _, target := range cfg.Poll {
				payload, err := hex.DecodeString(target.Payload)
				if err != nil {
					log.Printf("poll 0x%02x: bad hex payload: %s", target.Address, err)
					continue
				}
				if err := port.SendFrame(byte(target.Address), payload); err != nil {
					log.Printf("poll 0x%02x: send: %s", target.Address, err)
					continue
				}
				n, err := port.ReceiveFrame(resp, 50*time.Millisecond)
				if err != nil {
					log.Printf("poll 0x%02x: %s", target.Address, err)
					continue
				}
				log.Printf("poll 0x%02x: reply % x", target.Address, resp[:n])
			}
			time.Sleep(50 * time.Millisecond)
		}
	}

	buf := make([]byte, galaxybus.MaxFrame)
	for {
		n, err := port.ReceiveFrame(buf, 5*time.Second)
		if err != nil {
			continue
		}
		log.Printf("rx: % x", buf[:n])
	}
}
