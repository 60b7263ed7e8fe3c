// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// gen-ports renders internal/ebpf/programs/c/phantom_ports.h from a
// phantom-grid HCL config file, keeping the kernel program's compiled-in
// port table in sync with the operator's ports block without hand-editing
// the header. Grounded on grimm-is-flywall/cmd/gen-config-docs's
// flag-driven single-file generator shape.
//
// Usage:
//
//	go run ./cmd/gen-ports -config phantom-grid.hcl -output internal/ebpf/programs/c/phantom_ports.h
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/haidang24/phantom-grid/internal/config"
)

func main() {
	configPath := flag.String("config", "", "Path to the phantom-grid HCL config file (defaults built in if omitted)")
	output := flag.String("output", "", "Output header path (default: stdout)")
	flag.Parse()

	cfg := config.Defaults()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "gen-ports: %v\n", err)
			os.Exit(1)
		}
		cfg = *loaded
	}

	header := render(cfg)

	if *output == "" {
		fmt.Print(header)
		return
	}
	if err := os.WriteFile(*output, []byte(header), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "gen-ports: write %s: %v\n", *output, err)
		os.Exit(1)
	}
}

func render(cfg config.Config) string {
	var b strings.Builder

	b.WriteString("// Code generated by cmd/gen-ports from the ports/spa/egress config blocks. DO NOT EDIT.\n\n")
	b.WriteString("#ifndef PHANTOM_PORTS_H\n#define PHANTOM_PORTS_H\n\n")

	fmt.Fprintf(&b, "#define HONEYPOT_PORT %d\n", cfg.Ports.Honeypot)
	fmt.Fprintf(&b, "#define SPA_MAGIC_PORT %d\n\n", cfg.Ports.SPAMagic)

	token := string(staticTokenValue(cfg))
	fmt.Fprintf(&b, "#define SPA_SECRET_TOKEN %q\n", token)
	fmt.Fprintf(&b, "#define SPA_TOKEN_LEN %d\n\n", len(token))

	for i, port := range cfg.Ports.Critical {
		fmt.Fprintf(&b, "#define CRITICAL_PORT_%d %d\n", i, port)
	}
	b.WriteString("\n")
	for i, port := range cfg.Ports.Fake {
		fmt.Fprintf(&b, "#define FAKE_PORT_%d %d\n", i, port)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "#define SPA_WHITELIST_DURATION_NS %dULL\n\n", int64(cfg.WhitelistTTLSeconds)*1_000_000_000)

	enforce, pan := 0, 0
	if cfg.Egress.Enforce {
		enforce = 1
	}
	if cfg.Egress.EnablePANHeuristic {
		pan = 1
	}
	fmt.Fprintf(&b, "#define PHANTOM_EGRESS_ENFORCE %d\n", enforce)
	fmt.Fprintf(&b, "#define PHANTOM_EGRESS_PAN_ENABLED %d\n\n", pan)

	b.WriteString("#endif // PHANTOM_PORTS_H\n")
	return b.String()
}

// staticTokenValue extracts the real static-token bytes for the generator's
// own use. SecureString masks String()/MarshalJSON() everywhere else in the
// daemon; a plain type conversion bypasses that masking here since the
// token must be baked into the compiled kernel program as literal bytes.
func staticTokenValue(cfg config.Config) config.SecureString {
	return cfg.SPA.StaticToken
}
