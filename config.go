package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mohamedbeat/gyxy-recorder/proxy"
	"gopkg.in/urfave/cli.v1"
)

const (
	defaultFolder   = "http-proxy-logger-requests"
	defaultMaxConns = 10
)

// parseConfig validates the positional arguments
// <portToBindTo> <hostToForwardTo> <portToForwardTo>.
func parseConfig(args []string, folder string, maxConns int) (proxy.Config, error) {
	if len(args) != 3 {
		return proxy.Config{}, fmt.Errorf("you must provide host and ports to bind to, got %d argument(s)", len(args))
	}

	port, err := parsePort("portToBindTo", args[0])
	if err != nil {
		return proxy.Config{}, err
	}
	host := strings.TrimSpace(args[1])
	if host == "" {
		return proxy.Config{}, fmt.Errorf("hostToForwardTo must not be empty")
	}
	upstreamPort, err := parsePort("portToForwardTo", args[2])
	if err != nil {
		return proxy.Config{}, err
	}
	if folder == "" {
		folder = defaultFolder
	}
	if maxConns <= 0 {
		return proxy.Config{}, fmt.Errorf("max-conns must be positive, got %d", maxConns)
	}

	return proxy.Config{
		Port:         port,
		UpstreamHost: host,
		UpstreamPort: upstreamPort,
		OutputFolder: folder,
		MaxConns:     maxConns,
	}, nil
}

func parsePort(name, s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", name, s)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("%s: %d is out of range", name, port)
	}
	return port, nil
}

// hoistFlags moves flag tokens, with their values, ahead of the positional
// arguments. cli stops parsing flags at the first positional argument, so
// "8080 example.test 80 -f out" would otherwise leave -f unparsed.
// Everything after "--" stays positional.
func hoistFlags(args []string, flags []cli.Flag) []string {
	if len(args) == 0 {
		return args
	}

	takesValue := map[string]bool{}
	known := append([]cli.Flag{cli.HelpFlag, cli.VersionFlag}, flags...)
	for _, f := range known {
		_, isBool := f.(cli.BoolFlag)
		for _, name := range strings.Split(f.GetName(), ",") {
			takesValue[strings.TrimSpace(name)] = !isBool
		}
	}

	hoisted := []string{args[0]}
	var positional []string
	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		arg := rest[i]
		if arg == "--" {
			positional = append(positional, rest[i:]...)
			break
		}
		if len(arg) < 2 || arg[0] != '-' {
			positional = append(positional, arg)
			continue
		}
		name := strings.TrimLeft(arg, "-")
		hasValue := false
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			name, hasValue = name[:eq], true
		}
		needsValue, ok := takesValue[name]
		if !ok {
			positional = append(positional, arg)
			continue
		}
		hoisted = append(hoisted, arg)
		if needsValue && !hasValue && i+1 < len(rest) {
			i++
			hoisted = append(hoisted, rest[i])
		}
	}
	return append(hoisted, positional...)
}
