// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tidewater Embedded

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/tidewater-embedded/busbench/pkg/hwbus"
)

// GetPassword retrieves the bridge password from the environment or prompts
// the user.
func GetPassword() (string, error) {
	// First check environment variable
	if pw := os.Getenv("BUSBENCH_PASSWORD"); pw != "" {
		return pw, nil
	}

	// Prompt user for password (hide input)
	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr) // newline after password
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr) // newline after password
	return string(passwordBytes), nil
}

// OpenBus builds a real bus implementation from the connection flags: a
// WebSocket bridge when --url is set, a local serial bus when --port is
// set. The cleanup function releases the underlying connection.
func OpenBus() (hwbus.Bus, string, func(), error) {
	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", nil, err
			}
		}

		bridge, err := hwbus.DialBridge(hwbus.BridgeConfig{
			URL:           wsURL,
			Username:      wsUsername,
			Password:      password,
			SkipTLSVerify: wsNoSSLVerify,
		})
		if err != nil {
			return nil, "", nil, err
		}

		cleanup := func() { bridge.Shutdown() }
		return bridge, fmt.Sprintf("Bridge: %s", wsURL), cleanup, nil
	}

	if portName != "" {
		bus := hwbus.NewSerialBus(baudRate)
		return bus, fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate), func() {}, nil
	}

	return nil, "", nil, fmt.Errorf("either --port or --url must be specified")
}
