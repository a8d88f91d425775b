package rete

import (
	"fmt"
	"os"
	"strings"
)

// Debug logs message if the RETE_DEBUG environment variable contains "rete".
// The network never logs on the hot path unless this is enabled.
func Debug(message string) {
	defer func() {
		recover() // never let logging panic propagate
	}()
	if isDebugMode() {
		fmt.Println(message)
	}
}

func isDebugMode() bool {
	env, ok := os.LookupEnv("RETE_DEBUG")
	return ok && strings.Contains(env, "rete")
}
