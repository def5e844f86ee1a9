package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		printUsage(out)
		return fmt.Errorf("missing command")
	}

	command, rest := args[0], args[1:]
	switch command {
	case "define-cluster":
		return handleDefineCluster(rest, out)
	case "cluster":
		return handleCluster(rest, out)
	case "add":
		return handleAdd(rest, out)
	case "get":
		return handleGet(rest, out)
	case "status":
		return handleStatus(rest, out)
	case "sync":
		return handleSync(rest, out)
	case "help", "--help", "-h":
		printUsage(out)
		return nil
	default:
		printUsage(out)
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(out io.Writer) {
	usage := `synonymdb-admin - operate a synonym cluster

Usage:
  synonymdb-admin <command> [options]

Available Commands:
  define-cluster  Set the cluster membership on one node
  cluster         List the members a node knows
  add             Add synonyms for a word
  get             Query the synonyms of a word
  status          Show store, membership and replication state
  sync            Run a replication cycle now

Global Flags (per command):
  --url URL       Node URL (default: $SYNONYMDB_URL or http://localhost:8080)

Examples:
  synonymdb-admin define-cluster --self node-a:8080 --members node-a:8080,node-b:8080
  synonymdb-admin add --word fast quick rapid
  synonymdb-admin get --word quick --limit 5
`
	fmt.Fprint(out, usage)
}

func getEnvOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
