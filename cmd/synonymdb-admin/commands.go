package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-synonyms/pkg/client"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Width(18)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFF00"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)
)

// commonFlags registers the flags every command accepts.
type commonFlags struct {
	url     string
	timeout time.Duration
}

func newFlagSet(name string) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	cf := &commonFlags{}
	fs.StringVar(&cf.url, "url", getEnvOrDefault("SYNONYMDB_URL", "http://localhost:8080"), "Node URL")
	fs.DurationVar(&cf.timeout, "timeout", 30*time.Second, "Request timeout")
	return fs, cf
}

func (cf *commonFlags) connect() (*client.Client, context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), cf.timeout)
	return client.New(cf.url), ctx, cancel
}

func handleDefineCluster(args []string, out io.Writer) error {
	fs, cf := newFlagSet("define-cluster")
	self := fs.String("self", "", "This node's address as peers reach it (host:port)")
	members := fs.String("members", "", "Comma separated addresses of all members, self included")
	if err := fs.Parse(args); err != nil {
		return err
	}

	all := splitMembers(*members)
	if *self == "" || len(all) == 0 {
		return errors.New("--self and --members are required")
	}

	c, ctx, cancel := cf.connect()
	defer cancel()
	if err := c.DefineCluster(ctx, *self, all); err != nil {
		return err
	}

	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("Cluster defined on %s with %d member(s)", *self, len(all))))
	return nil
}

func handleCluster(args []string, out io.Writer) error {
	fs, cf := newFlagSet("cluster")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, ctx, cancel := cf.connect()
	defer cancel()
	members, err := c.Cluster(ctx)
	if err != nil {
		return err
	}

	if len(members) == 0 {
		fmt.Fprintln(out, warnStyle.Render("Cluster is not defined"))
		return nil
	}
	fmt.Fprintln(out, titleStyle.Render("Members"))
	for _, m := range members {
		fmt.Fprintln(out, "  "+m)
	}
	return nil
}

func handleAdd(args []string, out io.Writer) error {
	fs, cf := newFlagSet("add")
	word := fs.String("word", "", "Word to add synonyms for")
	distribute := fs.Bool("distribute", true, "Replicate the write to the other members")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *word == "" || fs.NArg() == 0 {
		return errors.New("usage: add --word WORD SYNONYM [SYNONYM...]")
	}

	c, ctx, cancel := cf.connect()
	defer cancel()
	if err := c.AddSynonyms(ctx, *word, fs.Args(), *distribute); err != nil {
		if errors.Is(err, client.ErrNotReady) {
			return fmt.Errorf("%w: run define-cluster first", err)
		}
		return err
	}

	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("Added %d synonym(s) for %q", fs.NArg(), *word)))
	return nil
}

func handleGet(args []string, out io.Writer) error {
	fs, cf := newFlagSet("get")
	word := fs.String("word", "", "Word to look up")
	limit := fs.Int("limit", 10, "Maximum number of synonyms to show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *word == "" {
		return errors.New("--word is required")
	}

	c, ctx, cancel := cf.connect()
	defer cancel()
	page, err := c.GetSynonyms(ctx, *word, *limit)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%s: %d synonym(s)", *word, page.Total)))
	for _, s := range page.Synonyms {
		fmt.Fprintln(out, "  "+s)
	}
	if hidden := page.Total - len(page.Synonyms); hidden > 0 {
		fmt.Fprintln(out, labelStyle.Render(fmt.Sprintf("  ... %d more", hidden)))
	}
	return nil
}

func handleStatus(args []string, out io.Writer) error {
	fs, cf := newFlagSet("status")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, ctx, cancel := cf.connect()
	defer cancel()
	st, err := c.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, renderStatus(st))
	return nil
}

func handleSync(args []string, out io.Writer) error {
	fs, cf := newFlagSet("sync")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, ctx, cancel := cf.connect()
	defer cancel()
	if err := c.TriggerSync(ctx); err != nil {
		return err
	}

	fmt.Fprintln(out, successStyle.Render("Replication cycle started"))
	return nil
}

func renderStatus(st client.NodeStatus) string {
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + value + "\n")
	}

	ready := warnStyle.Render("not defined")
	if st.Ready {
		ready = successStyle.Render("defined")
	}

	b.WriteString(titleStyle.Render("Node "+st.Self) + "\n")
	row("Cluster", ready)
	row("Locale", st.Locale)
	row("Words", fmt.Sprint(st.Store.Words))
	row("Groups", fmt.Sprint(st.Store.Groups))
	row("Largest group", fmt.Sprint(st.Store.LargestGroup))
	row("Pending batches", fmt.Sprint(st.PendingBatches))

	if len(st.Peers) > 0 {
		b.WriteString("\n" + titleStyle.Render("Members") + "\n")
		for _, p := range st.Peers {
			note := ""
			switch {
			case p.IsSelf:
				note = labelStyle.Render(" (self)")
			case p.NeedsFullSync:
				note = warnStyle.Render(" (awaiting full sync)")
			}
			b.WriteString("  " + p.Address + note + "\n")
		}
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func splitMembers(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
