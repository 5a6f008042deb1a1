package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"overrider/internal/driver"
	"overrider/internal/scan"
	"overrider/internal/source"
	"overrider/internal/trace"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [flags] [patterns...]",
		Short: "Show priority chains, winners, finals and flag dispatch",
		RunE:  runInspect,
	}
	cmd.Flags().Bool("json", false, "print the report as JSON")
	addFormatFlag(cmd)
	return cmd
}

type inspectCandidate struct {
	Directive string `json:"directive"`
	Priority  uint32 `json:"priority"`
	Location  string `json:"location"`
	Winner    bool   `json:"winner"`
	Final     bool   `json:"final,omitempty"`
	// Predicate is set for losers: the table entry that compiles them out.
	Predicate string `json:"excluded_by,omitempty"`
}

type inspectChain struct {
	Item       string             `json:"item"`
	Flag       string             `json:"flag,omitempty"`
	Candidates []inspectCandidate `json:"candidates"`
}

type inspectFinal struct {
	Item     string `json:"item"`
	Location string `json:"location"`
	Required uint32 `json:"required_priority"`
	Bare     bool   `json:"bare,omitempty"`
}

type inspectFlags struct {
	Item  string   `json:"item"`
	Flags []string `json:"flags"`
}

type inspectReport struct {
	RunID  string         `json:"run_id"`
	Chains []inspectChain `json:"chains"`
	Finals []inspectFinal `json:"finals"`
	Flags  []inspectFlags `json:"flags"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd, args)
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to get json flag: %w", err)
	}
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	ctx, span := trace.Start(cmd.Context(), trace.ScopeDriver, "overrider inspect")
	defer span.End("")

	res, err := driver.Scan(ctx, s.driverOptions())
	if err != nil {
		return err
	}
	if err := printDiagnostics(cmd, res); err != nil {
		return err
	}
	if res.Failed() {
		return errFailed
	}

	report := buildInspectReport(res)
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	useColor, err := colorEnabled(cmd)
	if err != nil {
		return err
	}
	renderInspect(cmd.OutOrStdout(), report, newInspectStyles(useColor))
	return nil
}

func buildInspectReport(res *driver.Result) inspectReport {
	sr := res.Scan
	report := inspectReport{
		RunID:  res.Table.RunID,
		Chains: make([]inspectChain, 0, len(sr.Chains)),
	}
	var flagOrder []string
	flagsByItem := make(map[string][]string)

	for _, ch := range sr.Chains {
		view := inspectChain{Item: ch.Key.String()}
		if ch.IsFlag {
			view.Flag = ch.Flag.String()
			item := ch.Key.String()
			if _, seen := flagsByItem[item]; !seen {
				flagOrder = append(flagOrder, item)
			}
			flagsByItem[item] = append(flagsByItem[item], ch.Flag.String())
		}
		for i, c := range ch.Candidates {
			cv := inspectCandidate{
				Directive: c.Kind.String(),
				Priority:  c.Priority,
				Location:  location(res.Files, c.Path, c.Span),
				Winner:    i == ch.Winner,
				Final:     c.Final,
			}
			if ch.Excluded(i) {
				cv.Predicate = c.Predicate()
			}
			view.Candidates = append(view.Candidates, cv)
		}
		report.Chains = append(report.Chains, view)
	}
	for _, f := range sr.Finals {
		report.Finals = append(report.Finals, finalView(res.Files, f))
	}
	for _, item := range flagOrder {
		report.Flags = append(report.Flags, inspectFlags{Item: item, Flags: flagsByItem[item]})
	}
	return report
}

func finalView(fs *source.FileSet, f scan.Final) inspectFinal {
	return inspectFinal{
		Item:     f.Key.String(),
		Location: location(fs, f.Path, f.Span),
		Required: f.Required,
		Bare:     f.Bare,
	}
}

func location(fs *source.FileSet, path string, sp source.Span) string {
	if fs.Get(sp.File) == nil {
		return path
	}
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", path, start.Line, start.Col)
}

type inspectStyles struct {
	item, winner, loser, note lipgloss.Style
}

func newInspectStyles(useColor bool) inspectStyles {
	if !useColor {
		plain := lipgloss.NewStyle()
		return inspectStyles{item: plain, winner: plain, loser: plain, note: plain}
	}
	return inspectStyles{
		item:   lipgloss.NewStyle().Bold(true),
		winner: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		loser:  lipgloss.NewStyle().Faint(true),
		note:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

func renderInspect(w io.Writer, r inspectReport, st inspectStyles) {
	if len(r.Chains) == 0 && len(r.Finals) == 0 {
		fmt.Fprintln(w, "no overridable items")
		return
	}
	for _, ch := range r.Chains {
		title := ch.Item
		if ch.Flag != "" {
			title += " [flag " + ch.Flag + "]"
		}
		fmt.Fprintln(w, st.item.Render(title))
		for _, c := range ch.Candidates {
			line := fmt.Sprintf("%-16s priority %-4d %s", c.Directive, c.Priority, c.Location)
			if c.Final {
				line += " (final)"
			}
			if c.Winner {
				fmt.Fprintf(w, "  * %s\n", st.winner.Render(line))
				continue
			}
			fmt.Fprintf(w, "    %s\n", st.loser.Render(line+"  excluded by "+c.Predicate))
		}
	}
	if len(r.Finals) > 0 {
		fmt.Fprintln(w, st.item.Render("finals"))
		for _, f := range r.Finals {
			msg := fmt.Sprintf("%s needs priority %d  %s", f.Item, f.Required, f.Location)
			if f.Bare {
				msg += " (no candidate, always fails)"
			}
			fmt.Fprintf(w, "  %s\n", st.note.Render(msg))
		}
	}
	if len(r.Flags) > 0 {
		fmt.Fprintln(w, st.item.Render("flag dispatch"))
		for _, f := range r.Flags {
			fmt.Fprintf(w, "  %s: %s\n", f.Item, strings.Join(f.Flags, ", "))
		}
	}
}
