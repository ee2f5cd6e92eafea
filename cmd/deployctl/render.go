// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/bureau-foundation/deploywatch/lib/deploy"
)

// styles are bound to the output writer's renderer, so they degrade
// to plain text when stdout is not a color terminal.
type styles struct {
	renderer *lipgloss.Renderer
	id       lipgloss.Style
	who      lipgloss.Style
	progress lipgloss.Style
	faint    lipgloss.Style
}

func newStyles(output io.Writer) styles {
	renderer := lipgloss.NewRenderer(output)
	return styles{
		renderer: renderer,
		id:       renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		who:      renderer.NewStyle().Foreground(lipgloss.Color("10")),
		progress: renderer.NewStyle().Foreground(lipgloss.Color("11")),
		faint:    renderer.NewStyle().Faint(true),
	}
}

// terminalWidth is the column count of output when it is a terminal,
// zero otherwise.
func terminalWidth(output io.Writer) int {
	file, ok := output.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// renderEntries formats deploys for a person reading a terminal:
//
//	d1  alice  started 5 minutes ago
//	    on web5 (5/10, 50%), expires 8 minutes from now
//	    args: -r main
//	    log:  /var/log/deploy/d1
//
// Lines longer than width are cut when width is positive.
func renderEntries(entries []deploy.Entry, now time.Time, width int, style styles) string {
	if len(entries) == 0 {
		return "no deploys in flight\n"
	}

	clip := func(line string) string { return line }
	if width > 0 {
		limit := style.renderer.NewStyle().MaxWidth(width)
		clip = func(line string) string { return limit.Render(line) }
	}

	var output strings.Builder
	for _, entry := range entries {
		header := fmt.Sprintf("%s  %s  started %s",
			style.id.Render(entry.ID),
			style.who.Render(entry.Who),
			humanize.RelTime(entry.StartedAt, now, "ago", "from now"))
		output.WriteString(clip(header) + "\n")

		state := fmt.Sprintf("    %s, expires %s",
			style.progress.Render(describeProgress(entry)),
			humanize.RelTime(entry.ExpiresAt, now, "ago", "from now"))
		output.WriteString(clip(state) + "\n")

		if entry.Args != "" {
			output.WriteString(clip("    args: "+entry.Args) + "\n")
		}
		if entry.LogPath != "" {
			output.WriteString(clip("    log:  "+style.faint.Render(entry.LogPath)) + "\n")
		}
	}
	return output.String()
}

func describeProgress(entry deploy.Entry) string {
	if !entry.HasProgress {
		if entry.HostCount <= 0 {
			return "no progress yet"
		}
		return fmt.Sprintf("waiting for the first of %s", pluralHosts(entry.HostCount))
	}
	index := strconv.FormatFloat(entry.LastIndex, 'f', -1, 64)
	if percent, ok := entry.Percent(); ok {
		return fmt.Sprintf("on %s (%s/%d, %d%%)", entry.LastHost, index, entry.HostCount, percent)
	}
	return fmt.Sprintf("on %s (%s)", entry.LastHost, index)
}

func pluralHosts(count int) string {
	if count == 1 {
		return "1 host"
	}
	return humanize.Comma(int64(count)) + " hosts"
}
