// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Browse TUI model. Single-threaded within the bubbletea event loop;
// advisor calls run as commands and report back via suggestMsg.
package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/AleutianProve/pkg/ux"
	"github.com/AleutianAI/AleutianProve/services/prover/advisor"
	"github.com/AleutianAI/AleutianProve/services/prover/backward"
	"github.com/AleutianAI/AleutianProve/services/prover/expr"
)

// headEntry is one index head with its ordered lemma list.
type headEntry struct {
	label  string
	lemmas []backward.Lemma
}

// suggestMsg carries an advisor reply back into the event loop.
type suggestMsg struct {
	head        string
	suggestions []advisor.Suggestion
	err         error
}

// browseModel is the interactive index browser.
type browseModel struct {
	heads   []headEntry
	visible []int // indexes into heads after filtering
	cursor  int   // position within visible

	filter    textinput.Model
	filtering bool
	detail    viewport.Model

	adv         *advisor.Advisor
	suggestions []suggestMsg

	width  int
	height int
	ready  bool
}

// newBrowseModel builds the model from an index. Heads are sorted by
// label so the list is stable across rebuilds.
func newBrowseModel(idx backward.Index, adv *advisor.Advisor) browseModel {
	var heads []headEntry
	_ = idx.ForEach(func(h expr.HeadIndex, lemmas []backward.Lemma) error {
		heads = append(heads, headEntry{label: h.String(), lemmas: lemmas})
		return nil
	})
	sort.Slice(heads, func(i, j int) bool { return heads[i].label < heads[j].label })

	filter := textinput.New()
	filter.Placeholder = "filter heads"
	filter.CharLimit = 128

	m := browseModel{
		heads:  heads,
		filter: filter,
		detail: viewport.New(0, 0),
		adv:    adv,
	}
	m.visible = filterHeads(heads, "")
	m.syncDetail()
	return m
}

// filterHeads returns the indexes of entries whose label contains the
// query, case-insensitively. An empty query matches everything.
func filterHeads(heads []headEntry, query string) []int {
	query = strings.ToLower(strings.TrimSpace(query))
	visible := make([]int, 0, len(heads))
	for i, h := range heads {
		if query == "" || strings.Contains(strings.ToLower(h.label), query) {
			visible = append(visible, i)
		}
	}
	return visible
}

// selected returns the entry under the cursor, or nil when the list
// is empty.
func (m *browseModel) selected() *headEntry {
	if len(m.visible) == 0 || m.cursor >= len(m.visible) {
		return nil
	}
	return &m.heads[m.visible[m.cursor]]
}

// syncDetail rebuilds the viewport content for the current selection.
func (m *browseModel) syncDetail() {
	sel := m.selected()
	if sel == nil {
		m.detail.SetContent(ux.Styles.Muted.Render("no heads match"))
		return
	}
	var b strings.Builder
	b.WriteString(ux.Styles.Subtitle.Render(fmt.Sprintf("%d lemmas, highest priority first", len(sel.lemmas))))
	b.WriteString("\n\n")
	for _, l := range sel.lemmas {
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			ux.IconBullet,
			ux.Styles.Bold.Render(lemmaLabel(l)),
			ux.Styles.Muted.Render(fmt.Sprintf("prio %d", l.Prio))))
	}
	for _, s := range m.suggestions {
		if s.head != sel.label {
			continue
		}
		b.WriteString("\n")
		b.WriteString(ux.Styles.Subtitle.Render("advisor hints"))
		b.WriteString("\n")
		if s.err != nil {
			b.WriteString(ux.Styles.Warning.Render(fmt.Sprintf("advisor: %v", s.err)))
			b.WriteString("\n")
			continue
		}
		for _, sug := range s.suggestions {
			b.WriteString(fmt.Sprintf("%s %s", ux.IconArrow, ux.Styles.Highlight.Render(sug.Name)))
			if sug.Rationale != "" {
				b.WriteString(" " + ux.Styles.Muted.Render(sug.Rationale))
			}
			b.WriteString("\n")
		}
	}
	m.detail.SetContent(b.String())
	m.detail.GotoTop()
}

// askAdvisor queries the advisor for the selected head off the event
// loop.
func (m *browseModel) askAdvisor() tea.Cmd {
	sel := m.selected()
	if sel == nil || m.adv == nil {
		return nil
	}
	head := sel.label
	names := make([]string, 0, len(sel.lemmas))
	for _, l := range sel.lemmas {
		names = append(names, lemmaLabel(l))
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		suggestions, err := m.adv.Suggest(ctx, "goal with conclusion head "+head, names)
		return suggestMsg{head: head, suggestions: suggestions, err: err}
	}
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.detail.Width = msg.Width/2 - 4
		m.detail.Height = msg.Height - 6
		m.ready = true
		m.syncDetail()
		return m, nil

	case suggestMsg:
		m.suggestions = append(m.suggestions, msg)
		m.syncDetail()
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			switch msg.Type {
			case tea.KeyEnter, tea.KeyEsc:
				m.filtering = false
				m.filter.Blur()
				return m, nil
			case tea.KeyCtrlC:
				return m, tea.Quit
			default:
				m.filter, cmd = m.filter.Update(msg)
				m.visible = filterHeads(m.heads, m.filter.Value())
				if m.cursor >= len(m.visible) {
					m.cursor = 0
				}
				m.syncDetail()
				return m, cmd
			}
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "/":
			m.filtering = true
			m.filter.Focus()
			return m, textinput.Blink
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.syncDetail()
			}
		case "down", "j":
			if m.cursor < len(m.visible)-1 {
				m.cursor++
				m.syncDetail()
			}
		case "a":
			return m, m.askAdvisor()
		case "pgup":
			m.detail.HalfViewUp()
		case "pgdown":
			m.detail.HalfViewDown()
		}
	}

	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m browseModel) View() string {
	if !m.ready {
		return "loading index..."
	}

	title := ux.Styles.Title.Render(fmt.Sprintf("Lemma index — %d heads", len(m.heads)))

	filterLine := ""
	if m.filtering || m.filter.Value() != "" {
		filterLine = m.filter.View()
	}

	listHeight := m.height - 6
	start := 0
	if m.cursor >= listHeight {
		start = m.cursor - listHeight + 1
	}
	var list strings.Builder
	for row := start; row < len(m.visible) && row < start+listHeight; row++ {
		entry := m.heads[m.visible[row]]
		line := fmt.Sprintf("%s (%d)", entry.label, len(entry.lemmas))
		if row == m.cursor {
			list.WriteString(ux.Styles.Highlight.Render("> " + line))
		} else {
			list.WriteString("  " + line)
		}
		list.WriteString("\n")
	}

	left := lipgloss.NewStyle().Width(m.width / 2).Render(list.String())
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, m.detail.View())

	help := "↑/↓ move · / filter · a advisor hints · q quit"
	if m.adv == nil {
		help = "↑/↓ move · / filter · q quit"
	}

	return fmt.Sprintf("%s\n%s\n%s\n%s", title, filterLine, body,
		ux.Styles.Muted.Render(help))
}
