// Copyright 2023 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/ssh"
	"github.com/dustin/go-humanize"

	"github.com/binkynet/WallClock/pkg/service"
)

const (
	refreshInterval = time.Millisecond * 100
	loadAvgInterval = time.Second * 2
	shortPressHold  = time.Millisecond * 100
	longPressHold   = time.Millisecond * 2500
)

// Service is the part of the worker the console uses.
type Service interface {
	Status() service.Status
	PressButton(ctx context.Context, hold time.Duration) error
}

// UI creates console sessions.
type UI struct {
	service Service
}

// New creates a new console.
func New(svc Service) *UI {
	return &UI{service: svc}
}

// Handler creates the model for a new SSH session.
func (u *UI) Handler(s ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, _ := s.Pty()
	r := NewRoot(u.service)
	r.term = pty.Term
	r.width = pty.Window.Width
	r.height = pty.Window.Height
	return r, []tea.ProgramOption{tea.WithAltScreen()}
}

type keyMap struct {
	Press     key.Binding
	LongPress key.Binding
	KernelLog key.Binding
	MemInfo   key.Binding
	Back      key.Binding
	Quit      key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Press, k.LongPress, k.KernelLog, k.MemInfo, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Back}}
}

var keys = keyMap{
	Press:     key.NewBinding(key.WithKeys("p", " "), key.WithHelp("p", "press")),
	LongPress: key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "long press")),
	KernelLog: key.NewBinding(key.WithKeys("k"), key.WithHelp("k", "view /proc/kmsg")),
	MemInfo:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "view /proc/meminfo")),
	Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "disconnect")),
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Faint(true).Width(14)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff0000"))
)

// Root is the model of a console session.
type Root struct {
	service Service
	term    string
	width   int
	height  int
	loadAvg string
	status  service.Status
	message string
	help    help.Model

	showFile struct {
		active   bool
		viewPort viewport.Model
	}
}

var _ tea.Model = Root{}

// NewRoot creates the model of a console session.
func NewRoot(svc Service) Root {
	return Root{
		service: svc,
		status:  svc.Status(),
		help:    help.New(),
	}
}

// Init is the first function that will be called. It returns an optional
// initial command. To not perform an initial command return nil.
func (r Root) Init() tea.Cmd {
	return tea.Batch(doReloadCPULoadAvg(), doRefreshStatus(r.service))
}

// Update is called when a message is received. Use it to inspect messages
// and, in response, update the model and/or send a command.
func (r Root) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case loadAvgMsg:
		r.loadAvg = string(msg)
		return r, doReloadCPULoadAvg()
	case statusMsg:
		r.status = service.Status(msg)
		return r, doRefreshStatus(r.service)
	case pressResultMsg:
		r.message = string(msg)
		return r, nil
	case tea.WindowSizeMsg:
		r.height = msg.Height
		r.width = msg.Width
		r.help.Width = msg.Width
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return r, tea.Quit
		case key.Matches(msg, keys.Back):
			r.showFile.active = false
		case r.showFile.active:
			// Keys go to the viewport
		case key.Matches(msg, keys.Press):
			r.message = "Pressing button..."
			return r, doPress(r.service, shortPressHold)
		case key.Matches(msg, keys.LongPress):
			r.message = "Holding button..."
			return r, doPress(r.service, longPressHold)
		case key.Matches(msg, keys.KernelLog):
			r = r.openFile("/proc/kmsg")
		case key.Matches(msg, keys.MemInfo):
			r = r.openFile("/proc/meminfo")
		}
	}

	// Handle keyboard and mouse events in the viewport
	if r.showFile.active {
		var cmd tea.Cmd
		r.showFile.viewPort, cmd = r.showFile.viewPort.Update(msg)
		cmds = append(cmds, cmd)
	}

	return r, tea.Batch(cmds...)
}

// View renders the program's UI, which is just a string. The view is
// rendered after every Update.
func (r Root) View() string {
	s := r.headerView()
	if r.showFile.active {
		return s + r.showFile.viewPort.View()
	}
	return s + r.statusView() + "\n" + r.help.View(keys) + "\n"
}

func (r Root) headerView() string {
	return lipgloss.JoinHorizontal(lipgloss.Left,
		titleStyle.Render("Welcome to the Wall Clock worker! "),
		r.loadAvg,
	) + "\n"
}

// stripView renders the pixels of the strip as colored blocks.
func (r Root) stripView() string {
	blocks := make([]string, 0, len(r.status.Frame))
	for _, c := range r.status.Frame {
		style := lipgloss.NewStyle().Background(lipgloss.Color(c.Hex()))
		blocks = append(blocks, style.Render("    "))
	}
	return strings.Join(blocks, " ")
}

func (r Root) statusView() string {
	st := r.status
	lines := []string{
		r.stripView(),
		"",
		labelStyle.Render("Status") + st.Status,
		labelStyle.Render("Energy") + fmt.Sprintf("%d/7", st.EnergyLevel),
		labelStyle.Render("Uptime") + st.Uptime,
		labelStyle.Render("Frames") + humanize.Comma(int64(st.Frames)),
		labelStyle.Render("Toggles") + fmt.Sprintf("%d (%d failed)", st.Toggles, st.Failed),
	}
	if ss := st.Session; ss != nil {
		session := "clocked out"
		if ss.ClockedIn {
			session = fmt.Sprintf("clocked in for %s", ss.Worked)
		}
		lines = append(lines, labelStyle.Render("Session")+session)
	}
	if e := st.LastEvent; e != nil {
		lines = append(lines, labelStyle.Render("Last event")+fmt.Sprintf("%s (%s, %s)", e.Event, e.Source, e.Ago))
	}
	if t := st.LastToggle; t != nil {
		result := "succeeded"
		if !t.Succeeded {
			result = errorStyle.Render("failed: " + t.Error)
		}
		lines = append(lines, labelStyle.Render("Last toggle")+fmt.Sprintf("%s after %d attempt(s), %s", result, t.Attempts, t.Ago))
	}
	if r.message != "" {
		lines = append(lines, "", r.message)
	}
	return strings.Join(lines, "\n") + "\n"
}

func (r Root) openFile(path string) Root {
	headerHeight := lipgloss.Height(r.headerView())

	content, err := os.ReadFile(path)
	if err != nil {
		content = []byte(err.Error())
	}
	r.showFile.viewPort = viewport.New(r.width, r.height-headerHeight)
	r.showFile.viewPort.YPosition = headerHeight
	r.showFile.viewPort.SetContent(string(content))
	r.showFile.active = true

	return r
}

type loadAvgMsg string

func doReloadCPULoadAvg() tea.Cmd {
	return tea.Tick(loadAvgInterval, func(t time.Time) tea.Msg {
		if content, err := os.ReadFile("/proc/loadavg"); err != nil {
			return loadAvgMsg(err.Error())
		} else {
			return loadAvgMsg(string(content))
		}
	})
}

type statusMsg service.Status

func doRefreshStatus(svc Service) tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return statusMsg(svc.Status())
	})
}

type pressResultMsg string

func doPress(svc Service, hold time.Duration) tea.Cmd {
	return func() tea.Msg {
		if err := svc.PressButton(context.Background(), hold); err != nil {
			return pressResultMsg("Press failed: " + err.Error())
		}
		return pressResultMsg(fmt.Sprintf("Pressed for %s", hold))
	}
}
