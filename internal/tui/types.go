package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

type screen int

const (
	screenChapters screen = iota
	screenQueue
)

// Selection scope name for the chapter list screen. The queue screen keeps
// no selection; its actions work on the cursor row.
const scopeChapters = "chapters"

const (
	minListWidth   = 40
	toastDuration  = 4 * time.Second
	feedRetryDelay = 2 * time.Second
)

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Toggle     key.Binding
	Range      key.Binding
	SelectAll  key.Binding
	SelectNone key.Binding
	MarkRead   key.Binding
	Enqueue    key.Binding
	FilterRead key.Binding
	FilterDown key.Binding
	FilterMark key.Binding
	CycleSort  key.Binding
	Reverse    key.Binding
	SavePrefs  key.Binding
	MoveUp     key.Binding
	MoveDown   key.Binding
	Delete     key.Binding
	StartStop  key.Binding
	Clear      key.Binding
	Reload     key.Binding
	SwitchView key.Binding
	Quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k")),
		Down:       key.NewBinding(key.WithKeys("down", "j")),
		Toggle:     key.NewBinding(key.WithKeys(" ")),
		Range:      key.NewBinding(key.WithKeys("v")),
		SelectAll:  key.NewBinding(key.WithKeys("a")),
		SelectNone: key.NewBinding(key.WithKeys("A", "esc")),
		MarkRead:   key.NewBinding(key.WithKeys("m")),
		Enqueue:    key.NewBinding(key.WithKeys("d")),
		FilterRead: key.NewBinding(key.WithKeys("u")),
		FilterDown: key.NewBinding(key.WithKeys("D")),
		FilterMark: key.NewBinding(key.WithKeys("b")),
		CycleSort:  key.NewBinding(key.WithKeys("o")),
		Reverse:    key.NewBinding(key.WithKeys("O")),
		SavePrefs:  key.NewBinding(key.WithKeys("s")),
		MoveUp:     key.NewBinding(key.WithKeys("K", "shift+up")),
		MoveDown:   key.NewBinding(key.WithKeys("J", "shift+down")),
		Delete:     key.NewBinding(key.WithKeys("x", "delete")),
		StartStop:  key.NewBinding(key.WithKeys("p")),
		Clear:      key.NewBinding(key.WithKeys("C")),
		Reload:     key.NewBinding(key.WithKeys("r")),
		SwitchView: key.NewBinding(key.WithKeys("tab")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c")),
	}
}

var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	helperStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	toastStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("229")).Padding(0, 1)
	cursorLineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))
	selectedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#bde0fe"))
	readStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	badgeQueuedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	badgeActiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	badgeErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusBarStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
)
