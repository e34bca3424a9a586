package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mcolombo/buslens/internal/config"
	"github.com/mcolombo/buslens/internal/viz"
)

type appView int

const (
	appViewURLPrompt appView = iota
	appViewInspector
)

// appModel wraps the URL prompt and the inspector: the prompt collects a
// broker URL when none was configured, then hands over to the inspector.
type appModel struct {
	config   config.Config
	selector *viz.Selector
	view     appView

	prompt    urlPromptModel
	inspector model
}

func newAppModel(cfg config.Config, selector *viz.Selector) appModel {
	return appModel{
		config:   cfg,
		selector: selector,
		view:     appViewURLPrompt,
		prompt:   newURLPromptModel(),
	}
}

func (m appModel) Init() tea.Cmd {
	return m.prompt.Init()
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(urlEnteredMsg); ok {
		m.view = appViewInspector
		cfg := m.config
		cfg.BrokerURL = msg.url
		m.inspector = initialModel(cfg, m.selector)
		m.inspector.width = m.prompt.width
		m.inspector.height = m.prompt.height
		m.inspector.resizePanes()
		return m, m.inspector.Init()
	}

	switch m.view {
	case appViewURLPrompt:
		newPrompt, cmd := m.prompt.Update(msg)
		m.prompt = newPrompt.(urlPromptModel)
		return m, cmd

	case appViewInspector:
		newInspector, cmd := m.inspector.Update(msg)
		m.inspector = newInspector.(model)
		return m, cmd
	}

	return m, nil
}

func (m appModel) View() string {
	switch m.view {
	case appViewURLPrompt:
		return m.prompt.View()
	case appViewInspector:
		return m.inspector.View()
	}
	return ""
}
