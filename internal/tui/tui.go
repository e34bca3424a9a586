package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mcolombo/buslens/internal/config"
	"github.com/mcolombo/buslens/internal/decode"
	"github.com/mcolombo/buslens/internal/store"
	"github.com/mcolombo/buslens/internal/transport"
	"github.com/mcolombo/buslens/internal/viz"
)

const maxRetryAttempts = 5

var protoTypesLoaded int

var protoFilesSkipped []string

func Run(cfg config.Config) error {
	registry := decode.NewRegistry()

	// Wire up protobuf decoding if a schema directory was provided
	if cfg.ProtoPath != "" {
		ps, err := decode.LoadProtoSet(cfg.ProtoPath)
		if err != nil {
			return fmt.Errorf("failed to load proto files: %w", err)
		}
		registry.Register("protobuf", ps.Decoder())
		protoTypesLoaded = len(ps.TypeNames())
		protoFilesSkipped = ps.ParseErrors
	}

	selector := viz.NewSelector(registry, cfg.WrapWidth)

	var m tea.Model

	// If a broker URL is already known, go directly to the inspector.
	// Otherwise prompt for one first.
	if cfg.BrokerURL != "" {
		m = initialModel(cfg, selector)
	} else {
		m = newAppModel(cfg, selector)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}

	return nil
}

func (m model) connectCmd() tea.Cmd {
	return func() tea.Msg {
		sub, err := transport.NewSubscriber(transport.Config{
			URL:      m.config.BrokerURL,
			Exchange: m.config.Exchange,
			Topic:    m.config.Topic,
		})
		if err != nil {
			return connectionErrorMsg{err: err}
		}

		ctx, cancel := context.WithCancel(context.Background())
		msgChan, err := sub.Subscribe(ctx)
		if err != nil {
			cancel()
			sub.Close()
			return connectionErrorMsg{err: err}
		}

		return connectedMsg{msgChan: msgChan, subscriber: sub, cancelConsume: cancel}
	}
}

type retryMsg struct {
	attempt int
	delay   time.Duration
}

type retryTickMsg struct {
	attempt int
}

// connectWithRetry attempts a connection and schedules a backed-off retry
// on failure, up to maxRetryAttempts.
func (m model) connectWithRetry(attempt int) tea.Cmd {
	connect := m.connectCmd()
	return func() tea.Msg {
		msg := connect()
		if _, ok := msg.(connectionErrorMsg); ok && attempt < maxRetryAttempts {
			return retryMsg{
				attempt: attempt + 1,
				delay:   retryDelay(attempt + 1),
			}
		}
		return msg
	}
}

// retryDelay doubles per attempt: 1s, 2s, 4s, 8s, 16s.
func retryDelay(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * time.Second
}

func scheduleRetry(attempt int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return retryTickMsg{attempt: attempt}
	})
}

func (m model) waitForMessage() tea.Cmd {
	return func() tea.Msg {
		if m.msgChan == nil {
			return nil
		}
		raw, ok := <-m.msgChan
		if !ok {
			return connectionErrorMsg{err: fmt.Errorf("connection lost")}
		}
		return msgReceived{raw: raw}
	}
}

// waitForDecode bridges the selector's worker results into the update loop.
func (m model) waitForDecode() tea.Cmd {
	results := m.selector.Results()
	return func() tea.Msg {
		u, ok := <-results
		if !ok {
			return nil
		}
		return decodedMsg{update: u}
	}
}

// loadPrefs opens the preferences store and loads per-topic settings.
// A missing or broken store degrades to in-memory prefs only.
func (m model) loadPrefs() tea.Cmd {
	dbPath := m.config.DBPath
	return func() tea.Msg {
		st, err := store.NewStore(dbPath)
		if err != nil {
			return prefsLoadedMsg{prefs: make(map[string]store.TopicPref)}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		prefs, err := st.LoadPrefs(ctx)
		if err != nil {
			prefs = make(map[string]store.TopicPref)
		}
		recent, err := st.RecentTopics(ctx, 5)
		if err != nil {
			recent = nil
		}

		return prefsLoadedMsg{
			prefs:      prefs,
			recent:     recent,
			prefWriter: store.NewAsyncWriter(st),
		}
	}
}
