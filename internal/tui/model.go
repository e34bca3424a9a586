package tui

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mcolombo/buslens/internal/config"
	"github.com/mcolombo/buslens/internal/decode"
	"github.com/mcolombo/buslens/internal/store"
	"github.com/mcolombo/buslens/internal/transport"
	"github.com/mcolombo/buslens/internal/viz"
)

type connectionState int

const (
	stateDisconnected connectionState = iota
	stateConnecting
	stateConnected
)

// encodingCycle is the override rotation for the "o" key. The empty
// entry means "use the payload's declared encoding"; "image" sniffs the
// actual format so the override label never misstates it.
var encodingCycle = []string{"", "text", "json", "protobuf", "image", "raw"}

type model struct {
	config       config.Config
	selector     *viz.Selector
	messages     []Message
	selectedIdx  int
	messageCount int
	connState    connectionState
	connError    error
	width        int
	height       int
	paused       bool
	showRaw      bool
	msgChan      <-chan decode.Raw

	// Subscriber lifecycle
	subscriber    *transport.Subscriber
	cancelConsume context.CancelFunc

	// Persisted per-topic preferences
	prefs        map[string]store.TopicPref
	recentTopics []store.TopicPref
	prefWriter   *store.AsyncWriter

	// Vim command state
	vimKeys VimKeyState

	// Search
	searchMode      bool
	searchQuery     string
	searchInput     textinput.Model
	searchResults   []int
	searchResultIdx int

	// Bookmarks
	bookmarks map[int]bool

	// UI state
	splitRatio   float64
	compactMode  bool
	showHelp     bool
	timestampRel bool

	// New messages indicator (when paused)
	newMsgCount int

	// Throughput
	stats stats

	// Components
	spinner spinner.Model

	// Status messages (brief confirmations)
	statusMsg     string
	statusMsgTime time.Time
}

// Tea messages
type msgReceived struct {
	raw decode.Raw
}

type connectedMsg struct {
	msgChan       <-chan decode.Raw
	subscriber    *transport.Subscriber
	cancelConsume context.CancelFunc
}

type connectionErrorMsg struct {
	err error
}

type decodedMsg struct {
	update viz.Update
}

type prefsLoadedMsg struct {
	prefs      map[string]store.TopicPref
	recent     []store.TopicPref
	prefWriter *store.AsyncWriter
}

type clearStatusMsg struct{}

func initialModel(cfg config.Config, selector *viz.Selector) model {
	si := textinput.New()
	si.Placeholder = "Search..."
	si.CharLimit = 100
	si.Width = 30

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	splitRatio := cfg.DefaultSplitRatio
	if splitRatio == 0 {
		splitRatio = 0.4
	}

	return model{
		config:      cfg,
		selector:    selector,
		messages:    make([]Message, 0, cfg.MessageLimit()),
		connState:   stateConnecting,
		selectedIdx: -1,
		vimKeys:     NewVimKeyState(),
		bookmarks:   make(map[int]bool),
		prefs:       make(map[string]store.TopicPref),
		splitRatio:  splitRatio,
		compactMode: cfg.CompactMode,
		searchInput: si,
		spinner:     sp,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.connectWithRetry(0),
		m.loadPrefs(),
		m.waitForDecode(),
		m.spinner.Tick,
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Handle search mode input
		if m.searchMode {
			switch msg.String() {
			case "esc":
				m.searchMode = false
				m.searchQuery = ""
				m.searchResults = nil
				m.searchInput.Blur()
				return m, nil
			case "enter":
				m.searchMode = false
				m.searchQuery = m.searchInput.Value()
				m.searchInput.Blur()
				m.performSearch()
				return m, nil
			default:
				var cmd tea.Cmd
				m.searchInput, cmd = m.searchInput.Update(msg)
				return m, cmd
			}
		}

		// Handle help overlay
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" || msg.String() == "q" {
				m.showHelp = false
				return m, nil
			}
			return m, nil
		}

		// Handle special keys that bypass vim handler
		switch msg.String() {
		case "ctrl+c":
			m.cleanup()
			return m, tea.Quit
		case "ctrl+u":
			m.moveBy(-m.visibleItems() / 2)
			return m, nil
		case "ctrl+d":
			m.moveBy(m.visibleItems() / 2)
			return m, nil
		case "ctrl+f":
			m.moveBy(m.visibleItems())
			return m, nil
		case "ctrl+b":
			m.moveBy(-m.visibleItems())
			return m, nil
		case "ctrl+j":
			m.selector.LineDown(1)
			return m, nil
		case "ctrl+k":
			m.selector.LineUp(1)
			return m, nil
		case "up":
			m.moveBy(-1)
			return m, nil
		case "down":
			m.moveBy(1)
			return m, nil
		}

		// Process through vim key handler
		result := m.vimKeys.ProcessKey(msg.String())
		if result.Action == "pending" {
			return m, nil
		}

		switch result.Action {
		case "move_down":
			m.moveBy(result.Count)
		case "move_up":
			m.moveBy(-result.Count)
		case "go_top":
			m.selectTo(0)
		case "go_bottom":
			if len(m.messages) > 0 {
				m.selectTo(len(m.messages) - 1)
			}
		case "payload_page_down":
			m.selector.PageDown()
		case "payload_page_up":
			m.selector.PageUp()
		case "payload_top":
			m.selector.GotoTop()
		case "payload_bottom":
			m.selector.GotoBottom()
		case "search_start":
			m.searchMode = true
			m.searchInput.SetValue("")
			m.searchInput.Focus()
			return m, textinput.Blink
		case "search_next":
			m.nextSearchResult()
		case "search_prev":
			m.prevSearchResult()
		case "yank":
			cmds = append(cmds, m.yankMessage())
		case "export":
			cmds = append(cmds, m.exportMessages())
		case "bookmark_toggle":
			m.toggleBookmark()
		case "bookmark_next":
			m.nextBookmark()
		case "cycle_encoding":
			cmds = append(cmds, m.cycleEncoding())
		case "toggle_compact":
			m.compactMode = !m.compactMode
		case "toggle_timestamp":
			m.timestampRel = !m.timestampRel
		case "toggle_raw":
			m.showRaw = !m.showRaw
			m.reingestSelected()
		case "toggle_help":
			m.showHelp = !m.showHelp
		case "resize_left":
			if m.splitRatio > 0.2 {
				m.splitRatio -= 0.05
				m.resizePanes()
			}
		case "resize_right":
			if m.splitRatio < 0.8 {
				m.splitRatio += 0.05
				m.resizePanes()
			}
		case "pause_toggle":
			m.paused = !m.paused
			if !m.paused {
				m.newMsgCount = 0
			}
		case "clear":
			m.messages = m.messages[:0]
			m.selectedIdx = -1
			m.messageCount = 0
			m.bookmarks = make(map[int]bool)
			m.newMsgCount = 0
			m.selector.Select("")
		case "quit":
			m.cleanup()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizePanes()

	case connectedMsg:
		m.connState = stateConnected
		m.msgChan = msg.msgChan
		m.subscriber = msg.subscriber
		m.cancelConsume = msg.cancelConsume
		cmds = append(cmds, m.waitForMessage())

	case connectionErrorMsg:
		m.connState = stateDisconnected
		m.connError = msg.err

	case retryMsg:
		m.connState = stateConnecting
		m.connError = nil
		cmds = append(cmds, scheduleRetry(msg.attempt, msg.delay))

	case retryTickMsg:
		cmds = append(cmds, m.connectWithRetry(msg.attempt))

	case prefsLoadedMsg:
		m.prefs = msg.prefs
		m.recentTopics = msg.recent
		m.prefWriter = msg.prefWriter

	case msgReceived:
		m.stats.record(msg.raw.Timestamp, len(msg.raw.Body))
		if m.paused {
			m.newMsgCount++
		} else {
			m.appendMessage(msg.raw)
		}
		cmds = append(cmds, m.waitForMessage())

	case decodedMsg:
		m.selector.Apply(msg.update)
		cmds = append(cmds, m.waitForDecode())

	case spinner.TickMsg:
		// Only tick spinner when connecting
		if m.connState == stateConnecting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case clearStatusMsg:
		m.statusMsg = ""
	}

	return m, tea.Batch(cmds...)
}

// appendMessage adds a live message to the ring, keeping the cap and
// following the tail when the selection already sits on the latest entry.
func (m *model) appendMessage(raw decode.Raw) {
	m.messageCount++
	msg := messageFromRaw(raw)
	msg.ID = m.messageCount
	m.messages = append(m.messages, msg)

	limit := m.config.MessageLimit()
	if len(m.messages) > limit {
		delete(m.bookmarks, m.messages[0].ID)
		m.messages = m.messages[1:]
		if m.selectedIdx > 0 {
			m.selectedIdx--
		}
	}

	followTail := m.selectedIdx == len(m.messages)-2

	switch {
	case m.selectedIdx < 0:
		// First message: bind the pane to it
		m.selectTo(len(m.messages) - 1)
	case followTail:
		m.selectTo(len(m.messages) - 1)
	case m.selectedMessage() != nil && m.selectedMessage().Topic == raw.Topic:
		// Live refresh for the inspected topic without moving the selection
		m.selector.Ingest(m.rawFor(messageFromRaw(raw)))
	}
}

func (m *model) selectedMessage() *Message {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.messages) {
		return nil
	}
	return &m.messages[m.selectedIdx]
}

// selectTo moves the selection and rebinds the visualization pane.
func (m *model) selectTo(idx int) {
	if len(m.messages) == 0 {
		m.selectedIdx = -1
		return
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(m.messages) {
		idx = len(m.messages) - 1
	}
	m.selectedIdx = idx

	msg := m.messages[idx]
	topicChanged := m.selector.Topic() != msg.Topic
	m.selector.Select(msg.Topic)
	m.selector.Ingest(m.rawFor(msg))

	if topicChanged && m.prefWriter != nil {
		m.prefWriter.RecordSelection(msg.Topic)
	}
}

// rawFor applies the raw toggle and any persisted per-topic encoding
// override before a payload goes to the decoder.
func (m *model) rawFor(msg Message) decode.Raw {
	raw := msg.raw()
	if m.showRaw {
		raw.Encoding = "raw"
	} else if p, ok := m.prefs[msg.Topic]; ok && p.EncodingOverride != "" {
		raw.Encoding = p.EncodingOverride
	}
	return raw
}

func (m *model) reingestSelected() {
	if msg := m.selectedMessage(); msg != nil {
		m.selector.Ingest(m.rawFor(*msg))
	}
}

func (m *model) cycleEncoding() tea.Cmd {
	msg := m.selectedMessage()
	if msg == nil {
		return nil
	}

	current := m.prefs[msg.Topic].EncodingOverride
	next := encodingCycle[0]
	for i, enc := range encodingCycle {
		if enc == current {
			next = encodingCycle[(i+1)%len(encodingCycle)]
			break
		}
	}

	p := m.prefs[msg.Topic]
	p.Topic = msg.Topic
	p.EncodingOverride = next
	m.prefs[msg.Topic] = p
	if m.prefWriter != nil {
		m.prefWriter.SetEncodingOverride(msg.Topic, next)
	}
	m.reingestSelected()

	label := next
	if label == "" {
		label = "auto"
	}
	return m.setStatusMsg(fmt.Sprintf("Encoding for %s: %s", msg.Topic, label))
}

func (m *model) moveBy(delta int) {
	if len(m.messages) == 0 {
		return
	}
	newIdx := m.selectedIdx + delta
	if newIdx < 0 {
		newIdx = 0
	}
	if newIdx >= len(m.messages) {
		newIdx = len(m.messages) - 1
	}
	if newIdx != m.selectedIdx {
		m.selectTo(newIdx)
	}
}

func (m *model) resizePanes() {
	contentHeight := m.height - 5 // header(3) + status(1) + help(1)
	if contentHeight < 3 {
		contentHeight = 3
	}
	listWidth := int(float64(m.width) * m.splitRatio)
	if listWidth < 20 {
		listWidth = 20
	}
	payloadWidth := m.width - listWidth - 1
	if payloadWidth < 20 {
		payloadWidth = 20
	}

	// Account for border and padding of the payload pane, and one line
	// for its topic header
	m.selector.SetSize(payloadWidth-4, contentHeight-5)
}

func (m model) visibleItems() int {
	// Account for borders (2) in message list
	items := m.height - 7
	if items < 1 {
		return 1
	}
	return items
}

func (m *model) performSearch() {
	m.searchResults = computeSearchResults(m.messages, m.searchQuery)
	m.searchResultIdx = 0
	if len(m.searchResults) > 0 {
		m.selectTo(m.searchResults[0])
	}
}

func (m *model) nextSearchResult() {
	if len(m.searchResults) == 0 {
		return
	}
	m.selectTo(nextVisible(m.searchResults, m.selectedIdx))
	m.syncSearchIdx()
}

func (m *model) prevSearchResult() {
	if len(m.searchResults) == 0 {
		return
	}
	m.selectTo(prevVisible(m.searchResults, m.selectedIdx))
	m.syncSearchIdx()
}

// syncSearchIdx recomputes the [i/n] status indicator from the selection.
func (m *model) syncSearchIdx() {
	idx := sort.SearchInts(m.searchResults, m.selectedIdx)
	if idx >= len(m.searchResults) {
		idx = len(m.searchResults) - 1
	}
	m.searchResultIdx = idx
}

func (m *model) toggleBookmark() {
	msg := m.selectedMessage()
	if msg == nil {
		return
	}
	if m.bookmarks[msg.ID] {
		delete(m.bookmarks, msg.ID)
	} else {
		m.bookmarks[msg.ID] = true
	}
}

func (m *model) nextBookmark() {
	if len(m.bookmarks) == 0 {
		return
	}

	// Find next bookmarked message after current position
	for i := m.selectedIdx + 1; i < len(m.messages); i++ {
		if m.bookmarks[m.messages[i].ID] {
			m.selectTo(i)
			return
		}
	}
	// Wrap around
	for i := 0; i <= m.selectedIdx && i < len(m.messages); i++ {
		if m.bookmarks[m.messages[i].ID] {
			m.selectTo(i)
			return
		}
	}
}

func (m *model) yankMessage() tea.Cmd {
	msg := m.selectedMessage()
	if msg == nil {
		return nil
	}

	type yankMessage struct {
		Topic     string    `json:"topic"`
		Encoding  string    `json:"encoding"`
		Timestamp time.Time `json:"timestamp"`
		Body      string    `json:"body"`
	}

	yank := yankMessage{
		Topic:     msg.Topic,
		Encoding:  msg.Encoding,
		Timestamp: msg.Timestamp,
		Body:      encodeBody(msg.Body),
	}

	content, _ := json.MarshalIndent(yank, "", "  ")

	if err := clipboard.WriteAll(string(content)); err != nil {
		return m.setStatusMsg("Copy failed: " + err.Error())
	}
	return m.setStatusMsg("Copied to clipboard")
}

func (m *model) exportMessages() tea.Cmd {
	if len(m.messages) == 0 {
		return m.setStatusMsg("No messages to export")
	}

	type exportMessage struct {
		ID        int       `json:"id"`
		Topic     string    `json:"topic"`
		Encoding  string    `json:"encoding"`
		Timestamp time.Time `json:"timestamp"`
		Body      string    `json:"body"`
	}

	exports := make([]exportMessage, len(m.messages))
	for i, msg := range m.messages {
		exports[i] = exportMessage{
			ID:        msg.ID,
			Topic:     msg.Topic,
			Encoding:  msg.Encoding,
			Timestamp: msg.Timestamp,
			Body:      encodeBody(msg.Body),
		}
	}

	filename := fmt.Sprintf("buslens-export-%s.json", time.Now().Format("20060102-150405"))
	data, _ := json.MarshalIndent(exports, "", "  ")
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return m.setStatusMsg("Export failed: " + err.Error())
	}
	return m.setStatusMsg(fmt.Sprintf("Exported to %s", filename))
}

// encodeBody keeps printable payloads readable in exports and falls back
// to base64 for binary ones.
func encodeBody(body []byte) string {
	for _, b := range body {
		if b < 32 && b != '\n' && b != '\r' && b != '\t' {
			return base64.StdEncoding.EncodeToString(body)
		}
	}
	return string(body)
}

func (m *model) setStatusMsg(msg string) tea.Cmd {
	m.statusMsg = msg
	m.statusMsgTime = time.Now()
	return tea.Tick(3*time.Second, func(_ time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

func (m *model) cleanup() {
	if m.config.ConfigDir != "" && m.splitRatio != m.config.DefaultSplitRatio {
		_ = config.SaveSplitRatio(m.config.ConfigDir, m.splitRatio)
	}
	if m.cancelConsume != nil {
		m.cancelConsume()
		m.cancelConsume = nil
	}
	if m.subscriber != nil {
		m.subscriber.Close()
		m.subscriber = nil
	}
	if m.prefWriter != nil {
		m.prefWriter.Close()
		m.prefWriter = nil
	}
	m.selector.Close()
}

func (m model) View() string {
	if m.width == 0 {
		return m.spinner.View() + " Loading..."
	}

	// Help overlay
	if m.showHelp {
		return m.renderHelpOverlay()
	}

	contentHeight := m.height - 5
	if contentHeight < 3 {
		contentHeight = 3
	}

	listWidth := int(float64(m.width) * m.splitRatio)
	if listWidth < 20 {
		listWidth = 20
	}
	payloadWidth := m.width - listWidth - 1
	if payloadWidth < 20 {
		payloadWidth = 20
	}

	header := headerStyle.Width(m.width - 2).Render("buslens")
	status := m.renderStatusBar()

	messageList := m.renderMessageList(listWidth, contentHeight)
	payloadPane := m.renderPayloadPane(payloadWidth, contentHeight)

	content := lipgloss.JoinHorizontal(lipgloss.Top, messageList, payloadPane)

	var bottomBar string
	if m.searchMode {
		bottomBar = m.renderSearchBar()
	} else {
		bottomBar = m.renderHelpBar()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, status, content, bottomBar)
}

func (m model) renderStatusBar() string {
	var connStatus string
	switch m.connState {
	case stateConnected:
		connStatus = connectedStyle.Render("● Connected")
	case stateConnecting:
		connStatus = statusBarStyle.Render(m.spinner.View() + " Connecting...")
	default:
		connStatus = disconnectedStyle.Render("○ Disconnected")
		if m.connError != nil {
			connStatus += errorStyle.Render(fmt.Sprintf(" (%s)", m.connError.Error()))
		}
	}

	exchange := statusBarStyle.Render(fmt.Sprintf("Exchange: %s", m.config.Exchange))
	topic := statusBarStyle.Render(fmt.Sprintf("Topic: %s", m.config.Topic))

	rate := statusBarStyle.Render(formatRate(m.stats.msgPerSec(time.Now())))
	avg := statusBarStyle.Render("avg " + formatBytes(m.stats.avgSize()))
	msgCount := statusBarStyle.Render(fmt.Sprintf("Messages: %d", len(m.messages)))

	pausedStatus := ""
	if m.paused {
		pausedStatus = disconnectedStyle.Render(" [PAUSED]")
		if m.newMsgCount > 0 {
			pausedStatus += " " + newMsgStyle.Render(fmt.Sprintf("+%d new", m.newMsgCount))
		}
	}

	searchStatus := ""
	if m.searchQuery != "" {
		if len(m.searchResults) > 0 {
			searchStatus = statusBarStyle.Render(fmt.Sprintf(" [%d/%d]", m.searchResultIdx+1, len(m.searchResults)))
		} else {
			searchStatus = mutedStyle.Render(" (no matches)")
		}
	}

	statusMsgDisplay := ""
	if m.statusMsg != "" && time.Since(m.statusMsgTime) < 3*time.Second {
		statusMsgDisplay = "  " + confirmationStyle.Render(m.statusMsg)
	}

	segments := []string{
		connStatus + pausedStatus + searchStatus + statusMsgDisplay,
		exchange,
		topic,
		rate,
		avg,
		msgCount,
	}
	if protoTypesLoaded > 0 {
		proto := fmt.Sprintf("proto: %d types", protoTypesLoaded)
		if n := len(protoFilesSkipped); n > 0 {
			proto += errorStyle.Render(fmt.Sprintf(" (%d files skipped)", n))
		}
		segments = append(segments, statusBarStyle.Render(proto))
	}

	return strings.Join(segments, "  │  ")
}

func (m model) renderMessageList(width, height int) string {
	// Account for border (2 lines)
	innerHeight := height - 2
	if innerHeight < 1 {
		innerHeight = 1
	}

	// Empty state
	if len(m.messages) == 0 {
		empty := []string{
			"",
			emptyStateStyle.Render("No messages yet"),
			"",
			mutedStyle.Render(fmt.Sprintf("Watching: %s", m.config.Exchange)),
			mutedStyle.Render(fmt.Sprintf("Topic: %s", m.config.Topic)),
		}
		if len(m.recentTopics) > 0 {
			empty = append(empty, "", mutedStyle.Render("Recently inspected:"))
			for _, p := range m.recentTopics {
				empty = append(empty, mutedStyle.Render("  "+truncate(p.Topic, width-6)))
			}
		}
		empty = append(empty, "", mutedStyle.Render("Press ? for help"))
		return messageListStyle.Width(width).Height(height).Render(strings.Join(empty, "\n"))
	}

	startIdx := 0
	if m.selectedIdx >= innerHeight {
		startIdx = m.selectedIdx - innerHeight + 1
	}

	endIdx := startIdx + innerHeight
	if endIdx > len(m.messages) {
		endIdx = len(m.messages)
	}

	items := make([]string, 0, innerHeight)
	innerWidth := width - 4 // Account for border and padding

	for i := startIdx; i < endIdx; i++ {
		msg := m.messages[i]

		prefix := "  "
		if m.bookmarks[msg.ID] {
			prefix = " *"
		}
		if i == m.selectedIdx {
			prefix = " >"
		}

		var line string
		if m.compactMode {
			topic := truncate(msg.Topic, innerWidth-3)
			line = prefix + topic
		} else {
			var ts string
			if m.timestampRel {
				ts = formatRelativeTime(msg.Timestamp)
			} else {
				ts = msg.Timestamp.Format("15:04:05")
			}
			topic := truncate(msg.Topic, innerWidth-12)
			line = fmt.Sprintf("%s%s %s", prefix, ts, topic)
		}

		if i == m.selectedIdx {
			line = selectedMessageStyle.Render(line)
		} else if m.bookmarks[msg.ID] {
			line = bookmarkStyle.Render(line)
		}

		items = append(items, line)
	}

	content := strings.Join(items, "\n")
	return messageListStyle.Width(width).Height(height).Render(content)
}

func (m model) renderPayloadPane(width, height int) string {
	msg := m.selectedMessage()
	if msg == nil {
		return payloadPaneStyle.Width(width).Height(height).Render(
			mutedStyle.Render("Select a message to inspect its payload"),
		)
	}

	innerWidth := width - 4

	// Topic header for the pane: topic, declared or forced encoding,
	// scroll position marker
	enc := msg.Encoding
	if m.showRaw {
		enc = "raw (forced)"
	} else if p, ok := m.prefs[msg.Topic]; ok && p.EncodingOverride != "" {
		enc = p.EncodingOverride + " (override)"
	}
	if enc == "" {
		enc = "unknown"
	}

	header := fieldNameStyle.Render(truncate(msg.Topic, innerWidth-14)) +
		" " + encodingStyle.Render("["+enc+"]") + m.scrollMarker()

	lines := []string{
		header,
		dividerStyle.Render(strings.Repeat("─", max(innerWidth, 1))),
		"",
		m.selector.CurrentView(),
	}

	content := strings.Join(lines, "\n")
	return payloadPaneStyle.Width(width).Height(height).Render(content)
}

func (m model) scrollMarker() string {
	switch m.selector.ScrollPos() {
	case viz.AtBottom:
		return mutedStyle.Render(" ⇣ bot")
	case viz.Scrolled:
		return mutedStyle.Render(" ~")
	default:
		return ""
	}
}

func (m model) renderSearchBar() string {
	return helpStyle.Render("Search: ") + m.searchInput.View() + helpStyle.Render("  (Enter to search, Esc to cancel)")
}

func (m model) renderHelpBar() string {
	keys := []struct{ key, desc string }{
		{"j/k", "nav"},
		{"gg/G", "top/end"},
		{"J/K", "scroll payload"},
		{"/", "search"},
		{"y", "copy"},
		{"o", "encoding"},
		{"r", "raw"},
		{"p", "pause"},
		{"?", "help"},
		{"q", "quit"},
	}

	var parts []string
	for _, k := range keys {
		parts = append(parts, helpKeyStyle.Render(k.key)+" "+k.desc)
	}

	bar := helpStyle.Render(strings.Join(parts, " │ "))

	// Echo an in-flight vim sequence, e.g. "5" or "z"
	pending := ""
	if n := m.vimKeys.GetNumericPrefix(); n > 0 {
		pending = fmt.Sprintf("%d", n)
	}
	pending += m.vimKeys.GetPending()
	if pending != "" {
		bar += helpKeyStyle.Render("  " + pending)
	}

	return bar
}

func (m model) renderHelpOverlay() string {
	var lines []string

	lines = append(lines, fieldNameStyle.Render("Keybindings"))
	lines = append(lines, "")

	sections := []struct {
		name string
		keys []struct{ key, desc string }
	}{
		{
			name: "Navigation",
			keys: []struct{ key, desc string }{
				{"j / k", "Move down / up"},
				{"5j / 10k", "Move 5 down / 10 up"},
				{"gg", "Go to top"},
				{"G", "Go to bottom"},
				{"Ctrl+U / Ctrl+D", "Half page up / down"},
				{"Ctrl+F / Ctrl+B", "Full page up / down"},
			},
		},
		{
			name: "Payload pane",
			keys: []struct{ key, desc string }{
				{"Ctrl+J / Ctrl+K", "Scroll line down / up"},
				{"J / K", "Scroll page down / up"},
				{"zt / zb", "Jump to top / bottom"},
				{"o", "Cycle encoding override"},
				{"r", "Toggle raw hex view"},
			},
		},
		{
			name: "Search",
			keys: []struct{ key, desc string }{
				{"/", "Start search (t:, e:, b:, re: prefixes)"},
				{"n / N", "Next / previous result"},
				{"Esc", "Clear search"},
			},
		},
		{
			name: "Actions",
			keys: []struct{ key, desc string }{
				{"y", "Copy message to clipboard"},
				{"e", "Export all messages to JSON"},
				{"m", "Toggle bookmark"},
				{"'", "Jump to next bookmark"},
				{"c", "Clear all messages"},
			},
		},
		{
			name: "Control",
			keys: []struct{ key, desc string }{
				{"p / Space", "Pause / resume"},
				{"t / T", "Compact mode / timestamp format"},
				{"H / L", "Resize panes left / right"},
				{"q / Ctrl+C", "Quit"},
			},
		},
	}

	for _, section := range sections {
		lines = append(lines, helpCategoryStyle.Render(section.name))
		for _, k := range section.keys {
			lines = append(lines, fmt.Sprintf("  %-18s %s", helpKeyStyle.Render(k.key), k.desc))
		}
		lines = append(lines, "")
	}

	if len(protoFilesSkipped) > 0 {
		lines = append(lines, helpCategoryStyle.Render("Proto files skipped"))
		for _, e := range protoFilesSkipped {
			lines = append(lines, "  "+mutedStyle.Render(truncate(e, 50)))
		}
		lines = append(lines, "")
	}

	lines = append(lines, mutedStyle.Render("Press ? or Esc to close"))

	content := strings.Join(lines, "\n")

	overlayWidth := 56
	overlayHeight := len(lines) + 4
	if overlayHeight > m.height-4 {
		overlayHeight = m.height - 4
	}

	overlay := helpOverlayStyle.Width(overlayWidth).Render(content)

	// Center the overlay
	hPad := (m.width - overlayWidth) / 2
	vPad := (m.height - overlayHeight) / 2
	if hPad < 0 {
		hPad = 0
	}
	if vPad < 0 {
		vPad = 0
	}

	return lipgloss.NewStyle().
		PaddingLeft(hPad).
		PaddingTop(vPad).
		Render(overlay)
}

func truncate(s string, max int) string {
	if max <= 3 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func formatRelativeTime(t time.Time) string {
	d := time.Since(t)
	if d < time.Second {
		return "now"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}
