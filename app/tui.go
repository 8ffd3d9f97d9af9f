package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sys/unix"

	"docfind/config"
	"docfind/search"
)

// progressMsg updates the top progress line while loading.
// Format in View: "⏳ {Stage} [num/total]: filename"
type progressMsg struct {
	Stage string
	Count int
	Total int
	Path  string
}

// progressBoard keeps the newest progress report from the extraction
// goroutines; the UI polls it on a tick.
type progressBoard struct {
	mu     sync.Mutex
	latest progressMsg
	have   bool
}

func (b *progressBoard) report(stage string, processed, total int, name string) {
	b.mu.Lock()
	b.latest = progressMsg{Stage: stage, Count: processed, Total: total, Path: name}
	b.have = true
	b.mu.Unlock()
}

func (b *progressBoard) snapshot() (progressMsg, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest, b.have
}

func (b *progressBoard) reset() {
	b.mu.Lock()
	b.have = false
	b.mu.Unlock()
}

// Styles (shared with CLI version and error output)
var (
	appStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7aa2f7"))

	subHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7dcfff")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9ece6a")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e0af68")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f7768e")).
			Bold(true)

	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f7768e")).
			Bold(true).
			Underline(true)
)

type model struct {
	ctx     context.Context
	session *search.Session
	collect func(context.Context) ([]search.FileBlob, error)
	board   *progressBoard

	// Results and paging
	outcome       *search.SearchOutcome
	currentPage   int
	totalPages    int
	contentScroll int

	// Corpus and timing
	files      int
	workers    int
	loadTime   time.Duration
	searchTime time.Duration
	loadStart  time.Time
	quitting   bool
	loading    bool
	searching  bool

	// Window size
	width  int
	height int

	// Term editing
	editing bool
	input   []rune
	term    string

	// UI state
	statusText   string
	statusIsErr  bool
	memUsageText string // e.g., " • Heap XXX MB • Total YYY MB • CPU ZZ%"
	progressText string
}

func newModel(ctx context.Context, session *search.Session, workers int, collect func(context.Context) ([]search.FileBlob, error)) model {
	board := &progressBoard{}
	session.OnProgress = board.report
	return model{
		ctx:        ctx,
		session:    session,
		collect:    collect,
		board:      board,
		workers:    workers,
		totalPages: 1,
		loading:    true,
		loadStart:  time.Now(),
		editing:    true,
	}
}

// Messages for TUI updates
type loadDoneMsg struct {
	delta   search.CorpusDelta
	err     error
	elapsed time.Duration
}

type searchResultMsg struct {
	outcome    *search.SearchOutcome
	err        error
	searchTime time.Duration
}

type memUsageMsg struct {
	Text string
}

type progressTick struct{}

func (m model) Init() tea.Cmd {
	// Start polling progress and kick off the background load immediately.
	return tea.Batch(pollProgress(), m.load(false), m.memUsageTick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.editing {
			return m.updateInput(msg)
		}

		// While loading, only allow quit
		if m.loading {
			if msg.String() == "q" {
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.String() {
		case "q":
			m.quitting = true
			return m, tea.Quit
		case "/":
			m.editing = true
			m.input = []rune(m.term)
			return m, nil
		case "enter":
			if m.term == "" {
				m.editing = true
				return m, nil
			}
			return m.startSearch(m.term)
		case "r":
			m.loading = true
			m.loadStart = time.Now()
			m.progressText = ""
			m.board.reset()
			return m, tea.Batch(m.load(true), pollProgress())
		case "x":
			m.session.Clear()
			m.outcome = nil
			m.files = 0
			m.totalPages = 1
			m.currentPage = 0
			m.contentScroll = 0
			m.setStatus("Corpus cleared. Press r to reload.", false)
			return m, nil

		case "n":
			if m.currentPage < m.totalPages-1 {
				m.currentPage++
			}
			m.contentScroll = 0
			return m, nil
		case "p":
			if m.currentPage > 0 {
				m.currentPage--
			}
			m.contentScroll = 0
			return m, nil
		case "home":
			m.currentPage = 0
			m.contentScroll = 0
			return m, nil
		case "end":
			m.currentPage = m.totalPages - 1
			m.contentScroll = 0
			return m, nil
		case "up", "k":
			m.contentScroll--
			return m, nil
		case "down", "j":
			m.contentScroll++
			return m, nil
		case "pgup":
			m.contentScroll -= 5
			return m, nil
		case "pgdown":
			m.contentScroll += 5
			return m, nil
		}
		return m, nil

	case loadDoneMsg:
		m.loading = false
		m.loadTime = msg.elapsed
		m.files = len(m.session.Files())
		m.outcome = m.session.Outcome()
		m.currentPage, m.contentScroll = 0, 0
		m.totalPages = m.pageCount()
		switch {
		case msg.err != nil:
			m.setStatus(search.UserMessage(msg.err), true)
		case len(msg.delta.Added) == 0 && m.files == 0:
			m.setStatus("No documents found.", true)
		default:
			status := fmt.Sprintf("Loaded %s", search.FormatCount(len(msg.delta.Added), "file"))
			if n := len(msg.delta.Skipped); n > 0 {
				status += fmt.Sprintf(" (%d already loaded)", n)
			}
			m.setStatus(status+".", false)
		}
		// a term typed while loading runs as soon as the corpus is ready
		if msg.err == nil && m.term != "" && m.files > 0 && !m.editing {
			return m.startSearch(m.term)
		}
		return m, nil

	case searchResultMsg:
		m.searching = false
		if msg.err != nil {
			// the previous outcome stays on screen
			m.setStatus(search.UserMessage(msg.err), true)
			return m, nil
		}
		m.outcome = msg.outcome
		m.searchTime = msg.searchTime
		m.currentPage, m.contentScroll = 0, 0
		m.totalPages = m.pageCount()
		m.setStatus("", false)
		return m, nil

	case memUsageMsg:
		m.memUsageText = msg.Text
		return m, m.memUsageTick()

	case progressTick:
		// Periodic poll: read the most recent progress snapshot
		if !m.loading {
			return m, nil
		}
		if lp, ok := m.board.snapshot(); ok {
			m.progressText = formatProgress(lp)
		}
		return m, pollProgress()
	}
	return m, nil
}

// updateInput edits the search term until enter or esc
func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyRunes:
		m.input = append(m.input, msg.Runes...)
	case tea.KeySpace:
		m.input = append(m.input, ' ')
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeyEsc:
		m.editing = false
		m.input = nil
	case tea.KeyEnter:
		m.editing = false
		term := string(m.input)
		m.input = nil
		if m.loading {
			m.term = strings.TrimSpace(term)
			return m, nil
		}
		return m.startSearch(term)
	}
	return m, nil
}

func (m model) startSearch(term string) (tea.Model, tea.Cmd) {
	m.term = strings.TrimSpace(term)
	m.searching = true
	return m, m.runSearch(term)
}

func (m *model) setStatus(text string, isErr bool) {
	m.statusText = text
	m.statusIsErr = isErr
}

func (m model) pageCount() int {
	if m.outcome == nil || len(m.outcome.Results) == 0 {
		return 1
	}
	return len(m.outcome.Results)
}

func formatProgress(p progressMsg) string {
	stage := p.Stage
	if stage != "" {
		stage = strings.ToUpper(stage[:1]) + stage[1:]
	}
	return fmt.Sprintf("%s [%d/%d]: %s", stage, p.Count, p.Total, p.Path)
}

func (m model) View() string {
	width := m.width
	height := m.height
	if width <= 0 {
		width = 120
	}
	if height <= 0 {
		height = 30
	}

	if m.quitting {
		return "Goodbye!\n"
	}

	// Build header lines
	var headerLines []string
	headerLines = append(headerLines, "", logo(), "")

	// Search term, with a cursor while editing
	termLine := "🔍 Term: "
	switch {
	case m.editing:
		termLine += string(m.input) + "▌"
	case m.term != "":
		termLine += fmt.Sprintf("%q", m.term)
	default:
		termLine += "(press / to enter a term)"
	}
	headerLines = append(headerLines, subHeaderStyle.Render(termLine))

	// Corpus description
	corpus := fmt.Sprintf("%s loaded • %s", search.FormatCount(m.files, "file"), config.GetFileTypeDescription())
	targetStyled := lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	headerLines = append(headerLines, targetStyled.Render(wrapTextWithIndent("📁 Corpus: ", corpus, width-4)))

	// Engine line with workers + RAM/CPU live
	engine := fmt.Sprintf("⚙️ Engine: Workers %d%s", m.workers, m.memUsageText)
	engineStyled := lipgloss.NewStyle().Foreground(lipgloss.Color("#bb9af7"))
	headerLines = append(headerLines, engineStyled.Render(engine))

	// Timing and totals; the load clock runs until extraction finishes
	loadSecs := m.loadTime.Seconds()
	if m.loading {
		loadSecs = time.Since(m.loadStart).Seconds()
	}
	timing := fmt.Sprintf("⏱️ Loaded: %.2fs", loadSecs)
	if m.outcome != nil {
		timing += fmt.Sprintf(" • Searched: %dms • Matched: %d of %d files • %s",
			m.searchTime.Milliseconds(),
			len(m.outcome.Results),
			m.outcome.FilesSearched,
			search.FormatCount(m.outcome.TotalOccurrences, "occurrence"))
	}
	elapsedStyled := lipgloss.NewStyle().Foreground(lipgloss.Color("#e0af68"))
	headerLines = append(headerLines, elapsedStyled.Render(timing))

	searchInfo := strings.Join(headerLines, "\n")
	headerHeight := strings.Count(searchInfo, "\n") + 1
	// Account explicitly for header, progress, bottom status, and footer heights
	progressHeight := 1     // always reserve progress line space to keep box position stable
	bottomStatusHeight := 1 // reserve a single line for bottom status to reduce blank space
	footerHeight := 1       // footer only

	var parts []string
	parts = append(parts, searchInfo)
	if m.loading {
		txt := "⏳ Loading"
		if m.progressText != "" {
			txt = "⏳ " + m.progressText
		}
		progressStyled := lipgloss.NewStyle().Foreground(lipgloss.Color("#7dcfff"))
		parts = append(parts, progressStyled.Render(txt))
	} else {
		// Reserve the progress row to keep the box fixed when not loading
		parts = append(parts, "")
	}

	boxOuterWidth := width - 4
	innerWidth := boxOuterWidth - 6
	if innerWidth < 10 {
		innerWidth = 10
	}
	boxContent := m.boxContent(innerWidth)

	chromeHeight := 4
	contentHeight := height - headerHeight - progressHeight - bottomStatusHeight - footerHeight - chromeHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	// Window the box content according to contentScroll to enable vertical scrolling
	lines := strings.Split(boxContent, "\n")
	if m.contentScroll < 0 {
		m.contentScroll = 0
	}
	maxStart := 0
	if len(lines) > contentHeight {
		maxStart = len(lines) - contentHeight
	}
	if m.contentScroll > maxStart {
		m.contentScroll = maxStart
	}
	start := m.contentScroll
	end := min(start+contentHeight, len(lines))
	window := strings.Join(lines[start:end], "\n")
	parts = append(parts, appStyle.Width(boxOuterWidth).Height(contentHeight).Render(window))

	// Non-scrolling bottom status line
	switch {
	case m.statusText == "":
		parts = append(parts, "")
	case m.statusIsErr:
		parts = append(parts, errorStyle.Render("⚠ "+m.statusText))
	default:
		parts = append(parts, successStyle.Render(m.statusText))
	}

	// Footer line
	help := "/: term • enter: search • n/p: page • ↑/↓: scroll • r: reload • x: clear • q: quit"
	if m.editing {
		help = "type a term • enter: search • esc: cancel"
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Align(lipgloss.Center).
		Render("🔚 " + help)
	parts = append(parts, footer)

	return strings.Join(parts, "\n")
}

// boxContent renders the current result page
func (m model) boxContent(innerWidth int) string {
	switch {
	case m.loading:
		return "Extracting text..."
	case m.searching:
		return "Searching..."
	case m.outcome == nil:
		if m.files == 0 {
			return "No documents loaded."
		}
		return "Enter a term to search the loaded documents."
	case len(m.outcome.Results) == 0:
		return fmt.Sprintf("No whole-word matches for %q.", m.outcome.Term)
	}

	result := m.outcome.Results[m.currentPage]
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s (%s)\n", result.FileName, search.FormatKB(result.FileSize))
	if result.Kind != search.KindText {
		b.WriteString(warningStyle.Render(fmt.Sprintf("Text is %s; matches may be incomplete.", result.Kind)) + "\n")
	}
	fmt.Fprintf(&b, "%s • %s\n\n",
		search.FormatCount(result.TotalOccurrences, "occurrence"),
		search.FormatCount(result.MatchingSentences, "matching sentence"))

	// One wrapped line per sentence with a colored label
	for _, s := range result.Sentences {
		label := subHeaderStyle.Render(fmt.Sprintf("Sentence %d: ", s.Number))
		text := search.Highlight(s.Text, m.outcome.Term, func(match string) string {
			return matchStyle.Render(match)
		})
		b.WriteString(wrapTextWithIndent(label, text, innerWidth) + "\n")
	}

	// Page indicator
	fmt.Fprintf(&b, "\nResult %d of %d", m.currentPage+1, len(m.outcome.Results))
	return b.String()
}

// load collects the sources and extracts them in the background. Replace
// mode swaps the corpus for the fresh batch.
// load collects the sources and adds them to the session. A reload empties
// the corpus once discovery succeeds, so every file is extracted afresh.
func (m model) load(reload bool) tea.Cmd {
	ctx, session, collect := m.ctx, m.session, m.collect
	board := m.board
	return func() tea.Msg {
		start := time.Now()
		board.report("discovery", 0, 0, "")
		blobs, err := collect(ctx)
		if err != nil {
			return loadDoneMsg{err: err, elapsed: time.Since(start)}
		}
		if reload {
			session.Clear()
		}
		if len(blobs) == 0 {
			return loadDoneMsg{elapsed: time.Since(start)}
		}
		delta, err := session.Add(ctx, blobs, true)
		if errors.Is(err, search.ErrNoNewFiles) {
			err = nil
		}
		delta.Replaced = reload
		return loadDoneMsg{delta: delta, err: err, elapsed: time.Since(start)}
	}
}

// Background search command
func (m model) runSearch(term string) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		start := time.Now()
		outcome, err := session.Search(term)
		return searchResultMsg{
			outcome:    outcome,
			err:        err,
			searchTime: time.Since(start),
		}
	}
}

func wrapTextWithIndent(prefix, text string, width int) string {
	prefixWidth := lipgloss.Width(prefix)
	indent := strings.Repeat(" ", prefixWidth)
	wrapped := lipgloss.NewStyle().Width(width - prefixWidth).Render(text)
	return prefix + strings.ReplaceAll(wrapped, "\n", "\n"+indent)
}

func (m model) memUsageTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		// Sample memory and CPU
		mem, cpu := sampleMemoryAndCPU()
		return memUsageMsg{Text: fmt.Sprintf(" • Heap %5.1f MB • Total %5.1f MB • CPU %5.1f%%", float64(mem.heap)/(1024*1024), float64(mem.rss)/(1024*1024), cpu)}
	})
}

func pollProgress() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(time.Time) tea.Msg {
		return progressTick{}
	})
}

var (
	cpuMu         sync.Mutex
	lastCPUWall   time.Time
	lastCPUProc   time.Duration
	haveCPUSample bool
)

func sampleMemoryAndCPU() (mem struct{ heap, rss uint64 }, cpu float64) {
	// Sample memory
	var rusage unix.Rusage
	_ = unix.Getrusage(unix.RUSAGE_SELF, &rusage)
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	mem.heap = ms.HeapAlloc
	mem.rss = uint64(rusage.Maxrss * 1024) // KB to bytes

	// Sample CPU (process user+sys time from rusage)
	nowWall := time.Now()
	user := time.Duration(rusage.Utime.Sec)*time.Second + time.Duration(rusage.Utime.Usec)*time.Microsecond
	sys := time.Duration(rusage.Stime.Sec)*time.Second + time.Duration(rusage.Stime.Usec)*time.Microsecond
	nowProc := user + sys

	cpuMu.Lock()
	defer cpuMu.Unlock()
	if haveCPUSample {
		wallDiff := nowWall.Sub(lastCPUWall)
		procDiff := nowProc - lastCPUProc
		if wallDiff > 0 {
			cpu = max(procDiff.Seconds()/wallDiff.Seconds()*100, 0)
		}
	}
	lastCPUWall = nowWall
	lastCPUProc = nowProc
	haveCPUSample = true
	return
}
