package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/rs/zerolog"

	"loopscroll/internal/config"
	"loopscroll/internal/domain"
	"loopscroll/internal/eventbus"
	"loopscroll/internal/feed"
	"loopscroll/internal/scroll"
	"loopscroll/internal/ui/views"
)

const (
	speedStep     = 0.25
	statusTimeout = 3 * time.Second
)

// Options configures a Model
type Options struct {
	Config  *config.Config
	Entries []feed.Entry              // shown from the start
	Source  scroll.Source[feed.Entry] // loaded in batches after Entries
	Bus     eventbus.EventBus
	Logger  zerolog.Logger
	Clock   scroll.Clock // nil uses the wall clock
}

// Model represents the UI state
type Model struct {
	cfg    *config.Config
	logger zerolog.Logger

	engine  *scroll.Engine[feed.Entry]
	marquee *views.Marquee
	sizes   *sizeObserver
	styles  *views.Styles
	keys    keyMap
	help    help.Model
	pager   *PagerOps

	width       int
	height      int
	fps         int
	tickGen     int
	userPaused  bool
	hovering    bool
	inPagerMode bool // tracks if we're currently in pager mode
	status      string
	statusErr   bool
}

// NewModel creates a model and starts its scroll engine
func NewModel(opts Options) *Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	styles := views.NewStyles()

	m := &Model{
		cfg:     cfg,
		logger:  opts.Logger.With().Str("component", "ui").Logger(),
		marquee: views.NewMarquee(styles),
		sizes:   &sizeObserver{},
		styles:  styles,
		keys:    newKeyMap(),
		help:    help.New(),
		pager:   NewPagerOps(nil),
		fps:     max(cfg.UI.FPS, 1),
	}
	m.help.ShowAll = cfg.UI.ShowHelp

	engineOpts := []scroll.Option{
		scroll.WithLogger(opts.Logger),
		scroll.WithResizeObserver(m.sizes),
	}
	if opts.Bus != nil {
		engineOpts = append(engineOpts, scroll.WithEventBus(opts.Bus))
	}
	if opts.Clock != nil {
		engineOpts = append(engineOpts, scroll.WithClock(opts.Clock))
	}

	props := propsFromConfig(cfg)
	props.DataSource = opts.Entries
	props.Source = opts.Source

	m.marquee.SetDirection(props.Direction)
	m.engine = scroll.New[feed.Entry](m.marquee, engineOpts...)
	m.engine.Start(props)
	return m
}

// propsFromConfig maps the scroll settings onto engine props
func propsFromConfig(cfg *config.Config) scroll.Props[feed.Entry] {
	p := scroll.DefaultProps[feed.Entry]()
	s := cfg.Scroll
	if d, err := domain.ParseDirection(s.Direction); err == nil {
		p.Direction = d
	}
	if w, err := domain.ParseWaitMode(s.WaitMode); err == nil {
		p.WaitMode = w
	}
	if s.ItemKey != "" {
		p.ItemKey = s.ItemKey
	}
	p.Speed = s.Speed
	p.WaitTime = time.Duration(s.Wait)
	p.PausedOnHover = s.PauseOnHover
	p.LoadCount = s.LoadCount
	return p
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.pager.program = p
}

// Engine returns the scroll engine driven by the model
func (m *Model) Engine() *scroll.Engine[feed.Entry] {
	return m.engine
}

// Close disposes the scroll engine
func (m *Model) Close() {
	m.engine.Dispose()
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	gen := m.tickGen
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg {
		return tickMsg{at: t, gen: gen}
	})
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layout()

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tickMsg:
		if m.inPagerMode || msg.gen != m.tickGen {
			return m, nil
		}
		m.engine.Tick()
		return m, m.tick()

	case EventMsg:
		return m, m.handleEvent(msg.Event)

	case pagerMsg:
		if msg.err != nil {
			m.logger.Error().Err(msg.err).Msg("pager failed")
			return m, m.setError(fmt.Sprintf("pager: %v", msg.err))
		}

	case pauseRenderingMsg:
		m.inPagerMode = true

	case resumeRenderingMsg:
		m.inPagerMode = false
		m.tickGen++
		return m, m.tick()

	case clearStatusMsg:
		m.status = ""
		m.statusErr = false
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit

	case key.Matches(msg, m.keys.Pause):
		m.userPaused = !m.userPaused
		if m.userPaused {
			m.engine.Pause()
		} else {
			m.engine.Resume()
		}

	case key.Matches(msg, m.keys.Direction):
		d := m.engine.Props().Direction.Next()
		m.marquee.SetDirection(d)
		m.engine.UpdateConfig(scroll.WithDirection[feed.Entry](d))
		return m.setStatus("direction " + string(d))

	case key.Matches(msg, m.keys.Faster):
		return m.setSpeed(m.engine.Props().Speed + speedStep)

	case key.Matches(msg, m.keys.Slower):
		return m.setSpeed(m.engine.Props().Speed - speedStep)

	case key.Matches(msg, m.keys.Remeasure):
		m.engine.Remeasure()

	case key.Matches(msg, m.keys.Pager):
		return m.showPager()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
	}
	return nil
}

func (m *Model) setSpeed(speed float64) tea.Cmd {
	speed = math.Max(0, speed)
	m.engine.UpdateConfig(scroll.WithSpeed[feed.Entry](speed))
	return m.setStatus(fmt.Sprintf("speed %.2f", speed))
}

// handleMouse pauses the scroll while the pointer is over the frame
func (m *Model) handleMouse(msg tea.MouseMsg) {
	inside := m.marquee.Frame().Contains(msg.X, msg.Y-m.frameTop())
	if inside == m.hovering {
		return
	}
	m.hovering = inside
	m.marquee.SetHover(inside)
	if inside {
		m.engine.PointerEnter()
	} else {
		m.engine.PointerLeave()
	}
}

func (m *Model) handleEvent(event eventbus.DomainEvent) tea.Cmd {
	switch e := event.(type) {
	case domain.BatchFailedEvent:
		return m.setError(fmt.Sprintf("feed: %v", e.Err))
	case domain.BatchLoadedEvent:
		if e.Done {
			return m.setStatus(fmt.Sprintf("feed complete, %d entries", len(m.engine.Loaded())))
		}
	case domain.CapabilityUnavailableEvent:
		m.logger.Warn().Str("capability", e.Capability).Msg("host capability missing")
	}
	return nil
}

func (m *Model) setStatus(s string) tea.Cmd {
	m.status = s
	m.statusErr = false
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

func (m *Model) setError(s string) tea.Cmd {
	cmd := m.setStatus(s)
	m.statusErr = true
	return cmd
}

// showPager returns a command that lists the loaded entries in the ov pager
func (m *Model) showPager() tea.Cmd {
	if m.pager.program == nil {
		return m.setError("pager unavailable")
	}
	content := renderEntries(m.engine.Loaded())
	program := m.pager.program
	return func() tea.Msg {
		// Send pause message to stop rendering
		program.Send(pauseRenderingMsg{})

		err := m.pager.Show(content)

		// Send resume message to restart rendering
		program.Send(resumeRenderingMsg{})

		return pagerMsg{err: err}
	}
}

// layout sizes the marquee to the space left by the header and footer
func (m *Model) layout() {
	if m.width == 0 {
		return
	}
	w := m.width
	if m.cfg.UI.Width > 0 {
		w = min(w, m.cfg.UI.Width)
	}
	h := m.height - lipgloss.Height(m.headerView()) - lipgloss.Height(m.footerView())
	if m.cfg.UI.Height > 0 {
		h = min(h, m.cfg.UI.Height)
	}
	if m.marquee.SetSize(w, max(h, 0)) {
		m.sizes.notify(m.marquee.ViewportElement())
	}
}

func (m *Model) frameTop() int {
	return lipgloss.Height(m.headerView())
}

// View renders the UI
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	items, positions := m.engine.Snapshot()
	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.marquee.Render(items, positions),
		m.footerView(),
	)
}

func (m *Model) headerView() string {
	var state string
	switch {
	case m.engine.State() == scroll.StateIdle:
		state = m.styles.StatusWaiting.Render("waiting for input")
	case m.engine.Waiting():
		state = m.styles.StatusWaiting.Render("waiting")
	case m.engine.Paused():
		state = m.styles.StatusPaused.Render("paused")
	default:
		state = m.styles.StatusRunning.Render("running")
	}

	props := m.engine.Props()
	parts := []string{
		m.styles.Title.Render("loopscroll"),
		state,
		m.styles.Status.Render(fmt.Sprintf("%s  speed %.2f  loaded %d",
			props.Direction, props.Speed, len(m.engine.Loaded()))),
	}
	if m.status != "" {
		style := m.styles.Status
		if m.statusErr {
			style = m.styles.StatusError
		}
		parts = append(parts, style.Render(m.status))
	}
	line := strings.Join(parts, "  ")
	if m.width > 0 {
		line = ansi.Truncate(line, m.width, "…")
	}
	return line
}

func (m *Model) footerView() string {
	return m.styles.Help.Render(m.help.View(m.keys))
}
