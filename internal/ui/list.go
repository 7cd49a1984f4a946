package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/shopdeck/internal/backend"
	"github.com/five82/shopdeck/internal/listsync"
)

type column[T any] struct {
	title string
	width int // 0 shares the remaining width
	cell  func(T) string
	tone  func(T) string
}

// filterControl cycles one schema filter through values with a key. The first value
// is the unfiltered one.
type filterControl struct {
	key    string
	name   string
	label  string
	values []string
	labels map[string]string
}

func (f filterControl) display(value string) string {
	if l, ok := f.labels[value]; ok {
		return l
	}
	return value
}

type sortChoice struct {
	label string
	field string
	dir   listsync.SortDir
}

type rowAction[T any] struct {
	key  string
	desc string
	run  func(item T) tea.Cmd
}

// listSpec describes one paged, address-backed list.
type listSpec[T any] struct {
	title       string
	path        string
	schema      listsync.Schema
	fetch       func(ctx context.Context, q listsync.Query) (listsync.Result[T], error)
	columns     []column[T]
	open        func(T) string
	filters     []filterControl
	sorts       []sortChoice
	actions     []rowAction[T]
	searchLabel string
	empty       string
	// loaded runs after every accepted page, e.g. to refresh counters.
	loaded func(q listsync.Query) tea.Cmd
	// banner renders extra lines above the table.
	banner func(th Theme, width int) []string
}

type listFetchedMsg[T any] struct {
	sid    uint64
	seq    uint64
	result listsync.Result[T]
	err    error
}

type debounceMsg struct {
	sid   uint64
	token uint64
}

// listScreen renders a listsync.Synchronizer and turns its effects into commands.
type listScreen[T any] struct {
	base
	spec      listSpec[T]
	sync      *listsync.Synchronizer[T]
	search    textinput.Model
	searching bool
	token     uint64
	cursor    int
}

func newList[T any](e *env, spec listSpec[T], rawQuery string) *listScreen[T] {
	schema := spec.schema.WithDefaultSize(e.pageSize(spec.path))
	spec.schema = schema
	s := &listScreen[T]{
		base: base{sid: e.nextSID(), env: e},
		spec: spec,
		sync: listsync.New[T](schema, rawQuery),
	}
	s.search = textinput.New()
	s.search.Prompt = "/ "
	s.search.Placeholder = spec.searchLabel
	s.search.CharLimit = 80
	s.search.SetValue(s.sync.Input())
	return s
}

// pageResult adapts a backend page to a synchronizer result.
func pageResult[T any](p backend.Page[T], err error) (listsync.Result[T], error) {
	if err != nil {
		return listsync.Result[T]{}, err
	}
	return listsync.Result[T]{
		Items:         p.Items,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		Page:          p.Number,
	}, nil
}

func (s *listScreen[T]) Title() string   { return s.spec.title }
func (s *listScreen[T]) Capturing() bool { return s.searching }
func (s *listScreen[T]) Busy() bool      { return s.sync.Loading() }

func (s *listScreen[T]) Init() tea.Cmd {
	return s.run(s.sync.Start())
}

// Reconcile follows an address change made outside the list.
func (s *listScreen[T]) Reconcile(rawQuery string) tea.Cmd {
	cmd := s.run(s.sync.Reconcile(rawQuery))
	if s.search.Value() != s.sync.Input() {
		s.search.SetValue(s.sync.Input())
	}
	return cmd
}

func (s *listScreen[T]) Address() string { return s.sync.Address() }

// Refresh refetches the current page; silent keeps rows on screen.
func (s *listScreen[T]) Refresh(silent bool) tea.Cmd {
	return s.run(s.sync.Refresh(silent))
}

// Selected returns the row under the cursor.
func (s *listScreen[T]) Selected() (T, bool) {
	items := s.sync.Result().Items
	if s.cursor < 0 || s.cursor >= len(items) {
		var zero T
		return zero, false
	}
	return items[s.cursor], true
}

func (s *listScreen[T]) run(eff listsync.Effects) tea.Cmd {
	var cmds []tea.Cmd
	if eff.WriteAddress {
		sid, raw := s.sid, eff.Address
		cmds = append(cmds, func() tea.Msg { return addressMsg{sid: sid, rawQuery: raw} })
	}
	if eff.Fetch != nil {
		cmds = append(cmds, s.fetchCmd(*eff.Fetch))
	}
	return tea.Batch(cmds...)
}

func (s *listScreen[T]) fetchCmd(req listsync.Request) tea.Cmd {
	ctx, fetch, sid := s.env.ctx, s.spec.fetch, s.sid
	return func() tea.Msg {
		res, err := fetch(ctx, req.Query)
		return listFetchedMsg[T]{sid: sid, seq: req.Seq, result: res, err: err}
	}
}

func (s *listScreen[T]) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case listFetchedMsg[T]:
		if msg.sid != s.sid {
			return nil
		}
		if msg.err != nil {
			if s.sync.Fail(msg.seq, msg.err) {
				s.env.log.Debug("list fetch failed", zap.String("list", s.spec.path), zap.Error(msg.err))
			}
			return nil
		}
		eff, ok := s.sync.Receive(msg.seq, msg.result)
		if !ok {
			return nil
		}
		s.clampCursor()
		cmd := s.run(eff)
		if eff.Fetch == nil && s.spec.loaded != nil {
			cmd = tea.Batch(cmd, s.spec.loaded(s.sync.Query()))
		}
		return cmd
	case debounceMsg:
		if msg.sid != s.sid {
			return nil
		}
		return s.run(s.sync.CommitInput(msg.token))
	case tea.KeyMsg:
		if s.searching {
			return s.searchKey(msg)
		}
		return s.key(msg)
	}
	return nil
}

func (s *listScreen[T]) searchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		s.searching = false
		s.search.Blur()
		return nil
	case "enter":
		s.searching = false
		s.search.Blur()
		return s.run(s.sync.CommitInput(s.token))
	}
	before := s.search.Value()
	var cmd tea.Cmd
	s.search, cmd = s.search.Update(msg)
	if s.search.Value() == before {
		return cmd
	}
	s.token = s.sync.SetInput(s.search.Value())
	sid, token := s.sid, s.token
	return tea.Batch(cmd, tea.Tick(s.sync.QuietPeriod(), func(_ time.Time) tea.Msg {
		return debounceMsg{sid: sid, token: token}
	}))
}

func (s *listScreen[T]) key(msg tea.KeyMsg) tea.Cmd {
	k := msg.String()
	for _, f := range s.spec.filters {
		if f.key == k {
			return s.cycleFilter(f)
		}
	}
	for _, a := range s.spec.actions {
		if a.key == k {
			if item, ok := s.Selected(); ok {
				return a.run(item)
			}
			return nil
		}
	}

	switch k {
	case "up", "k":
		s.cursor = max(s.cursor-1, 0)
	case "down", "j":
		s.cursor = min(s.cursor+1, max(len(s.sync.Result().Items)-1, 0))
	case "g", "home":
		s.cursor = 0
	case "G", "end":
		s.cursor = max(len(s.sync.Result().Items)-1, 0)
	case "right", "n":
		return s.run(s.sync.NextPage())
	case "left", "p":
		return s.run(s.sync.PrevPage())
	case "<":
		return s.run(s.sync.FirstPage())
	case ">":
		return s.run(s.sync.LastPage())
	case "/":
		if s.spec.schema.SearchParam == "" {
			return nil
		}
		s.searching = true
		return s.search.Focus()
	case "s":
		return s.cycleSort()
	case "z":
		return s.cycleSize()
	case "x":
		s.search.SetValue("")
		return s.run(s.sync.ClearFilters())
	case "r":
		return s.Refresh(true)
	case "enter":
		if s.spec.open == nil {
			return nil
		}
		if item, ok := s.Selected(); ok {
			return navigate(s.spec.open(item))
		}
	}
	return nil
}

func (s *listScreen[T]) cycleFilter(f filterControl) tea.Cmd {
	current := s.sync.Query().Filter(f.name)
	idx := slices.Index(f.values, current)
	if current == "" {
		idx = 0
	}
	next := f.values[(idx+1)%len(f.values)]
	return s.run(s.sync.SetFilter(f.name, next))
}

func (s *listScreen[T]) cycleSort() tea.Cmd {
	if len(s.spec.sorts) == 0 {
		return nil
	}
	q := s.sync.Query()
	idx := slices.IndexFunc(s.spec.sorts, func(c sortChoice) bool {
		return c.field == q.SortField && (c.field == "" || c.dir == q.SortDir)
	})
	next := s.spec.sorts[(idx+1)%len(s.spec.sorts)]
	return s.run(s.sync.SetSort(next.field, next.dir))
}

func (s *listScreen[T]) cycleSize() tea.Cmd {
	sizes := s.spec.schema.Sizes
	if len(sizes) < 2 {
		return nil
	}
	idx := slices.Index(sizes, s.sync.Query().Size)
	next := sizes[(idx+1)%len(sizes)]
	path := s.spec.path
	return tea.Batch(s.run(s.sync.SetSize(next)), func() tea.Msg {
		return pageSizeMsg{path: path, size: next}
	})
}

func (s *listScreen[T]) clampCursor() {
	n := len(s.sync.Result().Items)
	if s.cursor >= n {
		s.cursor = max(n-1, 0)
	}
}

func (s *listScreen[T]) sortLabel() string {
	q := s.sync.Query()
	for _, c := range s.spec.sorts {
		if c.field == q.SortField && (c.field == "" || c.dir == q.SortDir) {
			return c.label
		}
	}
	if q.SortField == "" {
		return "none"
	}
	return q.Sort()
}

func (s *listScreen[T]) Hints() []hint {
	hints := []hint{{"j/k", "Move"}, {"n/p", "Page"}}
	if s.spec.schema.SearchParam != "" {
		hints = append(hints, hint{"/", "Search"})
	}
	for _, f := range s.spec.filters {
		hints = append(hints, hint{f.key, f.label})
	}
	if len(s.spec.sorts) > 0 {
		hints = append(hints, hint{"s", "Sort"})
	}
	hints = append(hints, hint{"z", "Size"}, hint{"x", "Clear"})
	for _, a := range s.spec.actions {
		hints = append(hints, hint{a.key, a.desc})
	}
	if s.spec.open != nil {
		hints = append(hints, hint{"enter", "Open"})
	}
	return hints
}

func (s *listScreen[T]) View(th Theme, width, height int) string {
	styles := th.Styles().WithBackground(th.SurfaceAlt)
	inner := width - 2
	q := s.sync.Query()

	var lines []string
	lines = append(lines, s.toolbar(styles, q))
	if s.spec.banner != nil {
		lines = append(lines, s.spec.banner(th, inner)...)
	}

	res := s.sync.Result()
	switch {
	case !s.sync.HasResult() && s.sync.Err() != nil:
		lines = append(lines, "", styles.DangerText.Render(backend.Message(s.sync.Err())), styles.MutedText.Render("r to retry"))
	case !s.sync.HasResult():
		lines = append(lines, "", styles.MutedText.Render("Loading…"))
	case len(res.Items) == 0:
		empty := s.spec.empty
		if empty == "" {
			empty = "Nothing here"
		}
		lines = append(lines, "", styles.MutedText.Render(empty))
	default:
		headers := make([]string, len(s.spec.columns))
		widths := make([]int, len(s.spec.columns))
		for i, c := range s.spec.columns {
			headers[i], widths[i] = c.title, c.width
		}
		rows := make([][]cell, len(res.Items))
		for r, item := range res.Items {
			row := make([]cell, len(s.spec.columns))
			for i, c := range s.spec.columns {
				row[i].text = c.cell(item)
				if c.tone != nil {
					row[i].tone = c.tone(item)
				}
			}
			rows[r] = row
		}
		lines = append(lines, renderTable(th, headers, widths, rows, s.cursor, inner)...)
	}

	// Pin the status line to the bottom of the box.
	room := height - 2
	for len(lines) < room-1 {
		lines = append(lines, "")
	}
	lines = append(lines[:min(len(lines), room-1)], s.statusLine(styles, res))

	return renderBox(th, s.spec.title, strings.Join(lines, "\n"), width, height)
}

func (s *listScreen[T]) toolbar(styles Styles, q listsync.Query) string {
	var parts []string
	if s.spec.schema.SearchParam != "" {
		if s.searching {
			parts = append(parts, s.search.View())
		} else if text := s.sync.Input(); text != "" {
			parts = append(parts, styles.AccentText.Render("/ "+text))
		} else {
			parts = append(parts, styles.FaintText.Render("/ "+s.spec.searchLabel))
		}
	}
	for _, f := range s.spec.filters {
		value := q.Filter(f.name)
		if value == "" {
			value = f.values[0]
		}
		parts = append(parts, styles.MutedText.Render(f.label+":")+" "+styles.Text.Render(f.display(value)))
	}
	if len(s.spec.sorts) > 0 {
		parts = append(parts, styles.MutedText.Render("Sort:")+" "+styles.Text.Render(s.sortLabel()))
	}
	parts = append(parts, styles.MutedText.Render("Size:")+" "+styles.Text.Render(fmt.Sprint(q.Size)))
	return strings.Join(parts, "   ")
}

func (s *listScreen[T]) statusLine(styles Styles, res listsync.Result[T]) string {
	var parts []string
	if s.sync.HasResult() {
		parts = append(parts, renderPager(s.sync.Query().Page, res.TotalPages))
		parts = append(parts, styles.MutedText.Render(fmt.Sprintf("%d items", res.TotalElements)))
	}
	switch {
	case s.sync.Loading():
		parts = append(parts, styles.WarningText.Render("loading"))
	case s.sync.Refreshing():
		parts = append(parts, styles.MutedText.Render("refreshing"))
	case s.sync.Err() != nil && s.sync.HasResult():
		parts = append(parts, styles.DangerText.Render(backend.Message(s.sync.Err())))
	}
	return strings.Join(parts, "   ")
}
