package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shopdeck/internal/backend"
	"github.com/five82/shopdeck/internal/format"
	"github.com/five82/shopdeck/internal/listsync"
)

var categoriesSchema = listsync.Schema{
	Sizes:       []int{10, 20, 50},
	DefaultSize: 10,
	SearchParam: "q",
	Filters: []listsync.FilterSpec{
		{Name: "active", Allowed: []string{"true", "false"}},
	},
	SortFields:       []string{"id", "name"},
	DefaultSortField: "id",
	DefaultSortDir:   listsync.SortDesc,
}

type categoryToggledMsg struct {
	sid      uint64
	category backend.Category
	err      error
}

type categoriesScreen struct {
	*listScreen[backend.Category]
}

func newCategoriesScreen(e *env, rawQuery string) *categoriesScreen {
	s := &categoriesScreen{}
	s.listScreen = newList(e, listSpec[backend.Category]{
		title:  "Categories",
		path:   "/categories",
		schema: categoriesSchema,
		fetch: func(ctx context.Context, q listsync.Query) (listsync.Result[backend.Category], error) {
			return pageResult(e.client.Categories().List(ctx, backend.CategoryListParams{
				Page:   q.Page,
				Size:   q.Size,
				Q:      q.Search,
				Active: q.Filter("active"),
				Sort:   q.SortField,
				Dir:    string(q.SortDir),
			}))
		},
		columns: []column[backend.Category]{
			{title: "ID", width: 6, cell: func(c backend.Category) string { return strconv.FormatInt(c.ID, 10) }},
			{title: "Name", width: 24, cell: func(c backend.Category) string { return c.Name }},
			{title: "Slug", width: 20, cell: func(c backend.Category) string { return orDash(c.Slug) }},
			{title: "Description", cell: func(c backend.Category) string { return orDash(c.Description) }},
			{
				title: "State", width: 8,
				cell: func(c backend.Category) string { return format.Active(c.Active) },
				tone: func(c backend.Category) string { return ternary(c.Active, "success", "muted") },
			},
		},
		open:        func(c backend.Category) string { return fmt.Sprintf("/categories/%d/edit", c.ID) },
		filters:     []filterControl{activeFilter},
		searchLabel: "name",
		empty:       "No categories match",
		sorts: []sortChoice{
			{label: "id ↓", field: "id", dir: listsync.SortDesc},
			{label: "id ↑", field: "id", dir: listsync.SortAsc},
			{label: "name ↑", field: "name", dir: listsync.SortAsc},
			{label: "name ↓", field: "name", dir: listsync.SortDesc},
		},
		actions: []rowAction[backend.Category]{{key: "t", desc: "Toggle", run: s.toggle}},
	}, rawQuery)
	return s
}

func (s *categoriesScreen) toggle(c backend.Category) tea.Cmd {
	ctx, client, sid := s.env.ctx, s.env.client, s.sid
	return func() tea.Msg {
		updated, err := client.Categories().ToggleActive(ctx, c.ID)
		return categoryToggledMsg{sid: sid, category: updated, err: err}
	}
}

func (s *categoriesScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case categoryToggledMsg:
		if msg.sid != s.sid {
			return nil
		}
		if msg.err != nil {
			return failure("Toggle failed", msg.err)
		}
		c := msg.category
		note := toast("success", fmt.Sprintf("%s is now %s", c.Name, format.Active(c.Active)))
		if leavesFilter(s.sync.Query().Filter("active"), c.Active) {
			note = toast("info", fmt.Sprintf("%s is now %s and no longer matches the filter", c.Name, format.Active(c.Active)))
		}
		return tea.Batch(s.Refresh(true), note)
	case tea.KeyMsg:
		if !s.searching && msg.String() == "+" {
			return navigate("/categories/new")
		}
	}
	return s.listScreen.Update(msg)
}

// leavesFilter reports whether a row with the given active flag drops out of a list
// filtered by filter ("" keeps every row).
func leavesFilter(filter string, active bool) bool {
	if filter == "" {
		return false
	}
	return filter != strconv.FormatBool(active)
}

func (s *categoriesScreen) Hints() []hint {
	return append(s.listScreen.Hints(), hint{"+", "New"})
}

type categoryLoadedMsg struct {
	sid      uint64
	category backend.Category
	err      error
}

type categorySavedMsg struct {
	sid      uint64
	category backend.Category
	err      error
}

type categoryFormScreen struct {
	base
	id      int64
	form    *form
	loading bool
	saving  bool
	err     error
}

func newCategoryFormScreen(e *env, id int64) *categoryFormScreen {
	return &categoryFormScreen{
		base: base{sid: e.nextSID(), env: e},
		id:   id,
		form: newForm(
			textField("name", "Name", "", 60),
			textField("description", "Description", "", 255),
		),
		loading: id > 0,
	}
}

func (s *categoryFormScreen) Title() string {
	if s.id == 0 {
		return "New category"
	}
	return fmt.Sprintf("Edit category #%d", s.id)
}

func (s *categoryFormScreen) Capturing() bool { return true }
func (s *categoryFormScreen) Busy() bool      { return s.loading || s.saving }

func (s *categoryFormScreen) Hints() []hint {
	return []hint{{"tab", "Next field"}, {"ctrl+s", "Save"}, {"esc", "Cancel"}}
}

func (s *categoryFormScreen) Init() tea.Cmd {
	if s.id == 0 {
		return nil
	}
	ctx, client, sid, id := s.env.ctx, s.env.client, s.sid, s.id
	return func() tea.Msg {
		c, err := client.Categories().Get(ctx, id)
		return categoryLoadedMsg{sid: sid, category: c, err: err}
	}
}

func (s *categoryFormScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case categoryLoadedMsg:
		if msg.sid != s.sid {
			return nil
		}
		s.loading = false
		if msg.err != nil {
			s.err = msg.err
			return failure("Load category", msg.err)
		}
		s.form.SetValue("name", msg.category.Name)
		s.form.SetValue("description", msg.category.Description)
		return nil
	case categorySavedMsg:
		if msg.sid != s.sid {
			return nil
		}
		s.saving = false
		if msg.err != nil {
			if e, ok := backend.AsError(msg.err); ok && len(e.FieldErrors) > 0 {
				s.form.SetErrors(e.FieldErrors)
			}
			return failure("Not saved", msg.err)
		}
		return tea.Batch(toast("success", "Saved "+msg.category.Name), redirect("/categories"))
	case tea.KeyMsg:
		if msg.String() == "esc" {
			return goBack()
		}
		if s.loading || s.saving {
			return nil
		}
		submit, cmd := s.form.Update(msg)
		if submit {
			return s.save()
		}
		return cmd
	}
	return nil
}

func validateCategory(name, description string) map[string]string {
	errs := map[string]string{}
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		errs["name"] = "Name is required"
	case n < 2 || n > 60:
		errs["name"] = "Name must be 2 to 60 characters"
	}
	if utf8.RuneCountInString(description) > 255 {
		errs["description"] = "Description is limited to 255 characters"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (s *categoryFormScreen) save() tea.Cmd {
	s.form.ClearErrors()
	name, description := s.form.Value("name"), s.form.Value("description")
	if errs := validateCategory(name, description); errs != nil {
		s.form.SetErrors(errs)
		return nil
	}
	s.saving = true
	in := backend.NewCategoryInput(name, description)
	ctx, client, sid, id := s.env.ctx, s.env.client, s.sid, s.id
	return func() tea.Msg {
		var (
			c   backend.Category
			err error
		)
		if id == 0 {
			c, err = client.Categories().Create(ctx, in)
		} else {
			c, err = client.Categories().Update(ctx, id, in)
		}
		return categorySavedMsg{sid: sid, category: c, err: err}
	}
}

func (s *categoryFormScreen) View(th Theme, width, height int) string {
	styles := th.Styles().WithBackground(th.SurfaceAlt)
	var lines []string
	switch {
	case s.loading:
		lines = append(lines, styles.MutedText.Render("Loading…"))
	case s.err != nil:
		lines = append(lines, styles.DangerText.Render(backend.Message(s.err)))
	default:
		lines = append(lines, s.form.View(styles, 12, width-2)...)
		if s.saving {
			lines = append(lines, "", styles.WarningText.Render("Saving…"))
		}
	}
	return renderBox(th, s.Title(), strings.Join(lines, "\n"), width, height)
}
