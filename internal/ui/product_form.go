package ui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shopdeck/internal/backend"
	"github.com/five82/shopdeck/internal/events"
	"github.com/five82/shopdeck/internal/format"
)

type productLoadedMsg struct {
	sid     uint64
	product backend.Product
	err     error
}

type productSavedMsg struct {
	sid     uint64
	product backend.Product
	created bool
	err     error
}

// productFormScreen creates a product (id 0) or edits one.
type productFormScreen struct {
	base
	id      int64
	form    *form
	loading bool
	saving  bool
	err     error
}

func newProductFormScreen(e *env, id int64) *productFormScreen {
	f := newForm(
		textField("name", "Name", "", 120),
		textField("description", "Description", "", 500),
		textField("price", "Price", "", 16),
		textField("stock", "Stock", "", 9),
		choiceField("categoryId", "Category", nil, ""),
		textField("imageUrl", "Image URL", "", 500),
	)
	f.field("price").hint = "e.g. 129,90"
	f.field("categoryId").hint = "left/right to pick"
	return &productFormScreen{base: base{sid: e.nextSID(), env: e}, id: id, form: f, loading: id > 0}
}

func (s *productFormScreen) Title() string {
	if s.id == 0 {
		return "New product"
	}
	return fmt.Sprintf("Edit product #%d", s.id)
}

func (s *productFormScreen) Capturing() bool { return true }
func (s *productFormScreen) Busy() bool      { return s.loading || s.saving }

func (s *productFormScreen) Hints() []hint {
	return []hint{{"tab", "Next field"}, {"ctrl+s", "Save"}, {"esc", "Cancel"}}
}

func (s *productFormScreen) Init() tea.Cmd {
	ctx, client, sid, id := s.env.ctx, s.env.client, s.sid, s.id
	cmds := []tea.Cmd{func() tea.Msg {
		cats, err := client.Categories().Public(ctx)
		return categoryOptionsMsg{sid: sid, categories: cats, err: err}
	}}
	if id > 0 {
		cmds = append(cmds, func() tea.Msg {
			p, err := client.Products().Get(ctx, id)
			return productLoadedMsg{sid: sid, product: p, err: err}
		})
	}
	return tea.Batch(cmds...)
}

func (s *productFormScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case categoryOptionsMsg:
		if msg.sid != s.sid {
			return nil
		}
		if msg.err != nil {
			return failure("Categories unavailable", msg.err)
		}
		opts := []choiceOption{{value: "", label: "Select a category"}}
		for _, c := range msg.categories {
			opts = append(opts, choiceOption{value: strconv.FormatInt(c.ID, 10), label: c.Name})
		}
		s.form.SetOptions("categoryId", opts)
		return nil
	case productLoadedMsg:
		if msg.sid != s.sid {
			return nil
		}
		s.loading = false
		if msg.err != nil {
			s.err = msg.err
			return failure("Load product", msg.err)
		}
		p := msg.product
		s.form.SetValue("name", p.Name)
		s.form.SetValue("description", p.Description)
		s.form.SetValue("price", p.Price.StringFixed(2))
		s.form.SetValue("stock", strconv.Itoa(p.Stock))
		s.form.SetValue("imageUrl", p.ImageURL)
		if p.CategoryID != nil {
			s.ensureCategory(*p.CategoryID, p.CategoryName)
			s.form.SetValue("categoryId", strconv.FormatInt(*p.CategoryID, 10))
		}
		return nil
	case productSavedMsg:
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
		reason := ternary(msg.created, "create", "update")
		s.env.bus.LowStockChanged.Publish(events.LowStockChanged{ProductID: msg.product.ID, Reason: reason})
		return tea.Batch(toast("success", "Saved "+msg.product.Name), redirect("/products"))
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

// ensureCategory keeps a product's current category selectable even when it is no
// longer in the public (active) list.
func (s *productFormScreen) ensureCategory(id int64, name string) {
	fld := s.form.field("categoryId")
	value := strconv.FormatInt(id, 10)
	for _, o := range fld.options {
		if o.value == value {
			return
		}
	}
	opts := append([]choiceOption{}, fld.options...)
	if len(opts) == 0 {
		opts = append(opts, choiceOption{value: "", label: "Select a category"})
	}
	s.form.SetOptions("categoryId", append(opts, choiceOption{value: value, label: orDash(name) + " (inactive)"}))
}

// validateProduct checks the form and builds the payload.
func validateProduct(f *form) (backend.ProductInput, map[string]string) {
	errs := map[string]string{}
	name := f.Value("name")
	if name == "" {
		errs["name"] = "Name is required"
	}
	price, ok, err := format.ParseAmount(f.Value("price"))
	switch {
	case err != nil:
		errs["price"] = "Price must be a number"
	case !ok:
		errs["price"] = "Price is required"
	case price.IsNegative():
		errs["price"] = "Price cannot be negative"
	}
	stock, err := strconv.Atoi(strings.TrimSpace(f.Value("stock")))
	switch {
	case f.Value("stock") == "":
		errs["stock"] = "Stock is required"
	case err != nil:
		errs["stock"] = "Stock must be a whole number"
	case stock < 0:
		errs["stock"] = "Stock cannot be negative"
	}
	categoryID, err := strconv.ParseInt(f.Value("categoryId"), 10, 64)
	if err != nil || categoryID <= 0 {
		errs["categoryId"] = "Category is required"
	}
	if len(errs) > 0 {
		return backend.ProductInput{}, errs
	}
	in := backend.NewProductInput(name, f.Value("description"), f.Value("imageUrl"))
	in.Price = price
	in.Stock = stock
	in.CategoryID = categoryID
	return in, nil
}

func (s *productFormScreen) save() tea.Cmd {
	s.form.ClearErrors()
	in, errs := validateProduct(s.form)
	if errs != nil {
		s.form.SetErrors(errs)
		return nil
	}
	s.saving = true
	ctx, client, sid, id := s.env.ctx, s.env.client, s.sid, s.id
	return func() tea.Msg {
		if id == 0 {
			p, err := client.Products().Create(ctx, in)
			return productSavedMsg{sid: sid, product: p, created: true, err: err}
		}
		p, err := client.Products().Update(ctx, id, in)
		return productSavedMsg{sid: sid, product: p, err: err}
	}
}

func (s *productFormScreen) View(th Theme, width, height int) string {
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
