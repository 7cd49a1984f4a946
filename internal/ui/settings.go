package ui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/five82/shopdeck/internal/backend"
	"github.com/five82/shopdeck/internal/format"
)

// settingField binds one form field to a StoreSettings property.
type settingField struct {
	field formField
	get   func(backend.StoreSettings) string
	set   func(*backend.StoreSettings, string) error
}

type settingsSection struct {
	slug   string
	title  string
	fields []settingField
}

func textSetting(key, label string, limit int, ptr func(*backend.StoreSettings) *string) settingField {
	return settingField{
		field: textField(key, label, "", limit),
		get:   func(s backend.StoreSettings) string { return *ptr(&s) },
		set: func(s *backend.StoreSettings, v string) error {
			*ptr(s) = v
			return nil
		},
	}
}

func toggleSetting(key, label string, ptr func(*backend.StoreSettings) *bool) settingField {
	return settingField{
		field: toggleField(key, label, false),
		get:   func(s backend.StoreSettings) string { return strconv.FormatBool(*ptr(&s)) },
		set: func(s *backend.StoreSettings, v string) error {
			*ptr(s) = v == "true"
			return nil
		},
	}
}

func moneySetting(key, label string, ptr func(*backend.StoreSettings) *decimal.Decimal) settingField {
	return settingField{
		field: textField(key, label, "", 16),
		get:   func(s backend.StoreSettings) string { return ptr(&s).StringFixed(2) },
		set: func(s *backend.StoreSettings, v string) error {
			amount, ok, err := format.ParseAmount(v)
			switch {
			case err != nil:
				return fmt.Errorf("must be an amount")
			case !ok:
				amount = decimal.Zero
			case amount.IsNegative():
				return fmt.Errorf("cannot be negative")
			}
			*ptr(s) = amount
			return nil
		},
	}
}

// clockSetting holds an HH:MM time of day.
func clockSetting(key, label string, ptr func(*backend.StoreSettings) *string) settingField {
	f := textSetting(key, label, 5, ptr)
	f.field.hint = "HH:MM"
	f.set = func(s *backend.StoreSettings, v string) error {
		if v != "" {
			if _, err := time.Parse("15:04", v); err != nil {
				return fmt.Errorf("use HH:MM")
			}
		}
		*ptr(s) = v
		return nil
	}
	return f
}

// paymentSetting toggles one pay-on-delivery method in the method list.
func paymentSetting(key, label, method string) settingField {
	return settingField{
		field: toggleField(key, label, false),
		get: func(s backend.StoreSettings) string {
			return strconv.FormatBool(slices.Contains(s.PayOnDeliveryMethods, method))
		},
		set: func(s *backend.StoreSettings, v string) error {
			methods := slices.DeleteFunc(slices.Clone(s.PayOnDeliveryMethods), func(m string) bool { return m == method })
			if v == "true" {
				methods = append(methods, method)
				slices.Sort(methods)
			}
			s.PayOnDeliveryMethods = methods
			return nil
		},
	}
}

func settingsSections() []settingsSection {
	return []settingsSection{
		{slug: "store", title: "Store info", fields: []settingField{
			textSetting("storeName", "Store name", 120, func(s *backend.StoreSettings) *string { return &s.StoreName }),
			textSetting("storeLogo", "Logo URL", 500, func(s *backend.StoreSettings) *string { return &s.StoreLogo }),
			textSetting("storePhone", "Phone", 40, func(s *backend.StoreSettings) *string { return &s.StorePhone }),
			textSetting("storeEmail", "Email", 120, func(s *backend.StoreSettings) *string { return &s.StoreEmail }),
			textSetting("storeAddress", "Address", 500, func(s *backend.StoreSettings) *string { return &s.StoreAddress }),
			textSetting("invoiceTitle", "Invoice title", 200, func(s *backend.StoreSettings) *string { return &s.InvoiceTitle }),
			textSetting("invoiceTaxNumber", "Tax number", 40, func(s *backend.StoreSettings) *string { return &s.InvoiceTaxNumber }),
			textSetting("invoiceTaxOffice", "Tax office", 120, func(s *backend.StoreSettings) *string { return &s.InvoiceTaxOffice }),
		}},
		{slug: "shipping", title: "Shipping and payment", fields: []settingField{
			moneySetting("deliveryFeeFixed", "Delivery fee", func(s *backend.StoreSettings) *decimal.Decimal { return &s.DeliveryFeeFixed }),
			moneySetting("deliveryFreeThreshold", "Free above", func(s *backend.StoreSettings) *decimal.Decimal { return &s.DeliveryFreeThreshold }),
			moneySetting("minOrderAmount", "Minimum order", func(s *backend.StoreSettings) *decimal.Decimal { return &s.MinOrderAmount }),
			toggleSetting("orderAcceptingEnabled", "Accept orders", func(s *backend.StoreSettings) *bool { return &s.OrderAcceptingEnabled }),
			toggleSetting("payOnDeliveryEnabled", "Pay on delivery", func(s *backend.StoreSettings) *bool { return &s.PayOnDeliveryEnabled }),
			paymentSetting("payCash", "  Cash", backend.PayCash),
			paymentSetting("payCard", "  Card", backend.PayCard),
			textSetting("returnCancelPolicyText", "Return policy", 2000, func(s *backend.StoreSettings) *string { return &s.ReturnCancelPolicyText }),
		}},
		{slug: "operation", title: "Operation", fields: []settingField{
			toggleSetting("workingHoursEnabled", "Working hours", func(s *backend.StoreSettings) *bool { return &s.WorkingHoursEnabled }),
			clockSetting("workingHoursStart", "Opens", func(s *backend.StoreSettings) *string { return &s.WorkingHoursStart }),
			clockSetting("workingHoursEnd", "Closes", func(s *backend.StoreSettings) *string { return &s.WorkingHoursEnd }),
			{
				field: textField("estimatedDeliveryMinutes", "Delivery mins", "", 4),
				get:   func(s backend.StoreSettings) string { return strconv.Itoa(s.EstimatedDeliveryMinutes) },
				set: func(s *backend.StoreSettings, v string) error {
					if v == "" {
						s.EstimatedDeliveryMinutes = 0
						return nil
					}
					n, err := strconv.Atoi(v)
					if err != nil || n < 0 {
						return fmt.Errorf("must be a whole number of minutes")
					}
					s.EstimatedDeliveryMinutes = n
					return nil
				},
			},
			{
				field: textField("deliveryZones", "Zones", "", 1000),
				get:   func(s backend.StoreSettings) string { return strings.Join(s.DeliveryZones, ", ") },
				set: func(s *backend.StoreSettings, v string) error {
					s.DeliveryZones = splitList(v)
					return nil
				},
			},
			textSetting("orderClosedMessage", "Closed message", 500, func(s *backend.StoreSettings) *string { return &s.OrderClosedMessage }),
		}},
		{slug: "content", title: "Content", fields: []settingField{
			textSetting("faqText", "FAQ", 10000, func(s *backend.StoreSettings) *string { return &s.FAQText }),
			textSetting("termsText", "Terms", 10000, func(s *backend.StoreSettings) *string { return &s.TermsText }),
			textSetting("kvkkText", "Privacy notice", 10000, func(s *backend.StoreSettings) *string { return &s.KVKKText }),
			textSetting("distanceSalesText", "Distance sales", 10000, func(s *backend.StoreSettings) *string { return &s.DistanceSalesText }),
		}},
		{slug: "system", title: "System", fields: []settingField{
			toggleSetting("maintenanceModeEnabled", "Maintenance", func(s *backend.StoreSettings) *bool { return &s.MaintenanceModeEnabled }),
			textSetting("maintenanceMessage", "Message", 500, func(s *backend.StoreSettings) *string { return &s.MaintenanceMessage }),
		}},
	}
}

func findSection(slug string) (settingsSection, bool) {
	for _, sec := range settingsSections() {
		if sec.slug == slug {
			return sec, true
		}
	}
	return settingsSection{}, false
}

// splitList turns "a, b,,c" into [a b c].
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// settingsMenuScreen lists the settings sections.
type settingsMenuScreen struct {
	base
	sections []settingsSection
	cursor   int
}

func newSettingsMenuScreen(e *env) *settingsMenuScreen {
	return &settingsMenuScreen{base: base{sid: e.nextSID(), env: e}, sections: settingsSections()}
}

func (s *settingsMenuScreen) Title() string { return "Settings" }
func (s *settingsMenuScreen) Init() tea.Cmd { return nil }

func (s *settingsMenuScreen) Hints() []hint {
	return []hint{{"j/k", "Move"}, {"enter", "Open"}}
}

func (s *settingsMenuScreen) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch key.String() {
	case "up", "k":
		s.cursor = max(s.cursor-1, 0)
	case "down", "j":
		s.cursor = min(s.cursor+1, len(s.sections)-1)
	case "enter":
		return navigate("/settings/" + s.sections[s.cursor].slug)
	}
	return nil
}

func (s *settingsMenuScreen) View(th Theme, width, height int) string {
	styles := th.Styles().WithBackground(th.SurfaceAlt)
	lines := make([]string, 0, len(s.sections))
	for i, sec := range s.sections {
		if i == s.cursor {
			lines = append(lines, styles.AccentText.Render("› "+sec.title))
		} else {
			lines = append(lines, styles.Text.Render("  "+sec.title))
		}
	}
	return renderBox(th, s.Title(), strings.Join(lines, "\n"), width, height)
}

type settingsLoadedMsg struct {
	sid      uint64
	settings backend.StoreSettings
	err      error
}

type settingsSavedMsg struct {
	sid      uint64
	settings backend.StoreSettings
	err      error
}

type cacheClearedMsg struct {
	sid uint64
	err error
}

// settingsScreen edits one section. Saving re-reads the settings and only writes the
// section's own fields over them.
type settingsScreen struct {
	base
	section  settingsSection
	form     *form
	loading  bool
	saving   bool
	clearing bool
	err      error
}

func newSettingsScreen(e *env, section settingsSection) *settingsScreen {
	fields := make([]formField, len(section.fields))
	for i, f := range section.fields {
		fields[i] = f.field
	}
	return &settingsScreen{
		base:    base{sid: e.nextSID(), env: e},
		section: section,
		form:    newForm(fields...),
		loading: true,
	}
}

func (s *settingsScreen) Title() string   { return "Settings · " + s.section.title }
func (s *settingsScreen) Capturing() bool { return true }
func (s *settingsScreen) Busy() bool      { return s.loading || s.saving || s.clearing }

func (s *settingsScreen) Hints() []hint {
	hints := []hint{{"tab", "Next field"}, {"space", "Toggle"}, {"ctrl+s", "Save"}, {"ctrl+r", "Reload"}}
	if s.section.slug == "system" {
		hints = append(hints, hint{"ctrl+x", "Clear cache"})
	}
	return append(hints, hint{"esc", "Back"})
}

func (s *settingsScreen) Init() tea.Cmd { return s.load() }

func (s *settingsScreen) load() tea.Cmd {
	s.loading = true
	ctx, client, sid := s.env.ctx, s.env.client, s.sid
	return func() tea.Msg {
		settings, err := client.Settings().Get(ctx)
		return settingsLoadedMsg{sid: sid, settings: settings, err: err}
	}
}

func (s *settingsScreen) fill(settings backend.StoreSettings) {
	for _, f := range s.section.fields {
		s.form.SetValue(f.field.key, f.get(settings))
	}
}

// collect validates the form against a scratch copy and returns the mutation that
// applies it.
func (s *settingsScreen) collect() (func(*backend.StoreSettings), map[string]string) {
	values := make(map[string]string, len(s.section.fields))
	errs := map[string]string{}
	var scratch backend.StoreSettings
	for _, f := range s.section.fields {
		v := s.form.Value(f.field.key)
		if f.field.kind == fieldToggle {
			v = strconv.FormatBool(s.form.Bool(f.field.key))
		}
		if err := f.set(&scratch, v); err != nil {
			errs[f.field.key] = f.field.label + " " + err.Error()
			continue
		}
		values[f.field.key] = v
	}
	if len(errs) > 0 {
		return nil, errs
	}
	fields := s.section.fields
	return func(settings *backend.StoreSettings) {
		for _, f := range fields {
			_ = f.set(settings, values[f.field.key])
		}
	}, nil
}

func (s *settingsScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case settingsLoadedMsg:
		if msg.sid != s.sid {
			return nil
		}
		s.loading = false
		if msg.err != nil {
			s.err = msg.err
			return failure("Load settings", msg.err)
		}
		s.err = nil
		s.fill(msg.settings)
		return nil
	case settingsSavedMsg:
		if msg.sid != s.sid {
			return nil
		}
		s.saving = false
		if msg.err != nil {
			if e, ok := backend.AsError(msg.err); ok && len(e.FieldErrors) > 0 {
				s.form.SetErrors(e.FieldErrors)
			}
			return failure("Settings not saved", msg.err)
		}
		s.fill(msg.settings)
		return toast("success", s.section.title+" saved")
	case cacheClearedMsg:
		if msg.sid != s.sid {
			return nil
		}
		s.clearing = false
		if msg.err != nil {
			return failure("Cache not cleared", msg.err)
		}
		return toast("success", "Backend cache cleared")
	case tea.KeyMsg:
		return s.key(msg)
	}
	return nil
}

func (s *settingsScreen) key(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		return goBack()
	case "ctrl+r":
		if !s.saving {
			return s.load()
		}
		return nil
	case "ctrl+x":
		if s.section.slug == "system" && !s.clearing {
			s.clearing = true
			ctx, client, sid := s.env.ctx, s.env.client, s.sid
			return func() tea.Msg {
				return cacheClearedMsg{sid: sid, err: client.Settings().ClearCache(ctx)}
			}
		}
		return nil
	}
	if s.loading || s.saving || s.err != nil {
		return nil
	}
	submit, cmd := s.form.Update(msg)
	if submit {
		return s.save()
	}
	return cmd
}

func (s *settingsScreen) save() tea.Cmd {
	s.form.ClearErrors()
	apply, errs := s.collect()
	if errs != nil {
		s.form.SetErrors(errs)
		return nil
	}
	s.saving = true
	ctx, client, sid := s.env.ctx, s.env.client, s.sid
	return func() tea.Msg {
		saved, err := client.Settings().Update(ctx, apply)
		return settingsSavedMsg{sid: sid, settings: saved, err: err}
	}
}

func (s *settingsScreen) View(th Theme, width, height int) string {
	styles := th.Styles().WithBackground(th.SurfaceAlt)
	var lines []string
	switch {
	case s.loading:
		lines = append(lines, styles.MutedText.Render("Loading…"))
	case s.err != nil:
		lines = append(lines, styles.DangerText.Render(backend.Message(s.err)), styles.MutedText.Render("ctrl+r to retry"))
	default:
		lines = append(lines, s.form.View(styles, 16, width-2)...)
		switch {
		case s.saving:
			lines = append(lines, "", styles.WarningText.Render("Saving…"))
		case s.clearing:
			lines = append(lines, "", styles.WarningText.Render("Clearing cache…"))
		}
	}
	return renderBox(th, s.Title(), strings.Join(lines, "\n"), width, height)
}
