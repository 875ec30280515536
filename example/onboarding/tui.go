package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tbxark/formwizard"
	"github.com/tbxark/formwizard/codeinput"
	"github.com/tbxark/formwizard/command"
	"github.com/tbxark/formwizard/onboarding"
	"github.com/tbxark/formwizard/types"
	"github.com/tbxark/formwizard/validation"
	"github.com/tbxark/formwizard/wizard"
)

// listUpdatedMsg is sent from resolver goroutines when a dependent list
// settles, so the view re-renders without polling.
type listUpdatedMsg struct{}

type model struct {
	ctx    context.Context
	ob     *formwizard.Onboarding
	wizard *wizard.Wizard

	focus  int
	status string

	code     *codeinput.Input
	verified string
}

func runInteractive(ctx context.Context, opts *RootOptions) error {
	cfg, logger, cleanup, err := opts.setup(true)
	if err != nil {
		return err
	}
	defer cleanup()

	var program *tea.Program
	ob, err := formwizard.NewOnboarding(cfg, formwizard.LogSubmitter(logger),
		formwizard.WithLogger(logger),
		formwizard.WithOnChange(func() {
			if program != nil {
				program.Send(listUpdatedMsg{})
			}
		}),
	)
	if err != nil {
		return err
	}
	defer ob.Close()

	m := &model{ctx: ctx, ob: ob, wizard: ob.Wizard}
	program = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	ob.Wizard.Mount(ctx)
	if ob.Wizard.State() > 1 {
		m.status = fmt.Sprintf("Welcome back, resuming at %s.", ob.Wizard.State())
	}
	_, err = program.Run()
	return err
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case listUpdatedMsg:
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "esc" {
			return m, tea.Quit
		}
		if m.code != nil {
			return m.updateCode(msg)
		}
		return m.updateForm(msg)
	}
	return m, nil
}

func (m *model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	fields := m.wizard.VisibleFields()
	if m.focus >= len(fields) {
		m.focus = max(len(fields)-1, 0)
	}

	switch msg.String() {
	case "tab", "down":
		if len(fields) > 0 {
			m.focus = (m.focus + 1) % len(fields)
		}
		return m, nil
	case "shift+tab", "up":
		if len(fields) > 0 {
			m.focus = (m.focus - 1 + len(fields)) % len(fields)
		}
		return m, nil
	case "enter":
		cmd := command.Next
		if int(m.wizard.State()) == m.wizard.TotalSteps() {
			cmd = command.Submit
		}
		m.dispatch(cmd)
		return m, nil
	case "ctrl+b":
		m.dispatch(command.Back)
		return m, nil
	case "ctrl+r":
		m.dispatch(command.Reset)
		return m, nil
	}

	if len(fields) == 0 {
		return m, nil
	}
	field := fields[m.focus]
	current := m.wizard.Value(field.Name)

	if b, isBool := current.(bool); isBool {
		if msg.String() == " " || msg.String() == "x" {
			m.wizard.SetField(m.ctx, field.Name, !b)
		}
		return m, nil
	}

	if options, ok := m.options(field); ok {
		switch msg.String() {
		case "left", "right", " ":
			step := 1
			if msg.String() == "left" {
				step = -1
			}
			m.wizard.SetField(m.ctx, field.Name, cycle(options, fmt.Sprint(current), step))
		}
		return m, nil
	}

	text := fmt.Sprint(current)
	switch msg.Type {
	case tea.KeyBackspace:
		if r := []rune(text); len(r) > 0 {
			m.wizard.SetField(m.ctx, field.Name, string(r[:len(r)-1]))
		}
	case tea.KeyRunes, tea.KeySpace:
		m.wizard.SetField(m.ctx, field.Name, text+string(msg.Runes))
	}
	m.status = m.wizard.Check(field.Name)
	return m, nil
}

func (m *model) dispatch(cmd command.Command) {
	before := m.wizard.State()
	moved := command.Dispatch(m.ctx, m.wizard, cmd)
	switch {
	case cmd == command.Reset:
		m.focus = 0
		m.status = "Started over."
	case moved && m.wizard.State() == types.Submitted:
		m.status = "Account created. Enter the verification code we sent you."
		m.code = m.ob.NewCodeInput(func(code string) { m.verified = code })
	case moved:
		m.focus = 0
		m.status = ""
	case m.wizard.FormError() != "":
		m.status = m.wizard.FormError()
	default:
		m.status = fmt.Sprintf("Please fix the highlighted fields on %s.", before)
	}
}

func (m *model) updateCode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Paste:
		m.code.Paste(string(msg.Runes))
	case msg.Type == tea.KeyBackspace:
		m.code.Backspace(m.code.Focus())
	case msg.Type == tea.KeyLeft:
		m.code.Left()
	case msg.Type == tea.KeyRight:
		m.code.Right()
	case msg.Type == tea.KeyEnter && m.verified != "":
		return m, tea.Quit
	case msg.Type == tea.KeyRunes:
		m.code.Type(m.code.Focus(), string(msg.Runes))
	}
	return m, nil
}

// options returns the choices of a select field: its fixed options or the
// ready dependent list feeding it.
func (m *model) options(field validation.FieldDefinition) ([]types.Option, bool) {
	if len(field.Options) > 0 {
		return field.Options, true
	}
	list, ok := m.wizard.List(field.Name)
	if !ok {
		return nil, false
	}
	return list.Options, true
}

func cycle(options []types.Option, current string, step int) string {
	if len(options) == 0 {
		return ""
	}
	idx := -1
	for i, o := range options {
		if o.Value == current {
			idx = i
			break
		}
	}
	if idx < 0 {
		if step < 0 {
			return options[len(options)-1].Value
		}
		return options[0].Value
	}
	return options[(idx+step+len(options))%len(options)].Value
}

func (m *model) View() string {
	if m.code != nil {
		return frameStyle.Render(m.viewCode())
	}
	var b strings.Builder
	step, _ := m.wizard.Step()
	b.WriteString(titleStyle.Render("Create your account"))
	b.WriteString("\n")
	b.WriteString(stepStyle.Render(fmt.Sprintf("Step %d of %d · %s", int(m.wizard.State()), m.wizard.TotalSteps(), step.Title)))
	b.WriteString("\n\n")

	for i, field := range m.wizard.VisibleFields() {
		b.WriteString(m.viewField(field, i == m.focus))
		b.WriteString("\n")
	}

	if int(m.wizard.State()) == m.wizard.TotalSteps() {
		b.WriteString(m.wizard.Summary())
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(warnStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(footerStyle.Render("tab/↑↓ move · ←→ choose · space toggle · enter continue · ctrl+b back · ctrl+r start over · esc quit"))
	return frameStyle.Render(b.String())
}

func (m *model) viewField(field validation.FieldDefinition, focused bool) string {
	label := labelStyle.Render(field.Label)
	if focused {
		label = focusStyle.Render("› " + field.Label)
	}
	value := m.renderValue(field)
	lines := []string{lipgloss.JoinHorizontal(lipgloss.Top, label, "  ", value)}

	if field.Description != "" && focused {
		lines = append(lines, hintStyle.Render(field.Description))
	}
	if field.Name == onboarding.FieldPassword && focused {
		for _, req := range m.wizard.PasswordChecklist(field.Name) {
			mark, style := "✗", errorStyle
			if req.Met {
				mark, style = "✓", okStyle
			}
			lines = append(lines, style.Render(mark+" "+req.Label))
		}
	}
	if msg := m.wizard.FieldError(field.Name); msg != "" {
		lines = append(lines, errorStyle.Render(msg))
	}
	return strings.Join(lines, "\n")
}

func (m *model) renderValue(field validation.FieldDefinition) string {
	current := m.wizard.Value(field.Name)
	if b, isBool := current.(bool); isBool {
		if b {
			return valueStyle.Render("[x]")
		}
		return valueStyle.Render("[ ]")
	}
	text := fmt.Sprint(current)
	if list, ok := m.wizard.List(field.Name); ok {
		switch list.Status {
		case types.ListLoading:
			return hintStyle.Render("loading…")
		case types.ListIdle:
			return hintStyle.Render("choose the field above first")
		}
		for _, o := range list.Options {
			if o.Value == text {
				text = o.Label
			}
		}
		return valueStyle.Render("◂ " + text + " ▸")
	}
	for _, o := range field.Options {
		if o.Value == text {
			return valueStyle.Render("◂ " + o.Label + " ▸")
		}
	}
	if len(field.Options) > 0 {
		return valueStyle.Render("◂ choose ▸")
	}
	if field.Sensitive {
		text = strings.Repeat("•", len([]rune(text)))
	}
	return valueStyle.Render(text + " ")
}

func (m *model) viewCode() string {
	var slots []string
	for i, s := range m.code.Slots() {
		if s == "" {
			s = " "
		}
		style := slotStyle
		if i == m.code.Focus() {
			style = slotFocus
		}
		slots = append(slots, style.Render(s))
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Verify your email"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, slots...))
	b.WriteString("\n\n")
	if m.verified != "" {
		b.WriteString(okStyle.Render(fmt.Sprintf("Code %s received. Press enter to finish.", m.verified)))
	} else {
		b.WriteString(hintStyle.Render(m.status))
	}
	b.WriteString(footerStyle.Render("\ndigits fill the boxes · paste works · ←→ move · backspace erase · esc quit"))
	return b.String()
}
