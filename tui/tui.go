package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"todolists/app"
	"todolists/model"
)

type focusPane int

const (
	focusLists focusPane = iota
	focusItems
)

func (f focusPane) String() string {
	if f == focusItems {
		return "items"
	}
	return "lists"
}

type uiMode int

const (
	modeNormal uiMode = iota
	modeAddList
	modeAddItem
	modeRenameList
	modeEditItem
	modeConfirmDelete
	modeGrab
)

type deleteKind int

const (
	deleteNone deleteKind = iota
	deleteList
	deleteItem
)

type statusKind int

const (
	statusOK statusKind = iota
	statusWarn
	statusErr
)

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Tab      key.Binding
	Enter    key.Binding
	Add      key.Binding
	New      key.Binding
	Edit     key.Binding
	Toggle   key.Binding
	Delete   key.Binding
	Rename   key.Binding
	Grab     key.Binding
	MoveUp   key.Binding
	MoveDown key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		Enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open list")),
		Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		New:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new list")),
		Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit item")),
		Toggle:   key.NewBinding(key.WithKeys("x", " "), key.WithHelp("x/space", "done")),
		Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Rename:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename list")),
		Grab:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "grab item")),
		MoveUp:   key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "move up")),
		MoveDown: key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "move down")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "keys")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Add, k.Toggle, k.Grab, k.Delete, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Tab, k.Enter},
		{k.Add, k.New, k.Rename, k.Delete},
		{k.Edit, k.Toggle, k.Grab, k.MoveUp, k.MoveDown},
		{k.Help, k.Quit},
	}
}

// Model is the terminal view over a ListStore. It receives the active list
// through Render and forwards every user event to the store.
type Model struct {
	ctx   context.Context
	store *app.ListStore

	keys  keyMap
	help  help.Model
	input textinput.Model

	focus      focusPane
	mode       uiMode
	listCursor int
	itemCursor int

	title string
	items []model.Item

	grabbed   []model.Item
	grabIndex int

	confirmKind  deleteKind
	confirmID    int64
	confirmIndex int
	confirmName  string

	status     string
	statusKind statusKind

	width  int
	height int
}

func NewModel(ctx context.Context, s *app.ListStore, startupStatus string) *Model {
	status := strings.TrimSpace(startupStatus)
	kind := statusWarn
	if status == "" {
		status = "Ready"
		kind = statusOK
	}

	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 200

	m := &Model{
		ctx:        ctx,
		store:      s,
		keys:       defaultKeys(),
		help:       help.New(),
		input:      input,
		focus:      focusLists,
		mode:       modeNormal,
		status:     status,
		statusKind: kind,
	}
	s.Attach(m)
	m.listCursor = m.activeListIndex()
	return m
}

// Render replaces the displayed list. It is called by the store after every
// successful change.
func (m *Model) Render(title string, items []model.Item) {
	m.title = title
	m.items = items
	m.ensureSelection()
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = m.viewportWidth()
	case tea.KeyMsg:
		switch m.mode {
		case modeAddList, modeAddItem, modeRenameList, modeEditItem:
			return m, m.updateInputMode(msg)
		case modeConfirmDelete:
			m.updateConfirmMode(msg)
		case modeGrab:
			m.updateGrabMode(msg)
		default:
			if quit := m.updateNormalMode(msg); quit {
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m *Model) updateNormalMode(msg tea.KeyMsg) bool {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return true
	case key.Matches(msg, m.keys.Tab):
		if m.focus == focusLists {
			m.focus = focusItems
		} else {
			m.focus = focusLists
		}
		m.setStatus(fmt.Sprintf("Focus on %s", m.focus), statusOK)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Enter):
		m.switchList()
	case key.Matches(msg, m.keys.Add):
		if m.focus == focusLists {
			m.startInput(modeAddList, "")
		} else {
			m.startInput(modeAddItem, "")
		}
	case key.Matches(msg, m.keys.New):
		m.startInput(modeAddList, "")
	case key.Matches(msg, m.keys.Rename):
		m.startInput(modeRenameList, m.title)
	case key.Matches(msg, m.keys.Edit):
		m.startEdit()
	case key.Matches(msg, m.keys.Toggle):
		m.toggleItem()
	case key.Matches(msg, m.keys.Delete):
		m.startDeleteConfirm()
	case key.Matches(msg, m.keys.Grab):
		m.startGrab()
	case key.Matches(msg, m.keys.MoveDown):
		m.moveSelectedItem(1)
	case key.Matches(msg, m.keys.MoveUp):
		m.moveSelectedItem(-1)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	m.ensureSelection()
	return false
}

func (m *Model) updateInputMode(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.stopInput()
		m.setStatus("Canceled", statusOK)
		return nil
	case "enter":
		m.applyInput()
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) updateConfirmMode(msg tea.KeyMsg) {
	switch strings.ToLower(msg.String()) {
	case "y":
		m.confirmDelete()
	case "n", "esc", "enter":
		m.clearConfirm()
		m.mode = modeNormal
		m.setStatus("Canceled", statusOK)
	}
}

// updateGrabMode moves the grabbed item through a working copy of the list.
// Nothing reaches the store until the item is dropped.
func (m *Model) updateGrabMode(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.shiftGrabbed(1)
	case key.Matches(msg, m.keys.Up):
		m.shiftGrabbed(-1)
	case key.Matches(msg, m.keys.Enter), key.Matches(msg, m.keys.Grab):
		m.dropGrabbed()
	case msg.String() == "esc", msg.String() == "ctrl+c":
		m.mode = modeNormal
		m.grabbed = nil
		m.setStatus("Move canceled", statusOK)
	}
}

func (m *Model) startEdit() {
	if m.focus != focusItems {
		return
	}
	if it, ok := m.selectedItem(); ok {
		m.startInput(modeEditItem, it.Text)
	}
}

func (m *Model) startInput(mode uiMode, value string) {
	m.mode = mode
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) stopInput() {
	m.mode = modeNormal
	m.input.SetValue("")
	m.input.Blur()
}

func (m *Model) applyInput() {
	text := m.input.Value()
	switch m.mode {
	case modeAddList:
		list, err := m.store.CreateList(m.ctx, text)
		if err != nil {
			m.fail("Could not create list", err)
			m.stopInput()
			return
		}
		m.stopInput()
		m.listCursor = m.activeListIndex()
		m.itemCursor = 0
		m.focus = focusItems
		m.setStatus(fmt.Sprintf("Created %q", list.Title), statusOK)
	case modeAddItem:
		it, added, err := m.store.AddItem(m.ctx, text)
		if err != nil {
			m.fail("Could not add item", err)
			return
		}
		m.stopInput()
		if !added {
			m.setStatus("Nothing added: text is empty or already in the list", statusWarn)
			return
		}
		m.itemCursor = m.indexOfItem(it.ID)
		m.setStatus("Item added", statusOK)
	case modeRenameList:
		list, reverted, err := m.store.RenameActive(m.ctx, text)
		if err != nil {
			m.fail("Could not rename list", err)
			m.stopInput()
			return
		}
		m.stopInput()
		if reverted {
			m.setStatus(fmt.Sprintf("Title cannot be empty, using %q", list.Title), statusWarn)
			return
		}
		m.setStatus("List renamed", statusOK)
	case modeEditItem:
		if _, err := m.store.EditItem(m.ctx, m.itemCursor, text); err != nil {
			var verr *app.ValidationError
			if errors.As(err, &verr) {
				// Keep the prompt open so the text can be corrected.
				m.setStatus(verr.Err.Error(), statusErr)
				return
			}
			m.fail("Could not edit item", err)
			m.stopInput()
			return
		}
		m.stopInput()
		m.setStatus("Item updated", statusOK)
	}
}

func (m *Model) moveCursor(delta int) {
	if m.focus == focusLists {
		n := len(m.store.Lists())
		if n == 0 {
			return
		}
		m.listCursor = clamp(m.listCursor+delta, 0, n-1)
		return
	}
	if len(m.items) == 0 {
		return
	}
	m.itemCursor = clamp(m.itemCursor+delta, 0, len(m.items)-1)
}

func (m *Model) switchList() {
	if m.focus != focusLists {
		return
	}
	lists := m.store.Lists()
	if m.listCursor >= len(lists) {
		return
	}
	list, err := m.store.SwitchActive(m.ctx, lists[m.listCursor].ID)
	if err != nil {
		m.fail("Could not switch list", err)
		return
	}
	m.itemCursor = 0
	m.focus = focusItems
	m.setStatus(fmt.Sprintf("Active list: %s", list.Title), statusOK)
}

func (m *Model) toggleItem() {
	if m.focus != focusItems {
		return
	}
	if _, ok := m.selectedItem(); !ok {
		return
	}
	it, err := m.store.ToggleItem(m.ctx, m.itemCursor)
	if err != nil {
		m.fail("Could not update item", err)
		return
	}
	if it.Done() {
		m.setStatus("Item done", statusOK)
	} else {
		m.setStatus("Item reopened", statusOK)
	}
}

func (m *Model) moveSelectedItem(delta int) {
	if m.focus != focusItems {
		return
	}
	if _, ok := m.selectedItem(); !ok {
		return
	}
	target := m.itemCursor + delta
	if target < 0 || target >= len(m.items) {
		return
	}
	if _, err := m.store.MoveItem(m.ctx, m.itemCursor, delta); err != nil {
		m.fail("Could not move item", err)
		return
	}
	m.itemCursor = target
	m.setStatus("Item moved", statusOK)
}

func (m *Model) startGrab() {
	if m.focus != focusItems || len(m.items) == 0 {
		return
	}
	m.grabbed = append([]model.Item(nil), m.items...)
	m.grabIndex = m.itemCursor
	m.mode = modeGrab
	m.setStatus("Moving item: j/k to move, enter to drop, esc to cancel", statusOK)
}

func (m *Model) shiftGrabbed(delta int) {
	target := m.grabIndex + delta
	if target < 0 || target >= len(m.grabbed) {
		return
	}
	m.grabbed[m.grabIndex], m.grabbed[target] = m.grabbed[target], m.grabbed[m.grabIndex]
	m.grabIndex = target
}

func (m *Model) dropGrabbed() {
	ids := make([]string, 0, len(m.grabbed))
	for _, it := range m.grabbed {
		ids = append(ids, it.ID)
	}
	dropped := m.grabIndex
	m.mode = modeNormal
	m.grabbed = nil

	if _, err := m.store.Reorder(m.ctx, ids); err != nil {
		m.fail("Could not reorder items", err)
		return
	}
	m.itemCursor = dropped
	m.setStatus("Items reordered", statusOK)
}

func (m *Model) startDeleteConfirm() {
	if m.focus == focusLists {
		lists := m.store.Lists()
		if m.listCursor >= len(lists) {
			return
		}
		m.confirmKind = deleteList
		m.confirmID = lists[m.listCursor].ID
		m.confirmName = lists[m.listCursor].Title
		m.mode = modeConfirmDelete
		return
	}
	it, ok := m.selectedItem()
	if !ok {
		return
	}
	m.confirmKind = deleteItem
	m.confirmIndex = m.itemCursor
	m.confirmName = it.Text
	m.mode = modeConfirmDelete
}

func (m *Model) confirmDelete() {
	switch m.confirmKind {
	case deleteList:
		if err := m.store.DeleteList(m.ctx, m.confirmID); err != nil {
			m.fail("Could not delete list", err)
			break
		}
		m.listCursor = m.activeListIndex()
		m.itemCursor = 0
		m.setStatus(fmt.Sprintf("Deleted %q", m.confirmName), statusOK)
	case deleteItem:
		if _, err := m.store.DeleteItem(m.ctx, m.confirmIndex); err != nil {
			m.fail("Could not delete item", err)
			break
		}
		m.setStatus("Item deleted", statusOK)
	}
	m.mode = modeNormal
	m.clearConfirm()
	m.ensureSelection()
}

func (m *Model) clearConfirm() {
	m.confirmKind = deleteNone
	m.confirmID = 0
	m.confirmIndex = 0
	m.confirmName = ""
}

// fail reports err on the status line. Save failures are called out since
// the change they belonged to was undone.
func (m *Model) fail(prefix string, err error) {
	var perr *app.PersistenceError
	if errors.As(err, &perr) {
		m.setStatus(fmt.Sprintf("%s: not saved (%v)", prefix, perr.Err), statusErr)
		return
	}
	m.setStatus(prefix+": "+err.Error(), statusErr)
}

func (m *Model) setStatus(text string, kind statusKind) {
	m.status = text
	m.statusKind = kind
}

func (m *Model) ensureSelection() {
	if n := len(m.store.Lists()); n > 0 {
		m.listCursor = clamp(m.listCursor, 0, n-1)
	} else {
		m.listCursor = 0
	}
	if len(m.items) == 0 {
		m.itemCursor = 0
		return
	}
	m.itemCursor = clamp(m.itemCursor, 0, len(m.items)-1)
}

func (m *Model) activeListIndex() int {
	activeID := m.store.ActiveID()
	for i, l := range m.store.Lists() {
		if l.ID == activeID {
			return i
		}
	}
	return 0
}

func (m *Model) selectedItem() (model.Item, bool) {
	if m.itemCursor < 0 || m.itemCursor >= len(m.items) {
		return model.Item{}, false
	}
	return m.items[m.itemCursor], true
}

func (m *Model) indexOfItem(id string) int {
	for i, it := range m.items {
		if it.ID == id {
			return i
		}
	}
	return 0
}

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}

	done, pending := 0, 0
	for _, it := range m.items {
		if it.Done() {
			done++
		} else {
			pending++
		}
	}
	title := lipgloss.NewStyle().Bold(true).Render("todolists")
	summary := fmt.Sprintf("focus: %s • %d open • %d done", m.focus, pending, done)
	if m.mode == modeGrab {
		summary += " • moving"
	}
	header := lipgloss.JoinHorizontal(lipgloss.Left,
		title,
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("  "+summary),
	)

	viewW := m.viewportWidth()
	const paneGap = 1
	outerPaneW := viewW
	innerPaneW := outerPaneW - 2
	if innerPaneW < 20 {
		innerPaneW = outerPaneW
	}

	panelH := m.height - 6
	if m.help.ShowAll {
		panelH -= 4
	}
	if panelH < 8 {
		panelH = 8
	}
	innerPaneH := panelH - 2
	if innerPaneH < 6 {
		innerPaneH = 6
	}

	leftW, rightW := m.paneWidths(innerPaneW, paneGap)
	split := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderListsPanel(leftW, innerPaneH),
		lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("│"),
		m.renderItemsPanel(rightW, innerPaneH),
	)

	frameColor := lipgloss.Color("240")
	if m.mode == modeNormal {
		frameColor = lipgloss.Color("39")
	}
	panes := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(frameColor).
		Width(outerPaneW - 2).
		Height(panelH).
		Render(split)

	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	switch m.statusKind {
	case statusWarn:
		statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	case statusErr:
		statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	}
	footerLine := m.renderFooter(m.status, statusStyle, m.contextualHint())

	promptLine := ""
	switch m.mode {
	case modeAddList:
		promptLine = "New list (empty for default): " + m.input.View()
	case modeAddItem:
		promptLine = "New item: " + m.input.View()
	case modeRenameList:
		promptLine = "Rename list: " + m.input.View()
	case modeEditItem:
		promptLine = "Edit item: " + m.input.View()
	case modeConfirmDelete:
		target := "item"
		if m.confirmKind == deleteList {
			target = "list"
		}
		promptLine = fmt.Sprintf("Delete %s %q? [y/N]", target, m.confirmName)
	}
	if promptLine != "" {
		promptLine = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Width(viewW).Render(promptLine)
	}

	parts := []string{header, panes, footerLine}
	if promptLine != "" {
		parts = append(parts, promptLine)
	} else {
		parts = append(parts, m.help.View(m.keys))
	}
	return strings.Join(parts, "\n")
}

func (m *Model) viewportWidth() int {
	if m.width <= 0 {
		return 1
	}
	// Leave the last column free; some terminals wrap on it.
	if m.width > 1 {
		return m.width - 1
	}
	return m.width
}

func (m *Model) paneWidths(total, gap int) (int, int) {
	if total <= 0 {
		return 24, 30
	}
	if gap < 0 {
		gap = 0
	}

	minLeft := 20
	minRight := 30
	if total < minLeft+minRight+gap {
		left := total / 3
		if left < 12 {
			left = 12
		}
		right := total - left - gap
		if right < 12 {
			right = 12
			left = total - right - gap
			if left < 10 {
				left = 10
			}
		}
		return left, right
	}

	left := clamp(total/4, 22, 34)
	right := total - left - gap
	if right < minRight {
		right = minRight
		left = total - right - gap
	}
	if left < minLeft {
		left = minLeft
		right = total - left - gap
	}
	return left, right
}

func (m *Model) renderFooter(statusText string, statusStyle lipgloss.Style, rightHint string) string {
	left := strings.TrimSpace(statusText)
	right := strings.TrimSpace(rightHint)
	if left == "" {
		left = "Ready"
	}

	leftW := utf8.RuneCountInString(left)
	rightW := utf8.RuneCountInString(right)
	width := m.viewportWidth()

	if leftW+rightW+1 > width {
		maxLeft := max(width-rightW-1, 8)
		left = truncateRunes(left, maxLeft)
		leftW = utf8.RuneCountInString(left)
	}

	padding := max(width-leftW-rightW, 1)
	rightStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	line := statusStyle.Render(left) + strings.Repeat(" ", padding) + rightStyle.Render(right)
	return lipgloss.NewStyle().Width(width).Render(line)
}

func (m *Model) contextualHint() string {
	switch m.mode {
	case modeAddList, modeAddItem, modeRenameList, modeEditItem:
		return "enter confirm • esc cancel"
	case modeConfirmDelete:
		return "y confirm • n/esc cancel"
	case modeGrab:
		return "j/k move • enter drop • esc cancel"
	}
	if m.focus == focusLists {
		return "enter open • a/n new • r rename • d delete"
	}
	return "a add • e edit • x done • m grab • J/K move • d delete"
}

func (m *Model) renderListsPanel(width, height int) string {
	lists := m.store.Lists()
	activeID := m.store.ActiveID()

	lines := make([]string, 0, len(lists)+1)
	lines = append(lines, panelTitleStyled("Lists", m.focus == focusLists))
	for i, l := range lists {
		cursor := " "
		if i == m.listCursor {
			cursor = "▸"
		}
		marker := " "
		if l.ID == activeID {
			marker = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("●")
		}
		_, pending := l.Counts()
		name := truncateRunes(l.Title, max(width-10, 4))
		line := fmt.Sprintf("%s %s %s (%d)", cursor, marker, name, pending)
		if i == m.listCursor {
			style := lipgloss.NewStyle().Bold(true)
			if m.focus == focusLists {
				style = style.Foreground(lipgloss.Color("229"))
			}
			line = style.Render(line)
		}
		lines = append(lines, line)
	}

	return lipgloss.NewStyle().Width(width).Height(height).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderItemsPanel(width, height int) string {
	items := m.items
	cursor := m.itemCursor
	if m.mode == modeGrab {
		items = m.grabbed
		cursor = m.grabIndex
	}

	lines := make([]string, 0, len(items)+2)
	lines = append(lines, panelTitleStyled(m.title, m.focus == focusItems))
	if len(items) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Render("No items. Press 'a' to add one."))
	}

	doneStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)
	for i, it := range items {
		pointer := " "
		if i == cursor && m.focus == focusItems {
			pointer = "▸"
			if m.mode == modeGrab {
				pointer = "≡"
			}
		}
		box := "[ ]"
		if it.Done() {
			box = "[x]"
		}
		text := truncateRunes(it.Text, max(width-8, 4))
		line := fmt.Sprintf("%s %s %s", pointer, box, text)

		style := lipgloss.NewStyle()
		if it.Done() {
			style = doneStyle
		}
		if i == cursor && m.focus == focusItems {
			style = style.Bold(true).Foreground(lipgloss.Color("229"))
		}
		lines = append(lines, style.Render(line))
	}

	return lipgloss.NewStyle().Width(width).Height(height).Render(strings.Join(lines, "\n"))
}

func panelTitleStyled(title string, active bool) string {
	base := lipgloss.NewStyle().Bold(true)
	if !active {
		return base.Render(title)
	}
	text := base.Foreground(lipgloss.Color("229")).Render(title)
	marker := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")).Render("*")
	return lipgloss.JoinHorizontal(lipgloss.Left, text, " ", marker)
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
