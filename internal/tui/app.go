package tui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/park285/lanchess/internal/msgcat"
	"github.com/park285/lanchess/internal/render"
	"github.com/park285/lanchess/internal/session"
)

// Actions are the intents the UI can raise. Implementations must not block
// the tview goroutine.
type Actions interface {
	Gestures
	ClearSelection()
	Join(room string)
	Undo()
	Reset()
	Leave()
	Snapshot()
}

const (
	pageMain    = "main"
	pageConfirm = "confirm"
	pageJoin    = "join"
	pageControl = "controls"
)

type UI struct {
	app     *tview.Application
	cat     *msgcat.Catalog
	actions Actions

	board    *BoardWidget
	pages    *tview.Pages
	side     *tview.Pages
	title    *tview.TextView
	message  *tview.TextView
	errText  *tview.TextView
	roomText *tview.TextView
	moves    *tview.TextView
	status   *tview.TextView
	room     *tview.InputField
	controls *tview.Form
	modal    *tview.Modal

	frame  session.Frame
	notice string
}

// New builds the widget tree. screen may be nil, in which case tview
// creates its own.
func New(screen tcell.Screen, cat *msgcat.Catalog, actions Actions) *UI {
	u := &UI{app: tview.NewApplication(), cat: cat, actions: actions}
	if screen != nil {
		u.app.SetScreen(screen)
	}
	u.app.EnableMouse(true)

	u.board = NewBoardWidget(actions)
	u.board.SetTitle(" " + cat.Text("panel.title", nil) + " ")

	u.title = tview.NewTextView()
	u.message = tview.NewTextView().SetWrap(true)
	u.errText = tview.NewTextView().SetWrap(true).SetTextColor(tcell.ColorRed)
	u.roomText = tview.NewTextView()
	u.moves = tview.NewTextView().SetScrollable(true)
	u.moves.SetBorder(true)
	u.status = tview.NewTextView()

	u.room = tview.NewInputField().
		SetLabel(cat.Text("panel.join_prompt", nil) + " ").
		SetFieldWidth(12)
	u.room.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			u.join()
		}
	})
	joinForm := tview.NewForm().
		AddFormItem(u.room).
		AddButton(cat.Text("panel.join_button", nil), u.join)

	u.controls = tview.NewForm().
		AddButton(cat.Text("panel.undo", nil), actions.Undo).
		AddButton(cat.Text("panel.reset", nil), actions.Reset).
		AddButton(cat.Text("panel.leave", nil), u.requestLeave)

	u.side = tview.NewPages().
		AddPage(pageJoin, joinForm, true, true).
		AddPage(pageControl, u.controls, true, false)

	panel := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(u.title, 1, 0, false).
		AddItem(u.message, 2, 0, false).
		AddItem(u.errText, 1, 0, false).
		AddItem(u.roomText, 1, 0, false).
		AddItem(u.side, 5, 0, true).
		AddItem(u.moves, 0, 1, false)

	body := tview.NewFlex().
		AddItem(u.board, boardW+2, 0, false).
		AddItem(panel, 0, 1, true)

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(u.status, 2, 0, false)

	u.modal = tview.NewModal()
	u.pages = tview.NewPages().
		AddPage(pageMain, root, true, true).
		AddPage(pageConfirm, u.modal, false, false)

	u.app.SetRoot(u.pages, true)
	u.app.SetInputCapture(u.handleKey)
	return u
}

// Run blocks until the application stops.
func (u *UI) Run() error { return u.app.Run() }

func (u *UI) Stop() { u.app.Stop() }

// Push hands a frame to the UI from any goroutine.
func (u *UI) Push(f session.Frame) {
	go u.app.QueueUpdateDraw(func() { u.apply(f) })
}

// Notify shows msg in the status bar until the next notice. Safe from any
// goroutine.
func (u *UI) Notify(msg string) {
	go u.app.QueueUpdateDraw(func() {
		u.notice = msg
		u.refreshStatus()
	})
}

// apply runs on the tview goroutine. Frames can arrive out of order
// because Push hops goroutines; older ones are dropped.
func (u *UI) apply(f session.Frame) {
	if f.Seq != 0 && f.Seq <= u.frame.Seq {
		return
	}
	u.frame = f
	u.board.SetView(f.Board)

	p := f.Panel
	u.title.SetText(p.Title)
	u.message.SetText(p.Message)
	u.errText.SetText(p.Error)
	u.roomText.SetText(p.Room)
	u.moves.SetText(strings.Join(p.Moves, "\n"))
	u.moves.ScrollToEnd()

	name, _ := u.side.GetFrontPage()
	want := pageJoin
	if p.Kind == render.PanelControls {
		want = pageControl
	}
	if name != want {
		u.side.SwitchToPage(want)
	}
	u.refreshStatus()
}

func (u *UI) refreshStatus() {
	first := strings.TrimSpace(strings.Join(nonEmpty(u.frame.Turn, u.frame.Status, u.notice), "  |  "))
	second := u.frame.Panel.Debug
	if hint := u.cat.Text("tui.hint", nil); hint != "" {
		second = fmt.Sprintf("%s   %s", second, hint)
	}
	u.status.SetText(first + "\n" + second)
}

func nonEmpty(vals ...string) []string {
	var out []string
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func (u *UI) join() {
	room := strings.TrimSpace(u.room.GetText())
	if room == "" {
		return
	}
	u.actions.Join(room)
}

func (u *UI) confirmShown() bool {
	name, _ := u.pages.GetFrontPage()
	return name == pageConfirm
}

// confirm shows a leave confirmation and runs then if the player agrees.
func (u *UI) confirm(then func()) {
	leave, stay := u.cat.Text("tui.leave", nil), u.cat.Text("tui.stay", nil)
	text := u.cat.Text("status.leave_confirm", map[string]any{"Room": u.frame.View.RoomID})
	text = strings.TrimSpace(strings.TrimSuffix(text, "(y/n)"))
	u.modal.ClearButtons().
		SetText(text).
		AddButtons([]string{leave, stay}).
		SetDoneFunc(func(_ int, label string) {
			u.pages.HidePage(pageConfirm)
			u.app.SetFocus(u.pages)
			if label == leave {
				then()
			}
		})
	u.pages.ShowPage(pageConfirm)
	u.app.SetFocus(u.modal)
}

// requestLeave leaves the room, asking first when this player hosts it.
func (u *UI) requestLeave() {
	if u.frame.View.NeedsLeaveConfirmation() {
		u.confirm(u.actions.Leave)
		return
	}
	u.actions.Leave()
}

func (u *UI) requestQuit() {
	if u.frame.View.NeedsLeaveConfirmation() {
		u.confirm(u.app.Stop)
		return
	}
	u.app.Stop()
}

func (u *UI) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if u.confirmShown() {
		return event
	}
	switch event.Key() {
	case tcell.KeyCtrlC:
		u.requestQuit()
		return nil
	case tcell.KeyEscape:
		u.actions.ClearSelection()
		return nil
	case tcell.KeyRune:
	default:
		return event
	}
	if u.app.GetFocus() == u.room {
		return event
	}
	switch event.Rune() {
	case 'q':
		u.requestQuit()
		return nil
	case 's':
		u.actions.Snapshot()
		return nil
	}
	return event
}
