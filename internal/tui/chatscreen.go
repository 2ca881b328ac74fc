package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"sanctuary-live/internal/chat"
	"sanctuary-live/internal/domain"
	"sanctuary-live/internal/logger"
)

// ChatScreen is the floating conversation with the stream admins
type ChatScreen struct {
	app     *tview.Application
	session *chat.Session
	logger  *logger.Logger

	history *tview.TextView
	input   *tview.InputField
	status  *tview.TextView
}

// NewChatScreen builds the chat layout around an existing session
func NewChatScreen(session *chat.Session, log *logger.Logger) *ChatScreen {
	if log == nil {
		log = logger.Default()
	}

	app := tview.NewApplication()

	history := tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true).
		SetScrollable(true).
		ScrollToEnd()

	input := tview.NewInputField().
		SetFieldWidth(0).
		SetAcceptanceFunc(tview.InputFieldMaxLength(500))

	status := tview.NewTextView().SetDynamicColors(true)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(history, 0, 1, false).
		AddItem(input, 1, 0, true).
		AddItem(status, 1, 0, false)

	app.SetRoot(flex, true).SetFocus(input)

	return &ChatScreen{
		app:     app,
		session: session,
		logger:  log,
		history: history,
		input:   input,
		status:  status,
	}
}

// Run drives the screen until the user exits with Ctrl+C. When no contact is
// attached yet, the first line entered is parsed as "Name <email>".
func (s *ChatScreen) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.refreshPrompt()
	fmt.Fprintln(s.history, "[green]Questions? The team answers here during the stream.")

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case messages := <-s.session.Updates():
				s.app.QueueUpdateDraw(func() {
					s.history.SetText(threadText(messages))
					s.history.ScrollToEnd()
				})
			}
		}
	}()

	s.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := strings.TrimSpace(s.input.GetText())
		if text == "" {
			return
		}
		s.input.SetText("")

		if s.session.Contact() == (chat.Contact{}) {
			contact, err := chat.ParseGuestContact(text)
			if err != nil {
				s.status.SetText("[red]" + domain.UserMessage(err))
				return
			}
			s.session.SetContact(contact)
			s.refreshPrompt()
			s.status.SetText("[green]Thanks " + contact.Name + ", you can chat now.")
			return
		}

		go s.send(ctx, text)
	})

	s.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC {
			cancel()
			s.app.Stop()
			return nil
		}
		return event
	})

	if err := s.app.Run(); err != nil {
		cancel()
		return err
	}
	return nil
}

func (s *ChatScreen) send(ctx context.Context, body string) {
	if err := s.session.Send(ctx, body); err != nil {
		s.logger.Warn("chat send failed", map[string]interface{}{"error": err.Error()})
		s.app.QueueUpdateDraw(func() {
			s.status.SetText("[red]" + domain.UserMessage(err))
		})
		return
	}
	s.app.QueueUpdateDraw(func() {
		s.status.SetText("")
	})
}

func (s *ChatScreen) refreshPrompt() {
	contact := s.session.Contact()
	if contact == (chat.Contact{}) {
		s.input.SetLabel(" Name <email@example.com> ❯❯ ")
		return
	}
	s.input.SetLabel(" " + contact.Name + " ❯❯ ")
}
