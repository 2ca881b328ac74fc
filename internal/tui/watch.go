// Package tui renders the terminal screens: the stream watch screen with its
// three message tabs, and the floating admin chat.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"sanctuary-live/internal/domain"
	"sanctuary-live/internal/embed"
	"sanctuary-live/internal/logger"
	"sanctuary-live/internal/viewer"
)

// tabOrder is the fixed tab layout of the watch screen
var tabOrder = []domain.MessageKind{domain.KindComment, domain.KindChat, domain.KindPrayer}

var tabLabels = map[domain.MessageKind]string{
	domain.KindComment: "Comments",
	domain.KindChat:    "Live Chat",
	domain.KindPrayer:  "Prayer",
}

// WatchScreen is the interactive watch view for one stream
type WatchScreen struct {
	app    *tview.Application
	viewer *viewer.Viewer
	logger *logger.Logger

	header *tview.TextView
	thread *tview.TextView
	input  *tview.InputField
	status *tview.TextView
}

// NewWatchScreen builds the watch layout around an existing viewer
func NewWatchScreen(v *viewer.Viewer, log *logger.Logger) *WatchScreen {
	if log == nil {
		log = logger.Default()
	}

	app := tview.NewApplication()

	header := tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true)

	thread := tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true).
		SetScrollable(true).
		ScrollToEnd()

	input := tview.NewInputField().
		SetLabel(" ❯❯ ").
		SetFieldWidth(0).
		SetAcceptanceFunc(tview.InputFieldMaxLength(500))

	status := tview.NewTextView().SetDynamicColors(true)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 3, 0, false).
		AddItem(thread, 0, 1, false).
		AddItem(input, 1, 0, true).
		AddItem(status, 1, 0, false)

	app.SetRoot(flex, true).SetFocus(input)

	return &WatchScreen{
		app:    app,
		viewer: v,
		logger: log,
		header: header,
		thread: thread,
		input:  input,
		status: status,
	}
}

// Run drives the screen until the user exits with Ctrl+C
func (s *WatchScreen) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.renderHeader()
	s.setStatus(keyHelp())

	go s.consumeEvents(ctx)

	s.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		body := strings.TrimSpace(s.input.GetText())
		if body == "" {
			return
		}
		// The field clears right away; a failed send shows a banner
		// instead of restoring the text.
		s.input.SetText("")
		go s.post(ctx, body)
	})

	s.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			cancel()
			s.app.Stop()
			return nil
		case tcell.KeyF1, tcell.KeyF2, tcell.KeyF3:
			s.switchTab(tabOrder[int(event.Key()-tcell.KeyF1)])
			return nil
		case tcell.KeyF4, tcell.KeyF5, tcell.KeyF6, tcell.KeyF7, tcell.KeyF8:
			category := domain.ReactionCategories[int(event.Key()-tcell.KeyF4)]
			go s.react(ctx, category)
			return nil
		case tcell.KeyCtrlL:
			go s.like(ctx)
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

func (s *WatchScreen) consumeEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-s.viewer.Events():
			switch event.Kind {
			case viewer.EventStreamSelected:
				s.app.QueueUpdateDraw(func() {
					s.renderHeader()
					s.renderThread()
				})
			case viewer.EventThread:
				if event.ThreadKind != s.viewer.Tab() {
					continue
				}
				s.app.QueueUpdateDraw(func() {
					s.renderThread()
				})
			case viewer.EventError:
				s.app.QueueUpdateDraw(func() {
					s.setStatus("[red]" + domain.UserMessage(event.Err))
				})
			}
		}
	}
}

func (s *WatchScreen) post(ctx context.Context, body string) {
	if err := s.viewer.PostMessage(ctx, body); err != nil {
		s.logger.Warn("post failed", map[string]interface{}{"error": err.Error()})
		s.app.QueueUpdateDraw(func() {
			s.setStatus("[red]" + domain.UserMessage(err))
		})
		return
	}
	s.app.QueueUpdateDraw(func() {
		s.setStatus(keyHelp())
		s.renderThread()
	})
}

func (s *WatchScreen) react(ctx context.Context, category domain.ReactionCategory) {
	style := category.Style()
	if err := s.viewer.React(ctx, category); err != nil {
		s.app.QueueUpdateDraw(func() {
			s.setStatus("[red]" + domain.UserMessage(err))
		})
		return
	}
	s.app.QueueUpdateDraw(func() {
		s.setStatus(fmt.Sprintf("[green]Sent %s %s", style.Icon, style.Label))
	})
}

func (s *WatchScreen) like(ctx context.Context) {
	if err := s.viewer.Like(ctx); err != nil {
		s.app.QueueUpdateDraw(func() {
			s.setStatus("[red]" + domain.UserMessage(err))
		})
		return
	}
	s.app.QueueUpdateDraw(func() {
		s.renderHeader()
	})
}

func (s *WatchScreen) switchTab(kind domain.MessageKind) {
	s.viewer.SetTab(kind)
	s.app.QueueUpdateDraw(func() {
		s.renderHeader()
		s.renderThread()
	})
}

func (s *WatchScreen) renderHeader() {
	s.header.SetText(headerText(s.viewer.ActiveStream(), s.viewer.Tab()))
}

func (s *WatchScreen) renderThread() {
	messages := s.viewer.Thread(s.viewer.Tab())
	s.thread.SetText(threadText(messages))
	s.thread.ScrollToEnd()
}

func (s *WatchScreen) setStatus(text string) {
	s.status.SetText(text)
}

// headerText renders the stream title line and the tab bar
func headerText(stream *domain.Stream, active domain.MessageKind) string {
	var b strings.Builder

	if stream == nil {
		b.WriteString("[yellow]No stream selected\n")
	} else {
		live := ""
		if stream.IsLive {
			live = " [red]● LIVE[-]"
		}
		style := stream.Type.Style()
		fmt.Fprintf(&b, "[%s]%s %s[-] [::b]%s[-:-:-]%s  [gray]♥ %d\n",
			style.Color, style.Icon, style.Label, stream.Title, live, stream.LikeCount)
		fmt.Fprintf(&b, "[blue]%s\n", embed.Resolve(*stream))
	}

	tabs := make([]string, 0, len(tabOrder))
	for i, kind := range tabOrder {
		label := fmt.Sprintf("F%d %s", i+1, tabLabels[kind])
		if kind == active {
			label = "[::r]" + label + "[-:-:-]"
		}
		tabs = append(tabs, label)
	}
	b.WriteString(strings.Join(tabs, "  "))
	return b.String()
}

// threadText renders one message list, oldest first
func threadText(messages []domain.Message) string {
	if len(messages) == 0 {
		return "[gray]No messages yet."
	}

	var b strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&b, "[white][%s] [blue]%s[white]: %s%s\n",
			m.CreatedAt.Local().Format("15:04:05"),
			m.AuthorName,
			tview.Escape(m.Body),
			reactionSuffix(m.Reactions))
	}
	return b.String()
}

// reactionSuffix renders a message's non-zero reaction tallies in the fixed
// category order
func reactionSuffix(counts domain.ReactionCounts) string {
	if counts.Total() == 0 {
		return ""
	}
	parts := make([]string, 0, len(domain.ReactionCategories))
	for _, category := range domain.ReactionCategories {
		if n := counts[category]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s%d", category.Style().Icon, n))
		}
	}
	return "  [gray]" + strings.Join(parts, " ")
}

func keyHelp() string {
	var reactions []string
	for i, category := range domain.ReactionCategories {
		reactions = append(reactions, fmt.Sprintf("F%d %s", i+4, category.Style().Icon))
	}
	return fmt.Sprintf("[gray]F1-F3 tabs | %s | Ctrl+L ♥ | Ctrl+C quit", strings.Join(reactions, " "))
}
