// Package userslist shows the read-only roster of registered users.
package userslist

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/khrees2412/devapply/internal/api"
	"github.com/khrees2412/devapply/pkg/models"
)

// API fetches the roster
type API interface {
	Users(ctx context.Context) (*models.UserList, error)
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginBottom(1)
	headerCell   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")).Padding(0, 1)
	cell         = lipgloss.NewStyle().Padding(0, 1)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

type List struct {
	api API

	mu      sync.Mutex
	users   []models.UserSummary
	loading bool
	errMsg  string
}

func New(client API) *List {
	return &List{api: client, loading: true}
}

// Load fetches the roster. It is meant to be called once; there is no
// refresh.
func (l *List) Load(ctx context.Context) error {
	list, err := l.api.Users(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false
	if err != nil {
		l.errMsg = api.Message(err, api.MsgUsersFailed)
		return err
	}
	l.users = list.Users
	if l.users == nil {
		l.users = []models.UserSummary{}
	}
	return nil
}

// Users returns a copy of the loaded roster
func (l *List) Users() []models.UserSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.UserSummary(nil), l.users...)
}

func (l *List) Render(w io.Writer) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out string
	switch {
	case l.loading:
		out = "Loading users...\n"
	case l.errMsg != "":
		out = errorStyle.Render(l.errMsg) + "\n"
	default:
		out = renderUsers(l.users)
	}
	_, err := io.WriteString(w, out)
	return err
}

func renderUsers(users []models.UserSummary) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render(fmt.Sprintf("Registered Users (%d)", len(users))))
	b.WriteString("\n")
	if len(users) == 0 {
		b.WriteString("No users registered yet.\n")
		return b.String()
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers("ID", "Name", "Email", "Resume", "Telegram").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCell
			}
			return cell
		})
	for _, u := range users {
		t.Row(strconv.Itoa(u.ID), u.Name, u.Email, yesNo(u.HasResume), telegram(u.TelegramChatID))
	}
	b.WriteString(t.Render())
	b.WriteString("\n")
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func telegram(chatID *string) string {
	if chatID == nil || *chatID == "" {
		return "-"
	}
	return *chatID
}
