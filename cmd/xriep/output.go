package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	requestdomain "xriepv1/client/internal/request/domain"
	"xriepv1/client/internal/screen"
	userdomain "xriepv1/client/internal/user/domain"
)

// errAlerted marks a failure the user has already seen as an alert.
var errAlerted = errors.New("alerted")

var (
	successColor = lipgloss.Color("#8BC34A")
	errorColor   = lipgloss.Color("#E57373")
	mutedColor   = lipgloss.Color("#9AA5B1")
)

// theme holds the styles for one output. Colors are dropped when the output is not a terminal.
type theme struct {
	success lipgloss.Style
	failure lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
	label   lipgloss.Style
	border  lipgloss.Style
}

func newTheme(out io.Writer) *theme {
	r := lipgloss.NewRenderer(out)
	return &theme{
		success: r.NewStyle().Bold(true).Foreground(successColor),
		failure: r.NewStyle().Bold(true).Foreground(errorColor),
		header:  r.NewStyle().Bold(true).Padding(0, 1),
		cell:    r.NewStyle().Padding(0, 1),
		label:   r.NewStyle().Foreground(mutedColor),
		border:  r.NewStyle().Foreground(mutedColor),
	}
}

// alertWriter prints screen alerts as "Title: message" lines.
type alertWriter struct {
	mu     sync.Mutex
	out    io.Writer
	theme  *theme
	errors int
}

func newAlertWriter(out io.Writer, th *theme) *alertWriter {
	return &alertWriter{out: out, theme: th}
}

func (w *alertWriter) Alert(title, message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	style := w.theme.failure
	if title == screen.TitleSuccess {
		style = w.theme.success
	} else {
		w.errors++
	}
	fmt.Fprintf(w.out, "%s %s\n", style.Render(title+":"), message)
}

func (w *alertWriter) failed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errors > 0
}

func (th *theme) newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(th.border).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return th.header
			}
			return th.cell
		})
}

func (th *theme) renderUsers(rows []screen.UserRow) string {
	t := th.newTable("ID", "Username", "Status", "Online", "Devices", "Aktif Hingga")
	for _, r := range rows {
		status := "Aktif"
		switch {
		case r.Expired:
			status = "Expired"
		case !r.IsActive:
			status = "Nonaktif"
		}
		online := "-"
		if r.IsOnline {
			online = "Online"
		}
		until := "-"
		if r.MasaAktifHingga != nil {
			until = screen.FormatDate(r.MasaAktifHingga.Time)
		}
		t.Row(r.ID, r.Username, status, online,
			strconv.Itoa(r.CurrentDevices)+"/"+strconv.Itoa(r.MaxDevices), until)
	}
	return t.String()
}

// renderRequests lists requests; withUser adds the requester column shown on the admin dashboard.
func (th *theme) renderRequests(reqs []requestdomain.Request, withUser bool) string {
	headers := []string{"ID", "Nomor WhatsApp", "Status", "Tanggal"}
	if withUser {
		headers = []string{"ID", "Username", "Nomor WhatsApp", "Status", "Tanggal"}
	}
	t := th.newTable(headers...)
	for _, r := range reqs {
		cells := []string{r.ID, r.NomorWhatsapp, string(r.Status), screen.FormatDateTime(r.CreatedAt.Time)}
		if withUser {
			cells = append([]string{r.ID, r.Username}, cells[1:]...)
		}
		t.Row(cells...)
	}
	return t.String()
}

func (th *theme) renderAccount(u *userdomain.User, route string) string {
	line := func(label, value string) string {
		return th.label.Render(fmt.Sprintf("%-12s", label)) + " " + value + "\n"
	}
	until := "-"
	if u.MasaAktifHingga != nil {
		until = screen.FormatDate(u.MasaAktifHingga.Time)
	}
	return line("Username", u.Username) +
		line("Role", string(u.Role)) +
		line("Aktif hingga", until) +
		line("Devices", strconv.Itoa(u.CurrentDevices)+"/"+strconv.Itoa(u.MaxDevices)) +
		line("Screen", route)
}
