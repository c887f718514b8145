package dashboard

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/khrees2412/devapply/pkg/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	scheduleNote = "Scheduled to run daily at 8:00 AM"
	noJobsNote   = "No jobs found yet. The scheduler will automatically find jobs for you!"
	noJobsHint   = `Press "r" to run the scheduler now and start searching immediately.`
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10")).
			MarginTop(1)

	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	stoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statValue    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	statCard     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 2).
			MarginRight(1)

	statusColors = map[string]lipgloss.Color{
		"applied": lipgloss.Color("10"),
		"saved":   lipgloss.Color("11"),
		"failed":  lipgloss.Color("9"),
	}

	titleCaser = cases.Title(language.English)
)

// Render writes the current state as text
func (d *Dashboard) Render(w io.Writer) error {
	_, err := io.WriteString(w, RenderState(d.State()))
	return err
}

// RenderState formats a dashboard snapshot
func RenderState(s State) string {
	if s.Loading {
		return "Loading...\n"
	}

	var b strings.Builder
	header := "Dashboard"
	if s.UserName != "" {
		header += " · " + s.UserName
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	if s.Error != "" {
		b.WriteString(errorStyle.Render(s.Error))
		b.WriteString("\n")
	}

	if s.Stats != nil {
		b.WriteString(sectionStyle.Render("Your Statistics"))
		b.WriteString("\n")
		b.WriteString(renderStats(s.Stats))
		b.WriteString("\n")
	}

	if s.Scheduler != nil {
		b.WriteString(sectionStyle.Render("Automation Control"))
		b.WriteString("\n")
		b.WriteString(renderScheduler(s.Scheduler, s.ActionLoading))
	}

	b.WriteString(sectionStyle.Render(fmt.Sprintf("Your Saved Jobs (%d)", len(s.Jobs))))
	b.WriteString("\n")
	if len(s.Jobs) == 0 {
		b.WriteString(noJobsNote + "\n")
		b.WriteString(mutedStyle.Render(noJobsHint) + "\n")
		return b.String()
	}
	for _, job := range s.Jobs {
		b.WriteString(renderJob(job))
	}
	return b.String()
}

func renderStats(st *models.StatsSnapshot) string {
	card := func(value, label string) string {
		return statCard.Render(statValue.Render(value) + "\n" + mutedStyle.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card(fmt.Sprint(st.TotalJobs), "Total Jobs"),
		card(fmt.Sprint(st.SavedJobs), "Saved Jobs"),
		card(orDash(st.Keywords), "Keywords"),
		card(orDash(st.Location), "Location"),
	)
}

func renderScheduler(status *models.SchedulerStatus, busy bool) string {
	var b strings.Builder
	if status.Running {
		b.WriteString(runningStyle.Render("● Running"))
	} else {
		b.WriteString(stoppedStyle.Render("● Stopped"))
	}
	b.WriteString("\n")

	b.WriteString(scheduleNote)
	if next, ok := status.NextRun(); ok {
		fmt.Fprintf(&b, " (Next: %s)", formatNextRun(next))
	}
	b.WriteString("\n")

	keys := map[Action]string{ActionStop: "s", ActionStart: "s", ActionRunNow: "r"}
	var buttons []string
	for _, a := range actionsFor(status) {
		buttons = append(buttons, fmt.Sprintf("[%s] %s", keys[a], a.Label(busy)))
	}
	b.WriteString(mutedStyle.Render(strings.Join(buttons, "  ")))
	b.WriteString("\n")
	return b.String()
}

func renderJob(job models.JobRecord) string {
	var b strings.Builder
	status := strings.ToLower(job.Status)
	color, ok := statusColors[status]
	if !ok {
		color = lipgloss.Color("7")
	}
	fmt.Fprintf(&b, "\n%s  %s\n",
		lipgloss.NewStyle().Bold(true).Render(job.Title),
		lipgloss.NewStyle().Foreground(color).Render(titleCaser.String(status)),
	)
	fmt.Fprintf(&b, "  Company:  %s\n", job.Company)
	fmt.Fprintf(&b, "  Platform: %s\n", titleCaser.String(job.Platform))
	if job.AppliedOn != nil && *job.AppliedOn != "" {
		fmt.Fprintf(&b, "  Applied:  %s\n", formatDate(*job.AppliedOn))
	}
	if job.Link != "" {
		fmt.Fprintf(&b, "  %s\n", mutedStyle.Render(job.Link))
	}
	return b.String()
}

func formatNextRun(raw string) string {
	t, err := models.ParseNextRun(raw)
	if err != nil {
		return raw
	}
	return t.Local().Format("Jan 2, 2006 3:04 PM")
}

func formatDate(raw string) string {
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return raw
	}
	return t.Format("Jan 2, 2006")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
