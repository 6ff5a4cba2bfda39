package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/spf13/cobra"
)

// printer writes command output either as aligned tables or as JSON.
type printer struct {
	out    io.Writer
	notice io.Writer
	json   bool
	now    time.Time
}

func (o *options) printer(cmd *cobra.Command) *printer {
	return &printer{
		out:    cmd.OutOrStdout(),
		notice: cmd.ErrOrStderr(),
		json:   o.json,
		now:    time.Now(),
	}
}

func (p *printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table writes rows separated by tabs under header.
func (p *printer) table(header string, rows [][]string) error {
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return w.Flush()
}

// fields writes label/value pairs aligned on the value.
func (p *printer) fields(pairs [][2]string) error {
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	for _, kv := range pairs {
		if kv[1] == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s:\t%s\n", kv[0], kv[1]); err != nil {
			return err
		}
	}
	return w.Flush()
}

func (p *printer) line(format string, args ...any) error {
	_, err := fmt.Fprintf(p.out, format+"\n", args...)
	return err
}

// markers tells the user where the data came from. Notices go to stderr so
// that stdout stays parseable.
func (p *printer) markers(demo, provisional bool) {
	if demo {
		_, _ = fmt.Fprintln(p.notice, "Note: incident API unavailable, showing demo data.")
	}
	if provisional {
		_, _ = fmt.Fprintln(p.notice, "Note: incident API unavailable, change recorded locally only.")
	}
}

func text(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func (p *printer) when(ts *domain.Timestamp) string {
	if ts == nil || ts.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s (%s)", ts.Local().Format("2006-01-02 15:04"), domain.FormatAgo(ts.Time, p.now))
}

func (p *printer) incidentRows(list []domain.Incident) [][]string {
	rows := make([][]string, 0, len(list))
	for _, inc := range list {
		age := domain.FormatElapsed(inc.ReportedAt.Time, p.now)
		if !inc.Status.IsActive() {
			age = "-"
		}
		rows = append(rows, []string{
			inc.IncidentNumber,
			inc.ID,
			inc.Severity.Label(),
			inc.Status.Label(),
			age,
			orDash(text(inc.AssignedTo)),
			inc.Title,
		})
	}
	return rows
}

func (p *printer) incidents(list []domain.Incident) error {
	if len(list) == 0 {
		return p.line("No incidents found.")
	}
	return p.table("NUMBER\tID\tSEVERITY\tSTATUS\tAGE\tASSIGNEE\tTITLE", p.incidentRows(list))
}

func (p *printer) timeline(entries []domain.TimelineEntry) error {
	if len(entries) == 0 {
		return p.line("No timeline entries.")
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		kind := string(e.EntryType)
		if e.Provisional {
			kind += "*"
		}
		rows = append(rows, []string{
			domain.FormatAgo(e.CreatedAt.Time, p.now),
			kind,
			orDash(e.AuthorName()),
			e.Content,
		})
	}
	return p.table("WHEN\tTYPE\tAUTHOR\tCONTENT", rows)
}

func (p *printer) activity(entries []domain.TimelineEntry) error {
	if len(entries) == 0 {
		return p.line("No recent activity.")
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			domain.FormatAgo(e.CreatedAt.Time, p.now),
			orDash(e.IncidentNumber),
			string(e.EntryType),
			orDash(e.AuthorName()),
			e.Content,
		})
	}
	return p.table("WHEN\tINCIDENT\tTYPE\tAUTHOR\tCONTENT", rows)
}

func (p *printer) incident(inc domain.Incident) error {
	var users string
	if inc.UsersAffected != nil {
		users = fmt.Sprint(*inc.UsersAffected)
	}
	pairs := [][2]string{
		{"Incident", fmt.Sprintf("%s (%s)", inc.IncidentNumber, inc.ID)},
		{"Title", inc.Title},
		{"Severity", inc.Severity.Label()},
		{"Status", inc.Status.Label()},
		{"Category", text(inc.Category)},
		{"Reported", p.when(&inc.ReportedAt)},
		{"Reported by", text(inc.ReportedBy)},
		{"Acknowledged", p.when(inc.AcknowledgedAt)},
		{"Assigned to", text(inc.AssignedTo)},
		{"Users affected", users},
		{"Business impact", text(inc.BusinessImpact)},
		{"Tags", strings.Join(inc.TagList(), ", ")},
		{"Problem", text(inc.ProblemID)},
		{"Description", text(inc.Description)},
	}
	if inc.Status.ShowsResolution() {
		pairs = append(pairs,
			[2]string{"Resolved", p.when(inc.ResolvedAt)},
			[2]string{"Resolved by", text(inc.ResolvedBy)},
			[2]string{"Resolution", text(inc.ResolutionSummary)},
			[2]string{"Root cause", text(inc.RootCause)},
		)
	}
	if inc.HasDataBreach() {
		pairs = append(pairs, [2]string{"Data breach", "yes"})
	}
	if next := inc.Status.NextStatuses(); len(next) > 0 {
		labels := make([]string, 0, len(next))
		for _, s := range next {
			labels = append(labels, string(s))
		}
		pairs = append(pairs, [2]string{"Next", strings.Join(labels, ", ")})
	}
	if err := p.fields(pairs); err != nil {
		return err
	}
	if len(inc.TimelineEntries) == 0 {
		return nil
	}
	if err := p.line("\nTimeline:"); err != nil {
		return err
	}
	return p.timeline(inc.TimelineEntries)
}

func (p *printer) problems(list []domain.Problem) error {
	if len(list) == 0 {
		return p.line("No problems found.")
	}
	rows := make([][]string, 0, len(list))
	for _, pr := range list {
		known := ""
		if pr.IsKnownError() {
			known = "known error"
		}
		rows = append(rows, []string{
			pr.ProblemNumber,
			pr.ID,
			pr.Priority.Label(),
			domain.ParseFixStatus(string(pr.FixStatus)).Label(),
			fmt.Sprint(pr.IncidentCount),
			domain.FormatDowntime(pr.Downtime()),
			orDash(known),
			pr.Title,
		})
	}
	return p.table("NUMBER\tID\tPRIORITY\tFIX STATUS\tINCIDENTS\tDOWNTIME\tKNOWN\tTITLE", rows)
}

func (p *printer) problem(pr domain.Problem) error {
	wiki, _ := pr.WikiReference()
	pairs := [][2]string{
		{"Problem", fmt.Sprintf("%s (%s)", pr.ProblemNumber, pr.ID)},
		{"Title", pr.Title},
		{"Priority", pr.Priority.Label()},
		{"Fix status", domain.ParseFixStatus(string(pr.FixStatus)).Label()},
		{"Fix owner", text(pr.FixOwner)},
		{"Fix due", text(pr.FixDueDate)},
		{"Incidents", fmt.Sprint(pr.IncidentCount)},
		{"Downtime", domain.FormatDowntime(pr.Downtime())},
		{"Root cause", text(pr.RootCause)},
		{"Workaround", text(pr.Workaround)},
		{"Permanent fix", text(pr.PermanentFix)},
		{"Knowledge base", wiki},
	}
	if err := p.fields(pairs); err != nil {
		return err
	}
	if len(pr.Incidents) == 0 {
		return nil
	}
	if err := p.line("\nLinked incidents:"); err != nil {
		return err
	}
	return p.incidents(pr.Incidents)
}
