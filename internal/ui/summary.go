package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Akashdeep-Patra/filegrass/internal/git"
	"github.com/Akashdeep-Patra/filegrass/internal/history"
)

// dateLayout is the commit date format produced by both git backends.
const dateLayout = "2006-01-02 15:04:05 -0700"

const subjectWidth = 50

// SummaryOptions controls WriteSummary.
type SummaryOptions struct {
	// MaxRows caps each table. 0 shows every row.
	MaxRows int
	// Now is the reference for relative dates. Zero means time.Now().
	Now time.Time
}

// WriteSummary renders doc as a header line followed by a commits table and
// a files table.
func WriteSummary(w io.Writer, doc *history.Document, opts SummaryOptions) error {
	st := StylesFor(w)
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	header := st.Title.Render(doc.Repo)
	if doc.Branch != "" {
		header += " " + st.BranchName.Render(doc.Branch)
	}
	if doc.Origin != "" {
		header += " " + st.Muted.Render(doc.Origin)
	}
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "\nCommits:\n%s\n", commitsTable(st, doc, opts.MaxRows, now)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nFiles:\n%s\n", filesTable(st, doc, opts.MaxRows))
	return err
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Format.Footer = text.FormatDefault
	return tbl
}

func commitsTable(st Styles, doc *history.Document, maxRows int, now time.Time) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"#", "Commit", "Author", "When", "Files", "+", "-", "Subject"})

	var total history.StatTotal
	for i, c := range doc.Commits {
		total.Files += c.StatTotal.Files
		total.Insertions += c.StatTotal.Insertions
		total.Deletions += c.StatTotal.Deletions
		if maxRows > 0 && i >= maxRows {
			continue
		}
		tbl.AppendRow(table.Row{
			c.Index,
			st.CommitHash.Render(c.ShaShort),
			st.Author.Render(c.Author.Name),
			st.Date.Render(relativeDate(c.Date, now)),
			c.StatTotal.Files,
			st.Insertions.Render(humanize.Comma(int64(c.StatTotal.Insertions))),
			st.Deletions.Render(humanize.Comma(int64(c.StatTotal.Deletions))),
			Truncate(Subject(c.Message), subjectWidth),
		})
	}
	tbl.AppendFooter(table.Row{
		"", fmt.Sprintf("Total: %d commits", len(doc.Commits)), "", "",
		humanize.Comma(int64(total.Files)),
		humanize.Comma(int64(total.Insertions)),
		humanize.Comma(int64(total.Deletions)),
		"",
	})
	return tbl.Render()
}

func filesTable(st Styles, doc *history.Document, maxRows int) string {
	// Stats run newest first, so the first hit per path is its latest change.
	latest := make(map[string]history.FileChange, len(doc.Files))
	for _, s := range doc.Stats {
		if _, ok := latest[s.Path]; !ok {
			latest[s.Path] = s
		}
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"#", "File", "Commits", "Last change"})
	for i, f := range doc.Files {
		if maxRows > 0 && i >= maxRows {
			break
		}
		tbl.AppendRow(table.Row{f.Index, f.Name, len(f.Commits), changeStyle(st, latest[f.Name])})
	}
	tbl.AppendFooter(table.Row{"", fmt.Sprintf("Total: %d files", len(doc.Files)), "", ""})
	return tbl.Render()
}

func changeStyle(st Styles, fc history.FileChange) string {
	switch {
	case fc.StatPath.IsRename():
		return st.FileRenamed.Render("renamed")
	case fc.Type == git.ChangeNew:
		return st.FileAdded.Render(string(fc.Type))
	case fc.Type == git.ChangeDeleted:
		return st.FileDeleted.Render(string(fc.Type))
	default:
		return st.FileModified.Render(string(fc.Type))
	}
}

// relativeDate renders a commit date as "3 days ago", or verbatim when it
// does not parse.
func relativeDate(date string, now time.Time) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
