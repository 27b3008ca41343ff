package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/jimezsa/usajobsfn/internal/models"
	"github.com/muesli/termenv"
)

type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatTSV      Format = "tsv"
)

type WriteOptions struct {
	ColorEnabled bool
	Hyperlinks   bool
	LinkStyle    LinkStyle
}

type LinkStyle string

const (
	LinkStyleShort LinkStyle = "short"
	LinkStyleFull  LinkStyle = "full"
)

const linkColor = "#87CEEB"

func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "tsv":
		return FormatTSV, nil
	case "table", "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown format: %s", value)
	}
}

// WriteJobs renders an aggregate result. JSON output uses the same
// {"jobs": [...]} envelope the HTTP function returns.
func WriteJobs(w io.Writer, jobs []models.JobRecord, format Format, opts WriteOptions) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, jobs)
	case FormatCSV:
		return writeCSV(w, jobs, ',')
	case FormatTSV:
		return writeCSV(w, jobs, '\t')
	case FormatMarkdown:
		return writeMarkdown(w, jobs)
	default:
		return writeTable(w, jobs, opts)
	}
}

func writeJSON(w io.Writer, jobs []models.JobRecord) error {
	if jobs == nil {
		jobs = []models.JobRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Jobs []models.JobRecord `json:"jobs"`
	}{Jobs: jobs})
}

func writeCSV(w io.Writer, jobs []models.JobRecord, delim rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = delim
	if err := writer.Write(csvHeader()); err != nil {
		return err
	}
	for _, job := range jobs {
		if err := writer.Write(csvRow(toListing(job))); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeTable(w io.Writer, jobs []models.JobRecord, opts WriteOptions) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(tableHeader(), "\t"))
	output := termenv.NewOutput(w)
	for _, job := range jobs {
		fmt.Fprintln(tw, strings.Join(tableRow(toListing(job), output, opts), "\t"))
	}
	return tw.Flush()
}

func writeMarkdown(w io.Writer, jobs []models.JobRecord) error {
	if len(jobs) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	for _, job := range jobs {
		item := toListing(job)
		urlLine := "  URL: -"
		if item.URL != "" {
			urlLine = fmt.Sprintf("  URL: [Open listing](<%s>)", item.URL)
		}
		lines := []string{
			fmt.Sprintf("- **%s** (%s)", orDash(item.Title), orDash(item.Agency)),
			fmt.Sprintf("  Location: %s", orDash(item.Location)),
			urlLine,
		}
		if item.Salary != "" {
			lines = append(lines, fmt.Sprintf("  Salary: %s", item.Salary))
		}
		if item.CloseDate != "" {
			lines = append(lines, fmt.Sprintf("  Closes: %s", item.CloseDate))
		}
		if item.Summary != "" {
			lines = append(lines, fmt.Sprintf("  Summary: %s", item.Summary))
		}
		for _, line := range lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func csvHeader() []string {
	return []string{
		"id",
		"title",
		"agency",
		"department",
		"location",
		"url",
		"salary",
		"open_date",
		"close_date",
		"summary",
	}
}

func csvRow(item listing) []string {
	return []string{
		item.ID,
		item.Title,
		item.Agency,
		item.Department,
		item.Location,
		item.URL,
		item.Salary,
		item.OpenDate,
		item.CloseDate,
		item.Summary,
	}
}

func safe(value string) string {
	return strings.TrimSpace(value)
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func tableHeader() []string {
	return []string{
		"title",
		"agency",
		"location",
		"closes",
		"url",
	}
}

func tableRow(item listing, output *termenv.Output, opts WriteOptions) []string {
	displayURL := "-"
	if item.URL != "" {
		displayURL = item.URL
		if opts.LinkStyle == LinkStyleShort && opts.Hyperlinks {
			displayURL = shortURLLabel(item.URL)
		}
		if opts.ColorEnabled {
			displayURL = output.String(displayURL).Foreground(output.Color(linkColor)).String()
		}
		if opts.Hyperlinks {
			displayURL = hyperlink(item.URL, displayURL)
		}
	}
	return []string{
		orDash(item.Title),
		orDash(item.Agency),
		orDash(item.Location),
		orDash(item.CloseDate),
		displayURL,
	}
}

func hyperlink(url string, text string) string {
	const esc = "\x1b"
	return esc + "]8;;" + url + esc + "\\" + text + esc + "]8;;" + esc + "\\"
}

func shortURLLabel(raw string) string {
	const maxLen = 60
	label := strings.TrimSpace(raw)
	if parsed, err := url.Parse(raw); err == nil {
		host := strings.TrimPrefix(parsed.Host, "www.")
		if host != "" {
			label = host + parsed.Path
		}
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = raw
	}
	if len(label) > maxLen {
		label = label[:maxLen-3] + "..."
	}
	return label
}
