package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/jimezsa/usajobsfn/internal/models"
)

// listing is the subset of a USAJOBS result item shown in tabular output.
// Records that don't match the shape render with empty columns.
type listing struct {
	ID         string
	Title      string
	Agency     string
	Department string
	Location   string
	URL        string
	Salary     string
	OpenDate   string
	CloseDate  string
	Summary    string
}

type resultItem struct {
	MatchedObjectID         string `json:"MatchedObjectId"`
	MatchedObjectDescriptor struct {
		PositionID              string `json:"PositionID"`
		PositionTitle           string `json:"PositionTitle"`
		PositionURI             string `json:"PositionURI"`
		PositionLocationDisplay string `json:"PositionLocationDisplay"`
		OrganizationName        string `json:"OrganizationName"`
		DepartmentName          string `json:"DepartmentName"`
		QualificationSummary    string `json:"QualificationSummary"`
		PublicationStartDate    string `json:"PublicationStartDate"`
		ApplicationCloseDate    string `json:"ApplicationCloseDate"`
		PositionRemuneration    []struct {
			MinimumRange     string `json:"MinimumRange"`
			MaximumRange     string `json:"MaximumRange"`
			RateIntervalCode string `json:"RateIntervalCode"`
		} `json:"PositionRemuneration"`
		UserArea struct {
			Details struct {
				JobSummary string `json:"JobSummary"`
			} `json:"Details"`
		} `json:"UserArea"`
	} `json:"MatchedObjectDescriptor"`
}

func toListing(record models.JobRecord) listing {
	var item resultItem
	if err := json.Unmarshal(record, &item); err != nil {
		return listing{}
	}
	d := item.MatchedObjectDescriptor

	out := listing{
		ID:         firstNonEmpty(d.PositionID, item.MatchedObjectID),
		Title:      safe(d.PositionTitle),
		Agency:     safe(d.OrganizationName),
		Department: safe(d.DepartmentName),
		Location:   safe(d.PositionLocationDisplay),
		URL:        safe(d.PositionURI),
		OpenDate:   datePart(d.PublicationStartDate),
		CloseDate:  datePart(d.ApplicationCloseDate),
	}
	if len(d.PositionRemuneration) > 0 {
		pay := d.PositionRemuneration[0]
		out.Salary = formatSalary(pay.MinimumRange, pay.MaximumRange, pay.RateIntervalCode)
	}
	out.Summary = truncate(htmlText(firstNonEmpty(d.UserArea.Details.JobSummary, d.QualificationSummary)), 240)
	return out
}

func formatSalary(min, max, interval string) string {
	min = strings.TrimSpace(min)
	max = strings.TrimSpace(max)
	if min == "" && max == "" {
		return ""
	}
	value := min
	if max != "" && max != min {
		value = strings.TrimSpace(fmt.Sprintf("%s - %s", min, max))
	}
	if interval = strings.TrimSpace(interval); interval != "" {
		value += " " + interval
	}
	return value
}

// htmlText reduces an HTML fragment to whitespace-normalised text.
func htmlText(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if !strings.Contains(value, "<") {
		return strings.Join(strings.Fields(value), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(value))
	if err != nil {
		return strings.Join(strings.Fields(value), " ")
	}
	doc.Find("br, p, li").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func datePart(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= 10 && value[4] == '-' && value[7] == '-' {
		return value[:10]
	}
	return value
}

// truncate keeps at most max runes of value.
func truncate(value string, max int) string {
	if max <= 0 || utf8.RuneCountInString(value) <= max {
		return value
	}
	return strings.TrimSpace(string([]rune(value)[:max])) + "..."
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
