package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/fleet-stop/pkg/models/domain"
)

type TableConfig struct {
	KindWidth   int
	NameWidth   int
	StatusWidth int
	InfoWidth   int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		KindWidth:   14,
		NameWidth:   40,
		StatusWidth: 21,
		InfoWidth:   60,
	}
}

// Reporter prints record tables to the terminal.
type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

type table struct {
	Title   string
	Records []*domain.ResourceRecord
}

// Handle prints records under title; nothing is printed for an empty set.
func (c *Reporter) Handle(title string, records []*domain.ResourceRecord) error {
	if len(records) == 0 {
		return nil
	}

	funcMap := template.FuncMap{
		"formatRow": func(kind, name, status, info string) string {
			return fmt.Sprintf("| %-*s | %-*s | %-*s | %-*s |",
				c.config.KindWidth, truncate(kind, c.config.KindWidth),
				c.config.NameWidth, truncate(name, c.config.NameWidth),
				c.config.StatusWidth, truncate(status, c.config.StatusWidth),
				c.config.InfoWidth, truncate(info, c.config.InfoWidth))
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.KindWidth+2),
				strings.Repeat("-", c.config.NameWidth+2),
				strings.Repeat("-", c.config.StatusWidth+2),
				strings.Repeat("-", c.config.InfoWidth+2))
		},
	}

	tmpl := `
=== {{.Title}} ({{len .Records}}) ===
{{separator}}
{{formatRow "Kind" "Name" "Status" "Information"}}
{{separator}}
{{range .Records}}{{formatRow .Kind.String .Name .Status.String .Information}}
{{end}}{{separator}}
`

	t, err := template.New("records").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, table{Title: title, Records: records})
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}
