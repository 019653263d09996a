package terminal

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/template"

	"github.com/de-tools/fleet-stop/pkg/models/domain"
	"github.com/de-tools/fleet-stop/pkg/runtime/terminal/export"
	"github.com/samber/lo"
)

const planTemplate = `
Run {{.RunID}}{{if .Simulated}} (SIMULATE: no resource will be changed){{end}}
Resources to process: {{.Actionable}}
  Virtual machines:   {{.Counters.VM}}
  Scale sets:         {{.Counters.ScaleSet}}
  Managed clusters:   {{.Counters.ManagedCluster}}
  Unsupported:        {{.Counters.Unknown}}
Exempt resources:     {{.Exempt}}
`

const doneTemplate = `
Run {{.Summary.RunID}} finished{{if .Summary.Simulated}} (SIMULATE){{end}}
Processed: {{.Summary.Actionable}}, not successful: {{.Summary.Failed}}, exempt: {{.Summary.Exempt}}
{{range statuses .Summary.ByStatus}}  {{printf "%-22s" .Name}} {{.Count}}
{{end}}`

type statusCount struct {
	Name  string
	Count int
}

// Reporter prints the run summary before confirmation and the outcome afterwards.
type Reporter struct {
	writer io.Writer
	tables *export.Reporter
	plan   *template.Template
	done   *template.Template
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	funcs := template.FuncMap{"statuses": sortedStatuses}
	return &Reporter{
		writer: writer,
		tables: export.NewReporter(writer),
		plan:   template.Must(template.New("plan").Parse(planTemplate)),
		done:   template.Must(template.New("done").Funcs(funcs).Parse(doneTemplate)),
	}
}

func (c *Reporter) Plan(summary domain.RunSummary) error {
	if err := c.plan.Execute(c.writer, summary); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	return nil
}

func (c *Reporter) Done(result domain.RunResult) error {
	if err := c.done.Execute(c.writer, result); err != nil {
		return fmt.Errorf("failed to render result: %w", err)
	}
	return c.tables.Handle("Not stopped", result.Failed())
}

func sortedStatuses(byStatus map[string]int) []statusCount {
	out := lo.MapToSlice(byStatus, func(name string, count int) statusCount {
		return statusCount{Name: name, Count: count}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
