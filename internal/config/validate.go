package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "storage.db.dsn").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether issues contains at least one SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Storage kinds accepted by storage.kind.
var (
	FileKinds = []string{"csv", "xlsx"}
	SQLKinds  = []string{"sqlite", "postgres", "mssql", "mysql"}
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json names so paths match the pipeline file.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidatePipeline checks p without mutating it. Struct-tag rules run first,
// then the cross-field checks. Callers decide whether warnings are fatal.
func ValidatePipeline(p Pipeline) []Issue {
	issues := tagIssues(p)
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateFilter(p.Filter)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateMetrics(p.Metrics)...)
	issues = append(issues, validateRuntime(p.Runtime)...)
	return issues
}

func tagIssues(p Pipeline) []Issue {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Issue{{Severity: SeverityError, Path: "", Message: err.Error()}}
	}
	out := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, Issue{
			Severity: SeverityError,
			Path:     fieldPath(fe.Namespace()),
			Message:  tagMessage(fe),
		})
	}
	return out
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s must not be empty", fieldPath(fe.Namespace()))
	case "oneof":
		return fmt.Sprintf("%q is not one of [%s]", fe.Value(), fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s, got %v", fe.Param(), fe.Value())
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}

func validateSource(s Source) []Issue {
	var issues []Issue
	switch s.Kind {
	case "":
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "file source requires a non-empty path",
			})
		}
	case "http":
		if !strings.HasPrefix(s.HTTP.URL, "http://") && !strings.HasPrefix(s.HTTP.URL, "https://") {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.http.url",
				Message:  "http source requires an http:// or https:// url",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q", s.Kind),
		})
	}
	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue
	if p.Kind != "" && p.Kind != "csv" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unknown parser kind %q", p.Kind),
		})
	}
	if s := p.Options.String("comma", ","); len([]rune(s)) != 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.options.comma",
			Message:  "comma must be a single character",
		})
	}
	return issues
}

func validateFilter(f Filter) []Issue {
	var issues []Issue
	if f.MaxYear > 0 && f.MaxYear < 1990 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "filter.max_year",
			Message:  fmt.Sprintf("max_year=%d is before 1990; every record will be dropped", f.MaxYear),
		})
	}
	for i, c := range f.Countries {
		if strings.TrimSpace(c) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("filter.countries[%d]", i),
				Message:  "country name must not be empty",
			})
		}
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue
	switch {
	case s.Kind == "":
		return nil
	case contains(FileKinds, s.Kind):
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.file.path",
				Message:  fmt.Sprintf("%s sink requires a non-empty path", s.Kind),
			})
		}
		if s.Kind == "csv" && strings.TrimSpace(s.File.SummaryPath) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "storage.file.summary_path",
				Message:  "no summary_path; the yearly summary will not be written",
			})
		}
	case contains(SQLKinds, s.Kind):
		if strings.TrimSpace(s.DB.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.db.dsn",
				Message:  "storage.db.dsn must not be empty",
			})
		}
		if strings.TrimSpace(s.DB.Table) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.db.table",
				Message:  "storage.db.table must not be empty",
			})
		}
		if strings.TrimSpace(s.DB.SummaryTable) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "storage.db.summary_table",
				Message:  "no summary_table; the yearly summary will not be written",
			})
		}
		if !s.DB.AutoCreateTable {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "storage.db.auto_create_table",
				Message:  "auto_create_table is false; target tables must already exist with the output layout",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; want one of %s", s.Kind, strings.Join(append(append([]string{}, FileKinds...), SQLKinds...), ", ")),
		})
	}
	return issues
}

func validateMetrics(m MetricsConfig) []Issue {
	var issues []Issue
	switch m.Backend {
	case "prompush":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "prompush backend requires pushgateway_url",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "metrics.datadog_addr",
				Message:  "datadog_addr is empty; the statsd client default will be used",
			})
		}
	}
	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue
	if r.BatchSize == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.batch_size",
			Message:  "batch_size=0; the loader default will be used",
		})
	}
	return issues
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
