package errors

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingReporter collects reported errors for assertions
type recordingReporter struct {
	mu       sync.Mutex
	reported []*EnhancedError
}

func (r *recordingReporter) IsEnabled() bool { return true }

func (r *recordingReporter) ReportError(ee *EnhancedError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reported = append(r.reported, ee)
}

func TestFastPathNoTelemetry(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
	assert.Equal(t, CategoryGeneric, ee.Category)
}

func TestBuilderCarriesMetadata(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := Newf("equation table %s missing", "x.csv").
		Component("allometry").
		Category(CategoryNotFound).
		Priority(PriorityHigh).
		Context("operation", "load_equations").
		Build()

	assert.Equal(t, "allometry", ee.GetComponent())
	assert.Equal(t, "not-found", ee.GetCategory())
	assert.Equal(t, PriorityHigh, ee.GetPriority())
	assert.Equal(t, "load_equations", ee.GetContext()["operation"])
	assert.True(t, IsNotFound(ee))
	assert.False(t, IsCategory(ee, CategoryDatabase))
}

func TestInvalidPriorityFallsBackToMedium(t *testing.T) {
	t.Parallel()

	eb := New(NewStd("x")).Priority("urgent")
	assert.Equal(t, PriorityMedium, eb.priority)
}

func TestWrappedErrorsRemainMatchable(t *testing.T) {
	t.Parallel()

	sentinel := NewStd("sentinel")
	ee := New(fmt.Errorf("outer: %w", sentinel)).Category(CategoryFileIO).Build()
	wrapped := fmt.Errorf("command failed: %w", ee)

	assert.True(t, Is(wrapped, sentinel))

	var target *EnhancedError
	require.True(t, As(wrapped, &target))
	assert.Equal(t, CategoryFileIO, target.Category)
	assert.True(t, Is(wrapped, &EnhancedError{Category: CategoryFileIO}))
}

func TestGetContextReturnsCopy(t *testing.T) {
	t.Parallel()

	ee := New(NewStd("x")).Context("rows", 3).Build()
	ctx := ee.GetContext()
	ctx["rows"] = 99

	assert.Equal(t, 3, ee.GetContext()["rows"])
}

func TestFileContextAnonymizesPath(t *testing.T) {
	t.Parallel()

	ee := FileError(NewStd("open failed"), "/data/raw/export.TSV", 2048)
	ctx := ee.GetContext()

	assert.Equal(t, "absolute-path", ctx["file_type"])
	assert.Equal(t, "tsv", ctx["file_extension"])
	assert.Equal(t, "small", ctx["file_size_category"])
	assert.Equal(t, CategoryFileIO, ee.Category)
}

func TestTelemetryReporterReceivesErrors(t *testing.T) {
	reporter := &recordingReporter{}
	SetTelemetryReporter(reporter)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	ee := New(NewStd("failed to read equation table")).Build()

	require.Len(t, reporter.reported, 1)
	assert.Same(t, ee, reporter.reported[0])
	assert.Equal(t, CategoryEquationLoad, ee.Category)
}

func TestDetectCategoryHeuristics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		msg       string
		component string
		want      ErrorCategory
	}{
		{"input file not found", "", CategoryNotFound},
		{"csv: wrong number of fields", "", CategoryFileParsing},
		{"cannot open file", "", CategoryFileIO},
		{"connection refused", "", CategoryNetwork},
		{"invalid latitude", "", CategoryValidation},
		{"disk quota", "datastore", CategoryDatabase},
		{"boom", "staging", CategoryPipeline},
		{"boom", "", CategoryGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, detectCategory(NewStd(tt.msg), tt.component))
		})
	}
}

func TestScrubMessageForPrivacy(t *testing.T) {
	t.Parallel()

	scrubbed := scrubMessageForPrivacy("Error at https://api.example.com?api_key=secret123&token=abc")
	assert.Equal(t, "Error at https://api.example.com?[REDACTED]", scrubbed)

	scrubbed = scrubMessageForPrivacy("dial failed for root:hunter2@tcp(db:3306)/allometree")
	assert.NotContains(t, scrubbed, "hunter2")

	scrubbed = scrubMessageForPrivacy("Auth failed with token=abc123 and auth=xyz789")
	assert.False(t, strings.Contains(scrubbed, "abc123") || strings.Contains(scrubbed, "xyz789"))
}

func TestGenerateErrorTitle(t *testing.T) {
	t.Parallel()

	ee := New(NewStd("x")).
		Component("staging").
		Category(CategoryPipeline).
		Context("operation", "write_staged_table").
		Build()

	assert.Equal(t, "Staging Pipeline Error Write Staged Table", generateErrorTitle(ee))
}
