package ghactions

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jenkins-x/jx-helpers/v3/pkg/files"
	"github.com/pkg/errors"
)

// Context the GitHub Actions files to write outputs to
type Context struct {
	// Enabled true if running inside GitHub Actions
	Enabled bool

	// OutputFile the file of step outputs, $GITHUB_OUTPUT
	OutputFile string

	// SummaryFile the file of the job summary markdown, $GITHUB_STEP_SUMMARY
	SummaryFile string
}

// FromEnv creates the context from the GitHub Actions environment variables
func FromEnv() *Context {
	return &Context{
		Enabled:     os.Getenv("GITHUB_ACTIONS") == "true",
		OutputFile:  os.Getenv("GITHUB_OUTPUT"),
		SummaryFile: os.Getenv("GITHUB_STEP_SUMMARY"),
	}
}

// WriteOutputs appends the step outputs using the multiline delimiter syntax
func (c *Context) WriteOutputs(outputs map[string]string) error {
	if c.OutputFile == "" || len(outputs) == 0 {
		return nil
	}
	var names []string
	for k := range outputs {
		names = append(names, k)
	}
	sort.Strings(names)

	buf := strings.Builder{}
	for _, name := range names {
		delimiter := "ghadelimiter_" + uuid.New().String()
		buf.WriteString(fmt.Sprintf("%s<<%s\n%s\n%s\n", name, delimiter, outputs[name], delimiter))
	}
	return appendFile(c.OutputFile, buf.String())
}

// AppendSummary appends markdown to the job summary
func (c *Context) AppendSummary(markdown string) error {
	if c.SummaryFile == "" || markdown == "" {
		return nil
	}
	return appendFile(c.SummaryFile, markdown)
}

// ReportError writes an error workflow command so the failure is annotated on the run
func (c *Context) ReportError(w io.Writer, err error) {
	if !c.Enabled || err == nil {
		return
	}
	fmt.Fprintf(w, "::error::%s\n", EscapeData(err.Error()))
}

// EscapeData escapes the message of a workflow command
func EscapeData(text string) string {
	text = strings.ReplaceAll(text, "%", "%25")
	text = strings.ReplaceAll(text, "\r", "%0D")
	return strings.ReplaceAll(text, "\n", "%0A")
}

func appendFile(fileName, text string) error {
	f, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, files.DefaultFileWritePermissions)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", fileName)
	}
	defer f.Close()

	_, err = f.WriteString(text)
	if err != nil {
		return errors.Wrapf(err, "failed to write to %s", fileName)
	}
	return nil
}
