package output

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestVerboseOutputOnlyAppearsWhenEnabled(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		expectEmpty bool
	}{
		{"verbose disabled - no output", false, true},
		{"verbose enabled - has output", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			out := New(Config{
				Verbose:   tt.verbose,
				Writer:    &buf,
				ErrWriter: &buf,
				IsTTY:     false,
			})

			out.Verbose("normalized %s", "A_.glif")

			if tt.expectEmpty && buf.Len() > 0 {
				t.Errorf("expected no output when verbose disabled, got: %q", buf.String())
			}
			if !tt.expectEmpty && !strings.Contains(buf.String(), "normalized A_.glif") {
				t.Errorf("expected the verbose message, got: %q", buf.String())
			}
		})
	}
}

func TestQuietSuppressesInfoAndVerbose(t *testing.T) {
	var buf bytes.Buffer
	out := New(Config{
		Verbose:   true,
		Quiet:     true,
		Writer:    &buf,
		ErrWriter: &buf,
	})

	out.Info("info message")
	out.Verbose("verbose message")

	if buf.Len() > 0 {
		t.Errorf("expected quiet mode to suppress output, got: %q", buf.String())
	}
}

func TestErrorOutputGoesToErrWriterEvenWhenQuiet(t *testing.T) {
	var stdoutBuf, stderrBuf bytes.Buffer
	out := New(Config{
		Quiet:     true,
		Writer:    &stdoutBuf,
		ErrWriter: &stderrBuf,
	})

	out.Error("error message")

	if stdoutBuf.Len() > 0 {
		t.Errorf("expected no stdout output for Error, got: %q", stdoutBuf.String())
	}
	if !strings.Contains(stderrBuf.String(), "error message") {
		t.Errorf("expected stderr to contain the error, got: %q", stderrBuf.String())
	}
}

func TestProgressFormat(t *testing.T) {
	var buf bytes.Buffer
	out := New(Config{
		Writer:    &buf,
		ErrWriter: &buf,
		IsTTY:     true,
	})

	out.StartProgress(10)
	out.UpdateProgress(5)

	if !strings.Contains(buf.String(), "Normalizing glyph 5/10...") {
		t.Errorf("expected 'Normalizing glyph 5/10...', got: %q", buf.String())
	}
}

func TestProgressSuppressedWhenNotTTY(t *testing.T) {
	var buf bytes.Buffer
	out := New(Config{
		Writer:    &buf,
		ErrWriter: &buf,
		IsTTY:     false,
	})

	out.StartProgress(10)
	out.UpdateProgress(5)
	out.EndProgress()

	if buf.Len() > 0 {
		t.Errorf("expected no progress output without a TTY, got: %q", buf.String())
	}
}

func TestProgressSuppressedWhenVerbose(t *testing.T) {
	var buf bytes.Buffer
	out := New(Config{
		Verbose:   true,
		Writer:    &buf,
		ErrWriter: &buf,
		IsTTY:     true,
	})

	out.StartProgress(10)
	out.UpdateProgress(5)
	out.EndProgress()

	if strings.Contains(buf.String(), "Normalizing glyph") {
		t.Errorf("expected no progress output in verbose mode, got: %q", buf.String())
	}
}

func TestEndProgressClearsLine(t *testing.T) {
	var buf bytes.Buffer
	out := New(Config{
		Writer:    &buf,
		ErrWriter: &buf,
		IsTTY:     true,
	})

	out.StartProgress(10)
	out.UpdateProgress(5)
	out.EndProgress()

	if !strings.HasSuffix(buf.String(), "\r") {
		t.Errorf("expected output to end with a carriage return, got: %q", buf.String())
	}
}

func TestProgressUsesCarriageReturn(t *testing.T) {
	var buf bytes.Buffer
	out := New(Config{
		Writer:    &buf,
		ErrWriter: &buf,
		IsTTY:     true,
	})

	out.StartProgress(10)
	out.UpdateProgress(1)
	out.UpdateProgress(2)

	if !strings.Contains(buf.String(), "\r") {
		t.Errorf("expected in-place updates to use carriage return, got: %q", buf.String())
	}
}

func TestMessageInterruptsProgressLine(t *testing.T) {
	var buf bytes.Buffer
	out := New(Config{
		Writer:    &buf,
		ErrWriter: &buf,
		IsTTY:     true,
	})

	out.StartProgress(10)
	out.UpdateProgress(3)
	out.Info("something happened")

	output := buf.String()
	idx := strings.Index(output, "something happened")
	if idx < 0 {
		t.Fatalf("expected the message in the output, got: %q", output)
	}
	// The progress line must be cleared before the message.
	if !strings.Contains(output[:idx], "\r") {
		t.Errorf("expected the progress line to be cleared first, got: %q", output)
	}
}

func TestIsVerbose(t *testing.T) {
	if !New(Config{Verbose: true}).IsVerbose() {
		t.Error("IsVerbose() = false, want true")
	}
	if New(Config{}).IsVerbose() {
		t.Error("IsVerbose() = true, want false")
	}
}

func TestNewWithNilWriters(t *testing.T) {
	out := New(Config{})
	if out == nil {
		t.Fatal("expected non-nil Output")
	}
}

func TestMessagesEndWithNewline(t *testing.T) {
	var buf bytes.Buffer
	out := New(Config{Verbose: true, Writer: &buf, ErrWriter: &buf})

	out.Info("message without newline")
	out.Verbose("another")
	out.Error("an error")

	for _, line := range strings.SplitAfter(buf.String(), "\n") {
		if line != "" && !strings.HasSuffix(line, "\n") {
			t.Errorf("message not newline terminated: %q", line)
		}
	}
}

// TestProgressIndicatorFormatProperty checks that for any glyph counts the
// progress line carries the exact counter pair.
func TestProgressIndicatorFormatProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("progress line shows current/total", prop.ForAll(
		func(current, total int) bool {
			if current > total {
				current, total = total, current
			}

			var buf bytes.Buffer
			out := New(Config{
				Writer:    &buf,
				ErrWriter: &buf,
				IsTTY:     true,
			})

			out.StartProgress(total)
			out.UpdateProgress(current)

			pattern := regexp.MustCompile(`Normalizing glyph ` +
				regexp.QuoteMeta(strconv.Itoa(current)) + `/` +
				regexp.QuoteMeta(strconv.Itoa(total)) + `\.\.\.`)
			return pattern.MatchString(buf.String())
		},
		gen.IntRange(1, 1000),
		gen.IntRange(1, 1000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
