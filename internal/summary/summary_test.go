package summary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dualsub/internal/cue"
)

type fakeCompleter struct {
	system, user string
	reply        string
	err          error
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.reply, f.err
}

func doc(t *testing.T, lines ...string) cue.Document {
	t.Helper()
	cues := make([]cue.Cue, len(lines))
	for i, line := range lines {
		cues[i] = cue.MustNew(i+1, cue.Timestamp(i*1000), cue.Timestamp(i*1000+900), line)
	}
	d, err := cue.NewDocument(cues, cue.FormatSRT, "en")
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestTextDropsRepeats(t *testing.T) {
	got := Text(doc(t, "Hello", "Hello", "World"))
	if got != "Hello\nWorld" {
		t.Fatalf("Text = %q", got)
	}
}

func TestSummarize(t *testing.T) {
	f := &fakeCompleter{reply: "```markdown\n# Talk\n\n- subtitles\n```"}
	res, err := Summarize(context.Background(), f, doc(t, "Hi", "Bye"), Options{Language: "zh-CN"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Markdown != "# Talk\n\n- subtitles" {
		t.Fatalf("unexpected markdown %q", res.Markdown)
	}
	if !strings.Contains(f.system, "Simplified Chinese") {
		t.Fatalf("system prompt should name the summary language: %q", f.system)
	}
	if !strings.HasSuffix(f.user, "Hi\nBye") {
		t.Fatalf("unexpected user prompt %q", f.user)
	}
	if res.Truncated {
		t.Fatal("short transcript should not be truncated")
	}
}

func TestSummarizeTruncates(t *testing.T) {
	f := &fakeCompleter{reply: "# ok"}
	res, err := Summarize(context.Background(), f, doc(t, "abcdef", "ghijkl"), Options{MaxChars: 4})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Truncated || res.Chars != 4 || !strings.HasSuffix(f.user, "abcd") {
		t.Fatalf("unexpected truncation %+v, prompt %q", res, f.user)
	}
}

func TestSummarizeErrors(t *testing.T) {
	empty, err := cue.NewDocument(nil, cue.FormatSRT, "en")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Summarize(context.Background(), &fakeCompleter{}, empty, Options{}); !errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("expected ErrEmptyTranscript, got %v", err)
	}
	boom := errors.New("boom")
	if _, err := Summarize(context.Background(), &fakeCompleter{err: boom}, doc(t, "Hi"), Options{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
	if _, err := Summarize(context.Background(), &fakeCompleter{reply: "  "}, doc(t, "Hi"), Options{}); err == nil {
		t.Fatal("expected error for blank reply")
	}
}
