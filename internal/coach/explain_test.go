package coach

import (
	"strings"
	"testing"
)

func TestPipelineKeepsQuotedPipes(t *testing.T) {
	command := `grep "a|b" app.log | sort | head -n 5`
	stages := pipeline(command)
	if len(stages) != 3 {
		t.Fatalf("expected 3 stages, got %d (%#v)", len(stages), stages)
	}
	if got := strings.Join(stages[0], " "); got != `grep "a|b" app.log` {
		t.Fatalf("first stage lost quoted pipe: %q", got)
	}
}

func TestReviewReportsMissingAndUnexpectedFlags(t *testing.T) {
	r := Review("ls -l", "ls -la")
	if r.Distance != 1 || !r.Close {
		t.Fatalf("expected close miss with distance 1, got %d close=%v", r.Distance, r.Close)
	}
	text := r.Text()
	for _, want := range []string{"Missing argument `-la`", "Unexpected argument `-l`", "Lists directory contents", "1 character(s) off"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in report:\n%s", want, text)
		}
	}
}

func TestReviewFlagsWrongCommand(t *testing.T) {
	r := Review("dir", "ls")
	if len(r.Mismatches) != 1 || !strings.Contains(r.Mismatches[0], "uses `ls`") {
		t.Fatalf("unexpected mismatches: %#v", r.Mismatches)
	}
}

func TestReviewDockerSubcommand(t *testing.T) {
	r := Review("docker image ls", "docker images")
	if len(r.Mismatches) == 0 || !strings.Contains(r.Mismatches[0], "docker images") {
		t.Fatalf("expected docker subcommand advice, got %#v", r.Mismatches)
	}
	if !strings.Contains(r.Stages[0].Description, "docker image") {
		t.Fatalf("unexpected docker description: %q", r.Stages[0].Description)
	}
}

func TestReviewDetectsReorderedArguments(t *testing.T) {
	r := Review("docker run -p 8080:80 -d nginx", "docker run -d -p 8080:80 nginx")
	if len(r.Mismatches) != 1 || !strings.Contains(r.Mismatches[0], "different order") {
		t.Fatalf("expected ordering note, got %#v", r.Mismatches)
	}
	if r.Close {
		t.Fatalf("reordered flags are not a spelling slip")
	}
}

func TestReviewHandlesQuotesAndBlank(t *testing.T) {
	r := Review(`touch "my file.txt"`, "touch test.txt")
	if len(r.Mismatches) != 2 {
		t.Fatalf("expected quoted argument to be one token, got %#v", r.Mismatches)
	}
	if got := Review("   ", "pwd").Text(); got != "No command to explain." {
		t.Fatalf("unexpected blank text: %q", got)
	}
}

func TestCommandNameSkipsEnvAndSudo(t *testing.T) {
	if got := commandName([]string{"FOO=1", "sudo", "docker", "ps"}); got != "docker" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := describeCommand([]string{"sudo", "docker", "images"}); got != "Lists locally available images." {
		t.Fatalf("unexpected docker description %q", got)
	}
}

func TestPipelineSplitsUnspacedPipes(t *testing.T) {
	r := Review("ls -la|grep log |wc -l", "ls -la")
	if len(r.Stages) != 3 {
		t.Fatalf("expected 3 stages, got %#v", r.Stages)
	}
	names := []string{r.Stages[0].Name, r.Stages[1].Name, r.Stages[2].Name}
	if strings.Join(names, ",") != "ls,grep,wc" {
		t.Fatalf("unexpected stage names %v", names)
	}
	if r.Stages[1].Text != "grep log" {
		t.Fatalf("unexpected stage text %q", r.Stages[1].Text)
	}
}
