package cli

import (
	"strings"
	"testing"
)

func TestCompletionScripts(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			out, err := execute(t, "completion", shell)
			if err != nil {
				t.Fatalf("completion %s: %v", shell, err)
			}
			if !strings.Contains(out, appName) {
				t.Errorf("%s script does not mention %s", shell, appName)
			}
		})
	}

	if _, err := execute(t, "completion", "tcsh"); err == nil {
		t.Error("expected error for unsupported shell")
	}
}

func TestFlagValueCompletions(t *testing.T) {
	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"generate", "--method", ""}, []string{"uniform", "kmeans"}},
		{[]string{"generate", "--format", ""}, []string{"png", "bmp", "tiff"}},
		{[]string{"preview", "--method", ""}, []string{"uniform", "kmeans"}},
		{[]string{"model", "--method", ""}, []string{"uniform", "kmeans"}},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args[:2], " "), func(t *testing.T) {
			out, err := execute(t, append([]string{"__complete"}, tt.args...)...)
			if err != nil {
				t.Fatalf("complete: %v", err)
			}
			lines := strings.Split(out, "\n")
			for _, want := range tt.want {
				found := false
				for _, l := range lines {
					if l == want {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("completions %q missing %q", out, want)
				}
			}
		})
	}
}
