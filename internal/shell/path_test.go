package shell

import "testing"

func TestPathCommand(t *testing.T) {
	tests := []struct {
		name    string
		shell   ShellType
		dirs    []string
		want    string
		wantErr bool
	}{
		{
			name:  "Bash single dir",
			shell: ShellBash,
			dirs:  []string{"/opt/tools/fd/v10.2.0/linux-x64"},
			want:  `export PATH="/opt/tools/fd/v10.2.0/linux-x64:$PATH"`,
		},
		{
			name:  "Zsh keeps order",
			shell: ShellZsh,
			dirs:  []string{"/a", "/b"},
			want:  `export PATH="/a:/b:$PATH"`,
		},
		{
			name:  "Bash escapes",
			shell: ShellBash,
			dirs:  []string{`/odd "$dir"`},
			want:  `export PATH="/odd \"\$dir\":$PATH"`,
		},
		{
			name:  "Fish",
			shell: ShellFish,
			dirs:  []string{"/a", "/it's"},
			want:  `fish_add_path --global --move --prepend '/a' '/it\'s'`,
		},
		{
			name:  "No dirs",
			shell: ShellBash,
			want:  "",
		},
		{
			name:    "Unknown shell",
			shell:   ShellType("tcsh"),
			dirs:    []string{"/a"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PathCommand(tt.shell, tt.dirs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PathCommand() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("PathCommand() = %s, want %s", got, tt.want)
			}
		})
	}
}
