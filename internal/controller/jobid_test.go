package controller

import "testing"

func TestGenerateJobID(t *testing.T) {
	tests := []struct {
		name string
		exe  string
		args []string
		want string
	}{
		{
			name: "script in args wins over exe",
			exe:  "C:\\Python39\\python.exe",
			args: []string{"--flag", "C:\\wvlab\\scripts\\drive_loop.py", "--laps", "3"},
			want: "drive_loop",
		},
		{
			name: "forward-slash script path",
			exe:  "/usr/bin/python3",
			args: []string{"scripts/run_scenario.py"},
			want: "run_scenario",
		},
		{
			name: "no script, falls back to exe basename",
			exe:  "C:\\wvlab\\CarlaUE4\\Binaries\\Win64\\CarlaUE4.exe",
			args: []string{"-carla-server", "-windowed"},
			want: "CarlaUE4",
		},
		{
			name: "empty args list",
			exe:  "C:\\wvlab\\tools\\bootstrap.bat",
			args: nil,
			want: "bootstrap",
		},
		{
			name: "case-insensitive extension match",
			exe:  "powershell.exe",
			args: []string{"C:\\wvlab\\scripts\\Restart.PS1"},
			want: "Restart",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateJobID(tt.exe, tt.args)
			if got != tt.want {
				t.Errorf("GenerateJobID(%q, %v) = %q, want %q", tt.exe, tt.args, got, tt.want)
			}
		})
	}
}
