package runtime

import "testing"

func TestGlobNoMatch(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   bool
	}{
		{
			name:   "coreutils no match",
			stderr: "ls: cannot access '/build/src/build/*.deb': No such file or directory",
			want:   true,
		},
		{
			name:   "busybox no match",
			stderr: "ls: /build/src/build/*.deb: No such file or directory",
			want:   true,
		},
		{
			name:   "permission denied",
			stderr: "ls: cannot open directory '/build': Permission denied",
			want:   false,
		},
		{
			name:   "shell missing ls",
			stderr: "/bin/sh: ls: not found",
			want:   false,
		},
		{
			name:   "empty stderr",
			stderr: "",
			want:   false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := globNoMatch(tc.stderr); got != tc.want {
				t.Errorf("globNoMatch(%q) = %v, want %v", tc.stderr, got, tc.want)
			}
		})
	}
}
