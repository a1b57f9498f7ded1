package shell

// Environment variables read and written by PATH export
const (
	// EnvPath is the process search path
	EnvPath = "PATH"

	// EnvGitHubPath names the file the Actions runner reads PATH
	// additions from between steps
	EnvGitHubPath = "GITHUB_PATH"

	// EnvShell is the user's login shell
	EnvShell = "SHELL"
)
