package shell

import (
	"fmt"
	"strings"
)

// PathCommand returns the line that puts dirs in front of PATH for shell.
// The first dir ends up first on PATH.
func PathCommand(shell ShellType, dirs []string) (string, error) {
	if err := ValidateShell(shell); err != nil {
		return "", err
	}
	if len(dirs) == 0 {
		return "", nil
	}

	switch shell {
	case ShellBash, ShellZsh:
		quoted := make([]string, len(dirs))
		for i, dir := range dirs {
			quoted[i] = doubleQuoteEscaper.Replace(dir)
		}
		return fmt.Sprintf(`export PATH="%s:$PATH"`, strings.Join(quoted, ":")), nil
	case ShellFish:
		quoted := make([]string, len(dirs))
		for i, dir := range dirs {
			quoted[i] = "'" + singleQuoteEscaper.Replace(dir) + "'"
		}
		return "fish_add_path --global --move --prepend " + strings.Join(quoted, " "), nil
	default:
		return "", &UnsupportedShellError{Shell: shell.String()}
	}
}

var (
	doubleQuoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")
	singleQuoteEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)
)
