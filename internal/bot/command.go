package bot

import "strings"

// commandName возвращает имя команды без "/" и "@bot" или пустую строку
func commandName(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	name := strings.TrimPrefix(strings.Fields(text)[0], "/")
	if i := strings.Index(name, "@"); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}
