package translate

import "strings"

func init() {
	register(lcdd)
	register(lcdproc)
	register(lcdvc)
	register(lcdexec)
}

// lcdd is the LCDd server: [server] and [menu] keep their names, every other
// section configures a driver
var lcdd = &table{
	mode: "lcdd",
	prefix: func(section string) (string, bool) {
		switch s := strings.ToLower(section); s {
		case "server", "menu":
			return s + "/", true
		default:
			return "driver/" + s + "/", true
		}
	},
	lists: map[listKey]string{
		{"server", "hello"}:      "",
		{"server", "goodbye"}:    "",
		{"server", "driver"}:     "driver/",
		{"hd44780", "backlight"}: "",
		{"linux_input", "key"}:   "",
	},
}

// lcdproc is the status client, one path segment per section
var lcdproc = &table{
	mode: "lcdproc",
	prefix: func(section string) (string, bool) {
		return strings.ToLower(section) + "/", true
	},
}

// lcdvc is the virtual console client, all sections share one namespace
var lcdvc = &table{
	mode: "lcdvc",
	prefix: func(string) (string, bool) {
		return "lcdvc/", true
	},
}

// lcdexec is the menu client: [lcdexec] holds the client settings, the other
// sections only matter as part of the MainMenu tree
var lcdexec = &table{
	mode: "lcdexec",
	prefix: func(section string) (string, bool) {
		return "lcdexec/", section == "lcdexec"
	},
	withMenu: true,
}
