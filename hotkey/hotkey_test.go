package hotkey

import (
	"reflect"
	"testing"
)

func TestParseHotkey(t *testing.T) {
	cases := []struct {
		combo string
		want  []string
	}{
		{"Ctrl+Alt+S", []string{"ctrl", "alt", "s"}},
		{"ctrl + shift + t", []string{"ctrl", "shift", "t"}},
		{"Win+Space", []string{"cmd", "space"}},
		{"Super+Q", []string{"cmd", "q"}},
		{"", nil},
		{"+", nil},
	}
	for _, c := range cases {
		if got := parseHotkey(c.combo); !reflect.DeepEqual(got, c.want) {
			t.Errorf("parseHotkey(%q) = %v, want %v", c.combo, got, c.want)
		}
	}
}

func TestListenIgnoresEmptyCombo(t *testing.T) {
	// Must not start a global hook or panic.
	Listen("", func() {})
}
