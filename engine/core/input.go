package core

// Key code definitions. Only the keys the engine binds are mapped.
type KeyCode uint16

const (
	KEY_UNKNOWN KeyCode = 0x00
	KEY_ESCAPE  KeyCode = 0x1B
	KEY_R       KeyCode = 0x52
	KEY_F5      KeyCode = 0x74
	KEY_F12     KeyCode = 0x7B
)

func (k KeyCode) String() string {
	switch k {
	case KEY_ESCAPE:
		return "escape"
	case KEY_R:
		return "r"
	case KEY_F5:
		return "f5"
	case KEY_F12:
		return "f12"
	}
	return "unknown"
}
