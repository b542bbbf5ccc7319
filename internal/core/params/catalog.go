package params

import "fmt"

// Display labels keep the provider's original vocabulary.
var modeNames = map[Mode]string{
	ModeScroll:     "从右至左滚动",
	ModeBottom:     "底端固定",
	ModeTop:        "顶端固定",
	ModeReverse:    "逆向滚动",
	ModePositioned: "精确定位",
	ModeAdvanced:   "高级弹幕",
}

var fontSizeNames = map[int32]string{
	FontSizeSmall:    "小",
	FontSizeStandard: "标准",
	FontSizeLarge:    "大",
}

// ModeName returns the display label for a rendering mode. Unknown codes get a
// synthetic label carrying the raw value, never an error.
func ModeName(m Mode) string {
	if name, ok := modeNames[m]; ok {
		return name
	}

	return fmt.Sprintf("未知模式(%d)", m)
}

// ColorHex formats a 24-bit RGB value as #RRGGBB, uppercase and zero padded.
func ColorHex(c uint32) string {
	return fmt.Sprintf("#%06X", c)
}

// FontSizeName returns the display label for a font size. Sizes outside the
// provider's fixed set get a synthetic label carrying the raw value.
func FontSizeName(s int32) string {
	if name, ok := fontSizeNames[s]; ok {
		return name
	}

	return fmt.Sprintf("自定义(%d)", s)
}
