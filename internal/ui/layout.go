package ui

const (
	minCols      = 60
	minRows      = 16
	wideCols     = 100
	wideRows     = 24
	sidebarWidth = 38
)

func DetermineLayoutMode(cols, rows int) LayoutMode {
	if cols < minCols || rows < minRows {
		return LayoutTooSmall
	}
	if cols >= wideCols && rows >= wideRows {
		return LayoutWide
	}
	return LayoutNarrow
}
