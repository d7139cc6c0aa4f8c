// Package ui provides the terminal styling for servermon's CLI output.
//
// Components:
//
//	Spinner         - animated status line while 'servermon attach' connects
//	RenderHeader    - the banner 'servermon serve' prints at startup
//	RenderBar       - usage bar with green/amber/red thresholds
//	RenderSparkline - block-character history for 'servermon stats'
//
// Colors are lipgloss hex colors; DisableColors switches the whole process
// to plain ASCII for --no-color and NO_COLOR.
package ui
