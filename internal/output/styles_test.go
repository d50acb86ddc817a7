package output

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestStatusStyle(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		wantBold bool
		wantFG   lipgloss.Color
	}{
		{name: "written returns green", status: StatusWritten, wantFG: ColorGreen},
		{name: "replaced returns yellow", status: StatusReplaced, wantFG: ColorYellow},
		{name: "deleted returns red", status: StatusDeleted, wantFG: ColorRed},
		{name: "failed returns bold red", status: StatusFailed, wantBold: true, wantFG: ColorBoldRed},
		{name: "unknown returns default unstyled", status: "unknown-value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			style := StatusStyle(tt.status)
			assert.Equal(t, tt.wantBold, style.GetBold())
			if tt.wantFG != "" {
				assert.Equal(t, tt.wantFG, style.GetForeground())
			} else {
				assert.Equal(t, lipgloss.NoColor{}, style.GetForeground())
			}
		})
	}
}

func TestFormatFileLine(t *testing.T) {
	line := FormatFileLine("prod/Deployment-web.yaml", StatusWritten)
	assert.Contains(t, line, "f:")
	assert.Contains(t, line, "prod/Deployment-web.yaml")
	assert.Contains(t, line, StatusWritten)
}

func TestFormatExportSummary(t *testing.T) {
	line := FormatExportSummary(3, 2, "out")
	assert.Contains(t, line, "✔")
	assert.Contains(t, line, "exported 3 files from 2 environments to out")
}
