package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/jrwynneiii/hackrfduplex/duplex"
	"github.com/rivo/tview"
)

// StateTableData renders the mirrored settings of one direction.
type StateTableData struct {
	tview.TableContentReadOnly
	dev *duplex.Device
	dir duplex.Direction
}

var stateRows = []string{
	"Serial:",
	"Handle:",
	"State:",
	"Frequency:",
	"Sample rate:",
	"Bandwidth:",
	"Gain:",
	"Bias tee:",
}

func (s *StateTableData) GetRowCount() int {
	return len(stateRows)
}

func (s *StateTableData) GetColumnCount() int {
	return 2
}

func (s *StateTableData) GetCell(row, column int) *tview.TableCell {
	if row < 0 || row >= len(stateRows) {
		return tview.NewTableCell("ERROR")
	}
	if column == 0 {
		return tview.NewTableCell(stateRows[row]).SetTextColor(tcell.ColorLightSkyBlue)
	}

	st := s.dev.Snapshot(s.dir)
	switch row {
	case 0:
		return tview.NewTableCell(s.dev.Serial(s.dir))
	case 1:
		if s.dev.IsOpen(s.dir) {
			return tview.NewTableCell("open").SetTextColor(tcell.ColorGreen)
		}
		return tview.NewTableCell("closed").SetTextColor(tcell.ColorRed)
	case 2:
		color := tcell.ColorGreen
		if st.State != duplex.Applied {
			color = tcell.ColorYellow
		}
		return tview.NewTableCell(st.State.String()).SetTextColor(color)
	case 3:
		return tview.NewTableCell(formatHz(st.Frequency))
	case 4:
		return tview.NewTableCell(formatHz(st.SampleRate))
	case 5:
		if st.AutoBandwidth {
			return tview.NewTableCell("auto")
		}
		return tview.NewTableCell(formatHz(st.Bandwidth))
	case 6:
		return tview.NewTableCell(fmt.Sprintf("%d dB", st.Gain()))
	case 7:
		if s.dir != duplex.TX {
			return tview.NewTableCell("-")
		}
		color := tcell.ColorRed
		if st.Bias {
			color = tcell.ColorGreen
		}
		return tview.NewTableCell(fmt.Sprintf("%v", st.Bias)).SetTextColor(color)
	}
	return tview.NewTableCell("ERROR")
}

func formatHz(hz float64) string {
	switch {
	case hz == 0:
		return "unset"
	case hz >= 1e9:
		return fmt.Sprintf("%.6f GHz", hz/1e9)
	case hz >= 1e6:
		return fmt.Sprintf("%.3f MHz", hz/1e6)
	case hz >= 1e3:
		return fmt.Sprintf("%.3f kHz", hz/1e3)
	}
	return fmt.Sprintf("%.0f Hz", hz)
}
