package tui

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"
	"github.com/jrwynneiii/hackrfduplex/config"
	"github.com/jrwynneiii/hackrfduplex/duplex"
	"github.com/navidys/tvxwidgets"
	"github.com/rivo/tview"
)

var LogOut *tview.TextView

// controls maps dashboard keys onto device operations.
type controls struct {
	dev  *duplex.Device
	step float64
	quit func()
}

func (c *controls) nudgeGain(dir duplex.Direction, delta float64) {
	want := c.dev.Gain(dir) + delta
	if want < 0 {
		want = 0
	}
	if err := c.dev.SetGain(dir, want); err != nil {
		log.Errorf("[tui] %s gain: %v", dir, err)
		return
	}
	log.Infof("[tui] %s gain now %v dB", dir, c.dev.Gain(dir))
}

func (c *controls) toggleBias() {
	on := c.dev.ReadSetting("bias_tx") != "true"
	if err := c.dev.WriteSetting("bias_tx", strconv.FormatBool(on)); err != nil {
		log.Errorf("[tui] bias_tx: %v", err)
		return
	}
	log.Infof("[tui] TX bias tee %v", on)
}

func (c *controls) reconnect(dir duplex.Direction) {
	if err := c.dev.Reconnect(dir); err != nil {
		log.Errorf("[tui] reconnect %s: %v", dir, err)
		return
	}
	log.Infof("[tui] reconnected %s", dir)
}

// handle consumes the keys it knows and passes everything else through.
func (c *controls) handle(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() != tcell.KeyRune {
		return event
	}
	switch event.Rune() {
	case '+', '=':
		c.nudgeGain(duplex.RX, c.step)
	case '-':
		c.nudgeGain(duplex.RX, -c.step)
	case ']':
		c.nudgeGain(duplex.TX, c.step)
	case '[':
		c.nudgeGain(duplex.TX, -c.step)
	case 'b':
		c.toggleBias()
	case 'r':
		c.reconnect(duplex.RX)
	case 't':
		c.reconnect(duplex.TX)
	case 'q':
		if c.quit != nil {
			c.quit()
		}
	default:
		return event
	}
	return nil
}

type stageGauge struct {
	gauge *tvxwidgets.UtilModeGauge
	dir   duplex.Direction
	name  string
	max   float64
}

func newStageGauge(dev *duplex.Device, dir duplex.Direction, name string) stageGauge {
	g := tvxwidgets.NewUtilModeGauge()
	g.SetLabel(fmt.Sprintf("%s %-4s ", dir, name))
	g.SetLabelColor(tcell.ColorLightSkyBlue)
	g.SetWarnPercentage(90)
	g.SetCritPercentage(100)
	g.SetEmptyColor(tcell.ColorBlack)
	g.SetBorder(false)
	return stageGauge{gauge: g, dir: dir, name: name, max: dev.GainElementRange(dir, name).Max}
}

func (s stageGauge) update(dev *duplex.Device) {
	if s.max == 0 {
		return
	}
	s.gauge.SetValue(dev.GainElement(s.dir, s.name) / s.max * 100)
}

func stateTable(dev *duplex.Device, dir duplex.Direction) *tview.Table {
	table := tview.NewTable().SetContent(&StateTableData{dev: dev, dir: dir})
	table.SetSelectable(false, false).SetBorder(true).SetTitle(fmt.Sprintf("%s (%s)", dir, dev.Serial(dir)))
	return table
}

func StartUI(dev *duplex.Device, tuiConf config.TuiConf) {
	app := tview.NewApplication()

	LogOut = tview.NewTextView().
		SetDynamicColors(true).
		SetRegions(true).
		SetWordWrap(true)
	// Key handlers log from the event loop, so redraws are left to the ticker
	LogOut.SetChangedFunc(func() {
		LogOut.ScrollToEnd()
	})
	LogOut.SetBorder(true).SetTitle("Log Output")
	if tuiConf.EnableLogOutput {
		log.SetOutput(LogOut)
		defer log.SetOutput(os.Stderr)
	}

	var gauges []stageGauge
	gaugeBox := tview.NewFlex().SetDirection(tview.FlexRow)
	for _, dir := range []duplex.Direction{duplex.RX, duplex.TX} {
		for _, name := range dev.ListGains(dir) {
			g := newStageGauge(dev, dir, name)
			gauges = append(gauges, g)
			gaugeBox.AddItem(g.gauge, 0, 1, false)
		}
	}
	gaugeBox.SetTitle("Gain Stages")
	gaugeBox.SetBorder(true)

	help := tview.NewTextView().SetDynamicColors(true).
		SetText("[lightskyblue]+/-[white] RX gain  [lightskyblue]]/[[white] TX gain  [lightskyblue]b[white] bias tee  [lightskyblue]r/t[white] reconnect RX/TX  [lightskyblue]q[white] quit")

	tables := tview.NewFlex().SetDirection(tview.FlexColumn)
	tables.AddItem(stateTable(dev, duplex.RX), 0, 1, false)
	tables.AddItem(stateTable(dev, duplex.TX), 0, 1, false)

	leftCol := tview.NewFlex().SetDirection(tview.FlexRow)
	leftCol.AddItem(tables, 0, 3, false)
	leftCol.AddItem(help, 1, 0, false)

	rightCol := tview.NewFlex().SetDirection(tview.FlexRow)
	rightCol.AddItem(gaugeBox, 0, 2, false)
	if tuiConf.EnableLogOutput {
		rightCol.AddItem(LogOut, 0, 3, false)
	}

	page := tview.NewFlex().SetDirection(tview.FlexColumn)
	page.AddItem(leftCol, 0, 3, false)
	page.AddItem(rightCol, 0, 2, false)

	step := float64(tuiConf.GainStepDB)
	if step <= 0 {
		step = 1
	}
	keys := &controls{dev: dev, step: step, quit: app.Stop}
	app.SetInputCapture(keys.handle)

	refresh := time.Duration(tuiConf.RefreshMs) * time.Millisecond
	if refresh <= 0 {
		refresh = 500 * time.Millisecond
	}
	done := make(chan struct{})
	defer close(done)

	//Update gauges
	go func() {
		ticker := time.NewTicker(refresh)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
			}
			app.QueueUpdateDraw(func() {
				for _, g := range gauges {
					g.update(dev)
				}
			})
		}
	}()

	log.Infof("[tui] %s ready on %s", dev.DriverKey(), dev.HardwareKey())
	if err := app.SetRoot(page, true).EnableMouse(true).Run(); err != nil {
		log.Fatalf("Could not start UI: %v", err)
	}
}
