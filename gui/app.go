//go:build gui

package gui

import (
	_ "embed"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

//go:embed assets/tray.png
var trayIcon []byte

// App is the Fyne status window: the onboarding surface on desktops
// where the native tray menu is unavailable. It implements the same
// event sink the TUI does.
type App struct {
	fyneApp fyne.App
	window  fyne.Window
	badge   *BadgeWidget

	stateLabel  *widget.Label
	detailLabel *widget.Label
	slotLabels  [2]*widget.Label
	currentLine *widget.Label
	noticeLabel *widget.Label
	grantBtn    *widget.Button
	switchBtn   *widget.Button

	// Wired by the caller before Run.
	OnGrant  func()
	OnSwitch func()

	onReady func()
}

func NewApp(onReady func()) *App {
	return &App{onReady: onReady}
}

func Run(a *App) error {
	a.fyneApp = app.NewWithID("io.capslang.app")
	a.fyneApp.Settings().SetTheme(&darkTheme{})

	// Set up system tray using Fyne's built-in support
	if desk, ok := a.fyneApp.(desktop.App); ok {
		icon := fyne.NewStaticResource("tray.png", trayIcon)
		menu := fyne.NewMenu("capslang",
			fyne.NewMenuItem("Switch Now", func() {
				if a.OnSwitch != nil {
					a.OnSwitch()
				}
			}),
			fyne.NewMenuItem("Quit", func() {
				a.fyneApp.Quit()
			}),
		)
		desk.SetSystemTrayMenu(menu)
		desk.SetSystemTrayIcon(icon)
	}

	a.window = a.fyneApp.NewWindow("capslang")
	a.badge = NewBadgeWidget()

	a.stateLabel = widget.NewLabel("starting")
	a.stateLabel.TextStyle = fyne.TextStyle{Bold: true}
	a.stateLabel.Alignment = fyne.TextAlignCenter
	a.detailLabel = widget.NewLabel("")
	a.detailLabel.Alignment = fyne.TextAlignCenter
	a.detailLabel.Wrapping = fyne.TextWrapWord
	a.slotLabels[0] = widget.NewLabel("1  (empty)")
	a.slotLabels[1] = widget.NewLabel("2  (empty)")
	a.currentLine = widget.NewLabel("")
	a.noticeLabel = widget.NewLabel("")
	a.noticeLabel.Wrapping = fyne.TextWrapWord

	a.grantBtn = widget.NewButton("Grant Input Monitoring", func() {
		if a.OnGrant != nil {
			a.OnGrant()
		}
	})
	a.grantBtn.Hide()
	a.switchBtn = widget.NewButton("Switch Now", func() {
		if a.OnSwitch != nil {
			a.OnSwitch()
		}
	})

	a.window.SetContent(container.NewVBox(
		container.NewCenter(a.badge),
		a.stateLabel,
		a.detailLabel,
		widget.NewSeparator(),
		a.slotLabels[0],
		a.slotLabels[1],
		a.currentLine,
		widget.NewSeparator(),
		a.grantBtn,
		a.switchBtn,
		a.noticeLabel,
	))
	a.window.Resize(fyne.NewSize(320, 420))
	a.window.SetFixedSize(true)
	a.window.CenterOnScreen()

	// Closing the window keeps the agent alive in the tray
	a.window.SetCloseIntercept(func() {
		a.window.Hide()
	})
	a.window.Show()

	go a.onReady()

	a.fyneApp.Run()
	return nil
}

func (a *App) Quit() {
	if a.fyneApp != nil {
		a.fyneApp.Quit()
	}
}

// EventSink implementation. Calls arrive from agent goroutines, so
// every widget touch goes through fyne.Do.

func (a *App) StateLine(state, detail string) {
	a.badge.SetState(state)
	fyne.Do(func() {
		a.stateLabel.SetText(state)
		a.detailLabel.SetText(detail)
		if state == "permissions-required" {
			a.grantBtn.Show()
		} else {
			a.grantBtn.Hide()
		}
	})
}

func (a *App) SlotLines(lines [2]string, current string) {
	fyne.Do(func() {
		a.slotLabels[0].SetText(lines[0])
		a.slotLabels[1].SetText(lines[1])
		if current != "" {
			a.currentLine.SetText("current: " + current)
		}
	})
}

func (a *App) SwitchResult(from, to string, ms float64, errText string) {
	a.badge.Flash()
	if errText != "" {
		fyne.Do(func() {
			a.noticeLabel.SetText("switch failed: " + errText)
		})
	}
}

func (a *App) Notice(text string) {
	fyne.Do(func() {
		a.noticeLabel.SetText(text)
	})
}

func (a *App) RemapLine(text string) {}

func (a *App) UpdateAvailable(version string) {
	fyne.Do(func() {
		a.noticeLabel.SetText("update available: " + version + " (run: capslang update)")
	})
}
