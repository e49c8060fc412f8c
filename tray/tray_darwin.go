//go:build darwin

package tray

import (
	"os/exec"

	"github.com/energye/systray"
	"golang.design/x/hotkey/mainthread"
)

var (
	mStatus     *systray.MenuItem
	mSwitch     *systray.MenuItem
	mCopy       *systray.MenuItem
	mSources    *systray.MenuItem
	sourceItems []*systray.MenuItem
	sourceReady chan struct{}

	mGrant    *systray.MenuItem
	mSettings *systray.MenuItem
	mSound    *systray.MenuItem
	mLogin    *systray.MenuItem
	mUpdate   *systray.MenuItem
)

func Init() <-chan struct{} {
	sourceReady = make(chan struct{})
	start, _ := systray.RunWithExternalLoop(onReady, onExit)
	done := make(chan struct{})
	mainthread.Call(func() {
		start()
		close(done)
	})
	<-done
	return quitCh
}

func updateStatusIcon(s Status) {
	switch s {
	case StatusActive:
		systray.SetIcon(iconActiveHi)
	case StatusPermission:
		systray.SetIcon(iconWarnHi)
	default:
		systray.SetTemplateIcon(iconIdleHi, iconIdle)
	}
}

func updateHeadline(line string) {
	if mStatus != nil {
		mStatus.SetTitle(line)
	}
}

func enableSwitch() {
	if mSwitch != nil {
		mSwitch.Enable()
	}
}

func disableSwitch() {
	if mSwitch != nil {
		mSwitch.Disable()
	}
}

func showGrant() {
	if mGrant != nil {
		mGrant.Show()
	}
}

func hideGrant() {
	if mGrant != nil {
		mGrant.Hide()
	}
}

func updateTooltip(msg string) {
	systray.SetTooltip(msg)
}

func addSourceItem(parent *systray.MenuItem, idx int, row Row) *systray.MenuItem {
	item := parent.AddSubMenuItemCheckbox(row.Name, row.ID, row.Selected)
	item.Click(func() {
		sourceMu.Lock()
		// Use the current row for this position, not the captured one
		// (RefreshSources may have retitled the item since)
		var cur Row
		if idx < len(sourceRows) {
			cur = sourceRows[idx]
		}
		cb := sourceCb
		sourceMu.Unlock()
		if cb != nil && cur.ID != "" {
			// No optimistic checkmark flip here: a full selection can
			// reject the click, so the refresh after reconcile is the
			// only writer of checkbox state.
			cb(cur.ID, !cur.Selected)
		}
	})
	return item
}

// RefreshSources replaces the menu rows with the given snapshot. Safe to
// call from any goroutine; blocks until the menu exists.
func RefreshSources(rows []Row) {
	if sourceReady == nil {
		return
	}
	<-sourceReady

	sourceMu.Lock()
	defer sourceMu.Unlock()

	sourceRows = rows

	for i, item := range sourceItems {
		if i < len(rows) {
			item.SetTitle(rows[i].Name)
			item.SetTooltip(rows[i].ID)
			item.Show()
			if rows[i].Selected {
				item.Check()
			} else {
				item.Uncheck()
			}
		} else {
			item.Hide()
			item.Uncheck()
		}
	}

	for i := len(sourceItems); i < len(rows); i++ {
		item := addSourceItem(mSources, i, rows[i])
		sourceItems = append(sourceItems, item)
	}
}

func onReady() {
	systray.SetTemplateIcon(iconIdleHi, iconIdle)
	systray.SetTooltip("capslang – caps lock layout toggle")

	mStatus = systray.AddMenuItem(headline, "Agent state")
	mStatus.Disable()

	mSwitch = systray.AddMenuItem("Switch Now", "Toggle between the two selected sources")
	mSwitch.Disable()
	mSwitch.Click(func() {
		if switchFn != nil {
			switchFn()
		}
	})

	mCopy = systray.AddMenuItem("Copy Current Source ID", "Copy the active input source identifier")
	mCopy.Click(func() {
		if copyIDFn != nil {
			copyIDFn()
		}
	})

	systray.AddSeparator()

	mSources = systray.AddMenuItem("Input Sources", "Pick the two sources caps lock toggles between")

	sourceMu.Lock()
	sourceItems = make([]*systray.MenuItem, 0, len(sourceRows))
	for i, row := range sourceRows {
		item := addSourceItem(mSources, i, row)
		sourceItems = append(sourceItems, item)
	}
	sourceMu.Unlock()

	systray.AddSeparator()

	mGrant = systray.AddMenuItem("Grant Input Monitoring…", "Open the system permission prompt")
	mGrant.Hide()
	mGrant.Click(func() {
		if grantFn != nil {
			grantFn()
		}
	})

	mSettings = systray.AddMenuItem("Settings", "Settings")

	mSound = mSettings.AddSubMenuItemCheckbox("Switch Sound", "Tick on every toggle", soundOn)
	mSound.Click(func() {
		if mSound.Checked() {
			mSound.Uncheck()
		} else {
			mSound.Check()
		}
		if soundCb != nil {
			soundCb(mSound.Checked())
		}
	})

	mLogin = mSettings.AddSubMenuItemCheckbox("Start on Login", "Launch capslang when you log in", loginOn)
	mLogin.Click(func() {
		if mLogin.Checked() {
			mLogin.Uncheck()
		} else {
			mLogin.Check()
		}
		if loginCb != nil {
			loginCb(mLogin.Checked())
		}
	})

	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit capslang")
	mQuit.Click(func() { Quit() })
	systray.CreateMenu()

	if status != StatusConfiguring || headline != "" {
		SetStatus(status, headline)
	}

	close(sourceReady)
}

func addUpdateMenuItem(version string) {
	if mUpdate != nil {
		mUpdate.SetTitle("⚠ Update available: " + version)
		mUpdate.Show()
		return
	}
	if mSettings == nil {
		return
	}
	mUpdate = mSettings.AddSubMenuItem("Update available: "+version, "Open release page")
	mUpdate.Click(func() {
		url := "https://github.com/capslang/capslang/releases/tag/" + version
		exec.Command("open", url).Start()
	})
}

func onExit() {
	closeOnce.Do(func() { close(quitCh) })
}
