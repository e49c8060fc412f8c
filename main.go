package main

import (
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"capslang/beep"
	"capslang/clipboard"
	"capslang/doctor"
	"capslang/engine"
	"capslang/log"
	"capslang/login"
	"capslang/remap"
	"capslang/shutdown"
	"capslang/sources"
	"capslang/store"
	"capslang/tap"
	"capslang/tray"
	"capslang/trust"
	"capslang/update"
)

var version = "dev"

// agent is the running coordinator. Set once in run() before any UI
// callback can fire.
var agent *engine.Engine

var shutdownOnce sync.Once

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		// Stop the agent first: this reverts the caps lock remap and
		// removes the tap before the process disappears.
		if agent != nil {
			agent.Stop()
		}
		log.Close()
		tray.Quit()
		if tuiProgram != nil {
			tuiProgram.Quit()
		}
		os.Exit(0)
	})
}

func run() {
	if len(os.Args) > 1 && os.Args[1] == "update" {
		if version == "dev" {
			fmt.Println("Dev build — cannot check for updates.")
			os.Exit(0)
		}
		fmt.Printf("capslang %s — checking for updates...\n", version)
		rel, err := update.CheckLatest(version)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if rel == nil {
			fmt.Println("Already up to date.")
			os.Exit(0)
		}
		fmt.Printf("Update available: %s -> %s\n", version, rel.Version)
		fmt.Print("Continue? [y/N] ")
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			os.Exit(0)
		}
		fmt.Printf("Downloading %s...\n", rel.Version)
		if err := update.Apply(rel); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated to %s\n", rel.Version)
		os.Exit(0)
	}

	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	listFlag := flag.Bool("list", false, "Print enabled input sources and exit")
	setupFlag := flag.Bool("setup", false, "Pick the two slot layouts interactively")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	testenvFlag := flag.Bool("testenv", false, "Fake environment driven from stdin (for tests)")
	prefsFlag := flag.String("prefs", "", "preference file path (default: OS-specific location)")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	flag.Parse()

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *versionFlag {
		fmt.Printf("capslang %s\n", version)
		os.Exit(0)
	}

	if *doctorFlag {
		os.Exit(doctor.Run())
	}

	if *listFlag {
		dir := sources.NewDirectory()
		list, err := dir.List()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		cur, _ := dir.Current()
		for _, s := range sources.Usable(list) {
			marker := " "
			if s.ID == cur.ID {
				marker = "*"
			}
			fmt.Printf("%s %-40s %s\n", marker, s.ID, s.Name)
		}
		os.Exit(0)
	}

	prefsPath, err := store.ResolvePath(*prefsFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve preference path: %v\n", err)
		os.Exit(1)
	}
	st := store.Open(prefsPath)

	// Resolve -setup before daemonization so the picker owns the terminal
	if *setupFlag {
		if err := runSetup(st); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}

	// Daemonize in non-TUI mode: re-exec in background, return shell prompt
	if !*tuiFlag && !*testenvFlag && os.Getenv("_CAPSLANG_BG") == "" {
		exe, _ := os.Executable()
		cmd := exec.Command(exe, os.Args[1:]...)
		cmd.Env = append(os.Environ(), "_CAPSLANG_BG=1")
		devnull, _ := os.Open(os.DevNull)
		cmd.Stdin, cmd.Stdout, cmd.Stderr = devnull, devnull, devnull
		if err := cmd.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Diagnostic logging always runs in tray mode; the TUI shows events live
	if !*tuiFlag {
		if err := log.Init(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
		}
	}

	if *testenvFlag {
		runTestEnv(st)
		return
	}

	hub := newUIHub()
	runner, _ := remap.NewRunner()
	agent = engine.New(engine.Config{
		Directory: sources.NewDirectory(),
		Checker:   trust.NewChecker(),
		Tap:       tap.New(),
		Runner:    runner,
		Store:     st,
		Sink:      hub,
	})

	// Start TUI
	if guiMode || !*tuiFlag {
		tuiReadyOnce.Do(func() { close(tuiReady) })
	} else {
		tuiMu.Lock()
		tuiProgram = NewTUIProgram()
		tuiMu.Unlock()

		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
				os.Exit(1)
			}
			gracefulShutdown()
		}()

		<-tuiReady
	}

	tray.OnSwitch(func() { agent.SwitchNow() })
	tray.OnCopyID(func() {
		snap := agent.Snapshot()
		if snap.Current.ID != "" {
			if err := clipboard.Copy(snap.Current.ID); err != nil {
				log.Warnf("clipboard copy failed: %v", err)
				logToTUI("Error copying source id: %v", err)
			}
		}
	})
	tray.OnGrant(func() { agent.RequestPermission() })
	tray.OnToggleSource(func(id string, selected bool) {
		if selected {
			agent.Select(id)
		} else {
			agent.Deselect(id)
		}
	})

	prefs, _ := st.Load()
	beep.SetEnabled(prefs.Sound)
	tray.SetSound(prefs.Sound)
	tray.OnSound(func(on bool) {
		agent.SetSound(on)
		beep.SetEnabled(on)
	})

	tray.SetLogin(login.Enabled())
	tray.OnLogin(func(on bool) error {
		var err error
		if on {
			err = login.Enable()
		} else {
			err = login.Disable()
		}
		if err != nil {
			log.Warnf("login toggle failed: %v", err)
			logToTUI("Error: %v", err)
		}
		return err
	})

	trayQuit := tray.Init()

	update.StartBackgroundCheck(version, log.Dir(), func(rel update.Release) {
		log.Info("update_available: " + rel.Version)
		sink.UpdateAvailable(rel.Version)
		tray.SetUpdateAvailable(rel.Version)
	})

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		select {
		case <-sigChan:
		case <-trayQuit:
		}
		gracefulShutdown()
	}()

	go beep.Init()

	agent.Start()

	if snap := agent.Snapshot(); !snap.WelcomeShown {
		sink.Notice("welcome: pick two layouts from the menu, then tap caps lock to switch between them")
		agent.MarkWelcomeShown()
	}

	// The permission monitor only wakes the coordinator on a trust
	// change; layout add/remove has no change feed, so nudge a full
	// re-derivation on a slow tick. Menu and prefs stay live that way.
	refresh := time.NewTicker(3 * time.Second)
	defer refresh.Stop()
	for range refresh.C {
		agent.Refresh()
	}
}
