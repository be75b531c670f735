package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"
)

// doctorProbeKey is written and removed again to check the store.
const doctorProbeKey = "doctor:probe"

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string      `json:"status"` // "ready", "warnings", "errors"
	Chrome   chromeInfo  `json:"chrome"`
	Env      envInfo     `json:"environment"`
	System   systemInfo  `json:"system"`
	Storage  storageInfo `json:"storage"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results. Chrome is only
// needed for PDF export, so a missing browser is a warning.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// storageInfo holds the result of the store round trip.
type storageInfo struct {
	Driver    string `json:"driver"`
	Reachable bool   `json:"reachable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found, 2 = usage.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	f, err := parseDoctorFlags(args, env.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		return ExitUsage
	}

	result := runDoctor(ctx, f.common, f.storage, env)

	if f.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, common commonFlags, storage storageFlags, env *Environment) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  os.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
		},
	}

	checkChrome(result)
	checkEnvironment(result)
	checkSystem(result)
	checkStorage(ctx, result, common, storage, env)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkChrome detects Chrome/Chromium installation.
func checkChrome(result *doctorResult) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			result.Warnings = append(result.Warnings,
				"Chrome/Chromium not found, PDF export unavailable. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Chrome not found at %s, PDF export unavailable", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	cmd := exec.Command(chromePath, "--version") // #nosec G204 -- browser path from launcher or ROD_BROWSER_BIN
	out, err := cmd.Output()
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer()

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	if os.Getenv("LIVEPREVIEW_CONTAINER") == "1" {
		return true, "LIVEPREVIEW_CONTAINER=1"
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory the browser writes to.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, "livepreview-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	} else {
		_ = os.Remove(testFile)
		result.System.TempWritable = true
	}
}

// checkStorage opens the configured store and round-trips a probe key.
func checkStorage(ctx context.Context, result *doctorResult, common commonFlags, storage storageFlags, env *Environment) {
	cfg, err := loadConfig(common)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Config: %v", err))
		return
	}
	mergeStorageFlags(storage, cfg)
	if err := cfg.Validate(); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Config: %v", err))
		return
	}
	cfg = cfg.WithDefaults()
	result.Storage.Driver = cfg.Storage.Driver

	st, err := env.OpenStore(ctx, cfg.Storage)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Storage (%s): %v", cfg.Storage.Driver, err))
		return
	}
	defer func() { _ = st.Close() }()

	probe := []byte("ok")
	if err := st.Put(ctx, doctorProbeKey, probe); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Storage (%s): write failed: %v", cfg.Storage.Driver, err))
		return
	}
	got, err := st.Get(ctx, doctorProbeKey)
	_ = st.Delete(ctx, doctorProbeKey)
	if err != nil || !bytes.Equal(got, probe) {
		result.Errors = append(result.Errors, fmt.Sprintf("Storage (%s): read back failed: %v", cfg.Storage.Driver, err))
		return
	}
	result.Storage.Reachable = true
}

// Check markers of the human-readable report.
const (
	markOK    = "[OK]"
	markWarn  = "[WARN]"
	markError = "[ERROR]"
)

// doctorSection is one titled block of the human-readable report.
type doctorSection struct {
	title string
	lines [][2]string // marker, text
}

func (s *doctorSection) add(mark, format string, args ...any) {
	s.lines = append(s.lines, [2]string{mark, fmt.Sprintf(format, args...)})
}

// doctorSections lays out r section by section.
func doctorSections(r *doctorResult) []doctorSection {
	chrome := doctorSection{title: "Chrome/Chromium"}
	switch {
	case !r.Chrome.Found:
		chrome.add(markWarn, "Not found (HTML preview still works)")
	default:
		chrome.add(markOK, "Found at %s", r.Chrome.Path)
		if r.Chrome.Version != "" {
			chrome.add(markOK, "Version: %s", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			chrome.add(markOK, "Sandbox: enabled")
		} else {
			chrome.add(markOK, "Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	}

	environment := doctorSection{title: "Environment"}
	environment.add(markOK, "Platform: %s/%s", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		environment.add(markOK, "Container: detected (%s)", r.Env.ContainerHint)
	}
	if r.Env.CI {
		environment.add(markOK, "CI: detected")
	}

	system := doctorSection{title: "System"}
	if r.System.TempWritable {
		system.add(markOK, "Temp directory: writable")
	} else {
		system.add(markError, "Temp directory: not writable")
	}

	storage := doctorSection{title: "Storage"}
	if r.Storage.Reachable {
		storage.add(markOK, "Driver %s: reachable", r.Storage.Driver)
	} else {
		storage.add(markError, "Driver %s: unreachable", r.Storage.Driver)
	}

	sections := []doctorSection{chrome, environment, system, storage}
	if len(r.Warnings) > 0 {
		warnings := doctorSection{title: "Warnings:"}
		for _, w := range r.Warnings {
			warnings.add(markWarn, "%s", w)
		}
		sections = append(sections, warnings)
	}
	if len(r.Errors) > 0 {
		errs := doctorSection{title: "Errors:"}
		for _, e := range r.Errors {
			errs.add(markError, "%s", e)
		}
		sections = append(sections, errs)
	}
	return sections
}

// doctorStatus is the closing line of the report.
var doctorStatus = map[string]string{
	"ready":    "Status: Ready to preview",
	"warnings": "Status: Ready with warnings",
	"errors":   "Status: Not ready (see errors above)",
}

// printDoctorResult writes the human-readable report.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "livepreview doctor")
	fmt.Fprintln(w)
	for _, sec := range doctorSections(r) {
		fmt.Fprintln(w, sec.title)
		for _, l := range sec.lines {
			fmt.Fprintf(w, "  %s %s\n", l[0], l[1])
		}
		fmt.Fprintln(w)
	}
	if status, ok := doctorStatus[r.Status]; ok {
		fmt.Fprintln(w, status)
	}
}
