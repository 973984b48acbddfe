package cli

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"golang.org/x/term"

	"github.com/yiktol/apcr-dva/internal/publish"
)

// Printer writes the human-readable progress trace. Errors are printed even
// when Quiet is set.
type Printer struct {
	Quiet bool
}

var _ publish.Reporter = (*Printer)(nil)

// DefaultPrinter is used by the package-level helpers.
var DefaultPrinter = &Printer{}

var stdoutIsTerminal = term.IsTerminal(int(os.Stdout.Fd()))

func init() {
	if !stdoutIsTerminal {
		pterm.DisableStyling()
	}
}

func (p *Printer) Header(title string) {
	if p.Quiet {
		return
	}
	pterm.DefaultHeader.WithFullWidth().Println(title)
}

func (p *Printer) Section(title string) {
	if p.Quiet {
		return
	}
	pterm.DefaultSection.Println(title)
}

func (p *Printer) Step(msg string) {
	if p.Quiet {
		return
	}
	pterm.Println(pterm.Cyan("→ ") + msg)
}

func (p *Printer) Success(msg string) {
	if p.Quiet {
		return
	}
	pterm.Success.Println(msg)
}

func (p *Printer) Error(msg string) {
	pterm.Error.Println(msg)
}

func (p *Printer) Warn(msg string) {
	if p.Quiet {
		return
	}
	pterm.Warning.Println(msg)
}

func (p *Printer) Info(msg string) {
	if p.Quiet {
		return
	}
	pterm.Info.Println(msg)
}

// Table renders rows with the first row as header.
func (p *Printer) Table(data [][]string) {
	if p.Quiet || len(data) == 0 {
		return
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData(data)).Render()
}

func (p *Printer) TableBoxed(data [][]string) {
	if p.Quiet || len(data) == 0 {
		return
	}
	_ = pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(pterm.TableData(data)).Render()
}

// SpinnerStart starts a spinner and returns the function that stops it.
func (p *Printer) SpinnerStart(text string) func(success bool, msg string) {
	if p.Quiet {
		return func(bool, string) {}
	}
	// spinner frames are carriage-return redraws; plain lines read better in logs
	var spinner *pterm.SpinnerPrinter
	var err error
	if stdoutIsTerminal {
		spinner, err = pterm.DefaultSpinner.Start(text)
	}
	if spinner == nil || err != nil {
		p.Step(text)
		return func(success bool, msg string) {
			if success {
				p.Success(msg)
			} else {
				p.Error(msg)
			}
		}
	}
	return func(success bool, msg string) {
		if success {
			spinner.Success(msg)
		} else {
			spinner.Fail(msg)
		}
	}
}

func (p *Printer) Printf(format string, a ...any) {
	if p.Quiet {
		return
	}
	pterm.Print(fmt.Sprintf(format, a...))
}

func (p *Printer) Println(a ...any) {
	if p.Quiet {
		return
	}
	pterm.Println(a...)
}

func Header(title string)        { DefaultPrinter.Header(title) }
func Section(title string)       { DefaultPrinter.Section(title) }
func Step(msg string)            { DefaultPrinter.Step(msg) }
func Success(msg string)         { DefaultPrinter.Success(msg) }
func Error(msg string)           { DefaultPrinter.Error(msg) }
func Warn(msg string)            { DefaultPrinter.Warn(msg) }
func Info(msg string)            { DefaultPrinter.Info(msg) }
func Table(data [][]string)      { DefaultPrinter.Table(data) }
func TableBoxed(data [][]string) { DefaultPrinter.TableBoxed(data) }

func Green(s string) string  { return pterm.Green(s) }
func Yellow(s string) string { return pterm.Yellow(s) }
func Red(s string) string    { return pterm.Red(s) }
func Cyan(s string) string   { return pterm.Cyan(s) }
