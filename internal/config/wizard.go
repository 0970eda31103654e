package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/pdiddy/sci-dl/pkg/types"
)

// errInputClosed stops a prompt loop when input ends on an invalid answer.
var errInputClosed = errors.New("input closed before a valid answer was given")

// Wizard drives init-config: it prompts for each setting and reads answers
// line by line. An empty answer takes the shown default. Invalid answers are
// reported and asked again.
type Wizard struct {
	in  *bufio.Reader
	out io.Writer
	eof bool

	// readSecret reads one answer without echo. It is set only when the
	// input is a terminal.
	readSecret func() (string, error)

	// Defaults are offered for each prompt.
	Defaults types.Config
}

// NewWizard returns a wizard reading from in and writing prompts to out,
// with defaults from DefaultConfig. When in is a terminal the proxy
// password is read without echo.
func NewWizard(in io.Reader, out io.Writer) *Wizard {
	w := &Wizard{
		in:       bufio.NewReader(in),
		out:      out,
		Defaults: DefaultConfig(),
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		w.readSecret = func() (string, error) {
			b, err := term.ReadPassword(fd)
			return string(b), err
		}
	}
	return w
}

// DefaultConfig returns the values offered by the wizard. The log file
// lives under the user cache directory and PDFs go to the home directory.
func DefaultConfig() types.Config {
	cfg := types.Config{
		BaseURL:  types.DefaultBaseURL,
		Retries:  types.DefaultRetries,
		UseProxy: true,
		ProxyConfig: types.ProxyConfig{
			Protocol: types.DefaultProxyProtocol,
			Host:     types.DefaultProxyHost,
			Port:     types.DefaultProxyPort,
		},
	}
	if dir, err := os.UserCacheDir(); err == nil {
		cfg.LogFile = filepath.Join(dir, "sci-dl", "log", "sci-dl.log")
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.OutDir = home
	}
	return cfg
}

// Run asks every question and returns the resulting config. Proxy
// questions are skipped when no proxy is wanted; the proxy fields then
// keep their defaults.
func (w *Wizard) Run() (*types.Config, error) {
	d := w.Defaults
	cfg := d

	var err error
	if cfg.BaseURL, err = w.askValid("SciHub base url", d.BaseURL, func(s string) error {
		if validate.Var(s, "required,url") != nil {
			return fmt.Errorf("invalid base_url %s", s)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if cfg.Retries, err = w.askInt("Number of failure download retries", d.Retries, func(n int) error {
		if n < types.MinRetries || n > types.MaxRetries {
			return fmt.Errorf("invalid number of failure download retries %d, must between %d and %d",
				n, types.MinRetries, types.MaxRetries)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if cfg.UseProxy, err = w.askBool("Do you want to use a proxy?", d.UseProxy); err != nil {
		return nil, err
	}

	if cfg.UseProxy {
		if err := w.askProxy(&cfg.ProxyConfig, d.ProxyConfig); err != nil {
			return nil, err
		}
	}

	if cfg.LogFile, err = w.askValid("Log file", d.LogFile, func(s string) error {
		if s == "" {
			return errors.New("invalid log file")
		}
		if err := os.MkdirAll(filepath.Dir(s), 0o755); err != nil {
			return fmt.Errorf("invalid log file %s", s)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if cfg.OutDir, err = w.askValid("Where you want to save PDF file", d.OutDir, func(s string) error {
		if validate.Var(s, "required,dir") != nil {
			return fmt.Errorf("invalid directory %s", s)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if cfg.DebugMode, err = w.askBool("Enable DEBUG mode?", d.DebugMode); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (w *Wizard) askProxy(p *types.ProxyConfig, d types.ProxyConfig) error {
	var err error
	choices := []string{types.ProxySOCKS5, types.ProxyHTTP, types.ProxyHTTPS}
	label := fmt.Sprintf("Protocol of your proxy (%s)", strings.Join(choices, "/"))
	if p.Protocol, err = w.askValid(label, d.Protocol, func(s string) error {
		if validate.Var(s, "oneof="+strings.Join(choices, " ")) != nil {
			return fmt.Errorf("please select one of the available options: %s", strings.Join(choices, ", "))
		}
		return nil
	}); err != nil {
		return err
	}

	if p.User, err = w.ask("User of your proxy, leave blank if not need", d.User); err != nil {
		return err
	}
	if p.Password, err = w.askSecret("Password of your proxy, leave blank if not need", d.Password); err != nil {
		return err
	}

	if p.Host, err = w.askValid("Host of your proxy", d.Host, func(s string) error {
		if validate.Var(s, "hostname|ip") != nil {
			return fmt.Errorf("invalid host %s", s)
		}
		return nil
	}); err != nil {
		return err
	}

	p.Port, err = w.askInt("Port of your proxy", d.Port, func(n int) error {
		if n < 1 || n > 65535 {
			return fmt.Errorf("invalid port %d, should between 1 and 65535", n)
		}
		return nil
	})
	return err
}

// ask prints the prompt and returns the trimmed answer, or def when the
// answer is empty.
func (w *Wizard) ask(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(w.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(w.out, "%s: ", label)
	}
	if w.eof {
		fmt.Fprintln(w.out)
		return def, nil
	}
	line, err := w.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading answer: %w", err)
		}
		w.eof = true
		fmt.Fprintln(w.out)
	}
	answer := strings.TrimSpace(line)
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// askSecret is ask without echo on a terminal. The default is never shown.
func (w *Wizard) askSecret(label, def string) (string, error) {
	if w.readSecret == nil || w.eof {
		return w.ask(label, def)
	}
	fmt.Fprintf(w.out, "%s: ", label)
	answer, err := w.readSecret()
	fmt.Fprintln(w.out)
	if err != nil {
		return "", fmt.Errorf("reading answer: %w", err)
	}
	if answer = strings.TrimSpace(answer); answer == "" {
		return def, nil
	}
	return answer, nil
}

// askValid repeats the prompt until check accepts the answer.
func (w *Wizard) askValid(label, def string, check func(string) error) (string, error) {
	for {
		answer, err := w.ask(label, def)
		if err != nil {
			return "", err
		}
		cerr := check(answer)
		if cerr == nil {
			return answer, nil
		}
		fmt.Fprintln(w.out, cerr)
		if w.eof {
			return "", fmt.Errorf("%s: %w", label, errInputClosed)
		}
	}
}

func (w *Wizard) askInt(label string, def int, check func(int) error) (int, error) {
	var n int
	_, err := w.askValid(label, strconv.Itoa(def), func(s string) error {
		v, err := strconv.Atoi(s)
		if err != nil {
			return errors.New("please enter a valid integer number")
		}
		if err := check(v); err != nil {
			return err
		}
		n = v
		return nil
	})
	return n, err
}

func (w *Wizard) askBool(label string, def bool) (bool, error) {
	defStr := "y/N"
	if def {
		defStr = "Y/n"
	}
	var b bool
	_, err := w.askValid(label+" ["+defStr+"]", "", func(s string) error {
		switch strings.ToLower(s) {
		case "":
			b = def
		case "y", "yes":
			b = true
		case "n", "no":
			b = false
		default:
			return errors.New("please enter Y or N")
		}
		return nil
	})
	return b, err
}
