package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/orionwm/orion/internal/ipc"
	"github.com/orionwm/orion/internal/runtimepath"
)

// selectorFlags collects repeated -s kind[=key] flags.
type selectorFlags []ipc.Selector

func (s *selectorFlags) String() string {
	parts := make([]string, 0, len(*s))
	for _, sel := range *s {
		parts = append(parts, sel.String())
	}
	return strings.Join(parts, " ")
}

func (s *selectorFlags) Set(v string) error {
	sel, err := parseSelector(v)
	if err != nil {
		return err
	}
	*s = append(*s, sel)
	return nil
}

// parseSelector reads "kind" or "kind=key". Screen, window and layout keys
// are integers; window ids may be written in hex.
func parseSelector(v string) (ipc.Selector, error) {
	kind, key, hasKey := strings.Cut(v, "=")
	switch kind {
	case ipc.KindScreen, ipc.KindGroup, ipc.KindWindow, ipc.KindLayout, ipc.KindBar:
	default:
		return ipc.Selector{}, fmt.Errorf("unknown selector kind %q", kind)
	}
	sel := ipc.Selector{Kind: kind}
	if !hasKey {
		return sel, nil
	}
	switch kind {
	case ipc.KindGroup, ipc.KindBar:
		sel.Key = key
	default:
		n, err := strconv.ParseInt(key, 0, 64)
		if err != nil {
			return ipc.Selector{}, fmt.Errorf("%s key %q is not an integer", kind, key)
		}
		sel.Key = n
	}
	return sel, nil
}

// parseArg reads a JSON literal when it is one, else takes the text as a
// string, so `orion cmd spawn xterm` and `orion cmd to_screen 1` both work.
func parseArg(s string) any {
	var v any
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil || dec.More() {
		return s
	}
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
		f, _ := n.Float64()
		return f
	}
	return v
}

type clientFlags struct {
	socket  *string
	display *string
	prefix  *string
	timeout *time.Duration
}

func addClientFlags(fs *flag.FlagSet) clientFlags {
	return clientFlags{
		socket:  fs.String("socket", "", "Control socket path (default: derived from display)"),
		display: fs.String("display", "", "Display of the window manager (default: $DISPLAY)"),
		prefix:  fs.String("prefix", runtimepath.DefaultPrefix, "Control socket prefix"),
		timeout: fs.Duration("timeout", 0, "Request timeout (default: server timeout plus one second)"),
	}
}

func (f clientFlags) dial() (*ipc.Client, error) {
	path := *f.socket
	if path == "" {
		var err error
		path, err = runtimepath.SocketPath(*f.prefix, *f.display)
		if err != nil {
			return nil, err
		}
	}
	return ipc.Dial(path, *f.timeout)
}

func runCmd(args []string) int {
	fs := flag.NewFlagSet("cmd", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var selectors selectorFlags
	fs.Var(&selectors, "s", "Selector kind[=key]; repeat to walk the object graph")
	cf := addClientFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: orion cmd [-s kind[=key]]... <name> [args...]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Examples:")
		fmt.Fprintln(os.Stderr, "  orion cmd windows")
		fmt.Fprintln(os.Stderr, "  orion cmd -s group=b toscreen")
		fmt.Fprintln(os.Stderr, "  orion cmd -s window togroup c")
		fmt.Fprintln(os.Stderr, "  orion cmd -s group -s layout grow")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "cmd requires a command name")
		fs.Usage()
		return 2
	}

	req := &ipc.Request{Selectors: selectors, Name: fs.Arg(0)}
	for _, a := range fs.Args()[1:] {
		req.Args = append(req.Args, parseArg(a))
	}

	client, err := cf.dial()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer client.Close()

	resp, err := client.Call(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return printResponse(os.Stdout, os.Stderr, resp, isTerminal(os.Stdout))
}

// printResponse writes the reply data to out and failures to errOut and
// returns the exit code.
func printResponse(out, errOut io.Writer, resp *ipc.Response, indent bool) int {
	switch resp.Status {
	case ipc.StatusSuccess:
	case ipc.StatusException:
		fmt.Fprintf(errOut, "exception:\n%s\n", resp.Error)
		return 1
	default:
		fmt.Fprintf(errOut, "error: %s\n", resp.Error)
		return 1
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return 0
	}
	data := []byte(resp.Data)
	if indent {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err == nil {
			data = buf.Bytes()
		}
	}
	fmt.Fprintln(out, string(data))
	return 0
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	cf := addClientFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: orion status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Check that the window manager answers on its control socket.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client, err := cf.dial()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer client.Close()

	resp, err := client.Command(nil, "status")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if resp.Status != ipc.StatusSuccess {
		return printResponse(os.Stdout, os.Stderr, resp, false)
	}

	var info struct {
		Groups        []string         `json:"groups"`
		Windows       []uint32         `json:"windows"`
		Screens       []map[string]any `json:"screens"`
		CurrentScreen *int             `json:"current_screen"`
	}
	resp, err = client.Command(nil, "info")
	if err == nil && resp.Status == ipc.StatusSuccess {
		err = resp.Decode(&info)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("running:        true\n")
	fmt.Printf("screens:        %d\n", len(info.Screens))
	if info.CurrentScreen != nil {
		fmt.Printf("current_screen: %d\n", *info.CurrentScreen)
	}
	fmt.Printf("groups:         %s\n", strings.Join(info.Groups, ", "))
	fmt.Printf("windows:        %d\n", len(info.Windows))
	return 0
}
