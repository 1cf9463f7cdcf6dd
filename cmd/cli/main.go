// Command tm is a CLI client for the task manager API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/task-manager/internal/convert"
	"github.com/and161185/task-manager/internal/model"
)

// ---- config/token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "taskmanager")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "taskmanager")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tok string, exp time.Time) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(tokenPath(), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{AccessToken: tok, ExpiresAt: exp})
}

func loadToken() (string, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return "", errors.New("no valid token (login required)")
	}
	return tf.AccessToken, nil
}

func clearToken() error {
	err := os.Remove(tokenPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// tokenExpiry reads exp without verifying the signature; the server does that.
func tokenExpiry(tok string) time.Time {
	var claims jwt.RegisteredClaims
	_, _, err := jwt.NewParser().ParseUnverified(tok, &claims)
	if err != nil || claims.ExpiresAt == nil {
		return time.Now().Add(15 * time.Minute)
	}
	return claims.ExpiresAt.Time
}

// ---- utils ----

func readAll(p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(p)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// taskInput validates flags locally so typos fail before a round trip.
func taskInput(title, desc, descFile, status string) (convert.TaskRequest, error) {
	if descFile != "" {
		b, err := readAll(descFile)
		if err != nil {
			return convert.TaskRequest{}, err
		}
		desc = strings.TrimRight(string(b), "\n")
	}
	if _, err := model.ParseTaskStatus(status); err != nil {
		return convert.TaskRequest{}, err
	}
	return convert.TaskRequest{Title: &title, Description: &desc, Status: &status}, nil
}

func taskID(raw string) (string, error) {
	id, err := uuid.FromString(raw)
	if err != nil {
		return "", fmt.Errorf("bad -id %q: %w", raw, err)
	}
	return id.String(), nil
}

func usage() {
	fmt.Fprintf(os.Stderr, `tm CLI
Usage:
  tm -addr HOST:PORT [-cacert file | -insecure] <cmd> [args]

Commands:
  version
  register   -u <username> -p <password>
  login      -u <username> -p <password>           (saves token)
  logout                                          (removes saved token)
  list
  get        -id <uuid>
  add        -title <t> [-desc <d> | -desc-file <f>] [-status <s>]
  edit       -id <uuid> -title <t> [-desc <d> | -desc-file <f>] -status <s>
  rm         -id <uuid>

Statuses: "Pending", "In Progress", "Completed"
`)
	os.Exit(2)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands and configures TLS/auth for API calls.
func main() {
	// global flags
	addr := flag.String("addr", "localhost:8000", "server addr or base URL")
	caPath := flag.String("cacert", "", "CA cert (PEM)")
	insecure := flag.Bool("insecure", false, "skip cert verify (dev)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	anon := func() *apiClient {
		c, err := newAPIClient(*addr, *caPath, *insecure, "")
		if err != nil {
			fail(err)
		}
		return c
	}
	authed := func() *apiClient {
		token, err := loadToken()
		if err != nil {
			fail(err)
		}
		c, err := newAPIClient(*addr, *caPath, *insecure, token)
		if err != nil {
			fail(err)
		}
		return c
	}

	switch cmd {

	case "version":
		fmt.Printf("tm %s (%s)\n", version, buildDate)

	case "register", "login":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		u := fs.String("u", "", "username")
		p := fs.String("p", "", "password")
		_ = fs.Parse(args)
		if *u == "" || *p == "" {
			fmt.Fprintln(os.Stderr, "need -u and -p")
			os.Exit(1)
		}

		if cmd == "register" {
			out, err := anon().register(ctx, *u, *p)
			if err != nil {
				fail(err)
			}
			printJSON(out)
			break
		}

		out, err := anon().login(ctx, *u, *p)
		if err != nil {
			fail(err)
		}
		if err := saveToken(out.AccessToken, tokenExpiry(out.AccessToken)); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	case "logout":
		if err := clearToken(); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	case "list":
		out, err := authed().listTasks(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "get", "rm":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		raw := fs.String("id", "", "task id (uuid)")
		_ = fs.Parse(args)
		id, err := taskID(*raw)
		if err != nil {
			fail(err)
		}

		if cmd == "get" {
			out, err := authed().getTask(ctx, id)
			if err != nil {
				fail(err)
			}
			printJSON(out)
			break
		}
		out, err := authed().deleteTask(ctx, id)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "add":
		fs := flag.NewFlagSet("add", flag.ExitOnError)
		title := fs.String("title", "", "task title")
		desc := fs.String("desc", "", "task description")
		descFile := fs.String("desc-file", "", "read description from file ('-'=stdin)")
		status := fs.String("status", string(model.StatusPending), "task status")
		_ = fs.Parse(args)
		if *title == "" {
			fmt.Fprintln(os.Stderr, "need -title")
			os.Exit(1)
		}

		in, err := taskInput(*title, *desc, *descFile, *status)
		if err != nil {
			fail(err)
		}
		out, err := authed().createTask(ctx, in)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "edit":
		fs := flag.NewFlagSet("edit", flag.ExitOnError)
		raw := fs.String("id", "", "task id (uuid)")
		title := fs.String("title", "", "task title")
		desc := fs.String("desc", "", "task description")
		descFile := fs.String("desc-file", "", "read description from file ('-'=stdin)")
		status := fs.String("status", "", "task status")
		_ = fs.Parse(args)
		if *raw == "" || *title == "" || *status == "" {
			fmt.Fprintln(os.Stderr, "need -id -title -status (edit replaces the whole task)")
			os.Exit(1)
		}

		id, err := taskID(*raw)
		if err != nil {
			fail(err)
		}
		in, err := taskInput(*title, *desc, *descFile, *status)
		if err != nil {
			fail(err)
		}
		out, err := authed().replaceTask(ctx, id, in)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	default:
		usage()
	}
}

// ---- helpers ----

func fail(err error) {
	var ae *apiError
	if errors.As(err, &ae) {
		fmt.Fprintf(os.Stderr, "api error: status=%d detail=%s\n", ae.Status, ae.Detail)
		if ae.Status == 401 {
			fmt.Fprintln(os.Stderr, "hint: run `tm login` again")
		}
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
