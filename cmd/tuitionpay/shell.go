package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-faster/errors"

	"github.com/ibanking/tuitionpay/pkg/core"
	"github.com/ibanking/tuitionpay/pkg/i18n"
	"github.com/ibanking/tuitionpay/pkg/workflow"
)

const help = `Commands:
  id <student id>       edit the student id, looked up after the quiet period
  lookup [student id]   look up immediately
  agree | disagree      accept or decline the terms
  submit                start the payment and request an OTP
  show                  print the current state
  logout                end the session
  quit                  exit`

type authenticator interface {
	Login(ctx context.Context, username, password string) error
}

type subjecter interface {
	Subject() string
}

// shell reads commands line by line and prints every workflow snapshot.
type shell struct {
	lines    chan string
	out      io.Writer
	lang     string
	accounts authenticator
	session  subjecter
	ctl      *workflow.Controller

	mu sync.Mutex
}

func newShell(in io.Reader, out io.Writer, lang string, accounts authenticator, session subjecter) *shell {
	s := &shell{
		lines:    make(chan string),
		out:      out,
		lang:     lang,
		accounts: accounts,
		session:  session,
	}
	go func() {
		defer close(s.lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			s.lines <- sc.Text()
		}
	}()
	return s
}

// run logs in and executes commands until quit, end of input or ctx is done.
// After logout it asks for credentials again.
func (s *shell) run(ctx context.Context, username, password string) error {
	for {
		if !s.login(ctx, username, password) {
			return nil
		}
		username, password = "", ""
		if !s.loop(ctx) {
			return nil
		}
	}
}

func (s *shell) login(ctx context.Context, username, password string) bool {
	for {
		var ok bool
		if username == "" {
			if username, ok = s.ask(ctx, "Username: "); !ok {
				return false
			}
		}
		if password == "" {
			if password, ok = s.ask(ctx, "Password: "); !ok {
				return false
			}
		}
		err := s.accounts.Login(ctx, username, password)
		if err == nil {
			break
		}
		s.println(i18n.T(s.lang, i18n.C{
			MessageID:    "LoginFailed",
			TemplateData: i18n.Template{"Reason": reason(err)},
		}))
		username, password = "", ""
	}
	if sub := s.session.Subject(); sub != "" {
		s.println("Signed in as " + sub)
	}
	if err := s.ctl.Mount(ctx); err != nil {
		// the snapshot with the failure message has been printed already
		return s.waitLogout(ctx)
	}
	s.println(help)
	return true
}

// waitLogout keeps the failed session until the user logs out or quits.
func (s *shell) waitLogout(ctx context.Context) bool {
	for {
		line, ok := s.ask(ctx, "> ")
		if !ok {
			return false
		}
		switch strings.TrimSpace(line) {
		case "logout":
			s.ctl.Logout()
			return s.login(ctx, "", "")
		case "quit", "exit":
			return false
		default:
			s.println("Please logout and sign in again.")
		}
	}
}

// loop reports whether the user logged out (true) or quit (false).
func (s *shell) loop(ctx context.Context) bool {
	for {
		line, ok := s.ask(ctx, "> ")
		if !ok {
			return false
		}
		switch s.exec(ctx, line) {
		case actionLogout:
			return true
		case actionQuit:
			return false
		}
	}
}

type action int

const (
	actionNone action = iota
	actionLogout
	actionQuit
)

func (s *shell) exec(ctx context.Context, line string) action {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "":
	case "id":
		s.check(s.ctl.ChangeStudentID(arg))
	case "lookup":
		if arg == "" {
			arg = s.ctl.Snapshot().StudentID
		}
		s.check(s.ctl.LookupNow(arg))
	case "agree":
		s.ctl.SetConsent(true)
	case "disagree":
		s.ctl.SetConsent(false)
	case "submit":
		// failures are reported through the snapshot message
		_, _ = s.ctl.SubmitPayment(ctx)
	case "show":
		s.render(s.ctl.Snapshot())
	case "help":
		s.println(help)
	case "logout":
		s.ctl.Logout()
		return actionLogout
	case "quit", "exit":
		return actionQuit
	default:
		s.println(fmt.Sprintf("unknown command %q, type help", cmd))
	}
	return actionNone
}

// check prints rejections that did not produce a snapshot message.
func (s *shell) check(err error) {
	if err == nil || !errors.Is(err, workflow.ErrRejected) {
		return
	}
	s.println(reason(err))
}

func (s *shell) ask(ctx context.Context, prompt string) (string, bool) {
	s.print(prompt)
	select {
	case line, ok := <-s.lines:
		return strings.TrimSpace(line), ok
	case <-ctx.Done():
		return "", false
	}
}

func (s *shell) render(snap workflow.Snapshot) {
	var b strings.Builder
	fmt.Fprintf(&b, "\n[%s]\n", snap.State.Kind())
	if p := snap.Profile; p != nil {
		fmt.Fprintf(&b, "Payer:    %s | %s | %s\n", p.FullName, p.PhoneNumber, p.Email)
		fmt.Fprintf(&b, "Balance:  %s\n", i18n.FormatAmount(p.Balance))
	}
	if snap.StudentID != "" {
		fmt.Fprintf(&b, "Student:  %s\n", snap.StudentID)
	}
	if bill := snap.Bill; bill != nil {
		fmt.Fprintf(&b, "Name:     %s\n", bill.StudentName())
		fmt.Fprintf(&b, "Due:      %s", i18n.FormatAmount(bill.AmountDue))
		if bill.TermNo != nil {
			fmt.Fprintf(&b, " (term %d)", *bill.TermNo)
		}
		if bill.Status != "" {
			fmt.Fprintf(&b, " %s", bill.Status)
		}
		b.WriteString("\n")
		if snap.Consent {
			b.WriteString("Terms:    accepted\n")
		} else {
			b.WriteString("Terms:    not accepted\n")
		}
	}
	if snap.Message != "" {
		fmt.Fprintf(&b, "! %s\n", snap.Message)
	}
	s.print(b.String())
}

func (s *shell) println(line string) {
	s.print(line + "\n")
}

func (s *shell) print(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.out, text)
}

func reason(err error) string {
	if r := core.ReasonOf(err); r != "" {
		return r
	}
	return err.Error()
}
